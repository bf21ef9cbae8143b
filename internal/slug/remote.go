package slug

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// RemoteConfig configures the HTTP slug authority.
type RemoteConfig struct {
	BaseURL string
	Timeout time.Duration
	Retries int
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

type generateRequest struct {
	Name string `json:"name"`
}

type generateResponse struct {
	Slug string `json:"slug"`
}

// RemoteAuthority calls the backend's slug endpoints.
type RemoteAuthority struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewRemoteAuthority creates a RemoteAuthority.
func NewRemoteAuthority(cfg RemoteConfig, logger *zap.Logger) *RemoteAuthority {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &RemoteAuthority{httpClient: client, logger: logger}
}

func (a *RemoteAuthority) CheckSlugAvailable(ctx context.Context, slug, excludingRestaurantID string) (bool, error) {
	var out availabilityResponse
	req := a.httpClient.R().
		SetContext(ctx).
		SetQueryParam("slug", slug).
		SetResult(&out)
	if excludingRestaurantID != "" {
		req.SetQueryParam("excludingRestaurantId", excludingRestaurantID)
	}

	resp, err := req.Get("/slugs/availability")
	if err != nil {
		return false, fmt.Errorf("check slug availability: %w", err)
	}
	if resp.IsError() {
		a.logger.Error("slug availability endpoint returned error",
			zap.String("slug", slug),
			zap.Int("status_code", resp.StatusCode()),
		)
		return false, fmt.Errorf("check slug availability: status %d", resp.StatusCode())
	}
	return out.Available, nil
}

func (a *RemoteAuthority) GenerateSlug(ctx context.Context, name string) (string, error) {
	var out generateResponse
	resp, err := a.httpClient.R().
		SetContext(ctx).
		SetBody(generateRequest{Name: name}).
		SetResult(&out).
		Post("/slugs/generate")
	if err != nil {
		return "", fmt.Errorf("generate slug: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("generate slug: status %d", resp.StatusCode())
	}
	return out.Slug, nil
}
