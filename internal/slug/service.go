package slug

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

// Authority is the trusted source for slug availability and generation.
type Authority interface {
	CheckSlugAvailable(ctx context.Context, slug, excludingRestaurantID string) (bool, error)
	GenerateSlug(ctx context.Context, name string) (string, error)
}

// maxSuffix bounds the "-2", "-3", ... candidates tried by Unique.
const maxSuffix = 50

// Service exposes slug operations to editing sessions.
type Service struct {
	authority Authority
	logger    *zap.Logger
}

// NewService creates a Service. A nil authority makes every availability check
// fail closed and every generation local.
func NewService(authority Authority, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{authority: authority, logger: logger}
}

// IsAvailable reports whether slug may be saved for excludingRestaurantID.
// Unknown availability (transport failure, invalid slug, no authority) is
// reported as unavailable.
func (s *Service) IsAvailable(ctx context.Context, slug, excludingRestaurantID string) bool {
	key := Key(slug)
	if err := Validate(key); err != nil {
		return false
	}
	if s.authority == nil {
		return false
	}
	ok, err := s.authority.CheckSlugAvailable(ctx, key, excludingRestaurantID)
	if err != nil {
		s.logger.Warn("slug availability check failed; treating as unavailable",
			zap.String("slug", key),
			zap.Error(err),
		)
		return false
	}
	return ok
}

// Generate derives a slug from name, preferring the authority and falling back
// to Normalize when it cannot be reached. The result is cut to MaxLength so it
// always passes Validate.
func (s *Service) Generate(ctx context.Context, name string) string {
	if name == "" {
		return ""
	}
	if s.authority != nil {
		out, err := s.authority.GenerateSlug(ctx, name)
		if err == nil {
			return Fit(out, MaxLength)
		}
		s.logger.Warn("slug authority unreachable; generating locally",
			zap.String("name", name),
			zap.Error(err),
		)
	}
	return Fit(Normalize(name), MaxLength)
}

// Unique generates a slug for name and, if it is taken, tries numbered
// variants ("name-2", "name-3", ...) until one is available. The base is
// shortened where needed so that every variant fits MaxLength.
func (s *Service) Unique(ctx context.Context, name, excludingRestaurantID string) (string, error) {
	base := s.Generate(ctx, name)
	if base == "" {
		return "", fmt.Errorf("%w: name %q yields an empty slug", domain.ErrSlugInvalid, name)
	}
	if s.IsAvailable(ctx, base, excludingRestaurantID) {
		return base, nil
	}
	for n := 2; n <= maxSuffix; n++ {
		suffix := fmt.Sprintf("-%d", n)
		candidate := Fit(base, MaxLength-len(suffix)) + suffix
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if s.IsAvailable(ctx, candidate, excludingRestaurantID) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no free variant of %q", domain.ErrSlugUnavailable, base)
}

// StoreAuthority answers from a SiteStore directly. Generation is the local
// algorithm, which is what the server runs.
type StoreAuthority struct {
	Store domain.SiteStore
}

func (a StoreAuthority) CheckSlugAvailable(ctx context.Context, slug, excludingRestaurantID string) (bool, error) {
	return a.Store.CheckSlugAvailable(ctx, Key(slug), excludingRestaurantID)
}

func (a StoreAuthority) GenerateSlug(_ context.Context, name string) (string, error) {
	return Normalize(name), nil
}
