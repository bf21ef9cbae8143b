package mcpserver

import (
	"encoding/json"
	"fmt"

	"storefront/internal/domain"
)

// parseJSON parses a JSON string into the target type.
func parseJSON(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

// parseProps decodes a JSON object argument into block props.
func parseProps(data string) (domain.Props, error) {
	var p domain.Props
	if err := parseJSON(data, &p); err != nil {
		return nil, fmt.Errorf("props must be a JSON object: %w", err)
	}
	return p, nil
}

// layoutView is what the editing tools return after every change.
type layoutView struct {
	RestaurantID string           `json:"restaurantId"`
	Slug         string           `json:"slug"`
	Dirty        bool             `json:"dirty"`
	Viewport     domain.Viewport  `json:"viewport,omitempty"`
	Blocks       []blockSummary   `json:"blocks"`
	Nav          []domain.NavLink `json:"nav"`
}

type blockSummary struct {
	ID       string           `json:"id"`
	Type     domain.BlockType `json:"type"`
	IsActive bool             `json:"isActive"`
	Props    domain.Props     `json:"props,omitempty"`
}

func summarizeLayout(cfg *domain.SiteConfiguration, links []domain.NavLink, withProps bool) layoutView {
	v := layoutView{
		RestaurantID: cfg.RestaurantID,
		Slug:         cfg.Slug,
		Blocks:       make([]blockSummary, len(cfg.Layout)),
		Nav:          links,
	}
	for i, b := range cfg.Layout {
		v.Blocks[i] = blockSummary{ID: b.ID, Type: b.Type, IsActive: b.IsActive}
		if withProps {
			v.Blocks[i].Props = b.Props
		}
	}
	return v
}
