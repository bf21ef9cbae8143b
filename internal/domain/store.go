package domain

import "context"

// SiteStore is the core's view of persistence: an opaque document store keyed
// by restaurant identity. A single Save is atomic; concurrent saves for the
// same restaurant are last-write-wins.
type SiteStore interface {
	// LoadBySlug returns ErrSiteNotFound when no configuration holds slug.
	// Slug comparison is case-insensitive.
	LoadBySlug(ctx context.Context, slug string) (*SiteConfiguration, error)
	LoadByRestaurant(ctx context.Context, restaurantID string) (*SiteConfiguration, error)
	// Save applies u to the stored configuration, creating it when absent, and
	// returns the persisted result. ErrSlugTaken is returned when the new slug
	// belongs to another restaurant.
	Save(ctx context.Context, restaurantID string, u SiteUpdate) (*SiteConfiguration, error)
	CheckSlugAvailable(ctx context.Context, slug, excludingRestaurantID string) (bool, error)
	ListSlugs(ctx context.Context) ([]SlugOwner, error)
	Close() error
}
