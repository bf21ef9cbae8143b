package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/slug"
)

const (
	slugKeyPrefix  = "storefront:slug:"
	ownerKeyPrefix = "storefront:owner:"
)

// ErrMiss reports a slug the index knows nothing about.
var ErrMiss = errors.New("slug index miss")

func slugKey(s string) string { return slugKeyPrefix + slug.Key(s) }
func ownerKey(restaurantID string) string { return ownerKeyPrefix + restaurantID }

// SlugIndex is a Redis map from lower-cased slug to owning restaurant. It is a
// cache in front of the store: a miss means "ask the store", never "free".
type SlugIndex struct {
	rdb *redis.Client
}

func NewSlugIndex(rdb *redis.Client) *SlugIndex {
	return &SlugIndex{rdb: rdb}
}

// Owner returns the restaurant holding s.
func (x *SlugIndex) Owner(ctx context.Context, s string) (string, error) {
	id, err := x.rdb.Get(ctx, slugKey(s)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", err
	}
	return id, nil
}

// Put records that restaurantID now holds s, releasing its previous slug.
func (x *SlugIndex) Put(ctx context.Context, restaurantID, s string) error {
	prev, err := x.rdb.Get(ctx, ownerKey(restaurantID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	_, err = x.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if prev != "" && prev != slug.Key(s) {
			pipe.Del(ctx, slugKeyPrefix+prev)
		}
		if s == "" {
			pipe.Del(ctx, ownerKey(restaurantID))
			return nil
		}
		pipe.Set(ctx, slugKey(s), restaurantID, 0)
		pipe.Set(ctx, ownerKey(restaurantID), slug.Key(s), 0)
		return nil
	})
	return err
}

// Rebuild replaces the index contents with owners and drops stale entries.
func (x *SlugIndex) Rebuild(ctx context.Context, owners []domain.SlugOwner) (int, error) {
	keep := make(map[string]struct{}, len(owners)*2)
	if len(owners) > 0 {
		_, err := x.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, o := range owners {
				sk, ok := slugKey(o.Slug), ownerKey(o.RestaurantID)
				keep[sk], keep[ok] = struct{}{}, struct{}{}
				pipe.Set(ctx, sk, o.RestaurantID, 0)
				pipe.Set(ctx, ok, slug.Key(o.Slug), 0)
			}
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("write slug index: %w", err)
		}
	}

	var stale []string
	for _, pattern := range []string{slugKeyPrefix + "*", ownerKeyPrefix + "*"} {
		iter := x.rdb.Scan(ctx, 0, pattern, 200).Iterator()
		for iter.Next(ctx) {
			if _, ok := keep[iter.Val()]; !ok {
				stale = append(stale, iter.Val())
			}
		}
		if err := iter.Err(); err != nil {
			return 0, fmt.Errorf("scan slug index: %w", err)
		}
	}
	if len(stale) > 0 {
		if err := x.rdb.Del(ctx, stale...).Err(); err != nil {
			return 0, fmt.Errorf("drop stale slugs: %w", err)
		}
	}
	return len(owners), nil
}

// IndexedStore decorates a SiteStore with a Redis slug index. Availability
// checks answer from the index when it has the slug and fall through to the
// store otherwise; saves keep the index current. Redis failures never fail a
// request, they only cost a store round trip.
type IndexedStore struct {
	domain.SiteStore
	index  *SlugIndex
	logger *zap.Logger
}

var _ domain.SiteStore = (*IndexedStore)(nil)

func NewIndexedStore(store domain.SiteStore, index *SlugIndex, logger *zap.Logger) *IndexedStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexedStore{SiteStore: store, index: index, logger: logger}
}

func (s *IndexedStore) CheckSlugAvailable(ctx context.Context, slugValue, excludingRestaurantID string) (bool, error) {
	owner, err := s.index.Owner(ctx, slugValue)
	switch {
	case err == nil:
		return owner == excludingRestaurantID, nil
	case !errors.Is(err, ErrMiss):
		s.logger.Warn("slug index lookup failed", zap.String("slug", slugValue), zap.Error(err))
	}
	return s.SiteStore.CheckSlugAvailable(ctx, slugValue, excludingRestaurantID)
}

func (s *IndexedStore) Save(ctx context.Context, restaurantID string, u domain.SiteUpdate) (*domain.SiteConfiguration, error) {
	cfg, err := s.SiteStore.Save(ctx, restaurantID, u)
	if err != nil {
		return nil, err
	}
	if err := s.index.Put(ctx, restaurantID, cfg.Slug); err != nil {
		s.logger.Warn("slug index update failed",
			zap.String("restaurant_id", restaurantID),
			zap.String("slug", cfg.Slug),
			zap.Error(err))
	}
	return cfg, nil
}

// Reconcile rebuilds the index from the store.
func (s *IndexedStore) Reconcile(ctx context.Context) (int, error) {
	owners, err := s.SiteStore.ListSlugs(ctx)
	if err != nil {
		return 0, err
	}
	return s.index.Rebuild(ctx, owners)
}

// Close closes the wrapped store. The Redis client is owned by the caller.
func (s *IndexedStore) Close() error {
	return s.SiteStore.Close()
}
