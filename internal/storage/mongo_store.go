package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/slug"
)

const siteCollection = "site_configs"

// mongoSite is the stored document: one per restaurant, keyed by restaurant id.
type mongoSite struct {
	RestaurantID string              `bson:"_id"`
	Slug         string              `bson:"slug"`
	SlugLower    string              `bson:"slugLower,omitempty"`
	ThemeColor   string              `bson:"themeColor"`
	GlobalStyles domain.GlobalStyles `bson:"globalStyles"`
	Layout       domain.Layout       `bson:"layout"`
	UpdatedAt    time.Time           `bson:"updatedAt"`
}

// MongoStore persists each site configuration as a single document, so every
// save is an atomic document replace.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *zap.Logger
	now    func() time.Time
}

var _ domain.SiteStore = (*MongoStore)(nil)

// OpenMongo connects, verifies the connection, and ensures the slug index.
// dbName falls back to the database in the URI path, then "storefront".
func OpenMongo(ctx context.Context, uri, dbName string, logger *zap.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dbName == "" {
		dbName = databaseFromURI(uri)
	}
	logger.Info("connecting to mongo", zap.String("database", dbName))

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &MongoStore{
		client: client,
		coll:   client.Database(dbName).Collection(siteCollection),
		logger: logger,
		now:    time.Now,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "slugLower", Value: 1}},
		Options: options.Index().
			SetName("slug_lower_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.D{{Key: "slugLower", Value: bson.D{{Key: "$exists", Value: true}}}}),
	})
	if err != nil {
		return fmt.Errorf("create slug index: %w", err)
	}
	return nil
}

// databaseFromURI extracts the path segment of user:pass@host/DB?params.
func databaseFromURI(uri string) string {
	rest := uri
	for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
		if strings.HasPrefix(rest, prefix) {
			rest = rest[len(prefix):]
			break
		}
	}
	if at := strings.LastIndex(rest, "@"); at != -1 {
		rest = rest[at+1:]
	}
	if slash := strings.Index(rest, "/"); slash != -1 {
		path := rest[slash+1:]
		if q := strings.Index(path, "?"); q != -1 {
			path = path[:q]
		}
		if path != "" {
			return path
		}
	}
	return "storefront"
}

func (s *MongoStore) LoadBySlug(ctx context.Context, slugValue string) (*domain.SiteConfiguration, error) {
	return s.findOne(ctx, bson.D{{Key: "slugLower", Value: slug.Key(slugValue)}})
}

func (s *MongoStore) LoadByRestaurant(ctx context.Context, restaurantID string) (*domain.SiteConfiguration, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: restaurantID}})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.D) (*domain.SiteConfiguration, error) {
	var doc mongoSite
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSiteNotFound
		}
		return nil, fmt.Errorf("load site: %w", err)
	}
	return fromMongo(doc), nil
}

// Save reads the current document, applies u, and replaces the document. The
// unique slug index rejects a concurrent writer that claims the same slug.
func (s *MongoStore) Save(ctx context.Context, restaurantID string, u domain.SiteUpdate) (*domain.SiteConfiguration, error) {
	cfg, err := s.LoadByRestaurant(ctx, restaurantID)
	switch {
	case errors.Is(err, domain.ErrSiteNotFound):
		cfg = &domain.SiteConfiguration{RestaurantID: restaurantID, Layout: domain.Layout{}}
	case err != nil:
		return nil, err
	}
	u.Apply(cfg)
	cfg.RestaurantID = restaurantID
	cfg.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)

	if cfg.Slug != "" {
		ok, err := s.CheckSlugAvailable(ctx, cfg.Slug, restaurantID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrSlugTaken, cfg.Slug)
		}
	}

	_, err = s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: restaurantID}},
		toMongo(cfg),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %q", domain.ErrSlugTaken, cfg.Slug)
		}
		return nil, fmt.Errorf("write site: %w", err)
	}

	s.logger.Debug("site saved",
		zap.String("restaurant_id", restaurantID),
		zap.String("slug", cfg.Slug))
	return cfg, nil
}

func (s *MongoStore) CheckSlugAvailable(ctx context.Context, slugValue, excludingRestaurantID string) (bool, error) {
	var doc struct {
		RestaurantID string `bson:"_id"`
	}
	err := s.coll.FindOne(ctx,
		bson.D{{Key: "slugLower", Value: slug.Key(slugValue)}},
		options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}}),
	).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return true, nil
	case err != nil:
		return false, fmt.Errorf("check slug: %w", err)
	}
	return doc.RestaurantID == excludingRestaurantID, nil
}

func (s *MongoStore) ListSlugs(ctx context.Context) ([]domain.SlugOwner, error) {
	cur, err := s.coll.Find(ctx,
		bson.D{{Key: "slugLower", Value: bson.D{{Key: "$exists", Value: true}}}},
		options.Find().
			SetProjection(bson.D{{Key: "_id", Value: 1}, {Key: "slug", Value: 1}}).
			SetSort(bson.D{{Key: "slugLower", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list slugs: %w", err)
	}
	var docs []struct {
		RestaurantID string `bson:"_id"`
		Slug         string `bson:"slug"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode slugs: %w", err)
	}
	out := make([]domain.SlugOwner, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.SlugOwner{Slug: d.Slug, RestaurantID: d.RestaurantID})
	}
	return out, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func toMongo(cfg *domain.SiteConfiguration) mongoSite {
	doc := mongoSite{
		RestaurantID: cfg.RestaurantID,
		Slug:         cfg.Slug,
		ThemeColor:   cfg.ThemeColor,
		GlobalStyles: cfg.GlobalStyles,
		Layout:       cfg.Layout,
		UpdatedAt:    cfg.UpdatedAt,
	}
	if cfg.Slug != "" {
		doc.SlugLower = slug.Key(cfg.Slug)
	}
	if doc.Layout == nil {
		doc.Layout = domain.Layout{}
	}
	return doc
}

func fromMongo(doc mongoSite) *domain.SiteConfiguration {
	cfg := &domain.SiteConfiguration{
		RestaurantID: doc.RestaurantID,
		Slug:         doc.Slug,
		ThemeColor:   doc.ThemeColor,
		GlobalStyles: doc.GlobalStyles,
		Layout:       make(domain.Layout, len(doc.Layout)),
		UpdatedAt:    doc.UpdatedAt,
	}
	for i, b := range doc.Layout {
		if b.Props != nil {
			b.Props = domain.Props(normalizeDoc(map[string]any(b.Props)))
		}
		cfg.Layout[i] = b
	}
	return cfg
}

// normalizeDoc converts the driver's bson.D / bson.M / bson.A values into
// plain maps and slices so props look the same whichever backend loaded them.
func normalizeDoc(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	case bson.M:
		return normalizeDoc(t)
	case map[string]any:
		return normalizeDoc(t)
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case int32:
		return int(t)
	case int64:
		return int(t)
	default:
		return v
	}
}
