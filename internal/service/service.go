// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package service turns store rows into the payloads the map consumes and
// caches them. Store failures never reach callers: they are logged and an
// empty payload is returned in their place.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"newsmap/internal/cache"
	"newsmap/internal/geo"
	"newsmap/internal/metrics"
	"newsmap/pkg/models"
)

// Cache tags. Every cached payload belongs to exactly one.
const (
	TagLocations = "locations"
	TagArticles  = "articles"
	TagRelations = "relations"
)

// AllTags lists every tag the service writes.
var AllTags = []string{TagLocations, TagArticles, TagRelations}

const (
	// DefaultPageSize is the article page size when the caller gives none.
	DefaultPageSize = 20

	// MaxPageSize caps a requested article page size.
	MaxPageSize = 100

	// AllArticles as a page size returns every article for a place.
	AllArticles = 0

	featureCollectionKey = "locations:features"
	recentKey            = "locations:recent"
)

// LocationReader reads aggregated location statistics.
type LocationReader interface {
	Stats(ctx context.Context, recentDays int) ([]models.LocationStat, error)
	Recent(ctx context.Context, recentDays int) ([]models.RecentLocationStat, error)
}

// RelationReader reads relations and the articles behind them.
type RelationReader interface {
	ArticlesForPlace(ctx context.Context, placeID string, limit, offset int) ([]models.ArticleMention, error)
	ByArticle(ctx context.Context, articleUUID string) ([]models.LocationArticleRelation, error)
}

// Options tunes a Service. Zero values select defaults.
type Options struct {
	Palette         geo.Palette
	RecentDays      int
	RecentLimit     int
	PageSize        int
	UpstreamTimeout time.Duration
}

// Service serves map payloads from the store through the response cache.
type Service struct {
	locations LocationReader
	relations RelationReader
	cache     *cache.ResponseCache
	opts      Options
	now       func() time.Time
}

// New creates a Service.
func New(locations LocationReader, relations RelationReader, rc *cache.ResponseCache, opts Options) *Service {
	if opts.Palette == (geo.Palette{}) {
		opts.Palette = geo.DefaultPalette()
	}
	if opts.RecentDays <= 0 {
		opts.RecentDays = 7
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = geo.DefaultRecentLimit
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.UpstreamTimeout <= 0 {
		opts.UpstreamTimeout = 15 * time.Second
	}
	return &Service{
		locations: locations,
		relations: relations,
		cache:     rc,
		opts:      opts,
		now:       time.Now,
	}
}

// PageSize returns the default article page size.
func (s *Service) PageSize() int {
	return s.opts.PageSize
}

// FeatureCollection returns every geocoded place as a weighted map point.
func (s *Service) FeatureCollection(ctx context.Context) models.FeatureCollection {
	fc, err := cache.FetchJSON(ctx, s.cache, featureCollectionKey, TagLocations, s.loadFeatureCollection)
	if err != nil {
		s.upstreamFailed("feature_collection", err)
		return models.EmptyFeatureCollection()
	}
	if fc.Features == nil {
		fc.Features = []models.Feature{}
	}
	return fc
}

func (s *Service) loadFeatureCollection(ctx context.Context) (models.FeatureCollection, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.UpstreamTimeout)
	defer cancel()

	rows, err := s.locations.Stats(ctx, s.opts.RecentDays)
	if err != nil {
		return models.FeatureCollection{}, err
	}
	return geo.BuildFeatureCollection(rows, s.now().UTC(), s.opts.Palette), nil
}

// Recent returns the most mentioned places of the recent window. A
// non-positive limit selects the configured default.
func (s *Service) Recent(ctx context.Context, limit int) []models.RecentLocation {
	if limit <= 0 {
		limit = s.opts.RecentLimit
	}
	rows, err := cache.FetchJSON(ctx, s.cache, recentKey, TagLocations,
		func(ctx context.Context) ([]models.RecentLocationStat, error) {
			ctx, cancel := context.WithTimeout(ctx, s.opts.UpstreamTimeout)
			defer cancel()
			return s.locations.Recent(ctx, s.opts.RecentDays)
		})
	if err != nil {
		s.upstreamFailed("recent_locations", err)
		return []models.RecentLocation{}
	}
	return geo.SummarizeRecent(rows, limit)
}

// ArticlesForPlace returns one page of articles mentioning placeID, newest
// first. Page numbers start at 1; smaller values select the first page.
// A negative pageSize selects the default, AllArticles returns everything
// and sizes above MaxPageSize are capped.
func (s *Service) ArticlesForPlace(ctx context.Context, placeID string, page, pageSize int) models.ArticlePage {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize < 0:
		pageSize = s.opts.PageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}

	placeID = strings.TrimSpace(placeID)
	result := models.ArticlePage{
		PlaceID:  placeID,
		Page:     page,
		PageSize: pageSize,
		Articles: []models.ArticleMention{},
	}
	if placeID == "" {
		return result
	}
	if pageSize == AllArticles {
		result.Page = 1
	}

	key := fmt.Sprintf("articles:%s:%d:%d", placeID, result.Page, pageSize)
	articles, err := cache.FetchJSON(ctx, s.cache, key, TagArticles,
		func(ctx context.Context) ([]models.ArticleMention, error) {
			ctx, cancel := context.WithTimeout(ctx, s.opts.UpstreamTimeout)
			defer cancel()
			return s.relations.ArticlesForPlace(ctx, placeID, pageSize, (result.Page-1)*pageSize)
		})
	if err != nil {
		s.upstreamFailed("place_articles", err, "place_id", placeID, "page", page)
		return result
	}

	if articles != nil {
		result.Articles = articles
	}
	result.HasMore = pageSize != AllArticles && len(result.Articles) == pageSize
	return result
}

// RelationsForArticle returns every place an article mentions.
func (s *Service) RelationsForArticle(ctx context.Context, articleUUID string) []models.LocationArticleRelation {
	articleUUID = strings.TrimSpace(articleUUID)
	if articleUUID == "" {
		return []models.LocationArticleRelation{}
	}
	relations, err := cache.FetchJSON(ctx, s.cache, "relations:"+articleUUID, TagRelations,
		func(ctx context.Context) ([]models.LocationArticleRelation, error) {
			ctx, cancel := context.WithTimeout(ctx, s.opts.UpstreamTimeout)
			defer cancel()
			return s.relations.ByArticle(ctx, articleUUID)
		})
	if err != nil {
		s.upstreamFailed("article_relations", err, "article_uuid", articleUUID)
		return []models.LocationArticleRelation{}
	}
	if relations == nil {
		relations = []models.LocationArticleRelation{}
	}
	return relations
}

// Warm reloads the location payloads into the cache so the next map load
// does not wait on the store.
func (s *Service) Warm(ctx context.Context) error {
	err := s.cache.Warm(ctx, featureCollectionKey, TagLocations, func(ctx context.Context) ([]byte, error) {
		fc, err := s.loadFeatureCollection(ctx)
		if err != nil {
			return nil, err
		}
		return marshal(fc)
	})
	if err != nil {
		return fmt.Errorf("warm feature collection: %w", err)
	}

	err = s.cache.Warm(ctx, recentKey, TagLocations, func(ctx context.Context) ([]byte, error) {
		ctx, cancel := context.WithTimeout(ctx, s.opts.UpstreamTimeout)
		defer cancel()
		rows, err := s.locations.Recent(ctx, s.opts.RecentDays)
		if err != nil {
			return nil, err
		}
		return marshal(rows)
	})
	if err != nil {
		return fmt.Errorf("warm recent locations: %w", err)
	}
	return nil
}

// Invalidate drops cached payloads for the given tags, or everything when
// no tag is given. It returns the number of entries dropped.
func (s *Service) Invalidate(ctx context.Context, tags ...string) int {
	if len(tags) == 0 {
		return s.cache.InvalidateAll(ctx)
	}
	var n int
	for _, tag := range tags {
		n += s.cache.InvalidateTag(ctx, tag)
	}
	return n
}

func (s *Service) upstreamFailed(op string, err error, attrs ...any) {
	metrics.UpstreamErrors.WithLabelValues(op).Inc()
	slog.Error("upstream query failed", append([]any{"operation", op, "error", err}, attrs...)...)
}

func marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}
