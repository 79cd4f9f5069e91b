// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"newsmap/pkg/models"
)

func ptr[T any](v T) *T { return &v }

// fakeService records the arguments it was called with and returns canned
// payloads.
type fakeService struct {
	mu sync.Mutex

	fc        models.FeatureCollection
	recent    []models.RecentLocation
	page      models.ArticlePage
	relations []models.LocationArticleRelation

	gotLimit    int
	gotPlace    string
	gotPage     int
	gotPageSize int
	gotArticle  string

	invalidated [][]string
}

func (f *fakeService) FeatureCollection(context.Context) models.FeatureCollection {
	return f.fc
}

func (f *fakeService) Recent(_ context.Context, limit int) []models.RecentLocation {
	f.gotLimit = limit
	return f.recent
}

func (f *fakeService) ArticlesForPlace(_ context.Context, placeID string, page, pageSize int) models.ArticlePage {
	f.gotPlace, f.gotPage, f.gotPageSize = placeID, page, pageSize
	return f.page
}

func (f *fakeService) RelationsForArticle(_ context.Context, articleUUID string) []models.LocationArticleRelation {
	f.gotArticle = articleUUID
	return f.relations
}

func (f *fakeService) Invalidate(_ context.Context, tags ...string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, tags)
	return 3
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
