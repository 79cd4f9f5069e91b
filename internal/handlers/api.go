// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"newsmap/pkg/models"
)

// MapService is what the map API reads from. Implementations never fail:
// upstream errors come back as empty payloads.
type MapService interface {
	FeatureCollection(ctx context.Context) models.FeatureCollection
	Recent(ctx context.Context, limit int) []models.RecentLocation
	ArticlesForPlace(ctx context.Context, placeID string, page, pageSize int) models.ArticlePage
	RelationsForArticle(ctx context.Context, articleUUID string) []models.LocationArticleRelation
}

// maxRecentLimit caps the limit query parameter on /locations/recent.
const maxRecentLimit = 50

// API groups the read-only JSON endpoints the map UI calls.
type API struct {
	svc    MapService
	maxAge time.Duration
}

// NewAPI creates a new API handler group. maxAge sets the Cache-Control
// max-age advertised to browsers and CDNs; zero disables the header.
func NewAPI(svc MapService, maxAge time.Duration) *API {
	return &API{svc: svc, maxAge: maxAge}
}

// Locations returns every geocoded place as a GeoJSON feature collection.
func (a *API) Locations(w http.ResponseWriter, r *http.Request) {
	a.cacheHeaders(w)
	writeJSON(w, http.StatusOK, a.svc.FeatureCollection(r.Context()))
}

// RecentLocations returns the most mentioned places of the recent window.
func (a *API) RecentLocations(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 0)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	a.cacheHeaders(w)
	writeJSON(w, http.StatusOK, a.svc.Recent(r.Context(), limit))
}

// ArticleLocations returns the relations of one article, i.e. every place
// it mentions.
func (a *API) ArticleLocations(w http.ResponseWriter, r *http.Request) {
	articleUUID := chi.URLParam(r, "article_uuid")
	if msg := validateArticleUUID(articleUUID); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	a.cacheHeaders(w)
	writeJSON(w, http.StatusOK, a.svc.RelationsForArticle(r.Context(), articleUUID))
}

// PlaceArticles returns one page of articles for a place as a bare array.
// Whether another page may exist is reported in the X-Has-More header.
func (a *API) PlaceArticles(w http.ResponseWriter, r *http.Request) {
	page, ok := a.articlePage(w, r)
	if !ok {
		return
	}

	w.Header().Set("X-Has-More", strconv.FormatBool(page.HasMore))
	a.cacheHeaders(w)
	writeJSON(w, http.StatusOK, page.Articles)
}

// PlaceArticlePage returns one page of articles for a place wrapped with
// its paging state.
func (a *API) PlaceArticlePage(w http.ResponseWriter, r *http.Request) {
	page, ok := a.articlePage(w, r)
	if !ok {
		return
	}

	a.cacheHeaders(w)
	writeJSON(w, http.StatusOK, page)
}

// articlePage parses page and pageSize and loads the page. A missing
// pageSize selects the service default and pageSize=0 requests every
// article. It writes a 400 and reports false on malformed parameters.
func (a *API) articlePage(w http.ResponseWriter, r *http.Request) (models.ArticlePage, bool) {
	placeID := chi.URLParam(r, "place_id")
	if msg := validatePlaceID(placeID); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return models.ArticlePage{}, false
	}

	page, err := intParam(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "page must be an integer")
		return models.ArticlePage{}, false
	}
	pageSize, err := intParam(r, "pageSize", -1)
	if err != nil || (r.URL.Query().Get("pageSize") != "" && pageSize < 0) {
		writeError(w, http.StatusBadRequest, "pageSize must be a non-negative integer")
		return models.ArticlePage{}, false
	}

	return a.svc.ArticlesForPlace(r.Context(), placeID, page, pageSize), true
}

func (a *API) cacheHeaders(w http.ResponseWriter) {
	if a.maxAge <= 0 {
		return
	}
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(a.maxAge.Seconds())))
}

// intParam reads an integer query parameter, returning fallback when it is
// absent.
func intParam(r *http.Request, name string, fallback int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return n, nil
}
