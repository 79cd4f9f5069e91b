// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"
)

// Invalidator drops cached payloads by tag, or everything without tags.
type Invalidator interface {
	Invalidate(ctx context.Context, tags ...string) int
}

// Revalidate lets the ingestion job (or an operator) drop cached responses
// after new data lands.
type Revalidate struct {
	cache Invalidator
	token string
	tags  []string
}

// NewRevalidate creates the handler. An empty token disables the endpoint.
// Only the listed tags may be invalidated individually.
func NewRevalidate(cache Invalidator, token string, tags []string) *Revalidate {
	return &Revalidate{cache: cache, token: token, tags: tags}
}

type revalidateResponse struct {
	Revalidated bool     `json:"revalidated"`
	Tags        []string `json:"tags"`
	Deleted     int      `json:"deleted"`
	Now         int64    `json:"now"`
}

// ServeHTTP handles POST /cache/revalidate?tag=. Without a tag every
// cached response is dropped.
func (h *Revalidate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.token == "" {
		writeError(w, http.StatusNotFound, "revalidation is disabled")
		return
	}

	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	var tags []string
	for _, tag := range r.URL.Query()["tag"] {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !slices.Contains(h.tags, tag) {
			writeError(w, http.StatusBadRequest, "unknown tag: "+tag)
			return
		}
		tags = append(tags, tag)
	}

	deleted := h.cache.Invalidate(r.Context(), tags...)
	slog.Info("cache revalidated", "tags", tags, "deleted", deleted, "remote", r.RemoteAddr)

	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, revalidateResponse{
		Revalidated: true,
		Tags:        tags,
		Deleted:     deleted,
		Now:         time.Now().UnixMilli(),
	})
}
