// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package client is a typed HTTP client for the newsmap API. The map UI
// side of the repository (pager, selection) fetches through it.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"newsmap/pkg/models"
)

// DefaultTimeout bounds every request unless WithTimeout says otherwise.
const DefaultTimeout = 10 * time.Second

// ErrStatus is wrapped by errors for non-2xx responses.
var ErrStatus = errors.New("unexpected status")

// Client calls the newsmap API at a base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the API served at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Locations fetches the map feature collection.
func (c *Client) Locations(ctx context.Context) (models.FeatureCollection, error) {
	var fc models.FeatureCollection
	_, err := c.get(ctx, "/locations", nil, &fc)
	return fc, err
}

// Recent fetches the most mentioned recent places. A zero limit lets the
// server pick.
func (c *Client) Recent(ctx context.Context, limit int) ([]models.RecentLocation, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []models.RecentLocation
	_, err := c.get(ctx, "/locations/recent", q, &out)
	return out, err
}

// RelationsForArticle fetches every place one article mentions.
func (c *Client) RelationsForArticle(ctx context.Context, articleUUID string) ([]models.LocationArticleRelation, error) {
	var out []models.LocationArticleRelation
	_, err := c.get(ctx, "/locations/"+url.PathEscape(articleUUID), nil, &out)
	return out, err
}

// FetchPage fetches one page of articles for a place. Page numbers start
// at 1. HasMore comes from the X-Has-More header, or from whether the page
// came back full when the header is missing.
func (c *Client) FetchPage(ctx context.Context, placeID string, page, pageSize int) (models.ArticlePage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))

	var articles []models.ArticleMention
	header, err := c.get(ctx, "/articles/"+url.PathEscape(placeID), q, &articles)
	if err != nil {
		return models.ArticlePage{}, err
	}
	if articles == nil {
		articles = []models.ArticleMention{}
	}

	hasMore := pageSize > 0 && len(articles) == pageSize
	if v := header.Get("X-Has-More"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			hasMore = b
		}
	}

	return models.ArticlePage{
		PlaceID:  placeID,
		Page:     page,
		PageSize: pageSize,
		Articles: articles,
		HasMore:  hasMore,
	}, nil
}

// get performs a GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) (http.Header, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("newsmap request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsmap http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("newsmap GET %s: %w %d: %s", path, ErrStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("newsmap decode %s: %w", path, err)
	}
	return resp.Header, nil
}
