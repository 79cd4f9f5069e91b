// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchPage(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.EscapedPath(), r.URL.RawQuery
		w.Header().Set("X-Has-More", "true")
		w.Write([]byte(`[{"uuid":"u1","headline":"Fire","location_name":"Flatbush Ave"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	page, err := c.FetchPage(context.Background(), "ChIJ a/b", 2, 20)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}

	if gotPath != "/articles/ChIJ%20a%2Fb" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "page=2&pageSize=20" {
		t.Errorf("query = %q", gotQuery)
	}
	if !page.HasMore {
		t.Error("HasMore should follow the header")
	}
	if page.Page != 2 || page.PlaceID != "ChIJ a/b" || len(page.Articles) != 1 {
		t.Errorf("page = %+v", page)
	}
	if a := page.Articles[0]; a.UUID != "u1" || a.LocationName == nil || *a.LocationName != "Flatbush Ave" {
		t.Errorf("article = %+v", a)
	}
}

func TestFetchPageHasMoreWithoutHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"uuid":"a"},{"uuid":"b"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	full, _ := c.FetchPage(context.Background(), "p", 1, 2)
	short, _ := c.FetchPage(context.Background(), "p", 1, 3)

	if !full.HasMore {
		t.Error("a full page should report more")
	}
	if short.HasMore {
		t.Error("a short page should not report more")
	}
}

func TestFetchPageNullBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	}))
	defer srv.Close()

	page, err := New(srv.URL).FetchPage(context.Background(), "p", 1, 20)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if page.Articles == nil || page.HasMore {
		t.Errorf("page = %+v, want empty articles without more", page)
	}
}

func TestErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"page must be an integer"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := New(srv.URL).FetchPage(context.Background(), "p", 1, 20)
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("err = %v, want ErrStatus", err)
	}
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(srv.URL, WithTimeout(50*time.Millisecond)).Locations(context.Background())
	if err == nil {
		t.Fatal("expected a timeout error")
	}
}

func TestLocationsRecentAndRelations(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/locations", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[-74.006,40.7128]},"properties":{"place_id":"a","title":"NYC","dot_color":"#5500ff99","dot_size_factor":1}}]}`))
	})
	mux.HandleFunc("/locations/recent", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "4" {
			t.Errorf("limit = %q", r.URL.Query().Get("limit"))
		}
		w.Write([]byte(`[{"place_id":"a","name":"Astoria","count":3}]`))
	})
	mux.HandleFunc("/locations/art-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"r1","article_uuid":"art-1","place_id":"a","location_name":"Astoria"}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	ctx := context.Background()

	fc, err := c.Locations(ctx)
	if err != nil || len(fc.Features) != 1 || fc.Features[0].Properties.PlaceID != "a" {
		t.Errorf("Locations = %+v, %v", fc, err)
	}
	recent, err := c.Recent(ctx, 4)
	if err != nil || len(recent) != 1 || recent[0].Name != "Astoria" {
		t.Errorf("Recent = %+v, %v", recent, err)
	}
	rels, err := c.RelationsForArticle(ctx, "art-1")
	if err != nil || len(rels) != 1 || *rels[0].PlaceID != "a" {
		t.Errorf("RelationsForArticle = %+v, %v", rels, err)
	}
}
