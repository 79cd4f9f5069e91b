// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

var knownTags = []string{"locations", "articles", "relations"}

func revalidateRequest(query, token string) *http.Request {
	r := httptest.NewRequest("POST", "/cache/revalidate"+query, nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestRevalidateAuth(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		sent     string
		wantCode int
	}{
		{"disabled", "", "anything", http.StatusNotFound},
		{"missing token", "s3cret", "", http.StatusUnauthorized},
		{"wrong token", "s3cret", "guess", http.StatusUnauthorized},
		{"valid token", "s3cret", "s3cret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			h := NewRevalidate(svc, tt.token, knownTags)

			w := httptest.NewRecorder()
			h.ServeHTTP(w, revalidateRequest("", tt.sent))

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			wantCalls := 0
			if tt.wantCode == http.StatusOK {
				wantCalls = 1
			}
			if len(svc.invalidated) != wantCalls {
				t.Errorf("invalidations = %d, want %d", len(svc.invalidated), wantCalls)
			}
		})
	}
}

func TestRevalidateTags(t *testing.T) {
	svc := &fakeService{}
	h := NewRevalidate(svc, "tok", knownTags)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, revalidateRequest("?tag=articles&tag=locations", "tok"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(svc.invalidated) != 1 || len(svc.invalidated[0]) != 2 || svc.invalidated[0][0] != "articles" {
		t.Errorf("invalidated = %v", svc.invalidated)
	}

	var body revalidateResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Revalidated || body.Deleted != 3 || len(body.Tags) != 2 || body.Now == 0 {
		t.Errorf("body = %+v", body)
	}
}

func TestRevalidateAll(t *testing.T) {
	svc := &fakeService{}
	h := NewRevalidate(svc, "tok", knownTags)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, revalidateRequest("", "tok"))

	if len(svc.invalidated) != 1 || len(svc.invalidated[0]) != 0 {
		t.Errorf("invalidated = %v, want one call without tags", svc.invalidated)
	}
	var body revalidateResponse
	json.NewDecoder(w.Body).Decode(&body)
	if body.Tags == nil {
		t.Error("tags should encode as [] when everything is dropped")
	}
}

func TestRevalidateUnknownTag(t *testing.T) {
	svc := &fakeService{}
	h := NewRevalidate(svc, "tok", knownTags)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, revalidateRequest("?tag=users", "tok"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if len(svc.invalidated) != 0 {
		t.Error("nothing should be invalidated for an unknown tag")
	}
}
