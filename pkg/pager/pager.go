// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pager keeps the article pages loaded for the selected place and
// fetches the next one on demand. Only one fetch runs at a time; results
// for a place that is no longer current are dropped.
package pager

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"newsmap/pkg/models"
)

// DefaultPageSize is used when New is given a non-positive page size.
const DefaultPageSize = 20

var (
	// ErrBusy is returned when a fetch is already in flight.
	ErrBusy = errors.New("pager: fetch in flight")

	// ErrStale is returned when the place changed while a fetch was in
	// flight. The fetched page was discarded.
	ErrStale = errors.New("pager: place changed")
)

// Source fetches one page of articles. Page numbers start at 1.
type Source interface {
	FetchPage(ctx context.Context, placeID string, page, pageSize int) (models.ArticlePage, error)
}

// State is a snapshot of what the pager holds.
type State struct {
	PlaceID  string
	Title    string
	Articles []models.ArticleMention
	Page     int
	HasMore  bool
	Loading  bool
}

// Pager accumulates pages for one place at a time. It is safe for
// concurrent use; fetches run without holding the lock.
type Pager struct {
	src      Source
	pageSize int

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
}

// New creates a pager over src.
func New(src Source, pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{src: src, pageSize: pageSize}
}

// State returns a copy of the current state.
func (p *Pager) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Fetch is a page fetch that has been started but not yet run. Wait must
// be called exactly once.
type Fetch struct {
	p       *Pager
	ctx     context.Context
	gen     uint64
	placeID string
	page    int
	ready   *State
}

// FetchFirst loads the first page for placeID, replacing whatever was held
// for another place. When placeID is already loaded the held state is
// returned without a fetch.
func (p *Pager) FetchFirst(ctx context.Context, placeID, title string) (State, error) {
	f, err := p.BeginFirst(ctx, placeID, title)
	if err != nil {
		return State{}, err
	}
	return f.Wait()
}

// BeginFirst claims the pager for placeID and returns the fetch of its first
// page. Any fetch already in flight becomes stale at this point, so callers
// that order selections under their own lock get the same order here.
func (p *Pager) BeginFirst(ctx context.Context, placeID, title string) (*Fetch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.PlaceID == placeID && p.state.Page > 0 {
		st := p.snapshotLocked()
		return &Fetch{p: p, ready: &st}, nil
	}
	if p.state.PlaceID == placeID && p.state.Loading {
		return nil, ErrBusy
	}

	gen, fetchCtx := p.beginLocked(ctx)
	p.state = State{PlaceID: placeID, Title: title, Loading: true}
	return &Fetch{p: p, ctx: fetchCtx, gen: gen, placeID: placeID, page: 1}, nil
}

// LoadMore appends the next page for the current place. It returns ErrBusy
// while another fetch is in flight and does nothing when no place is
// loaded or the last page came back short.
func (p *Pager) LoadMore(ctx context.Context) (State, error) {
	f, err := p.BeginMore(ctx)
	if err != nil {
		return State{}, err
	}
	return f.Wait()
}

// BeginMore starts the fetch of the next page for the current place.
func (p *Pager) BeginMore(ctx context.Context) (*Fetch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Loading {
		return nil, ErrBusy
	}
	if p.state.Page == 0 || !p.state.HasMore {
		st := p.snapshotLocked()
		return &Fetch{p: p, ready: &st}, nil
	}

	gen, fetchCtx := p.beginLocked(ctx)
	p.state.Loading = true
	return &Fetch{p: p, ctx: fetchCtx, gen: gen, placeID: p.state.PlaceID, page: p.state.Page + 1}, nil
}

// Wait runs the fetch and folds the page into the pager. It returns
// ErrStale when another fetch or a Reset superseded this one.
func (f *Fetch) Wait() (State, error) {
	if f.ready != nil {
		return *f.ready, nil
	}
	page, err := f.p.src.FetchPage(f.ctx, f.placeID, f.page, f.p.pageSize)
	return f.p.finish(f, page, err)
}

func (p *Pager) finish(f *Fetch, page models.ArticlePage, err error) (State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if f.gen != p.gen {
		slog.Debug("discarding stale page", "place_id", f.placeID, "page", f.page)
		return State{}, ErrStale
	}
	p.finishLocked()
	p.state.Loading = false

	if err != nil {
		if f.page == 1 {
			p.state = State{}
			return State{}, err
		}
		return p.snapshotLocked(), err
	}

	if f.page == 1 {
		p.state.Articles = append([]models.ArticleMention(nil), page.Articles...)
	} else {
		p.state.Articles = append(p.state.Articles, page.Articles...)
	}
	p.state.Page = f.page
	p.state.HasMore = page.HasMore
	return p.snapshotLocked(), nil
}

// Reset drops every held page and abandons any fetch in flight.
func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.finishLocked()
	p.state = State{}
}

// beginLocked starts a new fetch generation, cancelling the previous fetch.
func (p *Pager) beginLocked(ctx context.Context) (uint64, context.Context) {
	p.gen++
	p.finishLocked()
	fetchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	return p.gen, fetchCtx
}

func (p *Pager) finishLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Pager) snapshotLocked() State {
	st := p.state
	st.Articles = append([]models.ArticleMention{}, p.state.Articles...)
	return st
}
