// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package selection keeps the selected map place, the page URL and the
// article panel in agreement. The URL is authoritative: clicks write it
// first, and URL changes (deep links, back/forward) drive the state.
package selection

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"newsmap/pkg/pager"
)

// State is the lifecycle of a selection.
type State int

const (
	Idle State = iota
	Selecting
	Selected
	Closing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Selected:
		return "selected"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

// Navigator writes the page URL. Push must not call back into the
// Synchronizer before returning.
type Navigator interface {
	Push(path string)
}

// Display renders the article panel. Calls are serialized.
type Display interface {
	ShowArticles(st pager.State)
	ShowError(placeID string, err error)
	Clear()
}

// Status is a snapshot of the synchronizer.
type Status struct {
	State   State
	PlaceID string
	Title   string
}

// Synchronizer reconciles clicks, URL changes and article fetches. It is
// safe for concurrent use. Select, ObserveURL and LoadMore block until
// their fetch resolves; results for a superseded selection are dropped.
type Synchronizer struct {
	pager   *pager.Pager
	nav     Navigator
	display Display
	paths   Paths

	// showMu serializes Display calls. It is taken before mu.
	showMu sync.Mutex

	mu      sync.Mutex
	state   State
	placeID string
	title   string
	gen     uint64
}

// New creates a Synchronizer in the Idle state.
func New(p *pager.Pager, nav Navigator, display Display, paths Paths) *Synchronizer {
	return &Synchronizer{pager: p, nav: nav, display: display, paths: paths}
}

// Status returns the current state and selected place.
func (s *Synchronizer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{State: s.state, PlaceID: s.placeID, Title: s.title}
}

// Select handles a click on placeID. Selecting the place that is already
// selected or loading does nothing; selecting it again after a failed
// fetch retries. An empty placeID closes the selection.
func (s *Synchronizer) Select(ctx context.Context, placeID, title string) error {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		s.Close()
		return nil
	}

	s.mu.Lock()
	if placeID == s.placeID && s.active() {
		s.mu.Unlock()
		return nil
	}
	if placeID != s.placeID {
		s.nav.Push(s.paths.Path(placeID))
	}
	gen := s.beginLocked(placeID, title)
	f := s.beginFetchLocked(ctx, placeID, title)
	s.mu.Unlock()

	return s.resolve(ctx, gen, placeID, title, f)
}

// ObserveURL brings the selection in line with path without writing the
// URL. A path that names no place closes the selection.
func (s *Synchronizer) ObserveURL(ctx context.Context, path string) error {
	placeID := s.paths.Parse(path)
	if placeID == "" {
		s.clear(false)
		return nil
	}

	s.mu.Lock()
	if placeID == s.placeID && s.active() {
		s.mu.Unlock()
		return nil
	}
	title := ""
	if placeID == s.placeID {
		title = s.title
	}
	gen := s.beginLocked(placeID, title)
	f := s.beginFetchLocked(ctx, placeID, title)
	s.mu.Unlock()

	return s.resolve(ctx, gen, placeID, title, f)
}

// Close dismisses the selection, pointing the URL back at the base path.
func (s *Synchronizer) Close() {
	s.clear(true)
}

// LoadMore appends the next article page while a place is selected. It is
// a no-op in any other state or while another fetch is in flight. A failed
// page is reported to the Display and the selection stays in place.
func (s *Synchronizer) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Selected {
		s.mu.Unlock()
		return nil
	}
	gen := s.gen
	f, err := s.pager.BeginMore(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil
	}

	st, err := f.Wait()
	if errors.Is(err, pager.ErrStale) {
		return nil
	}

	s.showMu.Lock()
	defer s.showMu.Unlock()
	if !s.current(gen) {
		return nil
	}
	if err != nil {
		slog.Warn("load more articles failed", "place_id", st.PlaceID, "page", st.Page+1, "error", err)
		s.display.ShowError(st.PlaceID, err)
		return err
	}
	s.display.ShowArticles(st)
	return nil
}

// beginFetchLocked starts the first-page fetch while s.mu is held, so the
// pager sees selections in the same order as s.gen.
func (s *Synchronizer) beginFetchLocked(ctx context.Context, placeID, title string) *pager.Fetch {
	f, err := s.pager.BeginFirst(ctx, placeID, title)
	if err != nil {
		// Still loading placeID for a superseded selection. Nothing is in
		// flight after Reset, so the second begin cannot fail.
		s.pager.Reset()
		f, _ = s.pager.BeginFirst(ctx, placeID, title)
	}
	return f
}

// resolve waits for the first page of selection gen and shows the outcome.
// A page made stale by something other than a newer selection is fetched
// again.
func (s *Synchronizer) resolve(ctx context.Context, gen uint64, placeID, title string, f *pager.Fetch) error {
	for {
		st, err := f.Wait()
		if !errors.Is(err, pager.ErrStale) {
			return s.settle(gen, placeID, st, err)
		}

		s.mu.Lock()
		if gen != s.gen {
			s.mu.Unlock()
			return nil
		}
		slog.Debug("refetching first page", "place_id", placeID)
		f = s.beginFetchLocked(ctx, placeID, title)
		s.mu.Unlock()
	}
}

func (s *Synchronizer) settle(gen uint64, placeID string, st pager.State, err error) error {
	s.showMu.Lock()
	defer s.showMu.Unlock()

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		slog.Debug("dropping superseded selection", "place_id", placeID)
		return nil
	}
	if err != nil {
		s.state = Idle
		s.mu.Unlock()
		slog.Warn("article fetch failed", "place_id", placeID, "error", err)
		s.display.ShowError(placeID, err)
		return err
	}
	s.state = Selected
	s.mu.Unlock()

	s.display.ShowArticles(st)
	return nil
}

// clear closes the selection. The state passes through Closing to Idle
// inside one critical section so no reader sees a half-cleared selection.
func (s *Synchronizer) clear(push bool) {
	s.showMu.Lock()
	defer s.showMu.Unlock()

	s.mu.Lock()
	if s.state == Idle && s.placeID == "" {
		s.mu.Unlock()
		return
	}
	s.state = Closing
	s.gen++
	if push {
		s.nav.Push(s.paths.Path(""))
	}
	s.pager.Reset()
	s.placeID, s.title = "", ""
	s.state = Idle
	s.mu.Unlock()

	s.display.Clear()
}

func (s *Synchronizer) beginLocked(placeID, title string) uint64 {
	s.gen++
	s.state = Selecting
	s.placeID, s.title = placeID, title
	return s.gen
}

func (s *Synchronizer) active() bool {
	return s.state == Selecting || s.state == Selected
}

func (s *Synchronizer) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.gen && s.state == Selected
}
