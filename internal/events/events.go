// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package events listens for ingestion notifications on NATS and drops the
// cached payloads they make stale. A message body may name the cache tags
// to drop as {"tags": [...]}; an empty body drops everything.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"newsmap/internal/metrics"
)

const (
	jobName        = "ingest_event"
	handleTimeout  = time.Minute
	maxReconnects  = -1
	reconnectWait  = 2 * time.Second
	connectTimeout = 5 * time.Second
)

// Target is invalidated and then warmed on every notification.
type Target interface {
	Invalidate(ctx context.Context, tags ...string) int
	Warm(ctx context.Context) error
}

// Notification is the optional JSON body of an ingestion message.
type Notification struct {
	Tags []string `json:"tags"`
}

// Connect opens a NATS connection that keeps reconnecting for the life of
// the process.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("newsmap"),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.Timeout(connectTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			slog.Info("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}

// Subscriber applies ingestion notifications to a Target.
type Subscriber struct {
	target Target
	known  map[string]bool
}

// NewSubscriber creates a Subscriber. Tags outside known are ignored.
func NewSubscriber(target Target, known []string) *Subscriber {
	set := make(map[string]bool, len(known))
	for _, tag := range known {
		set[tag] = true
	}
	return &Subscriber{target: target, known: set}
}

// Subscribe registers the subscriber on subject.
func (s *Subscriber) Subscribe(nc *nats.Conn, subject string) (*nats.Subscription, error) {
	sub, err := nc.Subscribe(subject, s.Handle)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	slog.Info("listening for ingestion events", "subject", subject)
	return sub, nil
}

// Handle processes one message.
func (s *Subscriber) Handle(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	tags, ok := s.parse(msg.Data)
	if !ok {
		metrics.JobRuns.WithLabelValues(jobName, "ignored").Inc()
		return
	}

	deleted := s.target.Invalidate(ctx, tags...)
	if err := s.target.Warm(ctx); err != nil {
		metrics.JobRuns.WithLabelValues(jobName, "error").Inc()
		slog.Warn("cache warm after ingestion failed", "error", err)
		return
	}

	metrics.JobRuns.WithLabelValues(jobName, "ok").Inc()
	slog.Info("ingestion event applied", "subject", msg.Subject, "tags", tags, "deleted", deleted)
}

// parse returns the tags a message names. A nil result means every tag.
// ok is false when the message names only unknown tags.
func (s *Subscriber) parse(data []byte) (tags []string, ok bool) {
	if len(data) == 0 {
		return nil, true
	}

	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		slog.Warn("unreadable ingestion event, dropping all cached payloads", "error", err)
		return nil, true
	}
	if len(n.Tags) == 0 {
		return nil, true
	}

	for _, tag := range n.Tags {
		if s.known[tag] {
			tags = append(tags, tag)
		} else {
			slog.Warn("ignoring unknown cache tag", "tag", tag)
		}
	}
	return tags, len(tags) > 0
}
