package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"newsmap/pkg/models"
)

// SnapshotContentType is the media type of an uploaded feature collection.
const SnapshotContentType = "application/geo+json"

// Uploader is implemented by Client.
type Uploader interface {
	Upload(ctx context.Context, key, contentType, cacheControl string, data []byte) error
}

// Snapshots publishes the map's feature collection as a static object so a
// CDN can serve the map when the API is unavailable.
type Snapshots struct {
	up     Uploader
	key    string
	maxAge time.Duration
}

// NewSnapshots creates a publisher writing to key. maxAge sets the object's
// Cache-Control header; zero omits it.
func NewSnapshots(up Uploader, key string, maxAge time.Duration) *Snapshots {
	return &Snapshots{up: up, key: key, maxAge: maxAge}
}

// Publish encodes fc and uploads it.
func (s *Snapshots) Publish(ctx context.Context, fc models.FeatureCollection) error {
	if fc.Features == nil {
		fc.Features = []models.Feature{}
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	var cacheControl string
	if s.maxAge > 0 {
		cacheControl = fmt.Sprintf("public, max-age=%d", int(s.maxAge.Seconds()))
	}
	if err := s.up.Upload(ctx, s.key, SnapshotContentType, cacheControl, data); err != nil {
		return err
	}

	slog.Info("map snapshot published", "key", s.key, "features", len(fc.Features), "bytes", len(data))
	return nil
}
