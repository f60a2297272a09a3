// Package artifacts archives the raw documents each run captured:
// fetched PDFs, exported CSVs, and the screenshots sent to the vision
// service. When a publisher's layout drifts, the archived bytes show what
// the page looked like at collection time.
//
// The abstraction allows the application to be independent of a specific
// storage implementation (Google Cloud Storage or the local filesystem).
package artifacts

import (
	"context"
	"fmt"

	gstorage "cloud.google.com/go/storage"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/config"
)

// Store defines the common interface for an artifact store.
type Store interface {
	// Put uploads data under a path/key and returns a locator URI.
	Put(ctx context.Context, path, contentType string, data []byte) (string, error)
}

// NoOpStore discards artifacts. It is the default when archival is not
// configured.
type NoOpStore struct{}

// Put for NoOpStore does nothing and always returns an empty locator.
func (NoOpStore) Put(_ context.Context, _, _ string, _ []byte) (string, error) {
	return "", nil
}

// FromConfig builds the store selected by the artifacts configuration.
func FromConfig(ctx context.Context, cfg config.ArtifactsConfig) (Store, error) {
	switch cfg.Provider {
	case "noop", "":
		return NoOpStore{}, nil
	case "local":
		return NewLocal(LocalConfig{BaseDir: cfg.LocalDir})
	case "gcs":
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating GCS client: %w", err)
		}
		return NewGCS(client, GCSConfig{Bucket: cfg.GCSBucket})
	default:
		return nil, fmt.Errorf("unknown artifacts provider %q", cfg.Provider)
	}
}
