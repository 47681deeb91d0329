// Package archive abstracts the durable object store holding historical
// snapshots, organized by source name.
package archive

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/snowstake/stakecam/internal/common"
)

// ErrNotFound is returned when a prefix has no archived objects.
var ErrNotFound = errors.New("no archive entries for prefix")

// Object describes one archived snapshot.
type Object struct {
	Path     string
	Modified time.Time
}

// Store is the contract every archive backend must satisfy. Paths use
// forward slashes regardless of backend; the first segment is the source
// name.
type Store interface {
	Upload(ctx context.Context, path string, data []byte) error
	List(ctx context.Context, prefix string) ([]Object, error)
	Download(ctx context.Context, path string) ([]byte, error)
}

func isImagePath(p string) bool {
	return common.HasAny(strings.ToLower(p), ".jpg", ".jpeg", ".png", ".gif", ".webp")
}

// LatestImage resolves the most recently archived image for a source: list
// the source's prefix, filter to image entries, pick the newest modification
// time (ties broken by the last object encountered), and download it.
// Returns nil when no baseline is available for any reason — an empty or
// missing prefix is the expected state for a new source, and listing or
// download failures must not fail the cycle.
func LatestImage(ctx context.Context, store Store, sourceName string) []byte {
	objects, err := store.List(ctx, sourceName)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("archive: list failed for %s: %v", sourceName, err)
		}
		return nil
	}

	var latest *Object
	for i := range objects {
		o := &objects[i]
		if !isImagePath(o.Path) {
			continue
		}
		if latest == nil || !o.Modified.Before(latest.Modified) {
			latest = o
		}
	}
	if latest == nil {
		return nil
	}

	data, err := store.Download(ctx, latest.Path)
	if err != nil {
		log.Printf("archive: download failed for %s: %v", latest.Path, err)
		return nil
	}
	return data
}
