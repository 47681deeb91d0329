package archive

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	data := []byte("snapshot-bytes")
	if err := s.Upload(ctx, "Alta/2026-01-15/Alta_202601151200.jpg", data); err != nil {
		t.Fatalf("upload: %v", err)
	}

	objects, err := s.List(ctx, "Alta")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(objects) != 1 {
		t.Fatalf("expected 1 object, got %d", len(objects))
	}
	if objects[0].Path != "Alta/2026-01-15/Alta_202601151200.jpg" {
		t.Fatalf("unexpected path %q", objects[0].Path)
	}

	got, err := s.Download(ctx, objects[0].Path)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("downloaded bytes differ from uploaded bytes")
	}
}

func TestLocalStoreListMissingPrefix(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.List(context.Background(), "Nowhere"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLatestImagePicksNewestByModTime(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	old := []byte("old")
	fresh := []byte("fresh")
	if err := s.Upload(ctx, "Alta/2026-01-14/Alta_202601141200.jpg", old); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := s.Upload(ctx, "Alta/2026-01-15/Alta_202601151200.jpg", fresh); err != nil {
		t.Fatalf("upload: %v", err)
	}

	// Make the modification order explicit rather than relying on write timing.
	oldPath := filepath.Join(root, "Alta", "2026-01-14", "Alta_202601141200.jpg")
	freshPath := filepath.Join(root, "Alta", "2026-01-15", "Alta_202601151200.jpg")
	now := time.Now()
	if err := os.Chtimes(oldPath, now.Add(-2*time.Hour), now.Add(-2*time.Hour)); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.Chtimes(freshPath, now, now); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	got := LatestImage(ctx, s, "Alta")
	if !bytes.Equal(got, fresh) {
		t.Fatalf("expected newest image bytes, got %q", got)
	}
}

func TestLatestImageFiltersNonImages(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if err := s.Upload(ctx, "Alta/notes.txt", []byte("not an image")); err != nil {
		t.Fatalf("upload: %v", err)
	}

	if got := LatestImage(ctx, s, "Alta"); got != nil {
		t.Fatalf("expected no baseline when only non-image entries exist, got %q", got)
	}
}

func TestLatestImageNoEntries(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := LatestImage(context.Background(), s, "Alta"); got != nil {
		t.Fatal("expected nil baseline for empty archive")
	}
}
