package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/searchvault/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), logger.Discard())
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	return store
}

func TestStoreSave(t *testing.T) {
	store := newTestStore(t)
	partition := store.NewPartition()

	path, err := store.Save(partition, &Blob{
		Data:        []byte("image bytes"),
		ByteCount:   11,
		ContentType: "image/png",
	})
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if !strings.HasSuffix(path, ".png") {
		t.Errorf("path = %q, want .png suffix from content type", path)
	}
	if !strings.HasPrefix(path, filepath.Join(store.BaseDir(), partition)) {
		t.Errorf("path = %q, want inside partition %q", path, partition)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(data) != "image bytes" {
		t.Fatalf("stored data = %q", data)
	}

	// No temp file may remain after a completed save
	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("temp file %q left behind", entry.Name())
		}
	}
}

func TestStorePartitionsAreUnique(t *testing.T) {
	store := newTestStore(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		p := store.NewPartition()
		if seen[p] {
			t.Fatalf("partition %q produced twice", p)
		}
		seen[p] = true
	}
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/jpeg", ".jpg"},
		{"image/png", ".png"},
		{"image/webp", ".webp"},
		{"image/gif; charset=binary", ".gif"},
		{"", ".jpg"},
		{"application/x-unknown-thing", ".jpg"},
	}

	for _, tt := range tests {
		if got := extensionFor(tt.contentType); got != tt.want {
			t.Errorf("extensionFor(%q) = %q, want %q", tt.contentType, got, tt.want)
		}
	}
}

func TestSweepTemp(t *testing.T) {
	store := newTestStore(t)

	partition := filepath.Join(store.BaseDir(), store.NewPartition())
	if err := os.MkdirAll(partition, 0755); err != nil {
		t.Fatal(err)
	}

	stale := filepath.Join(partition, "dl-stale.tmp")
	fresh := filepath.Join(partition, "dl-fresh.tmp")
	kept := filepath.Join(partition, "photo.jpg")
	for _, path := range []string{stale, fresh, kept} {
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	// Age the stale file past the cutoff
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	removed, err := store.SweepTemp(24 * time.Hour)
	if err != nil {
		t.Fatalf("SweepTemp returned error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale temp file survived the sweep")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh temp file should survive the sweep")
	}
	if _, err := os.Stat(kept); err != nil {
		t.Error("stored asset should survive the sweep")
	}
}

func TestRemovePartition(t *testing.T) {
	store := newTestStore(t)
	partition := store.NewPartition()

	path, err := store.Save(partition, &Blob{Data: []byte("x"), ByteCount: 1, ContentType: "image/png"})
	if err != nil {
		t.Fatal(err)
	}

	if err := store.RemovePartition(partition); err != nil {
		t.Fatalf("RemovePartition returned error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("partition contents survived removal")
	}

	// Empty partition name is a no-op, never a wipe of the base dir
	if err := store.RemovePartition(""); err != nil {
		t.Fatalf("RemovePartition(\"\") returned error: %v", err)
	}
	if _, err := os.Stat(store.BaseDir()); err != nil {
		t.Fatal("base dir removed by empty-partition call")
	}
}
