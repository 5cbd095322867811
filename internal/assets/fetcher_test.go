package assets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/searchvault/pkg/logger"
)

func newTestFetcher() *Fetcher {
	return NewFetcher(0, "searchvault-test", nil, logger.Discard())
}

func TestFetchInlineBase64(t *testing.T) {
	f := newTestFetcher()

	// "hello" base64-encoded
	blob, err := f.Fetch(context.Background(), "data:image/png;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if string(blob.Data) != "hello" {
		t.Fatalf("data = %q, want hello", blob.Data)
	}
	if blob.ByteCount != 5 {
		t.Fatalf("byte count = %d, want 5", blob.ByteCount)
	}
	if blob.ContentType != "image/png" {
		t.Fatalf("content type = %q, want image/png", blob.ContentType)
	}
}

func TestFetchInlinePercentEncoded(t *testing.T) {
	f := newTestFetcher()

	blob, err := f.Fetch(context.Background(), "data:text/plain,hello%20world")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if string(blob.Data) != "hello world" {
		t.Fatalf("data = %q, want hello world", blob.Data)
	}
}

func TestFetchInlineMalformed(t *testing.T) {
	f := newTestFetcher()

	tests := []string{
		"data:image/png;base64", // no comma
		"data:image/png;base64,!!!not-base64!!!",
	}
	for _, ref := range tests {
		_, err := f.Fetch(context.Background(), ref)
		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("Fetch(%q) error = %v, want *FetchError", ref, err)
		}
	}
}

func TestFetchLocalFile(t *testing.T) {
	f := newTestFetcher()

	path := filepath.Join(t.TempDir(), "picture.bin")
	if err := os.WriteFile(path, []byte("local bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("Plain path", func(t *testing.T) {
		blob, err := f.Fetch(context.Background(), path)
		if err != nil {
			t.Fatalf("Fetch returned error: %v", err)
		}
		if string(blob.Data) != "local bytes" {
			t.Fatalf("data = %q", blob.Data)
		}
	})

	t.Run("File scheme", func(t *testing.T) {
		blob, err := f.Fetch(context.Background(), "file://"+path)
		if err != nil {
			t.Fatalf("Fetch returned error: %v", err)
		}
		if blob.ByteCount != int64(len("local bytes")) {
			t.Fatalf("byte count = %d", blob.ByteCount)
		}
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), filepath.Join(t.TempDir(), "absent"))
		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("error = %v, want *FetchError", err)
		}
	})
}

func TestFetchRemote(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(payload)
	}))
	defer srv.Close()

	f := newTestFetcher()

	t.Run("Success", func(t *testing.T) {
		blob, err := f.Fetch(context.Background(), srv.URL+"/photo.jpg")
		if err != nil {
			t.Fatalf("Fetch returned error: %v", err)
		}
		if blob.ByteCount != int64(len(payload)) {
			t.Fatalf("byte count = %d, want %d", blob.ByteCount, len(payload))
		}
		if blob.ContentType != "image/jpeg" {
			t.Fatalf("content type = %q", blob.ContentType)
		}
	})

	t.Run("Non-200 is a typed failure", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), srv.URL+"/missing")
		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("error = %v, want *FetchError", err)
		}
	})

	t.Run("Unreachable host is a typed failure", func(t *testing.T) {
		unreachable := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		unreachable.Close()

		_, err := f.Fetch(context.Background(), unreachable.URL)
		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("error = %v, want *FetchError", err)
		}
	})
}

func TestFetchEmptyRef(t *testing.T) {
	f := newTestFetcher()

	_, err := f.Fetch(context.Background(), "   ")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
}
