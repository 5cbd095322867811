package assets

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/searchvault/pkg/logger"
	"github.com/searchvault/pkg/ratelimit"
)

// maxAssetBytes caps a single asset download
const maxAssetBytes = 32 << 20 // 32 MiB

// FetchError is a typed per-resource failure. It is never fatal to the
// caller: the executor maps it to an asset record with a nil local path.
type FetchError struct {
	Ref string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("asset fetch %s: %v", e.Ref, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Blob holds one fetched resource
type Blob struct {
	Data        []byte
	ByteCount   int64
	ContentType string
}

// Fetcher downloads binary resources referenced by extracted content.
// A sourceRef may be a remote URL, a local file path (plain or file://),
// or an inline data: URI.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	limiter    *ratelimit.MultiLimiter
	log        *logger.Logger
}

// NewFetcher creates a new asset fetcher
func NewFetcher(timeout time.Duration, userAgent string, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		limiter:    limiter,
		log:        log.WithComponent("assets"),
	}
}

// Fetch resolves the source reference: inline payloads decode directly,
// local paths read directly, everything else goes over the network
func (f *Fetcher) Fetch(ctx context.Context, sourceRef string) (*Blob, error) {
	ref := strings.TrimSpace(sourceRef)
	if ref == "" {
		return nil, &FetchError{Ref: sourceRef, Err: fmt.Errorf("empty source reference")}
	}

	switch {
	case strings.HasPrefix(ref, "data:"):
		return f.decodeInline(ref)
	case strings.HasPrefix(ref, "file://"):
		return f.readLocal(strings.TrimPrefix(ref, "file://"))
	case !strings.Contains(ref, "://"):
		return f.readLocal(ref)
	default:
		return f.download(ctx, ref)
	}
}

// decodeInline decodes a data: URI payload (base64 or percent-encoded)
func (f *Fetcher) decodeInline(ref string) (*Blob, error) {
	comma := strings.IndexByte(ref, ',')
	if comma < 0 {
		return nil, &FetchError{Ref: ref, Err: fmt.Errorf("malformed data URI")}
	}

	header := ref[len("data:"):comma]
	payload := ref[comma+1:]

	contentType := header
	isBase64 := false
	if idx := strings.Index(header, ";base64"); idx >= 0 {
		contentType = header[:idx]
		isBase64 = true
	}
	if contentType == "" {
		contentType = "text/plain"
	}

	var data []byte
	var err error
	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(payload)
	} else {
		var decoded string
		decoded, err = url.QueryUnescape(payload)
		data = []byte(decoded)
	}
	if err != nil {
		return nil, &FetchError{Ref: truncateRef(ref), Err: fmt.Errorf("decode inline payload: %w", err)}
	}

	return &Blob{Data: data, ByteCount: int64(len(data)), ContentType: contentType}, nil
}

// readLocal reads a local file source
func (f *Fetcher) readLocal(path string) (*Blob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FetchError{Ref: path, Err: err}
	}
	return &Blob{Data: data, ByteCount: int64(len(data)), ContentType: http.DetectContentType(data)}, nil
}

// download performs the network fetch
func (f *Fetcher) download(ctx context.Context, rawURL string) (*Blob, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, ratelimit.LimiterAssets); err != nil {
			return nil, &FetchError{Ref: rawURL, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{Ref: rawURL, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Ref: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Ref: rawURL, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
	if err != nil {
		return nil, &FetchError{Ref: rawURL, Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	f.log.Debug().
		Str("url", rawURL).
		Int("size_bytes", len(data)).
		Msg("Asset downloaded")

	return &Blob{Data: data, ByteCount: int64(len(data)), ContentType: contentType}, nil
}

// truncateRef keeps inline payloads out of error messages
func truncateRef(ref string) string {
	if len(ref) > 64 {
		return ref[:64] + "..."
	}
	return ref
}
