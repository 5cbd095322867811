package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/searchvault/internal/assets"
	"github.com/searchvault/internal/extract"
	"github.com/searchvault/internal/models"
	"github.com/searchvault/internal/search"
	"github.com/searchvault/internal/storage"
	"github.com/searchvault/pkg/logger"
	"github.com/searchvault/pkg/ratelimit"
)

// maxPageBytes caps a single page fetch
const maxPageBytes = 8 << 20 // 8 MiB

// Config holds executor settings
type Config struct {
	ExportDir string        // plain-text export area, one file per article
	Timeout   time.Duration // page fetch timeout
	UserAgent string
}

// Progress is one per-result progress signal
type Progress struct {
	Current int
	Total   int
}

// Hooks carries the optional progress sink for a run
type Hooks struct {
	OnProgress func(Progress)
	OnComplete func(*RunResult)
}

func (h Hooks) progress(current, total int) {
	if h.OnProgress != nil {
		h.OnProgress(Progress{Current: current, Total: total})
	}
}

func (h Hooks) complete(result *RunResult) {
	if h.OnComplete != nil {
		h.OnComplete(result)
	}
}

// RunResult summarizes one ingestion run
type RunResult struct {
	ArticlesCreated   int
	DuplicatesSkipped int
	Failures          int
	AbortReason       string
	Duration          time.Duration
	Errors            []error
}

// Executor orchestrates one full ingestion run for one query config:
// search, then per result dedup-check, page fetch, extraction, asset
// ingest, and persistence. Item failures are counted and logged; only a
// failed provider call aborts the run.
type Executor struct {
	clients    map[string]search.Client
	extractor  *extract.Extractor
	fetcher    *assets.Fetcher
	store      *assets.Store
	repo       storage.Repository
	httpClient *http.Client
	userAgent  string
	exportDir  string
	limiter    *ratelimit.MultiLimiter
	log        *logger.Logger

	mu       sync.Mutex
	inFlight map[uint]struct{}
}

// NewExecutor creates a new executor
func NewExecutor(
	repo storage.Repository,
	extractor *extract.Extractor,
	fetcher *assets.Fetcher,
	store *assets.Store,
	cfg Config,
	limiter *ratelimit.MultiLimiter,
	log *logger.Logger,
) *Executor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Executor{
		clients:    make(map[string]search.Client),
		extractor:  extractor,
		fetcher:    fetcher,
		store:      store,
		repo:       repo,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  cfg.UserAgent,
		exportDir:  cfg.ExportDir,
		limiter:    limiter,
		log:        log.WithComponent("executor"),
	}
}

// RegisterClient adds a search provider keyed by its name
func (e *Executor) RegisterClient(client search.Client) {
	e.clients[client.Name()] = client
}

// Run executes one ingestion run. An empty query after trimming is a no-op;
// a provider failure aborts the run with a RunAbortedError; everything else
// is tolerated per item. Results are processed in provider order.
func (e *Executor) Run(ctx context.Context, cfg *models.QueryConfig, hooks Hooks) (*RunResult, error) {
	result := &RunResult{}

	query := strings.TrimSpace(cfg.Query)
	if query == "" {
		hooks.complete(result)
		return result, nil
	}

	if !e.acquire(cfg.ID) {
		return nil, ErrRunInFlight
	}
	defer e.release(cfg.ID)

	log := e.log.WithQueryID(cfg.ID)
	start := time.Now()

	client, ok := e.clients[providerFor(cfg)]
	if !ok {
		result.AbortReason = fmt.Sprintf("unknown search provider %q", cfg.Provider)
		result.Duration = time.Since(start)
		hooks.complete(result)
		return result, &RunAbortedError{
			Reason: result.AbortReason,
			Err:    fmt.Errorf("no registered client"),
		}
	}

	results, err := client.Search(ctx, requestFor(cfg, query))
	if err != nil {
		result.AbortReason = "search provider call failed"
		if errors.Is(err, search.ErrMissingCredential) {
			result.AbortReason = "search credential not configured"
		}
		result.Duration = time.Since(start)
		log.Error().Err(err).Msg("Search failed, aborting run")
		hooks.complete(result)
		return result, &RunAbortedError{Reason: result.AbortReason, Err: err}
	}

	total := len(results)
	log.Info().Str("query", query).Int("results", total).Msg("Search completed, ingesting results")

	for i, res := range results {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}

		if err := e.processResult(ctx, cfg, res, result, log); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
		hooks.progress(i+1, total)
	}

	result.Duration = time.Since(start)

	log.Info().
		Int("created", result.ArticlesCreated).
		Int("duplicates", result.DuplicatesSkipped).
		Int("failures", result.Failures).
		Dur("duration", result.Duration).
		Msg("Run completed")

	hooks.complete(result)
	return result, nil
}

// processResult handles one search result end to end. All failures here
// are item-level: counted, logged, and the run continues. Only context
// cancellation is returned.
func (e *Executor) processResult(ctx context.Context, cfg *models.QueryConfig, res search.Result, result *RunResult, log *logger.Logger) error {
	exists, err := e.repo.ExistsByURL(ctx, res.URL)
	if err != nil {
		e.itemFailure(result, log, res.URL, "dedup check failed", err)
		return nil
	}
	if exists {
		result.DuplicatesSkipped++
		log.Debug().Str("url", res.URL).Msg("Duplicate URL, skipping")
		return nil
	}

	body, err := e.fetchPage(ctx, res.URL)
	if err != nil {
		e.itemFailure(result, log, res.URL, "page fetch failed", err)
		return nil
	}

	content, err := e.extractor.Extract(body, res.URL)
	if err != nil {
		e.itemFailure(result, log, res.URL, "extraction failed", err)
		return nil
	}

	article := buildArticle(cfg, res, content)

	partition := e.store.NewPartition()
	if err := e.ingestAssets(ctx, partition, content, article); err != nil {
		// Cancelled mid-download: drop the partial partition so no
		// half-written file outlives the run
		e.store.RemovePartition(partition)
		return err
	}

	if err := e.repo.CreateArticle(ctx, article); err != nil {
		e.store.RemovePartition(partition)
		if errors.Is(err, storage.ErrDuplicateURL) {
			result.DuplicatesSkipped++
			log.Debug().Str("url", res.URL).Msg("Lost insert race, counting duplicate")
			return nil
		}
		e.itemFailure(result, log, res.URL, "persist failed", err)
		return nil
	}

	result.ArticlesCreated++
	log.Debug().
		Str("url", res.URL).
		Uint("article_id", article.ID).
		Int("assets", article.AssetCount()).
		Int64("asset_bytes", article.AssetBytes()).
		Msg("Article created")

	if err := e.exportText(article); err != nil {
		log.Warn().Err(err).Uint("article_id", article.ID).Msg("Text export failed")
	}

	return nil
}

// ingestAssets downloads every image and video-thumbnail reference.
// Per-asset failure yields a record with a nil local path; only context
// cancellation stops the loop.
func (e *Executor) ingestAssets(ctx context.Context, partition string, content *extract.Content, article *models.Article) error {
	refs := assetRefs(content)

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return err
		}

		asset := models.Asset{
			SourceURL:    ref.URL,
			AltText:      ref.Alt,
			Width:        ref.Width,
			Height:       ref.Height,
			DownloadedAt: time.Now(),
		}

		blob, err := e.fetcher.Fetch(ctx, ref.URL)
		if err != nil {
			// Metadata-only asset; ingestion continues
			e.log.Debug().Str("ref", ref.URL).Err(err).Msg("Asset download failed")
			article.Assets = append(article.Assets, asset)
			continue
		}

		path, err := e.store.Save(partition, blob)
		if err != nil {
			e.log.Debug().Str("ref", ref.URL).Err(err).Msg("Asset store failed")
			article.Assets = append(article.Assets, asset)
			continue
		}

		asset.LocalPath = &path
		asset.ByteSize = blob.ByteCount
		article.Assets = append(article.Assets, asset)
	}

	return nil
}

// fetchPage downloads the page body for one search result
func (e *Executor) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, ratelimit.LimiterPages); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
}

// exportText writes the article's main text to one file named by its id
func (e *Executor) exportText(article *models.Article) error {
	if e.exportDir == "" {
		return nil
	}
	if err := os.MkdirAll(e.exportDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(e.exportDir, fmt.Sprintf("%d.txt", article.ID))
	return os.WriteFile(path, []byte(article.MainText), 0644)
}

func (e *Executor) itemFailure(result *RunResult, log *logger.Logger, url, msg string, err error) {
	result.Failures++
	result.Errors = append(result.Errors, fmt.Errorf("%s: %s: %w", url, msg, err))
	log.Warn().Str("url", url).Err(err).Msg(msg)
}

// acquire claims the per-config in-flight slot (skip-if-busy, not queue)
func (e *Executor) acquire(id uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight == nil {
		e.inFlight = make(map[uint]struct{})
	}
	if _, busy := e.inFlight[id]; busy {
		return false
	}
	e.inFlight[id] = struct{}{}
	return true
}

func (e *Executor) release(id uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, id)
}

// buildArticle copies the search result and extracted content into a
// persistable article owned by the query config
func buildArticle(cfg *models.QueryConfig, res search.Result, content *extract.Content) *models.Article {
	title := res.Title
	if title == "" {
		title = res.URL
	}
	return &models.Article{
		QueryConfigID: cfg.ID,
		URL:           res.URL,
		Title:         title,
		Snippet:       res.Snippet,
		MainText:      content.MainText,
		WordCount:     content.Metadata.WordCount,
		ReadingTime:   content.Metadata.ReadingTime,
		Author:        content.Metadata.Author,
		PublishDate:   content.Metadata.PublishDate,
		Language:      content.Metadata.Language,
		Tags:          content.Metadata.Tags,
		Links:         content.Links,
		Videos:        content.Videos,
		Audios:        content.Audios,
	}
}

// assetRefs collects the downloadable references: images plus derivable
// video thumbnails
func assetRefs(content *extract.Content) []extract.ImageRef {
	refs := make([]extract.ImageRef, 0, len(content.Images))
	refs = append(refs, content.Images...)

	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		seen[ref.URL] = true
	}

	for _, video := range content.Videos {
		if thumb, ok := extract.VideoThumbnail(video); ok && !seen[thumb] {
			seen[thumb] = true
			refs = append(refs, extract.ImageRef{URL: thumb, Alt: video.Title})
		}
	}

	return refs
}

// requestFor maps a query config to a provider request
func requestFor(cfg *models.QueryConfig, query string) search.Request {
	return search.Request{
		Query:      query,
		Language:   cfg.Language,
		Region:     cfg.Region,
		Location:   cfg.Location,
		SafeSearch: cfg.SafeSearch,
		ResultType: cfg.ResultType,
		TimeRange:  cfg.TimeRange,
		Filter:     cfg.Filter,
	}
}

func providerFor(cfg *models.QueryConfig) string {
	if cfg.Provider == "" {
		return models.ProviderWebAPI
	}
	return cfg.Provider
}
