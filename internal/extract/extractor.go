package extract

import (
	"bytes"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/searchvault/internal/models"
	"github.com/searchvault/pkg/logger"
)

// ErrNoContent means the page body was empty, so there is nothing to extract
var ErrNoContent = errors.New("page body is empty")

// wordsPerMinute is the fixed reading-speed constant used for reading time
const wordsPerMinute = 200

// ImageRef is one image reference found on a page
type ImageRef struct {
	URL    string
	Alt    string
	Width  int
	Height int
}

// Metadata holds the best-effort page metadata
type Metadata struct {
	Author      string
	PublishDate string
	Language    string
	Tags        []string
	WordCount   int
	ReadingTime int // minutes
}

// Content is the structured record produced from one page
type Content struct {
	MainText string
	Links    []models.Link
	Videos   []models.MediaRef
	Audios   []models.MediaRef
	Images   []ImageRef
	Metadata Metadata
}

// Extractor turns raw page markup into a structured content record.
// Extraction is deterministic for identical input and degrades to empty
// collections on malformed markup instead of failing.
type Extractor struct {
	log *logger.Logger
}

// New creates a new extractor
func New(log *logger.Logger) *Extractor {
	return &Extractor{log: log.WithComponent("extract")}
}

// Extract parses pageBody with baseURL as the resolution base
func (e *Extractor) Extract(pageBody []byte, baseURL string) (*Content, error) {
	if len(bytes.TrimSpace(pageBody)) == 0 {
		return nil, ErrNoContent
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	content := &Content{}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageBody))
	if err != nil {
		// Unparseable bytes: keep whatever readability can salvage
		e.log.Debug().Str("url", baseURL).Err(err).Msg("Markup parse failed, degrading")
		content.MainText = e.mainText(pageBody, base, nil)
		e.finishMetadata(content)
		return content, nil
	}

	content.MainText = e.mainText(pageBody, base, doc)
	e.collectLinks(doc, base, content)
	e.collectImages(doc, base, content)
	e.collectEmbeds(doc, base, content)
	e.collectMetadata(doc, content)
	e.finishMetadata(content)

	return content, nil
}

// mainText extracts the readable main text, falling back to the raw body text
func (e *Extractor) mainText(pageBody []byte, base *url.URL, doc *goquery.Document) string {
	if base != nil {
		article, err := readability.FromReader(bytes.NewReader(pageBody), base)
		if err == nil && strings.TrimSpace(article.TextContent) != "" {
			return normalizeSpace(article.TextContent)
		}
	}
	if doc != nil {
		return normalizeSpace(doc.Find("body").Text())
	}
	return ""
}

// collectLinks gathers anchors, routing media-platform links to the
// video/audio collections and classifying the rest by host
func (e *Extractor) collectLinks(doc *goquery.Document, base *url.URL, content *Content) {
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved := resolveRef(base, href)
		if resolved == nil {
			return
		}

		text := strings.TrimSpace(sel.Text())

		if ref, kind := classifyMedia(resolved, text); kind != mediaNone {
			switch kind {
			case mediaVideo:
				content.Videos = append(content.Videos, ref)
			case mediaAudio:
				content.Audios = append(content.Audios, ref)
			}
			return
		}

		content.Links = append(content.Links, models.Link{
			URL:      resolved.String(),
			Text:     text,
			External: base == nil || !sameHost(resolved, base),
		})
	})
}

// collectImages gathers img references with their captured dimensions
func (e *Extractor) collectImages(doc *goquery.Document, base *url.URL, content *Content) {
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			src, _ = sel.Attr("data-src")
		}
		resolved := resolveRef(base, src)
		if resolved == nil {
			return
		}

		alt, _ := sel.Attr("alt")
		content.Images = append(content.Images, ImageRef{
			URL:    resolved.String(),
			Alt:    strings.TrimSpace(alt),
			Width:  intAttr(sel, "width"),
			Height: intAttr(sel, "height"),
		})
	})
}

// collectEmbeds gathers embedded video/audio players
func (e *Extractor) collectEmbeds(doc *goquery.Document, base *url.URL, content *Content) {
	doc.Find("iframe[src], video, video source").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		resolved := resolveRef(base, src)
		if resolved == nil {
			return
		}
		title, _ := sel.Attr("title")
		ref, kind := classifyMedia(resolved, strings.TrimSpace(title))
		if kind == mediaAudio {
			content.Audios = append(content.Audios, ref)
			return
		}
		// Embedded players default to video; unknown hosts keep their
		// literal hostname rather than being dropped
		if kind == mediaNone {
			ref = otherMedia(resolved, strings.TrimSpace(title))
		}
		content.Videos = append(content.Videos, ref)
	})

	doc.Find("audio, audio source").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		resolved := resolveRef(base, src)
		if resolved == nil {
			return
		}
		ref, kind := classifyMedia(resolved, "")
		if kind != mediaAudio {
			ref = otherMedia(resolved, "")
		}
		content.Audios = append(content.Audios, ref)
	})
}

// collectMetadata pulls best-effort author, date, language and tags
func (e *Extractor) collectMetadata(doc *goquery.Document, content *Content) {
	meta := &content.Metadata

	meta.Author = firstMeta(doc,
		`meta[name="author"]`,
		`meta[property="article:author"]`,
		`meta[name="twitter:creator"]`,
	)
	meta.PublishDate = firstMeta(doc,
		`meta[property="article:published_time"]`,
		`meta[name="date"]`,
		`meta[name="publish-date"]`,
	)
	if meta.PublishDate == "" {
		if datetime, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
			meta.PublishDate = strings.TrimSpace(datetime)
		}
	}

	if lang, ok := doc.Find("html").First().Attr("lang"); ok {
		meta.Language = strings.TrimSpace(lang)
	}
	if meta.Language == "" {
		meta.Language = firstMeta(doc, `meta[property="og:locale"]`)
	}

	seen := make(map[string]bool)
	addTag := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[strings.ToLower(tag)] {
			return
		}
		seen[strings.ToLower(tag)] = true
		meta.Tags = append(meta.Tags, tag)
	}
	for _, keyword := range strings.Split(firstMeta(doc, `meta[name="keywords"]`), ",") {
		addTag(keyword)
	}
	doc.Find(`meta[property="article:tag"]`).Each(func(_ int, sel *goquery.Selection) {
		tag, _ := sel.Attr("content")
		addTag(tag)
	})
}

// finishMetadata derives word count and reading time from the main text
func (e *Extractor) finishMetadata(content *Content) {
	content.Metadata.WordCount = len(strings.Fields(content.MainText))
	content.Metadata.ReadingTime = ReadingTime(content.Metadata.WordCount)
}

// ReadingTime returns the reading time in minutes for a word count,
// at a fixed 200 words per minute, never below one minute
func ReadingTime(wordCount int) int {
	minutes := wordCount / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// resolveRef resolves a raw href/src against the base, dropping
// non-navigable references
func resolveRef(base *url.URL, ref string) *url.URL {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return nil
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return nil
	}
	switch parsed.Scheme {
	case "javascript", "mailto", "tel":
		return nil
	}
	if base != nil {
		parsed = base.ResolveReference(parsed)
	}
	if parsed.Host == "" && parsed.Scheme != "data" {
		return nil
	}
	return parsed
}

// sameHost compares hosts ignoring a leading www
func sameHost(a, b *url.URL) bool {
	return strings.TrimPrefix(strings.ToLower(a.Hostname()), "www.") ==
		strings.TrimPrefix(strings.ToLower(b.Hostname()), "www.")
}

// firstMeta returns the first non-empty content attribute among selectors
func firstMeta(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if value, ok := doc.Find(selector).First().Attr("content"); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// intAttr parses an integer attribute, returning 0 when absent or malformed
func intAttr(sel *goquery.Selection, name string) int {
	raw, ok := sel.Attr(name)
	if !ok {
		return 0
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// normalizeSpace collapses runs of whitespace while keeping paragraph breaks
func normalizeSpace(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
