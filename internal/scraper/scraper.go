// Package scraper fetches social-media post pages and extracts the caption,
// hashtags, and media URLs the import pipeline needs.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout is the HTTP request timeout for post pages.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for post page requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; RecipeImporter/1.0)"

// Owner identifies the account that published the post.
type Owner struct {
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

// PostMetadata is what the pipeline learns about a post before touching its
// media.
type PostMetadata struct {
	Caption   string   `json:"caption,omitempty"`
	Hashtags  []string `json:"hashtags,omitempty"`
	MediaURLs []string `json:"media_urls"`
	Owner     Owner    `json:"owner"`
	Platform  Platform `json:"platform"`
}

// Scraper fetches post metadata and media URLs from a source URL.
type Scraper interface {
	Fetch(ctx context.Context, postURL string) (*PostMetadata, error)
}

// Options configures the HTTP scraper.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	UseBrowser bool // Fall back to headless rendering when static HTML has no media.
}

// HTTPScraper extracts post metadata from OpenGraph tags in the page HTML,
// optionally falling back to a headless browser for script-rendered pages.
type HTTPScraper struct {
	opts Options
}

// NewHTTPScraper creates a scraper with the given options. Zero values use
// package defaults.
func NewHTTPScraper(opts Options) *HTTPScraper {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &HTTPScraper{opts: opts}
}

var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// Fetch retrieves the post page and parses out caption, hashtags, media
// URLs, and owner info.
func (s *HTTPScraper) Fetch(ctx context.Context, postURL string) (*PostMetadata, error) {
	parsed, err := url.Parse(postURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: postURL, Message: "invalid post URL", Cause: err}
	}

	html, err := s.fetchHTML(ctx, postURL)
	if err != nil {
		return nil, err
	}

	meta, err := parsePostHTML(postURL, html)
	if err != nil {
		return nil, err
	}

	// Script-rendered pages often ship empty OpenGraph tags in static HTML.
	if len(meta.MediaURLs) == 0 && s.opts.UseBrowser {
		rendered, berr := renderWithBrowser(ctx, postURL, s.opts.Timeout)
		if berr == nil {
			if renderedMeta, perr := parsePostHTML(postURL, rendered); perr == nil {
				meta = renderedMeta
			}
		}
	}

	if len(meta.MediaURLs) == 0 {
		return nil, &Error{URL: postURL, Message: "no media found in post page"}
	}
	return meta, nil
}

// fetchHTML retrieves the raw page under the configured timeout.
func (s *HTTPScraper) fetchHTML(ctx context.Context, postURL string) (string, error) {
	client := &http.Client{Timeout: s.opts.Timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, postURL, nil)
	if err != nil {
		return "", &Error{URL: postURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", &Error{URL: postURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{URL: postURL, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{URL: postURL, Message: "failed to read response body", Cause: err}
	}
	return string(bodyBytes), nil
}

// parsePostHTML extracts post metadata from OpenGraph and standard meta tags.
func parsePostHTML(postURL, html string) (*PostMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &Error{URL: postURL, Message: "failed to parse HTML", Cause: err}
	}

	platform := DetectPlatform(postURL)
	meta := &PostMetadata{Platform: platform}

	// Videos take priority over their poster images.
	for _, prop := range []string{"og:video:secure_url", "og:video:url", "og:video"} {
		if v := metaContent(doc, prop); v != "" {
			meta.MediaURLs = appendUnique(meta.MediaURLs, v)
		}
	}
	if len(meta.MediaURLs) == 0 {
		for _, prop := range []string{"og:image:secure_url", "og:image"} {
			if v := metaContent(doc, prop); v != "" {
				meta.MediaURLs = appendUnique(meta.MediaURLs, v)
			}
		}
	}

	meta.Caption = metaContent(doc, "og:description")
	if meta.Caption == "" {
		meta.Caption, _ = doc.Find(`meta[name="description"]`).Attr("content")
	}
	meta.Hashtags = extractHashtags(meta.Caption)

	meta.Owner = Owner{
		Username: usernameFromURL(platform, postURL),
		FullName: ownerFromTitle(metaContent(doc, "og:title")),
	}
	if meta.Owner.Username == "" {
		if creator, ok := doc.Find(`meta[name="twitter:creator"]`).Attr("content"); ok {
			meta.Owner.Username = strings.TrimPrefix(creator, "@")
		}
	}

	return meta, nil
}

// metaContent returns the content of a <meta property="..."> tag.
func metaContent(doc *goquery.Document, property string) string {
	content, _ := doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).First().Attr("content")
	return strings.TrimSpace(content)
}

// ownerFromTitle strips platform suffixes like "Name on Instagram: ..." down
// to the display name.
func ownerFromTitle(title string) string {
	if title == "" {
		return ""
	}
	for _, sep := range []string{" on Instagram", " on TikTok", " - YouTube"} {
		if idx := strings.Index(title, sep); idx > 0 {
			return strings.TrimSpace(title[:idx])
		}
	}
	return ""
}

// extractHashtags lifts #tags out of the caption text, deduplicated in
// order of appearance.
func extractHashtags(caption string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(caption, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var tags []string
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

func appendUnique(urls []string, u string) []string {
	for _, existing := range urls {
		if existing == u {
			return urls
		}
	}
	return append(urls, u)
}
