package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	defaultTimeout = 15 * time.Second

	// maxChildSitemaps caps how many child sitemaps of an index we follow.
	maxChildSitemaps = 50

	// maxBodyBytes caps how much of any sitemap document we read.
	maxBodyBytes = 10 << 20
)

// urlset matches both <urlset> and <sitemapindex> documents: each carries
// a list of <loc> entries under their respective child elements.
type urlset struct {
	URLs     []loc `xml:"url"`
	Sitemaps []loc `xml:"sitemap"`
}

type loc struct {
	Loc string `xml:"loc"`
}

// Fetcher discovers page URLs from sitemaps.
type Fetcher struct {
	client *http.Client
}

// New returns a Fetcher. A zero timeout uses the default of 15 seconds.
func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Discover returns the normalized page URLs listed in the sitemap at
// sitemapURL that belong to origin's host. Child sitemaps referenced by a
// sitemap index are followed; a child that fails to load is logged and
// skipped rather than failing the whole discovery. The result is sorted
// and deduplicated.
func (f *Fetcher) Discover(ctx context.Context, sitemapURL, origin string) ([]string, error) {
	host, err := hostOf(origin)
	if err != nil {
		return nil, fmt.Errorf("sitemap: bad origin %q: %w", origin, err)
	}

	doc, err := f.fetch(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("sitemap: %w", err)
	}

	seen := make(map[string]bool)
	collect := func(entries []loc) {
		for _, e := range entries {
			if norm, ok := Normalize(strings.TrimSpace(e.Loc), host); ok {
				seen[norm] = true
			}
		}
	}
	collect(doc.URLs)

	children := doc.Sitemaps
	if len(children) > maxChildSitemaps {
		slog.Warn("sitemap: index too large — truncating",
			"children", len(children), "max", maxChildSitemaps)
		children = children[:maxChildSitemaps]
	}
	for _, child := range children {
		childDoc, err := f.fetch(ctx, strings.TrimSpace(child.Loc))
		if err != nil {
			slog.Warn("sitemap: skipping child sitemap", "url", child.Loc, "err", err)
			continue
		}
		collect(childDoc.URLs)
	}

	pages := make([]string, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Strings(pages)
	return pages, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (*urlset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	var doc urlset
	dec := xml.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return &doc, nil
}

// hostOf extracts the host from an origin URL.
func hostOf(origin string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("no host")
	}
	return u.Host, nil
}

// Normalize canonicalizes a discovered URL and reports whether it belongs
// to the given host. The scheme is forced to https, query, fragment and
// trailing slash are stripped (the bare root keeps its slash). URLs on
// other hosts are rejected.
func Normalize(rawURL, host string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if u.Host == "" || !sameHost(u.Host, host) {
		return "", false
	}

	u.Scheme = "https"
	u.RawQuery = ""
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	} else if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String(), true
}

// sameHost treats "www.example.com" and "example.com" as the same site.
func sameHost(a, b string) bool {
	return strings.TrimPrefix(a, "www.") == strings.TrimPrefix(b, "www.")
}
