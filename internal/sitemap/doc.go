// Package sitemap discovers a site's target pages from its sitemap.xml.
//
// Discover fetches the sitemap at the configured URL, handles both the
// plain urlset form and a sitemapindex of child sitemaps, and returns the
// normalized page URLs that belong to the report origin's host. URLs are
// normalized the same way regardless of source: https scheme, no query,
// no fragment, no trailing slash (except the root).
//
// Discovery is best-effort input for the report: the caller falls back to
// an origin-level query when it fails or returns nothing.
package sitemap
