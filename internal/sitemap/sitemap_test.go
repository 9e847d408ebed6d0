package sitemap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

const urlsetDoc = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/</loc></url>
  <url><loc>https://example.com/pricing/</loc></url>
  <url><loc>https://example.com/blog?utm_source=x</loc></url>
  <url><loc>https://other.example.org/elsewhere</loc></url>
</urlset>`

func TestDiscover_Urlset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(urlsetDoc))
	}))
	defer srv.Close()

	f := New(0)
	pages, err := f.Discover(context.Background(), srv.URL+"/sitemap.xml", "https://example.com")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	want := []string{
		"https://example.com/",
		"https://example.com/blog",
		"https://example.com/pricing",
	}
	if !reflect.DeepEqual(pages, want) {
		t.Errorf("pages = %v, want %v", pages, want)
	}
}

func TestDiscover_SitemapIndex(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	index := `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>` + srv.URL + `/posts.xml</loc></sitemap>
  <sitemap><loc>` + srv.URL + `/broken.xml</loc></sitemap>
</sitemapindex>`

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(index))
	})
	mux.HandleFunc("/posts.xml", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<urlset><url><loc>https://example.com/posts/1</loc></url></urlset>`))
	})
	mux.HandleFunc("/broken.xml", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})

	f := New(0)
	pages, err := f.Discover(context.Background(), srv.URL+"/sitemap.xml", "https://example.com")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	// The broken child is skipped, not fatal.
	want := []string{"https://example.com/posts/1"}
	if !reflect.DeepEqual(pages, want) {
		t.Errorf("pages = %v, want %v", pages, want)
	}
}

func TestDiscover_FetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(0)
	if _, err := f.Discover(context.Background(), srv.URL+"/sitemap.xml", "https://example.com"); err == nil {
		t.Fatal("expected error on 404 sitemap, got none")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"plain page", "https://example.com/about", "https://example.com/about", true},
		{"http upgraded", "http://example.com/about", "https://example.com/about", true},
		{"trailing slash stripped", "https://example.com/about/", "https://example.com/about", true},
		{"root keeps slash", "https://example.com/", "https://example.com/", true},
		{"empty path becomes root", "https://example.com", "https://example.com/", true},
		{"query stripped", "https://example.com/a?b=c", "https://example.com/a", true},
		{"fragment stripped", "https://example.com/a#sec", "https://example.com/a", true},
		{"www is same site", "https://www.example.com/a", "https://www.example.com/a", true},
		{"foreign host rejected", "https://evil.example.org/a", "", false},
		{"relative rejected", "/just/a/path", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Normalize(tc.in, "example.com")
			if ok != tc.wantOK {
				t.Fatalf("Normalize(%q) ok = %v, want %v", tc.in, ok, tc.wantOK)
			}
			if got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
