package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vitalwatch/vitalwatch/internal/vitals"
)

func week(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func agg(m vitals.Metric, d vitals.Device, good, ni, poor int) vitals.Aggregate {
	return vitals.Aggregate{
		WeekStart: week("2024-01-01"),
		Metric:    m,
		Device:    d,
		Good:      good,
		NI:        ni,
		Poor:      poor,
		Total:     good + ni + poor,
	}
}

func TestSummary_Format(t *testing.T) {
	latest := []vitals.Aggregate{
		agg(vitals.MetricLCP, vitals.DeviceMobile, 8, 1, 1),
		agg(vitals.MetricINP, vitals.DeviceMobile, 3, 3, 3),
		agg(vitals.MetricLCP, vitals.DeviceDesktop, 10, 0, 0),
	}

	got := Summary("https://example.com", latest, 12, 0)
	want := strings.Join([]string{
		"*Core Web Vitals weekly report* (https://example.com)",
		"_Week of 2024-01-01_",
		"_Pages tracked_: 12",
		"*mobile*",
		"- LCP: Good 80.0% | NI 10.0% | Poor 10.0% (10 pages)",
		"- INP: Good 33.3% | NI 33.3% | Poor 33.3% (9 pages)",
		"*desktop*",
		"- LCP: Good 100.0% | NI 0.0% | Poor 0.0% (10 pages)",
	}, "\n")

	if got != want {
		t.Errorf("Summary:\n%s\nwant:\n%s", got, want)
	}
}

func TestSummary_Deterministic(t *testing.T) {
	latest := []vitals.Aggregate{
		agg(vitals.MetricCLS, vitals.DeviceDesktop, 5, 4, 1),
		agg(vitals.MetricLCP, vitals.DeviceMobile, 8, 1, 1),
	}

	first := Summary("https://example.com", latest, 0, 0)
	for i := 0; i < 10; i++ {
		if got := Summary("https://example.com", latest, 0, 0); got != first {
			t.Fatalf("run %d differs:\n%s\nvs\n%s", i, got, first)
		}
	}
}

func TestSummary_PoorWarning(t *testing.T) {
	latest := []vitals.Aggregate{
		agg(vitals.MetricLCP, vitals.DeviceMobile, 5, 2, 3), // 30% poor
		agg(vitals.MetricINP, vitals.DeviceMobile, 9, 1, 0), // 0% poor
	}

	got := Summary("https://example.com", latest, 0, 20)
	if !strings.Contains(got, "- LCP: Good 50.0% | NI 20.0% | Poor 30.0% (10 pages) [POOR above 20%]") {
		t.Errorf("LCP line missing warning marker:\n%s", got)
	}
	if strings.Contains(got, "INP: Good 90.0% | NI 10.0% | Poor 0.0% (10 pages) [POOR") {
		t.Errorf("INP line should not carry a warning:\n%s", got)
	}
}

func TestSummary_NoData(t *testing.T) {
	got := Summary("https://example.com", nil, 0, 0)
	if !strings.Contains(got, "No field data observed this week.") {
		t.Errorf("empty summary = %q", got)
	}
}

func TestPostSummary(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	s := New(srv.URL, "", "")
	if err := s.PostSummary(context.Background(), "hello"); err != nil {
		t.Fatalf("PostSummary: %v", err)
	}
	if gotBody["text"] != "hello" {
		t.Errorf("posted text = %q", gotBody["text"])
	}
}

func TestPostSummary_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no_service", http.StatusNotFound)
	}))
	defer srv.Close()

	s := New(srv.URL, "", "")
	if err := s.PostSummary(context.Background(), "hello"); err == nil {
		t.Fatal("expected error on 404 webhook, got none")
	}
}

func TestUploadChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer xoxb-test" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if ch := r.FormValue("channels"); ch != "#web-perf" {
			t.Errorf("channels = %q", ch)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "lcp.png" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	s := New("https://hooks.invalid", "xoxb-test", "#web-perf")
	s.uploadEndpoint = srv.URL
	if err := s.UploadChart(context.Background(), "lcp.png", []byte("png-bytes"), "LCP trend"); err != nil {
		t.Fatalf("UploadChart: %v", err)
	}
}

func TestUploadChart_APIRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok": false, "error": "invalid_auth"}`))
	}))
	defer srv.Close()

	s := New("https://hooks.invalid", "xoxb-test", "#web-perf")
	s.uploadEndpoint = srv.URL
	err := s.UploadChart(context.Background(), "lcp.png", []byte("x"), "")
	if err == nil || !strings.Contains(err.Error(), "invalid_auth") {
		t.Fatalf("error = %v, want invalid_auth rejection", err)
	}
}

func TestUploadChart_NotConfigured(t *testing.T) {
	s := New("https://hooks.invalid", "", "")
	if s.CanUpload() {
		t.Error("CanUpload = true without token and channel")
	}
	if err := s.UploadChart(context.Background(), "x.png", nil, ""); err == nil {
		t.Error("expected error when upload is not configured")
	}
}
