package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vitalwatch/vitalwatch/internal/chart"
	"github.com/vitalwatch/vitalwatch/internal/config"
	"github.com/vitalwatch/vitalwatch/internal/crux"
	"github.com/vitalwatch/vitalwatch/internal/history"
	"github.com/vitalwatch/vitalwatch/internal/notify"
	"github.com/vitalwatch/vitalwatch/internal/promfile"
	"github.com/vitalwatch/vitalwatch/internal/sitemap"
	"github.com/vitalwatch/vitalwatch/internal/vitals"
)

// Fetcher queries weekly p75 history for one target and device.
type Fetcher interface {
	FetchHistory(ctx context.Context, target crux.Target, device vitals.Device) ([]vitals.Sample, error)
}

// PageDiscoverer finds target pages from a sitemap.
type PageDiscoverer interface {
	Discover(ctx context.Context, sitemapURL, origin string) ([]string, error)
}

// Notifier delivers the report summary and chart images.
type Notifier interface {
	CanPost() bool
	CanUpload() bool
	PostSummary(ctx context.Context, text string) error
	UploadChart(ctx context.Context, filename string, png []byte, comment string) error
}

// Runner executes report cycles for one configured origin.
type Runner struct {
	cfg    *config.Config
	crux   Fetcher
	pages  PageDiscoverer
	notify Notifier
}

// New wires a Runner with the production collaborators resolved from cfg.
func New(cfg *config.Config) *Runner {
	return &Runner{
		cfg:    cfg,
		crux:   crux.New(cfg.CrUX.Endpoint, cfg.CrUX.APIKey(), cfg.CrUX.Timeout),
		pages:  sitemap.New(0),
		notify: notify.New(cfg.Slack.WebhookURL(), cfg.Slack.BotToken(), cfg.Slack.Channel),
	}
}

// renderedChart is one per-metric PNG produced during a changed run.
type renderedChart struct {
	metric   vitals.Metric
	filename string
	png      []byte
}

// Run performs one full reporting cycle. A non-nil error means the run
// aborted and nothing was persisted this cycle; notification failures
// alone never produce an error.
func (r *Runner) Run(ctx context.Context) error {
	start := time.Now()
	rc := r.cfg.Report

	targets, pageCount := r.resolveTargets(ctx)
	slog.Info("report: starting run",
		"origin", rc.Origin, "targets", len(targets), "pages", pageCount)

	samples, err := r.fetchAll(ctx, targets)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		slog.Warn("report: no field data for any target", "origin", rc.Origin)
	}

	incoming, err := vitals.AggregateSamples(samples, recentWeeks(samples, rc.LookbackWeeks))
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	existing, err := history.Load(rc.HistoryPath)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	merged, changed := history.Merge(existing, incoming)
	var charts []renderedChart
	if changed {
		if err := history.Save(rc.HistoryPath, merged); err != nil {
			return fmt.Errorf("report: %w", err)
		}
		slog.Info("report: history updated",
			"path", rc.HistoryPath, "rows", len(merged))

		charts = r.renderCharts(history.Tail(merged, rc.LookbackWeeks))
		r.exportTextfile(merged)
	} else {
		slog.Info("report: history unchanged, skipping rewrite and charts",
			"path", rc.HistoryPath)
	}

	window := history.Tail(merged, rc.LookbackWeeks)
	summary := notify.Summary(rc.Origin, history.Latest(window), pageCount, rc.WarnPoorPct)
	r.deliver(ctx, summary, charts)

	slog.Info("report: run complete",
		"changed", changed, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// resolveTargets decides what to query: explicit pages, sitemap-discovered
// pages, or the bare origin. Sitemap failure degrades to an origin-level
// run rather than aborting.
func (r *Runner) resolveTargets(ctx context.Context) (targets []crux.Target, pageCount int) {
	rc := r.cfg.Report

	pages := rc.Pages
	if len(pages) == 0 && rc.SitemapURL != "" {
		discovered, err := r.pages.Discover(ctx, rc.SitemapURL, rc.Origin)
		if err != nil {
			slog.Warn("report: sitemap discovery failed, falling back to origin",
				"sitemap", rc.SitemapURL, "err", err)
		} else {
			pages = discovered
		}
	}

	if len(pages) == 0 {
		return []crux.Target{{Origin: rc.Origin}}, 0
	}
	for _, p := range pages {
		targets = append(targets, crux.Target{URL: p})
	}
	return targets, len(pages)
}

// fetchAll queries every (target, device) pair sequentially. Any fetch
// error aborts the run; per-target "no data" results contribute nothing.
func (r *Runner) fetchAll(ctx context.Context, targets []crux.Target) ([]vitals.Sample, error) {
	var samples []vitals.Sample
	for _, target := range targets {
		for _, device := range vitals.Devices {
			got, err := r.crux.FetchHistory(ctx, target, device)
			if err != nil {
				return nil, fmt.Errorf("report: fetch: %w", err)
			}
			samples = append(samples, got...)
		}
	}
	return samples, nil
}

// recentWeeks returns the last n distinct weeks observed in samples,
// oldest first. Nil when samples is empty so the aggregator sees no
// filter at all.
func recentWeeks(samples []vitals.Sample, n int) []time.Time {
	if len(samples) == 0 {
		return nil
	}
	seen := make(map[string]time.Time)
	for _, s := range samples {
		k := s.WeekStart.UTC().Format("2006-01-02")
		if _, ok := seen[k]; !ok {
			seen[k] = s.WeekStart
		}
	}
	weeks := make([]time.Time, 0, len(seen))
	for _, w := range seen {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })
	if len(weeks) > n {
		weeks = weeks[len(weeks)-n:]
	}
	return weeks
}

// renderCharts draws one trend PNG per metric into the chart directory.
// Render failures are logged per metric; history is already persisted by
// the time charts are drawn, so they never fail the run.
func (r *Runner) renderCharts(window []vitals.Aggregate) []renderedChart {
	if r.cfg.Report.ChartDir == "" {
		return nil
	}
	if err := os.MkdirAll(r.cfg.Report.ChartDir, 0o755); err != nil {
		slog.Error("report: create chart dir", "dir", r.cfg.Report.ChartDir, "err", err)
		return nil
	}

	var out []renderedChart
	for _, m := range vitals.Metrics {
		png, err := chart.Render(m, window)
		if err != nil {
			slog.Warn("report: chart skipped", "metric", m, "err", err)
			continue
		}
		name := fmt.Sprintf("cwv_%s.png", strings.ToLower(string(m)))
		path := filepath.Join(r.cfg.Report.ChartDir, name)
		if err := os.WriteFile(path, png, 0o644); err != nil {
			slog.Error("report: write chart", "path", path, "err", err)
			continue
		}
		out = append(out, renderedChart{metric: m, filename: name, png: png})
	}
	return out
}

// exportTextfile writes the node_exporter textfile artifact when enabled.
func (r *Runner) exportTextfile(merged []vitals.Aggregate) {
	path := r.cfg.Report.TextfilePath
	if path == "" {
		return
	}
	if err := promfile.Save(path, history.Latest(merged)); err != nil {
		slog.Error("report: textfile export failed", "path", path, "err", err)
	}
}

// deliver posts the summary and uploads charts. All failures here are
// logged and swallowed.
func (r *Runner) deliver(ctx context.Context, summary string, charts []renderedChart) {
	if !r.notify.CanPost() {
		slog.Info("report: no webhook configured, logging summary only")
		fmt.Println(summary)
		return
	}

	if err := r.notify.PostSummary(ctx, summary); err != nil {
		slog.Error("report: summary delivery failed", "err", err)
	}

	if len(charts) == 0 || !r.notify.CanUpload() {
		return
	}
	for _, c := range charts {
		comment := fmt.Sprintf("%s weekly trend (%s)", c.metric, r.cfg.Report.Origin)
		if err := r.notify.UploadChart(ctx, c.filename, c.png, comment); err != nil {
			slog.Error("report: chart upload failed", "metric", c.metric, "err", err)
		}
	}
}
