package promfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/vitalwatch/vitalwatch/internal/vitals"
)

// Family and label names of the exported metrics.
const (
	familyTierRatio  = "cwv_tier_ratio"
	familyPagesTotal = "cwv_pages_total"
	familyWeekStart  = "cwv_week_start_timestamp_seconds"
)

// Write encodes the latest week's aggregates as Prometheus text format.
// latest must hold rows for a single week; rows with a zero total export
// nothing (they never reach the store anyway).
func Write(w io.Writer, latest []vitals.Aggregate) error {
	if len(latest) == 0 {
		return nil
	}

	ratio := &dto.MetricFamily{
		Name: strPtr(familyTierRatio),
		Help: strPtr("Share of observed pages per Core Web Vitals tier, latest week."),
		Type: dto.MetricType_GAUGE.Enum(),
	}
	pages := &dto.MetricFamily{
		Name: strPtr(familyPagesTotal),
		Help: strPtr("Pages with field data per metric and device, latest week."),
		Type: dto.MetricType_GAUGE.Enum(),
	}
	weekStart := &dto.MetricFamily{
		Name: strPtr(familyWeekStart),
		Help: strPtr("Start of the latest reported week, as a Unix timestamp."),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{
			Gauge: &dto.Gauge{Value: floatPtr(float64(latest[0].WeekStart.UTC().Unix()))},
		}},
	}

	for _, a := range latest {
		// Label pairs are emitted in slice order; keep them sorted by name.
		base := []*dto.LabelPair{
			labelPair("device", string(a.Device)),
			labelPair("metric", string(a.Metric)),
		}
		for _, t := range []vitals.Tier{vitals.TierGood, vitals.TierNI, vitals.TierPoor} {
			share, ok := a.TierShare(t)
			if !ok {
				continue
			}
			labels := append(append([]*dto.LabelPair(nil), base...), labelPair("tier", string(t)))
			ratio.Metric = append(ratio.Metric, &dto.Metric{
				Label: labels,
				Gauge: &dto.Gauge{Value: floatPtr(share)},
			})
		}
		pages.Metric = append(pages.Metric, &dto.Metric{
			Label: base,
			Gauge: &dto.Gauge{Value: floatPtr(float64(a.Total))},
		})
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range []*dto.MetricFamily{ratio, pages, weekStart} {
		if len(mf.Metric) == 0 {
			continue
		}
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("promfile: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Save atomically writes the textfile export to path.
func Save(path string, latest []vitals.Aggregate) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("promfile: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("promfile: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, latest); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("promfile: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("promfile: rename into place: %w", err)
	}
	return nil
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func labelPair(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: strPtr(name), Value: strPtr(value)}
}
