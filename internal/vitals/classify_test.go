package vitals

import (
	"errors"
	"math"
	"testing"
)

func TestClassify_Thresholds(t *testing.T) {
	tests := []struct {
		name   string
		metric Metric
		p75    float64
		want   Tier
	}{
		{"LCP well under threshold", MetricLCP, 1200, TierGood},
		{"LCP exactly 2500 — still good", MetricLCP, 2500, TierGood},
		{"LCP just over 2500", MetricLCP, 2500.01, TierNI},
		{"LCP exactly 4000 — still NI", MetricLCP, 4000, TierNI},
		{"LCP just over 4000", MetricLCP, 4000.01, TierPoor},
		{"LCP far into poor", MetricLCP, 12000, TierPoor},

		{"INP exactly 200 — still good", MetricINP, 200, TierGood},
		{"INP just over 200", MetricINP, 200.5, TierNI},
		{"INP exactly 500 — still NI", MetricINP, 500, TierNI},
		{"INP over 500", MetricINP, 501, TierPoor},

		{"CLS zero", MetricCLS, 0, TierGood},
		{"CLS exactly 0.1 — still good", MetricCLS, 0.1, TierGood},
		{"CLS between bounds", MetricCLS, 0.2, TierNI},
		{"CLS exactly 0.25 — still NI", MetricCLS, 0.25, TierNI},
		{"CLS over 0.25", MetricCLS, 0.26, TierPoor},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Classify(tc.metric, tc.p75)
			if err != nil {
				t.Fatalf("Classify(%s, %v): unexpected error: %v", tc.metric, tc.p75, err)
			}
			if got != tc.want {
				t.Errorf("Classify(%s, %v) = %q, want %q", tc.metric, tc.p75, got, tc.want)
			}
		})
	}
}

func TestClassify_Errors(t *testing.T) {
	tests := []struct {
		name    string
		metric  Metric
		p75     float64
		wantErr error
	}{
		{"unknown metric", Metric("TTFB"), 100, ErrUnknownMetric},
		{"empty metric", Metric(""), 100, ErrUnknownMetric},
		{"negative value", MetricLCP, -1, ErrBadValue},
		{"NaN value", MetricCLS, math.NaN(), ErrBadValue},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Classify(tc.metric, tc.p75)
			if err == nil {
				t.Fatalf("Classify(%s, %v): expected error, got none", tc.metric, tc.p75)
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Classify(%s, %v): error %v, want %v", tc.metric, tc.p75, err, tc.wantErr)
			}
		})
	}
}

func TestParseMetric(t *testing.T) {
	for _, m := range Metrics {
		got, err := ParseMetric(string(m))
		if err != nil {
			t.Errorf("ParseMetric(%q): unexpected error: %v", m, err)
		}
		if got != m {
			t.Errorf("ParseMetric(%q) = %q", m, got)
		}
	}
	if _, err := ParseMetric("FID"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("ParseMetric(FID): error %v, want ErrUnknownMetric", err)
	}
}
