package vitals

import (
	"fmt"
	"math"
)

// thresholds holds the good/NI upper bounds per metric. A p75 at or below
// the first bound is good, at or below the second is needs-improvement,
// anything above is poor. These are the published Core Web Vitals
// thresholds and are not configurable.
var thresholds = map[Metric][2]float64{
	MetricLCP: {2500, 4000}, // milliseconds
	MetricINP: {200, 500},   // milliseconds
	MetricCLS: {0.10, 0.25}, // unitless score
}

// Classify maps a p75 value for the given metric to its quality tier.
// Boundary values belong to the better tier (LCP 2500 → good,
// LCP 4000 → needs-improvement).
//
// Unknown metrics return ErrUnknownMetric; negative or NaN values return
// ErrBadValue. Classification never falls back to a default tier.
func Classify(m Metric, p75 float64) (Tier, error) {
	t, ok := thresholds[m]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, m)
	}
	if math.IsNaN(p75) || p75 < 0 {
		return "", fmt.Errorf("%w: %s = %v", ErrBadValue, m, p75)
	}
	switch {
	case p75 <= t[0]:
		return TierGood, nil
	case p75 <= t[1]:
		return TierNI, nil
	default:
		return TierPoor, nil
	}
}
