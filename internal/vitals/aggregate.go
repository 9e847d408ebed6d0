package vitals

import (
	"fmt"
	"sort"
	"time"
)

// Aggregate is the tier tally for one (week, metric, device) key.
// Invariant: Good + NI + Poor == Total, Total > 0 — keys with no observed
// samples never produce an Aggregate.
type Aggregate struct {
	WeekStart time.Time
	Metric    Metric
	Device    Device
	Good      int
	NI        int
	Poor      int
	Total     int
}

// TierCount returns the tally for one tier.
func (a Aggregate) TierCount(t Tier) int {
	switch t {
	case TierGood:
		return a.Good
	case TierNI:
		return a.NI
	case TierPoor:
		return a.Poor
	}
	return 0
}

// TierShare returns the fraction of Total falling in tier t. ok is false
// when Total is zero, in which case the week must be omitted from any
// percentage output rather than reported as 0%.
func (a Aggregate) TierShare(t Tier) (share float64, ok bool) {
	if a.Total <= 0 {
		return 0, false
	}
	return float64(a.TierCount(t)) / float64(a.Total), true
}

// aggKey identifies one tally. Week is a formatted date so the struct
// is usable as a map key regardless of time.Time location internals.
type aggKey struct {
	week   string
	metric Metric
	device Device
}

// AggregateSamples classifies every sample and folds the results into
// per-(week, metric, device) tallies. When weeks is non-nil, samples
// outside it are ignored; a nil weeks means every observed week counts.
//
// Keys that match no sample produce no row — absence, not a zero-filled
// aggregate. The returned slice is sorted by (week asc, metric, device).
// Any classification failure aborts the whole aggregation.
func AggregateSamples(samples []Sample, weeks []time.Time) ([]Aggregate, error) {
	var allowed map[string]bool
	if weeks != nil {
		allowed = make(map[string]bool, len(weeks))
		for _, w := range weeks {
			allowed[dateKey(w)] = true
		}
	}

	tallies := make(map[aggKey]*Aggregate)
	for i, s := range samples {
		if allowed != nil && !allowed[dateKey(s.WeekStart)] {
			continue
		}
		tier, err := Classify(s.Metric, s.P75)
		if err != nil {
			return nil, fmt.Errorf("vitals: sample %d (page %q, week %s): %w",
				i, s.Page, dateKey(s.WeekStart), err)
		}

		k := aggKey{week: dateKey(s.WeekStart), metric: s.Metric, device: s.Device}
		a, ok := tallies[k]
		if !ok {
			a = &Aggregate{WeekStart: weekUTC(s.WeekStart), Metric: s.Metric, Device: s.Device}
			tallies[k] = a
		}
		switch tier {
		case TierGood:
			a.Good++
		case TierNI:
			a.NI++
		case TierPoor:
			a.Poor++
		}
		a.Total++
	}

	out := make([]Aggregate, 0, len(tallies))
	for _, a := range tallies {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		return Less(out[i].WeekStart, out[i].Metric, out[i].Device,
			out[j].WeekStart, out[j].Metric, out[j].Device)
	})
	return out, nil
}

// dateKey normalizes a week-start timestamp to its UTC calendar date.
func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// weekUTC truncates a week-start timestamp to UTC midnight so equal weeks
// compare equal regardless of the source location.
func weekUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
