package history

import (
	"sort"
	"time"

	"github.com/vitalwatch/vitalwatch/internal/vitals"
)

// rowKey identifies one history row. The week is a formatted UTC date so
// rows loaded from disk and rows computed this run key identically.
type rowKey struct {
	week   string
	metric vitals.Metric
	device vitals.Device
}

func keyOf(a vitals.Aggregate) rowKey {
	return rowKey{
		week:   a.WeekStart.UTC().Format(dateLayout),
		metric: a.Metric,
		device: a.Device,
	}
}

// sameCounts reports whether two rows for the same key carry identical
// tallies.
func sameCounts(a, b vitals.Aggregate) bool {
	return a.Good == b.Good && a.NI == b.NI && a.Poor == b.Poor && a.Total == b.Total
}

// Merge upserts incoming aggregates into the existing history rows.
//
// Per incoming row: absent key → insert; present → replace, since the
// last computed aggregate for a week wins. Existing rows whose keys do
// not appear in incoming are always preserved. The merged slice is
// keyed uniquely and sorted by (week asc, metric, device): duplicate
// keys in a hand-edited artifact collapse to their last occurrence.
//
// changed is true iff the merged rows differ from existing as a
// sequence, so an artifact that merely needs reordering or
// deduplication still gets rewritten. Merge never mutates its
// arguments and is idempotent: Merge(Merge(h, in)) with the same in
// reports changed == false.
func Merge(existing, incoming []vitals.Aggregate) (merged []vitals.Aggregate, changed bool) {
	index := make(map[rowKey]int, len(existing))
	merged = make([]vitals.Aggregate, 0, len(existing)+len(incoming))
	for _, row := range existing {
		if i, ok := index[keyOf(row)]; ok {
			merged[i] = row
			continue
		}
		index[keyOf(row)] = len(merged)
		merged = append(merged, row)
	}

	for _, in := range incoming {
		k := keyOf(in)
		if i, ok := index[k]; ok {
			merged[i] = in
			continue
		}
		index[k] = len(merged)
		merged = append(merged, in)
	}

	sort.Slice(merged, func(i, j int) bool {
		return vitals.Less(merged[i].WeekStart, merged[i].Metric, merged[i].Device,
			merged[j].WeekStart, merged[j].Metric, merged[j].Device)
	})

	changed = len(merged) != len(existing)
	if !changed {
		for i := range merged {
			if keyOf(merged[i]) != keyOf(existing[i]) || !sameCounts(merged[i], existing[i]) {
				changed = true
				break
			}
		}
	}
	return merged, changed
}

// Tail returns the most recent n weeks' worth of rows. Rows must already
// be in canonical order. A non-positive n returns all rows.
func Tail(rows []vitals.Aggregate, n int) []vitals.Aggregate {
	if n <= 0 || len(rows) == 0 {
		return rows
	}

	weeks := make([]time.Time, 0)
	seen := make(map[string]bool)
	for _, r := range rows {
		k := r.WeekStart.UTC().Format(dateLayout)
		if !seen[k] {
			seen[k] = true
			weeks = append(weeks, r.WeekStart)
		}
	}
	if len(weeks) <= n {
		return rows
	}
	cutoff := weeks[len(weeks)-n]

	out := make([]vitals.Aggregate, 0, len(rows))
	for _, r := range rows {
		if !r.WeekStart.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// Latest returns the rows belonging to the most recent week present, or
// nil when rows is empty. Rows must already be in canonical order.
func Latest(rows []vitals.Aggregate) []vitals.Aggregate {
	if len(rows) == 0 {
		return nil
	}
	last := rows[len(rows)-1].WeekStart
	var out []vitals.Aggregate
	for _, r := range rows {
		if r.WeekStart.Equal(last) {
			out = append(out, r)
		}
	}
	return out
}
