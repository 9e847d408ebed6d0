// Package history persists weekly aggregate rows between report runs.
//
// The artifact is a small CSV file, one row per (week, metric, device)
// key, sorted by (week asc, metric, device):
//
//	week_start,metric,device,good_count,ni_count,poor_count,total_count
//
// Merge is the pure upsert at the heart of idempotent re-runs: incoming
// aggregates replace rows with the same key (an in-progress week may have
// shifted since the last run), insert when the key is new, and leave every
// other existing row untouched. The changed flag reports whether the
// merged content differs from what was already stored, so callers skip
// the rewrite, the chart and the notification when nothing moved.
//
// Save writes to a temp file in the artifact's directory and renames it
// into place. A failed run therefore never clobbers the previous history.
package history
