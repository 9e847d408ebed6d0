// Package vitals holds the pure Core Web Vitals domain logic: the metric,
// device and tier enums, the threshold classifier, and the weekly
// aggregation that turns raw p75 samples into per-(week, metric, device)
// tier tallies.
//
// Classify maps a p75 value to good / needs-improvement / poor using the
// published CWV thresholds (LCP 2500/4000 ms, INP 200/500 ms,
// CLS 0.10/0.25). Values exactly on a threshold belong to the better tier.
// Unknown metrics and negative or NaN values are errors, never a default
// tier.
//
// Aggregate groups samples by (week, metric, device), classifies each one
// and counts tiers. Keys with no observed samples produce no row at all,
// so downstream percentage math never sees a fabricated zero. Output is
// always sorted by (week ascending, metric, device) to keep chart series
// and history diffs stable.
//
// Nothing in this package performs I/O.
package vitals
