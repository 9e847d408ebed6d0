// Package promfile exports the latest week's aggregates in Prometheus
// text exposition format for the node_exporter textfile collector.
//
// Exported families:
//
//	cwv_tier_ratio{metric,device,tier}  share of observed pages per tier
//	cwv_pages_total{metric,device}      pages with field data that week
//	cwv_week_start_timestamp_seconds    start of the reported week
//
// The file is written with the same temp-then-rename discipline as the
// history artifact, as the textfile collector may read it at any moment.
package promfile
