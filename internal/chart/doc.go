// Package chart renders the weekly tier-share trend for one metric as a
// PNG line chart.
//
// Each chart carries one series per (device, tier) pair, with the Y axis
// in percent of observed pages. Weeks whose aggregate has a zero total
// are left out of every series — the chart never plots a fabricated 0%.
// Rendering uses github.com/wcharczuk/go-chart/v2.
package chart
