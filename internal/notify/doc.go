// Package notify formats and delivers the weekly report to Slack.
//
// Summary builds the deterministic message text: one line per metric and
// device with Good / Needs Improvement / Poor percentages rounded to one
// decimal, computed only for keys that actually have observed data.
// Metrics whose Poor share exceeds the configured warning threshold get a
// trailing marker.
//
// Slack delivers the text through an incoming webhook and, when a bot
// token and channel are configured, uploads the chart PNGs as file
// attachments. Delivery runs after history persistence; its failures are
// logged by the caller, never fatal.
package notify
