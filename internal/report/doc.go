// Package report runs one end-to-end reporting cycle:
//
//	discover pages → fetch CrUX history → classify + aggregate →
//	read-merge-write history → render charts → export textfile → notify
//
// The run either completes or aborts before any persistence: fetch,
// decode and aggregation errors return before the history artifact is
// touched, and the artifact itself is only ever replaced atomically.
// Slack delivery happens last; its failures are logged and swallowed so
// a flaky webhook cannot fail a run whose history already persisted.
//
// The Runner talks to its collaborators through the narrow Fetcher,
// PageDiscoverer and Notifier interfaces, so the pipeline is testable
// with in-memory fakes and a temp directory.
package report
