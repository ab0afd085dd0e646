// Package tasks runs the long-lived and multi-step jobs behind the CLI and TUI.
//
// # Status Monitoring
//
// [StatusMonitor] probes GET /api/status. [StatusMonitor.Check] performs one
// probe and [StatusMonitor.Run] polls on an interval (30 seconds by default)
// until its context is canceled. Any transport error, non-2xx response or a
// status other than "ok" counts as offline.
//
// # Bulk Export
//
// [BulkExport] fetches the user's notes once and writes one file per note with
// a small worker pool, then writes an export_manifest.json summarizing the run.
//
// # Progress Reporting
//
// All jobs report through channels with non-blocking sends: a full or nil
// channel drops the update rather than stalling the job.
package tasks
