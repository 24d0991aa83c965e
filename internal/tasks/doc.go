// Package tasks runs long playlist operations with real-time progress reporting.
//
// # Bulk Export
//
// [Exporter.BulkExport] writes every playlist the current user owns to disk:
//
//   - Lists the playlists, then fetches each one's tracks through a rate limiter
//   - Hands the fetched playlists to a bounded pool of workers that write CSV, Markdown, text or JSON
//   - Records per-playlist success or failure; one failure never aborts the rest
//   - Writes export_manifest.json summarizing the run
//
// # Progress Reporting
//
// Operations report through a [ProgressUpdate] channel. Sends use select with default so a slow or absent
// reader never blocks the export.
package tasks
