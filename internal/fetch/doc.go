// Package fetch drives per-day fetches for one segment.
//
// The fetcher:
//   - Fans day fetches out over a bounded worker pool
//   - Assembles results in calendar order regardless of completion order
//   - Degrades exhausted per-day retries to missing days instead of failing
//     the segment
//   - Aborts immediately on authentication failure
//   - Reports progress after every day
//
// It performs no disk writes; persistence belongs to the writer.
package fetch
