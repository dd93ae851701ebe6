// Package progress reports per-day fetch progress for a running segment.
//
// Components receive a Reporter explicitly instead of writing to shared
// globals, so tests can observe progress and the CLI can choose how to
// render it.
package progress
