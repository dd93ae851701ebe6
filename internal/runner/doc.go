// Package runner orchestrates the extraction pipeline.
//
// Segments move through pending -> fetching -> validating -> writing -> done,
// with side exits to failed (schema or write errors, isolated per segment)
// and partial (written with missing days). Segments run sequentially in
// chronological order so the checkpoint never records a later month done
// while an earlier one is pending. Authentication failure aborts the run;
// an interrupt stops between days or segments and leaves the checkpoint
// consistent for resumption.
package runner
