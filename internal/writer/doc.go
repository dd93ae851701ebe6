// Package writer persists segment datasets as parquet artifacts.
//
// One artifact exists per instrument-period after a successful run. Writes
// go to a temporary name first and are renamed into place, so a partially
// written file is never visible under the final name. An empty dataset
// produces a zero-row artifact carrying the required schema, which lets
// downstream consumers distinguish "fetched, found nothing" from "never
// attempted".
package writer
