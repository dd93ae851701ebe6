// Package model defines shared data types used across the histpull pipeline.
//
// Conventions:
//   - Dates: time.Time truncated to midnight UTC; only the calendar date is meaningful
//   - Period labels: "YYYY-MM", one per calendar month per instrument
//   - Records: column name -> raw string value, exactly as received upstream
package model
