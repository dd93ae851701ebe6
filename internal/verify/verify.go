// Package verify scans written artifacts for rows with missing data.
//
// It reads every parquet file in a directory and reports, per file, how many
// rows carry empty or unparseable cells. The report is advisory: extraction
// correctness is enforced upstream by the schema validator, while verify
// catches holes inside rows that the column check cannot see.
package verify

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

// FileReport summarizes one artifact.
type FileReport struct {
	File        string
	Rows        int
	MissingRows int
	// MissingByColumn counts missing cells per column (lowercased names).
	MissingByColumn map[string]int
}

// Report summarizes a directory scan.
type Report struct {
	Files []FileReport
}

// TotalMissingRows sums missing rows across all files.
func (r Report) TotalMissingRows() int {
	n := 0
	for _, f := range r.Files {
		n += f.MissingRows
	}
	return n
}

// defaultChunkRows bounds how many rows are materialized at once when the
// caller passes no budget.
const defaultChunkRows = 10000

// Scan reads every parquet file under dir and reports missing cells. Rows are
// read in chunks of at most chunkRows to bound memory; zero or negative picks
// a default. Files are reported in name order.
func Scan(dir string, chunkRows int, logger *slog.Logger) (Report, error) {
	if chunkRows <= 0 {
		chunkRows = defaultChunkRows
	}
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.parquet"))
	if err != nil {
		return Report{}, fmt.Errorf("list artifacts: %w", err)
	}
	if len(paths) == 0 {
		return Report{}, fmt.Errorf("no parquet files under %s", dir)
	}
	sort.Strings(paths)

	var report Report
	for _, path := range paths {
		fr, err := scanFile(path, chunkRows)
		if err != nil {
			return Report{}, fmt.Errorf("scan %s: %w", filepath.Base(path), err)
		}
		logger.Debug("scanned artifact",
			"file", fr.File,
			"rows", fr.Rows,
			"missing_rows", fr.MissingRows,
		)
		report.Files = append(report.Files, fr)
	}

	return report, nil
}

func scanFile(path string, chunkRows int) (FileReport, error) {
	fr := FileReport{
		File:            filepath.Base(path),
		MissingByColumn: make(map[string]int),
	}

	f, err := local.NewLocalFileReader(path)
	if err != nil {
		return fr, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	pr, err := reader.NewParquetReader(f, nil, 2)
	if err != nil {
		return fr, fmt.Errorf("read footer: %w", err)
	}
	defer pr.ReadStop()

	total := int(pr.GetNumRows())
	fr.Rows = total
	if total == 0 {
		return fr, nil
	}

	for read := 0; read < total; {
		n := chunkRows
		if rest := total - read; rest < n {
			n = rest
		}
		rows, err := pr.ReadByNumber(n)
		if err != nil {
			return fr, fmt.Errorf("read rows: %w", err)
		}
		if len(rows) == 0 {
			return fr, fmt.Errorf("short read at row %d of %d", read, total)
		}
		read += len(rows)

		for _, row := range rows {
			missing := false
			for col, val := range rowCells(row) {
				if cellMissing(val) {
					fr.MissingByColumn[strings.ToLower(col)]++
					missing = true
				}
			}
			if missing {
				fr.MissingRows++
			}
		}
	}

	return fr, nil
}

// rowCells flattens one materialized row into column -> value. The reader
// returns rows as values of a dynamically generated struct type, so the
// fields are walked reflectively; nil optional cells map to nil.
func rowCells(row any) map[string]any {
	v := reflect.ValueOf(row)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	cells := make(map[string]any, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() == reflect.Pointer {
			if f.IsNil() {
				cells[v.Type().Field(i).Name] = nil
				continue
			}
			f = f.Elem()
		}
		cells[v.Type().Field(i).Name] = f.Interface()
	}
	return cells
}

// cellMissing classifies a decoded cell: nulls, NaN floats, and empty or
// sentinel strings count as missing.
func cellMissing(val any) bool {
	switch v := val.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(v)
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "nan", "null", "none":
			return true
		}
		return false
	default:
		return false
	}
}
