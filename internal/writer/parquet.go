package writer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	pqwriter "github.com/xitongsys/parquet-go/writer"

	"histpull/internal/model"
)

// Writer persists segment datasets to a configured output directory.
type Writer struct {
	dir      string
	required []string
	logger   *slog.Logger
}

// New creates a Writer rooted at dir. The required columns define the schema
// of zero-row artifacts written for empty segments.
func New(dir string, required []string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, required: required, logger: logger}
}

// Path returns the canonical artifact path for a segment.
func (w *Writer) Path(seg model.Segment) string {
	return filepath.Join(w.dir, seg.ArtifactName())
}

// Write persists the dataset as {instrument}_{period}.parquet and returns the
// artifact path. The temporary file is removed on any failure.
func (w *Writer) Write(seg model.Segment, ds model.Dataset) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	final := w.Path(seg)
	tmp := final + ".tmp"

	if err := w.writeFile(tmp, ds); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("write %s: %w", seg.ArtifactName(), err)
	}

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("publish %s: %w", seg.ArtifactName(), err)
	}

	w.logger.Info("artifact written",
		"path", final,
		"rows", len(ds.Records),
		"empty", ds.Empty(),
	)

	return final, nil
}

func (w *Writer) writeFile(path string, ds model.Dataset) error {
	columns := ds.Columns
	if ds.Empty() {
		columns = w.required
	}

	md := make([]string, len(columns))
	for i, col := range columns {
		md[i] = columnMeta(col, ds)
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	pw, err := pqwriter.NewCSVWriter(md, fw, 2)
	if err != nil {
		fw.Close()
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, rec := range ds.Records {
		row := make([]*string, len(columns))
		for i, col := range columns {
			v := rec[col]
			row[i] = &v
		}
		if err := pw.WriteString(row); err != nil {
			fw.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("finalize parquet: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}

	return nil
}

// columnMeta declares the parquet schema for one column. A column where every
// row holds a decimal-parseable value becomes DOUBLE; anything else stays a
// UTF8 string so upstream values survive untouched.
func columnMeta(col string, ds model.Dataset) string {
	if ds.Empty() || !allNumeric(col, ds.Records) {
		return fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY", col)
	}
	return fmt.Sprintf("name=%s, type=DOUBLE", col)
}

func allNumeric(col string, records []model.Record) bool {
	for _, rec := range records {
		v, ok := rec[col]
		if !ok || strings.TrimSpace(v) == "" {
			return false
		}
		if _, err := decimal.NewFromString(v); err != nil {
			return false
		}
	}
	return true
}
