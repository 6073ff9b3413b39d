/*
PURPOSE:
  Writes run records to a CSV file or stream.
  Ensures data integrity by flushing writes immediately.

REQUIREMENTS:
  User-specified:
  - Output to CSV for spreadsheet comparison of runs.

  Implementation-discovered:
  - Export overwrites the file on every run.
  - report --format csv writes to stdout, so the writer wraps any io.Writer.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (export, report)
  - Consumes: internal/model.RunRecord

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush() after every write (critical for crash resilience).
  - Use Mutex so concurrent writers cannot interleave rows.

USAGE:
  w, err := output.NewCSVWriter("runs.csv")
  w.Write(record)
  w.Close()

SELF-HEALING INSTRUCTIONS:
  - If CSV format changes, update CSVHeader and record conversion.

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Update Write() mapping when RunRecord struct changes.
*/

package output

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/daryltucker/mlboard/internal/model"
)

// CSVHeader is the first row of every CSV export.
var CSVHeader = []string{
	"model",
	"train_rmse", "train_mae", "train_r2",
	"test_rmse", "test_mae", "test_r2",
	"mlflow_run_id", "timestamp",
}

// CSVWriter handles writing records as CSV.
type CSVWriter struct {
	closer io.Closer
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter creates a new CSVWriter.
// It overwrites the file if it exists.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	cw, err := NewCSVStream(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	cw.closer = f
	return cw, nil
}

// NewCSVStream writes the header to w and returns a writer for records.
// Close does not close w.
func NewCSVStream(w io.Writer) (*CSVWriter, error) {
	cw := &CSVWriter{writer: csv.NewWriter(w)}
	if err := cw.writer.Write(CSVHeader); err != nil {
		return nil, err
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return nil, err
	}
	return cw, nil
}

// Write writes a single record.
// It is thread-safe.
func (cw *CSVWriter) Write(r model.RunRecord) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	record := []string{
		r.Model,
		formatFloat(r.TrainRMSE),
		formatFloat(r.TrainMAE),
		formatFloat(r.TrainR2),
		formatFloat(r.TestRMSE),
		formatFloat(r.TestMAE),
		formatFloat(r.TestR2),
		r.RunID,
		r.Timestamp,
	}

	if err := cw.writer.Write(record); err != nil {
		return err
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

// WriteAll writes every record, stopping at the first error.
func (cw *CSVWriter) WriteAll(records []model.RunRecord) error {
	for _, r := range records {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and, for file-backed writers, closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if cw.closer == nil {
		return cw.writer.Error()
	}
	return cw.closer.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
