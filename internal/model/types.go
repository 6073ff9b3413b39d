/*
PURPOSE:
  Defines the core data structures used throughout mlboard.
  A RunRecord is one tracked training run with its six evaluation metrics.

REQUIREMENTS:
  User-specified:
  - Record model name, train/test RMSE, MAE and R², run id.
  - Timestamp is optional.

  Implementation-discovered:
  - JSON tags must match the metrics.json snapshot written by the tracking
    export script (snake_case, mlflow_run_id).
  - Metric names double as on-disk file names under <run>/metrics/.

ARCHITECTURE INTEGRATION:
  - Used by: internal/ingest, internal/aggregate, internal/output, internal/server
  - Shared across boundaries.

ERROR HANDLING:
  - ParseMetric returns an error for unknown names. Everything else is pure data.

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - Records are never mutated after construction.

USAGE:
  rec := model.RunRecord{Model: "ridge", TestR2: 0.91}
  v := model.TestRMSE.Value(rec)

SELF-HEALING INSTRUCTIONS:
  - If a new metric is tracked, add a field, a Metric constant, and extend Metrics.

RELATED FILES:
  - internal/ingest/reader.go
  - internal/output/csv.go

MAINTENANCE:
  - Update when adding new metrics to capture.
*/

package model

import (
	"fmt"
	"strings"
)

// RunRecord represents the outcome of a single tracked training run.
type RunRecord struct {
	Model     string  `json:"model"`
	TrainRMSE float64 `json:"train_rmse"`
	TrainMAE  float64 `json:"train_mae"`
	TrainR2   float64 `json:"train_r2"`
	TestRMSE  float64 `json:"test_rmse"`
	TestMAE   float64 `json:"test_mae"`
	TestR2    float64 `json:"test_r2"`
	RunID     string  `json:"mlflow_run_id"`
	Timestamp string  `json:"timestamp,omitempty"` // RFC 3339, latest metric write
}

// ShortRunID returns the first 8 characters of the run id followed by "...".
func (r RunRecord) ShortRunID() string {
	if len(r.RunID) <= 8 {
		return r.RunID
	}
	return r.RunID[:8] + "..."
}

// Metric names one of the six tracked scalar metrics.
// The string value is also the metric's file name on disk.
type Metric string

const (
	TrainRMSE Metric = "train_rmse"
	TrainMAE  Metric = "train_mae"
	TrainR2   Metric = "train_r2"
	TestRMSE  Metric = "test_rmse"
	TestMAE   Metric = "test_mae"
	TestR2    Metric = "test_r2"
)

// Metrics lists every tracked metric in display order.
var Metrics = []Metric{TrainRMSE, TrainMAE, TrainR2, TestRMSE, TestMAE, TestR2}

// ParseMetric resolves a metric name such as "test_r2".
func ParseMetric(name string) (Metric, error) {
	n := Metric(strings.ToLower(strings.TrimSpace(name)))
	for _, m := range Metrics {
		if m == n {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q", name)
}

// Value extracts the metric's value from a record.
func (m Metric) Value(r RunRecord) float64 {
	switch m {
	case TrainRMSE:
		return r.TrainRMSE
	case TrainMAE:
		return r.TrainMAE
	case TrainR2:
		return r.TrainR2
	case TestRMSE:
		return r.TestRMSE
	case TestMAE:
		return r.TestMAE
	case TestR2:
		return r.TestR2
	}
	return 0
}

// HigherIsBetter reports whether larger values are better. Only R² qualifies;
// RMSE and MAE are errors.
func (m Metric) HigherIsBetter() bool {
	return m == TrainR2 || m == TestR2
}

// Label returns the column heading used by the table views, e.g. "Test RMSE".
func (m Metric) Label() string {
	split, kind, _ := strings.Cut(string(m), "_")
	prefix := "Train"
	if split == "test" {
		prefix = "Test"
	}
	switch kind {
	case "rmse":
		return prefix + " RMSE"
	case "mae":
		return prefix + " MAE"
	default:
		return prefix + " R²"
	}
}

// MetricPoint is one parsed line of a metric file: "<timestamp-ms> <value> <step>".
type MetricPoint struct {
	Timestamp int64 // epoch milliseconds, 0 when absent
	Value     float64
	Step      int64
}
