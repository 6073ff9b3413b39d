/*
PURPOSE:
  Walks an MLflow experiment directory and assembles one RunRecord per run.

REQUIREMENTS:
  User-specified:
  - Each immediate subdirectory of the experiment is a run.
  - Model name comes from params/model; six scalar metrics from metrics/<name>.

  Implementation-discovered:
  - The tracking tool drops meta.yaml and a models/ directory next to runs.
  - Metric files hold "<timestamp-ms> <value> <step>" per line; only the
    first line is read.
  - strconv.ParseFloat accepts "NaN" and "Inf", which encoding/json refuses.

ARCHITECTURE INTEGRATION:
  - Called by: internal/ingest/source.go, internal/cli
  - Produces: internal/model.RunRecord

ERROR HANDLING:
  - Logs errors but continues (resilience).
  - Missing/malformed metric -> 0. Missing params -> run skipped.
  - Only a failure to list the experiment directory itself is returned.

IMPLEMENTATION RULES:
  - Never fail a run because of one metric file.
  - Preserve directory enumeration order.

USAGE:
  runs, err := ingest.ReadRuns(ctx, "mlruns/0", ingest.Options{})

SELF-HEALING INSTRUCTIONS:
  - If the tracking tool changes its layout, update MetricsDir/ParamsDir.

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Update when new metrics or params are recorded.
*/

package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/daryltucker/mlboard/internal/model"
	"github.com/daryltucker/mlboard/internal/output"
)

const (
	MetricsDir = "metrics"
	ParamsDir  = "params"
	// ModelParam is the parameter file holding the model name.
	ModelParam = "model"
)

// DefaultSkipEntries are experiment-level entries that are never runs.
var DefaultSkipEntries = []string{"meta.yaml", "models"}

var errMalformed = errors.New("malformed metric line")

// Options tunes ReadRuns.
type Options struct {
	// SkipEntries overrides DefaultSkipEntries when non-nil.
	SkipEntries []string
}

func (o Options) skip(name string) bool {
	list := o.SkipEntries
	if list == nil {
		list = DefaultSkipEntries
	}
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}

// ReadRuns reads every run under root. A root that does not exist yields an
// empty list; any other failure to list root is returned.
func ReadRuns(ctx context.Context, root string, opts Options) ([]model.RunRecord, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			output.Logger.Warn("Experiment path not found", "path", root)
			return []model.RunRecord{}, nil
		}
		return nil, fmt.Errorf("failed to list runs in %s: %w", root, err)
	}

	records := make([]model.RunRecord, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		runDir := filepath.Join(root, entry.Name())
		// isDir follows symlinks; a linked run directory is still a run.
		if opts.skip(entry.Name()) || !isDir(runDir) {
			continue
		}

		rec, ok := ReadRun(runDir)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	output.Logger.Debug("Read runs", "path", root, "count", len(records))
	return records, nil
}

// ReadRun assembles the record for one run directory. ok is false when the
// run is missing its metrics or params directory or its model parameter.
func ReadRun(runDir string) (model.RunRecord, bool) {
	runID := filepath.Base(runDir)
	metricsDir := filepath.Join(runDir, MetricsDir)
	paramsDir := filepath.Join(runDir, ParamsDir)

	if !isDir(metricsDir) || !isDir(paramsDir) {
		output.Logger.Debug("Skipping run without metrics/params", "run_id", runID)
		return model.RunRecord{}, false
	}

	name, err := ReadParam(filepath.Join(paramsDir, ModelParam))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			output.Logger.Debug("Skipping run without model param", "run_id", runID)
		} else {
			output.Logger.Warn("Error reading param file", "run_id", runID, "error", err)
		}
		return model.RunRecord{}, false
	}

	rec := model.RunRecord{Model: name, RunID: runID}
	var latest int64
	values := make(map[model.Metric]float64, len(model.Metrics))
	for _, m := range model.Metrics {
		path := filepath.Join(metricsDir, string(m))
		p, err := ReadMetricPoint(path)
		if err != nil {
			logMetricError(runID, path, err)
			continue
		}
		values[m] = p.Value
		if p.Timestamp > latest {
			latest = p.Timestamp
		}
	}

	rec.TrainRMSE = values[model.TrainRMSE]
	rec.TrainMAE = values[model.TrainMAE]
	rec.TrainR2 = values[model.TrainR2]
	rec.TestRMSE = values[model.TestRMSE]
	rec.TestMAE = values[model.TestMAE]
	rec.TestR2 = values[model.TestR2]
	if latest > 0 {
		rec.Timestamp = time.UnixMilli(latest).UTC().Format(time.RFC3339)
	}
	return rec, true
}

func logMetricError(runID, path string, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		output.Logger.Debug("Metric file missing", "run_id", runID, "path", path)
		return
	}
	output.Logger.Warn("Error reading metric file", "run_id", runID, "path", path, "error", err)
}

// ReadMetric returns the value on the first line of a metric file, or 0 on
// any failure.
func ReadMetric(path string) float64 {
	p, err := ReadMetricPoint(path)
	if err != nil {
		return 0
	}
	return p.Value
}

// ReadMetricPoint parses the first line of a metric file. The value is the
// second whitespace-separated token; timestamp and step are best effort.
func ReadMetricPoint(path string) (model.MetricPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.MetricPoint{}, err
	}
	defer f.Close()

	// No line length cap: only the first line is consumed.
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return model.MetricPoint{}, err
	}
	if line == "" {
		return model.MetricPoint{}, fmt.Errorf("%w: empty file", errMalformed)
	}
	return ParseMetricLine(line)
}

// ParseMetricLine parses "<timestamp> <value> <step>".
func ParseMetricLine(line string) (model.MetricPoint, error) {
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return model.MetricPoint{}, fmt.Errorf("%w: %q", errMalformed, line)
	}

	v, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return model.MetricPoint{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return model.MetricPoint{}, fmt.Errorf("%w: non-finite value %q", errMalformed, parts[1])
	}

	p := model.MetricPoint{Value: v}
	if ts, err := strconv.ParseInt(parts[0], 10, 64); err == nil {
		p.Timestamp = ts
	}
	if len(parts) > 2 {
		if step, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			p.Step = step
		}
	}
	return p, nil
}

// ReadParam returns the trimmed contents of a parameter file.
func ReadParam(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
