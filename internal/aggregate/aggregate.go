/*
PURPOSE:
  Derived values over a list of run records: best run, averages,
  per-column best values, and model-name filtering.

REQUIREMENTS:
  User-specified:
  - Best model is the run with the highest test R².
  - Averages over an empty list are zero.
  - "all" selects every record.

  Implementation-discovered:
  - Column emphasis flags every record that ties the best value.

ARCHITECTURE INTEGRATION:
  - Used by: internal/server, internal/output, internal/cli

ERROR HANDLING:
  - None (pure functions). Absence is reported with ok=false.

IMPLEMENTATION RULES:
  - Never mutate the input slice.
  - Ties in BestModel go to the first record encountered.

USAGE:
  best, ok := aggregate.BestModel(records)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Update Summary when the dashboard grows a new card.
*/

package aggregate

import (
	"slices"

	"github.com/daryltucker/mlboard/internal/model"
)

// AllModels is the filter sentinel selecting every record.
const AllModels = "all"

// BestModel returns the record with the highest test R².
func BestModel(records []model.RunRecord) (model.RunRecord, bool) {
	if len(records) == 0 {
		return model.RunRecord{}, false
	}
	best := records[0]
	for _, r := range records[1:] {
		if r.TestR2 > best.TestR2 {
			best = r
		}
	}
	return best, true
}

// Average returns the arithmetic mean of metric over records, or 0 when empty.
func Average(records []model.RunRecord, metric model.Metric) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += metric.Value(r)
	}
	return sum / float64(len(records))
}

// BestValue returns the column best for metric: the maximum for R², the
// minimum for error metrics.
func BestValue(records []model.RunRecord, metric model.Metric) (float64, bool) {
	if len(records) == 0 {
		return 0, false
	}
	best := metric.Value(records[0])
	higher := metric.HigherIsBetter()
	for _, r := range records[1:] {
		v := metric.Value(r)
		if (higher && v > best) || (!higher && v < best) {
			best = v
		}
	}
	return best, true
}

// IsBest reports whether rec holds the best value of metric among records.
// Every tied record is best.
func IsBest(records []model.RunRecord, rec model.RunRecord, metric model.Metric) bool {
	best, ok := BestValue(records, metric)
	return ok && metric.Value(rec) == best
}

// BestFlags precomputes IsBest for every record and metric, indexed like records.
func BestFlags(records []model.RunRecord) []map[model.Metric]bool {
	bests := make(map[model.Metric]float64, len(model.Metrics))
	for _, m := range model.Metrics {
		if v, ok := BestValue(records, m); ok {
			bests[m] = v
		}
	}

	flags := make([]map[model.Metric]bool, len(records))
	for i, r := range records {
		flags[i] = make(map[model.Metric]bool, len(model.Metrics))
		for _, m := range model.Metrics {
			flags[i][m] = m.Value(r) == bests[m]
		}
	}
	return flags
}

// Filter returns the records whose model equals name exactly. AllModels (or
// an empty name) returns every record. The result is never nil.
func Filter(records []model.RunRecord, name string) []model.RunRecord {
	out := make([]model.RunRecord, 0, len(records))
	for _, r := range records {
		if name == AllModels || name == "" || r.Model == name {
			out = append(out, r)
		}
	}
	return out
}

// SortBy returns a copy of records ordered best-first by metric. Equal
// values keep their original order.
func SortBy(records []model.RunRecord, metric model.Metric) []model.RunRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b model.RunRecord) int {
		va, vb := metric.Value(a), metric.Value(b)
		if metric.HigherIsBetter() {
			va, vb = vb, va
		}
		switch {
		case va < vb:
			return -1
		case va > vb:
			return 1
		}
		return 0
	})
	return out
}

// Models returns the distinct model names in first-seen order.
func Models(records []model.RunRecord) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.Model]; ok {
			continue
		}
		seen[r.Model] = struct{}{}
		out = append(out, r.Model)
	}
	return out
}

// Summary holds the headline numbers shown above the charts.
type Summary struct {
	Best        model.RunRecord
	HasBest     bool
	AvgTestRMSE float64
	AvgTestMAE  float64
	Total       int
}

// Summarize computes the dashboard cards for records.
func Summarize(records []model.RunRecord) Summary {
	best, ok := BestModel(records)
	return Summary{
		Best:        best,
		HasBest:     ok,
		AvgTestRMSE: Average(records, model.TestRMSE),
		AvgTestMAE:  Average(records, model.TestMAE),
		Total:       len(records),
	}
}
