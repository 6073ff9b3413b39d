/*
PURPOSE:
  Server-rendered dashboard: summary cards, bar charts, and the
  comparison table, from one embedded HTML template.

REQUIREMENTS:
  User-specified:
  - Filter by model via ?model=, "all" shows every run.
  - Best value per metric column is highlighted.
  - A failed load shows an error with a retry link.

  Implementation-discovered:
  - Charts are plain CSS bars; no client-side JavaScript.

ARCHITECTURE INTEGRATION:
  - Calls: internal/aggregate, Source.Runs
  - Template: templates/dashboard.html (embed.FS)

ERROR HANDLING:
  - Render errors are logged and answered with 500 before any body is written.

IMPLEMENTATION RULES:
  - Cards summarize all runs; charts and table use the filtered runs.

RELATED FILES:
  - internal/server/server.go
  - internal/server/templates/dashboard.html
*/

package server

import (
	"bytes"
	"embed"
	"html/template"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/daryltucker/mlboard/internal/aggregate"
	"github.com/daryltucker/mlboard/internal/model"
	"github.com/daryltucker/mlboard/internal/output"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcMap = template.FuncMap{
	"fmt4": func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) },
	"fmt6": func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) },
	"pct":  func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) + "%" },
	"filterURL": func(name string) string {
		if name == aggregate.AllModels {
			return "/"
		}
		return "/?model=" + url.QueryEscape(name)
	},
}

var dashboardTmpl = template.Must(
	template.New("dashboard.html").Funcs(funcMap).ParseFS(templateFS, "templates/*.html"),
)

// Chart series colors, one per bar in a group.
var seriesColors = []string{"#06b6d4", "#14b8a6", "#10b981"}

type dashboardView struct {
	Models   []string
	Selected string
	Summary  aggregate.Summary
	Charts   []chartView
	Columns  []string
	Rows     []rowView
	Error    string
	RetryURL string
	Now      string
}

type chartView struct {
	Title  string
	Legend []legendEntry
	Groups []barGroup
}

type legendEntry struct {
	Label string
	Color string
}

type barGroup struct {
	Name string
	Bars []bar
}

type bar struct {
	Label string
	Value float64
	Pct   float64 // height relative to the chart's largest magnitude
	Color string
}

type rowView struct {
	Model   string
	RunID   string
	ShortID string
	Cells   []cellView
}

type cellView struct {
	Value float64
	Best  bool
}

// buildChart plots RMSE, MAE and R² for each record. Negative values keep
// their label but draw no bar.
func buildChart(title string, records []model.RunRecord, metrics [3]model.Metric) chartView {
	labels := [3]string{"RMSE", "MAE", "R² Score"}
	c := chartView{Title: title}
	for i, l := range labels {
		c.Legend = append(c.Legend, legendEntry{Label: l, Color: seriesColors[i]})
	}

	var peak float64
	for _, r := range records {
		for _, m := range metrics {
			peak = math.Max(peak, math.Abs(m.Value(r)))
		}
	}

	for _, r := range records {
		g := barGroup{Name: r.Model}
		for i, m := range metrics {
			v := m.Value(r)
			var pct float64
			if peak > 0 && v > 0 {
				pct = v / peak * 100
			}
			g.Bars = append(g.Bars, bar{Label: labels[i], Value: v, Pct: pct, Color: seriesColors[i]})
		}
		c.Groups = append(c.Groups, g)
	}
	return c
}

func buildRows(records []model.RunRecord) []rowView {
	flags := aggregate.BestFlags(records)
	rows := make([]rowView, len(records))
	for i, r := range records {
		row := rowView{Model: r.Model, RunID: r.RunID, ShortID: r.ShortRunID()}
		for _, m := range model.Metrics {
			row.Cells = append(row.Cells, cellView{Value: m.Value(r), Best: flags[i][m]})
		}
		rows[i] = row
	}
	return rows
}

func newDashboardView(all []model.RunRecord, selected string) dashboardView {
	if selected == "" {
		selected = aggregate.AllModels
	}
	filtered := aggregate.Filter(all, selected)

	columns := make([]string, 0, len(model.Metrics))
	for _, m := range model.Metrics {
		columns = append(columns, m.Label())
	}

	return dashboardView{
		Models:   aggregate.Models(all),
		Selected: selected,
		Summary:  aggregate.Summarize(all),
		Charts: []chartView{
			buildChart("Test Set Performance", filtered, [3]model.Metric{model.TestRMSE, model.TestMAE, model.TestR2}),
			buildChart("Training Set Performance", filtered, [3]model.Metric{model.TrainRMSE, model.TrainMAE, model.TrainR2}),
		},
		Columns: columns,
		Rows:    buildRows(filtered),
		Now:     time.Now().Format("15:04:05"),
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	selected := r.URL.Query().Get("model")

	records, err := s.source.Runs(r.Context())
	if err != nil {
		output.Logger.Error("Error fetching metrics", "error", err)
		render(w, http.StatusInternalServerError, dashboardView{
			Error:    "Failed to fetch metrics. Please ensure the metrics source exists.",
			RetryURL: r.URL.RequestURI(),
		})
		return
	}

	render(w, http.StatusOK, newDashboardView(records, selected))
}

// render buffers the page so a template failure never yields a half-written 200.
func render(w http.ResponseWriter, status int, view dashboardView) {
	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, view); err != nil {
		output.Logger.Error("Template error", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
