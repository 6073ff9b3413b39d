/*
PURPOSE:
  Terminal rendering of the comparison table and summary cards.

REQUIREMENTS:
  User-specified:
  - Same best-per-column emphasis as the web dashboard.

  Implementation-discovered:
  - BestMarker keeps emphasis visible when color is stripped.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli/report.go
  - Calls: internal/aggregate

USAGE:
  fmt.Println(output.RenderSummary(aggregate.Summarize(records)))
  fmt.Println(output.RenderTable(records))
*/

package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/daryltucker/mlboard/internal/aggregate"
	"github.com/daryltucker/mlboard/internal/model"
)

// Terminal palette, ANSI codes for broad compatibility.
const (
	ColorAccent lipgloss.Color = "6" // Cyan
	ColorGood   lipgloss.Color = "2" // Green
	ColorMuted  lipgloss.Color = "8" // Gray
)

// BestMarker is appended to the best value of each column so emphasis
// survives terminals without color.
const BestMarker = "*"

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	bestStyle   = numberStyle.Bold(true).Foreground(ColorGood)
	mutedStyle  = cellStyle.Foreground(ColorMuted)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 2).
			MarginRight(1)
	cardTitleStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	cardValueStyle = lipgloss.NewStyle().Bold(true)
)

// RenderTable renders the model comparison table. The best value of every
// metric column is highlighted and marked with BestMarker.
func RenderTable(records []model.RunRecord) string {
	if len(records) == 0 {
		return "No metrics available. Train some models first!"
	}

	flags := aggregate.BestFlags(records)

	headers := []string{"Model"}
	for _, m := range model.Metrics {
		headers = append(headers, m.Label())
	}
	headers = append(headers, "Run ID")

	rows := make([][]string, len(records))
	for i, r := range records {
		row := []string{r.Model}
		for _, m := range model.Metrics {
			cell := strconv.FormatFloat(m.Value(r), 'f', 6, 64)
			if flags[i][m] {
				cell += BestMarker
			}
			row = append(row, cell)
		}
		rows[i] = append(row, r.ShortRunID())
	}

	lastCol := len(headers) - 1
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorMuted)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			case col == lastCol:
				return mutedStyle
			case row >= 0 && row < len(records) && flags[row][model.Metrics[col-1]]:
				return bestStyle
			default:
				return numberStyle
			}
		})

	return t.String()
}

// RenderSummary renders the four headline cards side by side.
func RenderSummary(s aggregate.Summary) string {
	bestName, bestSub := "N/A", "R² Score: N/A"
	if s.HasBest {
		bestName = s.Best.Model
		bestSub = fmt.Sprintf("R² Score: %.4f", s.Best.TestR2)
	}

	cards := []string{
		card("Best Model", bestName, bestSub),
		card("Avg Test RMSE", fmt.Sprintf("%.4f", s.AvgTestRMSE), "Root Mean Squared Error"),
		card("Avg Test MAE", fmt.Sprintf("%.4f", s.AvgTestMAE), "Mean Absolute Error"),
		card("Total Models", strconv.Itoa(s.Total), "Tracked experiments"),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func card(title, value, subtitle string) string {
	body := strings.Join([]string{
		cardTitleStyle.Render(title),
		cardValueStyle.Render(value),
		cardTitleStyle.Render(subtitle),
	}, "\n")
	return cardStyle.Render(body)
}
