// Package charts renders trends, category distributions and goal progress
// as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/goals"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to chart")

const (
	width       = 1024
	height      = 512
	maxBarWidth = 60
)

var (
	barColor  = drawing.ColorFromHex("4e79a7")
	goalColor = drawing.ColorFromHex("59a14f")
)

// Generator renders charts with amounts shown in one display currency.
type Generator struct {
	currency core.Currency
}

// NewGenerator creates a generator labelling amounts with currency.
func NewGenerator(currency core.Currency) *Generator {
	return &Generator{currency: currency}
}

func background() chart.Style {
	return chart.Style{
		Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		FillColor: chart.ColorWhite,
	}
}

func barWidth(n int) int {
	w := (width - 100) / n
	if w > maxBarWidth {
		return maxBarWidth
	}
	return w
}

// Trend renders a bar per point of t.
func (g *Generator) Trend(t aggregate.Trend, title string) ([]byte, error) {
	if len(t.Points) == 0 {
		return nil, ErrNoData
	}

	var top float64
	bars := make([]chart.Value, len(t.Points))
	for i, p := range t.Points {
		v := p.Amount.Units()
		if v > top {
			top = v
		}
		bars[i] = chart.Value{
			Label: p.Label,
			Value: v,
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor},
		}
	}
	if top == 0 {
		return nil, ErrNoData
	}

	graph := chart.BarChart{
		Title:      title,
		TitleStyle: chart.Style{FontSize: 14, FontColor: chart.ColorBlack},
		Width:      width,
		Height:     height,
		BarWidth:   barWidth(len(bars)),
		Background: background(),
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%s%.0f", g.currency.Symbol, v.(float64))
			},
			Style: chart.Style{FontSize: 10, FontColor: chart.ColorBlack},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render trend chart: %w", err)
	}
	return buf.Bytes(), nil
}

// Distribution renders a pie slice per category with a positive total.
func (g *Generator) Distribution(b aggregate.Breakdown, title string) ([]byte, error) {
	if b.Total.Cents <= 0 {
		return nil, ErrNoData
	}

	values := make([]chart.Value, 0, len(b.Categories))
	for _, c := range b.Categories {
		if c.Amount.Cents <= 0 {
			continue
		}
		share := float64(c.Amount.Cents) * 100 / float64(b.Total.Cents)
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s (%.1f%%)", c.Name, g.currency.Format(c.Amount), share),
			Value: c.Amount.Units(),
			Style: chart.Style{FontSize: 10, FontColor: chart.ColorBlack},
		})
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}

	pie := chart.PieChart{
		Title:      title,
		Width:      height,
		Height:     height,
		Values:     values,
		Background: background(),
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render distribution chart: %w", err)
	}
	return buf.Bytes(), nil
}

// Goals renders each goal's progress percentage on a 0-100 scale.
func (g *Generator) Goals(list []core.Goal, title string) ([]byte, error) {
	if len(list) == 0 {
		return nil, ErrNoData
	}

	bars := make([]chart.Value, len(list))
	for i, goal := range list {
		pct := goals.ProgressPercentage(goal)
		bars[i] = chart.Value{
			Label: fmt.Sprintf("%s %.0f%%", goal.Title, pct),
			Value: pct,
			Style: chart.Style{FillColor: goalColor, StrokeColor: goalColor},
		}
	}

	graph := chart.BarChart{
		Title:      title,
		TitleStyle: chart.Style{FontSize: 14, FontColor: chart.ColorBlack},
		Width:      width,
		Height:     height,
		BarWidth:   barWidth(len(bars)),
		Background: background(),
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f%%", v.(float64))
			},
			Style: chart.Style{FontSize: 10, FontColor: chart.ColorBlack},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render goals chart: %w", err)
	}
	return buf.Bytes(), nil
}
