package web

import (
	"github.com/hpungsan/langroutes/internal/ops"
	"github.com/hpungsan/langroutes/internal/table"
)

// Chart geometry, in SVG user units.
const (
	chartLabelWidth = 170
	chartBarMax     = 400
	chartValueWidth = 140
	chartRowHeight  = 26
	chartBarHeight  = 18
	chartPadding    = 4
)

// ChartData describes a horizontal bar chart drawn as inline SVG.
type ChartData struct {
	Field  string
	Label  string
	Width  int
	Height int
	BarX   int
	Bars   []Bar
}

// Bar is one row of the chart.
type Bar struct {
	Rank    int
	Name    string
	Value   float64
	Display string
	Y       int
	TextY   int
	Width   int
	ValueX  int
}

// buildChart lays out the ranking as bars scaled to the largest value.
func buildChart(top *ops.TopOutput) ChartData {
	chart := ChartData{
		Field:  top.Field,
		Label:  top.Label,
		Width:  chartLabelWidth + chartBarMax + chartValueWidth,
		Height: len(top.Items)*chartRowHeight + 2*chartPadding,
		BarX:   chartLabelWidth,
		Bars:   make([]Bar, len(top.Items)),
	}

	var peak float64
	for _, item := range top.Items {
		if item.Value > peak {
			peak = item.Value
		}
	}

	for i, item := range top.Items {
		width := 0
		if peak > 0 {
			width = int(item.Value / peak * chartBarMax)
			if width == 0 && item.Value > 0 {
				width = 1
			}
		}
		y := chartPadding + i*chartRowHeight
		chart.Bars[i] = Bar{
			Rank:    item.Rank,
			Name:    item.Name,
			Value:   item.Value,
			Display: displayValue(top.Field, item),
			Y:       y,
			TextY:   y + chartBarHeight - 4,
			Width:   width,
			ValueX:  chartLabelWidth + width + 6,
		}
	}
	return chart
}

func displayValue(field string, item ops.RankItem) string {
	if table.Field(field) == table.FieldArea {
		return ops.FormatArea(item.Area)
	}
	return ops.FormatPopulation(item.Population)
}
