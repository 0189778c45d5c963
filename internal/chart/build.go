package chart

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/ougirez/premiums/internal/normalize"
)

const (
	maxBars       = 8
	maxLabelRunes = 12
	cutLabelRunes = 10

	// one hue for every bar, cheap and expensive alike
	barColor        = "#4A5568"
	cumulativeColor = "#dc2626"
	rateColor       = "#4A5568"
	gridColor       = "#e5e7eb"
	timelineGrid    = "#f0f0f0"
	labelColor      = "#1f2937"
	pointFill       = "#ffffff"
)

var regionPalette = []string{"#334155", "#475569", "#64748B", "#94A3B8"}

// Build maps a chart onto its Chart.js specification.
func Build(c Chart) Spec {
	spec := Spec{
		Width:           Width,
		Height:          Height,
		BackgroundColor: Background,
	}

	switch c := c.(type) {
	case Comparison:
		spec.Config = comparisonConfig(c)
	case *Comparison:
		spec.Config = comparisonConfig(*c)
	case Timeline:
		spec.Config = timelineConfig(c)
	case *Timeline:
		spec.Config = timelineConfig(*c)
	case Inflation:
		spec.Config = inflationConfig(c)
	case *Inflation:
		spec.Config = inflationConfig(*c)
	}

	return spec
}

func comparisonConfig(c Comparison) Config {
	bars := append([]Bar(nil), c.Bars...)
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].MonthlyPremiumCHF < bars[j].MonthlyPremiumCHF
	})
	if len(bars) > maxBars {
		bars = bars[:maxBars]
	}

	labels := make([]string, 0, len(bars))
	prices := make([]float64, 0, len(bars))
	colors := make(Colors, 0, len(bars))
	for _, b := range bars {
		labels = append(labels, barLabel(b))
		prices = append(prices, b.MonthlyPremiumCHF)
		colors = append(colors, barColor)
	}

	title := c.Title
	if title == "" {
		title = fmt.Sprintf("Top %d Günstigste", len(bars))
	}

	return Config{
		Type: "bar",
		Data: Data{
			Labels: labels,
			Datasets: []Dataset{{
				Label:              "CHF/Monat",
				Data:               prices,
				BackgroundColor:    colors,
				BorderRadius:       4,
				BarPercentage:      0.8,
				CategoryPercentage: 0.9,
			}},
		},
		Options: Options{
			Title:  Title{Display: true, Text: title, FontSize: fontTitle, Padding: 8},
			Legend: Legend{Display: false},
			Scales: Scales{
				YAxes: []Axis{{
					Ticks:     &Ticks{BeginAtZero: ptr(false), FontSize: fontTick},
					GridLines: &GridLines{DrawBorder: ptr(false), Color: gridColor},
				}},
				XAxes: []Axis{{
					Ticks:     &Ticks{AutoSkip: ptr(false), MaxRotation: 45, MinRotation: 45, FontSize: fontTick - 1},
					GridLines: &GridLines{Display: ptr(false)},
				}},
			},
			Plugins: &Plugins{DataLabels: DataLabels{
				Display: true,
				Align:   "end",
				Anchor:  "end",
				Color:   labelColor,
				Font:    Font{Weight: "bold", Size: 8},
			}},
		},
	}
}

func barLabel(b Bar) string {
	name := b.InsurerName
	if name == "" && b.InsurerID != "" {
		name, _ = normalize.KnownInsurerName(b.InsurerID)
	}
	if name == "" || normalize.IsFallbackName(name) {
		id := b.InsurerID
		if id == "" {
			id = "unknown"
		}
		name = "ID " + id
	}

	runes := []rune(name)
	if len(runes) > maxLabelRunes {
		return string(runes[:cutLabelRunes]) + ".."
	}
	return name
}

func timelineConfig(t Timeline) Config {
	var series []Series
	seen := make(map[string]struct{})
	for _, s := range t.Series {
		region := normalize.RegionName(s.Region)
		if _, ok := seen[region]; ok {
			continue
		}
		seen[region] = struct{}{}
		series = append(series, Series{Region: region, Points: s.Points})
	}

	// all series share one year axis; a region without a year gets a gap there
	yearSet := make(map[int]struct{})
	for _, s := range series {
		for _, p := range s.Points {
			yearSet[p.Year] = struct{}{}
		}
	}
	years := make([]int, 0, len(yearSet))
	for year := range yearSet {
		years = append(years, year)
	}
	sort.Ints(years)

	labels := make([]string, 0, len(years))
	for _, year := range years {
		labels = append(labels, strconv.Itoa(year))
	}

	multi := len(series) > 1
	datasets := make([]Dataset, 0, len(series))
	for i, s := range series {
		color := regionPalette[i%len(regionPalette)]
		label := ""
		if multi {
			label = s.Region
		}

		byYear := make(map[int]float64, len(s.Points))
		for _, p := range s.Points {
			byYear[p.Year] = p.Value
		}
		values := make(Values, len(years))
		gaps := false
		for j, year := range years {
			v, ok := byYear[year]
			if !ok {
				v, gaps = math.NaN(), true
			}
			values[j] = v
		}

		ds := Dataset{
			Label:                label,
			Data:                 values,
			BorderColor:          color,
			BackgroundColor:      Colors{color + "15"},
			BorderWidth:          2,
			PointRadius:          ptr(3),
			PointBackgroundColor: pointFill,
			PointBorderColor:     color,
			PointBorderWidth:     2,
			Fill:                 ptr(true),
			LineTension:          0.2,
		}
		if gaps {
			ds.SpanGaps = ptr(true)
		}
		datasets = append(datasets, ds)
	}

	name := t.InsurerName
	if name == "" {
		name = "Versicherer"
	}

	legend := Legend{Display: multi}
	if multi {
		legend.Position = "bottom"
		legend.Labels = &LegendLabels{FontSize: fontLabel, BoxWidth: 10}
	}

	return Config{
		Type: "line",
		Data: Data{Labels: labels, Datasets: datasets},
		Options: Options{
			Title:  Title{Display: true, Text: "Preisentwicklung: " + name, FontSize: fontTitle},
			Legend: legend,
			Scales: Scales{
				YAxes: []Axis{{
					Ticks:     &Ticks{BeginAtZero: ptr(false)},
					GridLines: &GridLines{Color: timelineGrid},
				}},
				XAxes: []Axis{{
					GridLines: &GridLines{Display: ptr(false)},
				}},
			},
		},
	}
}

func inflationConfig(c Inflation) Config {
	labels := make([]string, 0, len(c.Years))
	cumulative := make([]float64, 0, len(c.Years))
	rates := make([]float64, 0, len(c.Years))
	for _, y := range c.Years {
		labels = append(labels, strconv.Itoa(y.Year))
		cumulative = append(cumulative, y.CumulativeInflation)
		rate := 0.0
		if y.InflationRate != nil {
			rate = *y.InflationRate
		}
		rates = append(rates, rate)
	}

	canton := c.Canton
	if canton == "" {
		canton = "CH"
	}

	return Config{
		Type: "bar",
		Data: Data{
			Labels: labels,
			Datasets: []Dataset{
				{
					Type:        "line",
					Label:       "Kumulativ (%)",
					Data:        cumulative,
					BorderColor: cumulativeColor,
					BorderWidth: 2,
					Fill:        ptr(false),
					YAxisID:     "y2",
					PointRadius: ptr(0),
				},
				{
					Type:            "bar",
					Label:           "Inflation (%)",
					Data:            rates,
					BackgroundColor: Colors{rateColor},
					YAxisID:         "y1",
				},
			},
		},
		Options: Options{
			Title:  Title{Display: true, Text: "Inflation " + canton, FontSize: fontTitle},
			Legend: Legend{Display: true, Position: "bottom"},
			Scales: Scales{
				YAxes: []Axis{
					{
						ID:         "y1",
						Type:       "linear",
						Position:   "left",
						ScaleLabel: &ScaleLabel{Display: true, LabelString: "Jährlich %"},
						GridLines:  &GridLines{Display: ptr(false)},
					},
					{
						ID:         "y2",
						Type:       "linear",
						Position:   "right",
						ScaleLabel: &ScaleLabel{Display: true, LabelString: "Kumulativ %"},
						GridLines:  &GridLines{Display: ptr(false)},
					},
				},
				XAxes: []Axis{{
					GridLines: &GridLines{Display: ptr(false)},
				}},
			},
		},
	}
}
