package aggregate

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ougirez/premiums/internal/domain"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.234, 1.23},
		{1.2351, 1.24},
		{0.125, 0.13},
		{-0.125, -0.13},
		{2.5, 2.5},
		{0, 0},
		{99.999, 100},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStats(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   Statistics
	}{
		{"empty", nil, Statistics{}},
		{"single", []float64{100}, Statistics{Min: 100, Max: 100, Median: 100, Average: 100}},
		{"odd", []float64{300, 320, 280}, Statistics{Min: 280, Max: 320, Median: 300, Average: 300}},
		// Even counts report the upper middle element, not the mean of the two.
		{"even upper median", []float64{400, 100, 300, 200}, Statistics{Min: 100, Max: 400, Median: 300, Average: 250}},
		{"rounded average", []float64{1, 1, 2}, Statistics{Min: 1, Max: 2, Median: 1, Average: 1.33}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stats(tt.values); got != tt.want {
				t.Errorf("Stats = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStatsDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Stats(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("input mutated: %v", values)
	}
}

func TestYearlyAverages(t *testing.T) {
	points := []domain.YearPoint{
		{Year: 2021, Value: 110},
		{Year: 2020, Value: 90},
		{Year: 2020, Value: 110},
		{Year: 2021, Value: 120},
		{Year: 2021, Value: 100},
	}

	got := YearlyAverages(points)
	if len(got) != 2 {
		t.Fatalf("got %d years", len(got))
	}
	if got[0] != (YearlyAverage{Year: 2020, Mean: 100, Count: 2}) {
		t.Errorf("2020 = %+v", got[0])
	}
	if got[1] != (YearlyAverage{Year: 2021, Mean: 110, Count: 3}) {
		t.Errorf("2021 = %+v", got[1])
	}

	if YearlyAverages(nil) == nil {
		t.Error("empty input should give an empty, non-nil slice")
	}
}

func averages(values ...float64) []YearlyAverage {
	out := make([]YearlyAverage, 0, len(values))
	for i, v := range values {
		out = append(out, YearlyAverage{Year: 2020 + i, Mean: v, Count: 1})
	}
	return out
}

func TestInflation(t *testing.T) {
	report := Inflation(averages(100, 110, 121))

	if len(report.Years) != 3 {
		t.Fatalf("got %d years", len(report.Years))
	}
	if report.Years[0].InflationRate != nil {
		t.Errorf("first year rate = %v, want nil", *report.Years[0].InflationRate)
	}
	if data, err := json.Marshal(report.Years[0]); err != nil || !strings.Contains(string(data), `"inflation_rate":null`) {
		t.Errorf("first year = %s, err = %v", data, err)
	}

	wantRates := []float64{0, 10, 10}
	wantCumulative := []float64{0, 10, 21}
	for i, y := range report.Years {
		if i > 0 && (y.InflationRate == nil || *y.InflationRate != wantRates[i]) {
			t.Errorf("year %d rate = %v, want %v", y.Year, y.InflationRate, wantRates[i])
		}
		if y.CumulativeInflation != wantCumulative[i] {
			t.Errorf("year %d cumulative = %v, want %v", y.Year, y.CumulativeInflation, wantCumulative[i])
		}
		if y.SampleSize != 1 {
			t.Errorf("year %d sample size = %d", y.Year, y.SampleSize)
		}
	}

	if report.AvgYearlyInflation != 10 || report.TotalInflation != 21 {
		t.Errorf("summary = %v / %v", report.AvgYearlyInflation, report.TotalInflation)
	}
}

func TestInflationCompoundsUnroundedValues(t *testing.T) {
	// 300 -> 301 -> 302: compounding the rounded rates (0.33, 0.33) would give 0.66.
	report := Inflation(averages(300, 301, 302))
	if got := report.TotalInflation; got != 0.67 {
		t.Errorf("total = %v, want 0.67", got)
	}
	if got := *report.Years[1].InflationRate; got != 0.33 {
		t.Errorf("rate = %v, want 0.33", got)
	}
}

func TestInflationSingleYear(t *testing.T) {
	report := Inflation(averages(250))
	if report.AvgYearlyInflation != 0 || report.TotalInflation != 0 {
		t.Errorf("single year summary = %+v", report)
	}
	if len(report.Years) != 1 || report.Years[0].AvgPremiumCHF != 250 {
		t.Errorf("years = %+v", report.Years)
	}
}

func TestLinearTrend(t *testing.T) {
	series := []YearValue{{2020, 100}, {2021, 110}, {2022, 120}}

	trend := LinearTrend(series)
	if trend == nil {
		t.Fatal("nil trend")
	}
	if trend.Slope != 10 {
		t.Errorf("slope = %v", trend.Slope)
	}
	if trend.Intercept != -20100 {
		t.Errorf("intercept = %v", trend.Intercept)
	}
	if trend.Prediction2027 != 170 {
		t.Errorf("prediction = %v", trend.Prediction2027)
	}

	if LinearTrend(series[:1]) != nil {
		t.Error("one point should give no trend")
	}
	if LinearTrend([]YearValue{{2020, 1}, {2020, 2}}) != nil {
		t.Error("a single year should give no trend")
	}
}

func TestChanges(t *testing.T) {
	got := Changes([]YearValue{{2016, 200}, {2017, 210}, {2018, 230}})
	want := Change{TotalChangeCHF: 30, PercentChange: 15, AvgYearlyIncrease: 15}
	if got != want {
		t.Errorf("Changes = %+v, want %+v", got, want)
	}

	if got := Changes([]YearValue{{2016, 200}}); got != (Change{}) {
		t.Errorf("single point = %+v", got)
	}
	if got := Changes(nil); got != (Change{}) {
		t.Errorf("empty = %+v", got)
	}
}

func TestSeries(t *testing.T) {
	got := Series([]YearlyAverage{{Year: 2020, Mean: 100.456, Count: 3}})
	if len(got) != 1 || got[0] != (YearValue{Year: 2020, Value: 100.46}) {
		t.Errorf("Series = %+v", got)
	}
}
