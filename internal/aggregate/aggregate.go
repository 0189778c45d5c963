// Package aggregate computes the summary figures reported next to premium
// listings: statistics, yearly averages, inflation and a linear trend.
package aggregate

import (
	"math"
	"sort"

	"github.com/ougirez/premiums/internal/domain"
)

// PredictionYear is the year extrapolated by LinearTrend.
const PredictionYear = 2027

// Round2 rounds half away from zero to two decimals.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

type Statistics struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Median  float64 `json:"median"`
	Average float64 `json:"average"`
}

// Stats summarises values. The median is the upper middle element for even
// counts, not the mean of the two middle ones. Empty input yields zeros.
func Stats(values []float64) Statistics {
	if len(values) == 0 {
		return Statistics{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return Statistics{
		Min:     sorted[0],
		Max:     sorted[len(sorted)-1],
		Median:  sorted[len(sorted)/2],
		Average: Round2(sum / float64(len(sorted))),
	}
}

// YearlyAverage holds the unrounded mean of one year's samples.
type YearlyAverage struct {
	Year  int
	Mean  float64
	Count int
}

// YearlyAverages groups points by year, ascending.
func YearlyAverages(points []domain.YearPoint) []YearlyAverage {
	type acc struct {
		sum   float64
		count int
	}

	byYear := make(map[int]*acc)
	for _, p := range points {
		a, ok := byYear[p.Year]
		if !ok {
			a = &acc{}
			byYear[p.Year] = a
		}
		a.sum += p.Value
		a.count++
	}

	out := make([]YearlyAverage, 0, len(byYear))
	for year, a := range byYear {
		out = append(out, YearlyAverage{Year: year, Mean: a.sum / float64(a.count), Count: a.count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })

	return out
}

type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"monthly_premium_chf"`
}

// Series rounds yearly averages into a reportable series.
func Series(averages []YearlyAverage) []YearValue {
	out := make([]YearValue, 0, len(averages))
	for _, a := range averages {
		out = append(out, YearValue{Year: a.Year, Value: Round2(a.Mean)})
	}
	return out
}

type InflationYear struct {
	Year                int      `json:"year"`
	AvgPremiumCHF       float64  `json:"avg_premium_chf"`
	InflationRate       *float64 `json:"inflation_rate"`
	CumulativeInflation float64  `json:"cumulative_inflation"`
	SampleSize          int      `json:"sample_size"`
}

type InflationReport struct {
	Years              []InflationYear
	AvgYearlyInflation float64
	TotalInflation     float64
}

// Inflation compounds year over year changes of the averages. Compounding runs on
// unrounded figures; only the reported values are rounded. The first year has no rate.
func Inflation(averages []YearlyAverage) InflationReport {
	report := InflationReport{Years: make([]InflationYear, 0, len(averages))}

	var cumulative, rateSum float64
	for i, a := range averages {
		year := InflationYear{
			Year:          a.Year,
			AvgPremiumCHF: Round2(a.Mean),
			SampleSize:    a.Count,
		}

		if i > 0 {
			prev := averages[i-1].Mean
			rate := (a.Mean - prev) / prev * 100
			cumulative = ((1+cumulative/100)*(1+rate/100) - 1) * 100

			rounded := Round2(rate)
			year.InflationRate = &rounded
			rateSum += rounded
		}
		year.CumulativeInflation = Round2(cumulative)

		report.Years = append(report.Years, year)
	}

	if len(averages) > 1 {
		report.AvgYearlyInflation = Round2(rateSum / float64(len(averages)-1))
	}
	report.TotalInflation = Round2(cumulative)

	return report
}

type Trend struct {
	Slope          float64 `json:"slope"`
	Intercept      float64 `json:"intercept"`
	Prediction2027 float64 `json:"prediction_2027"`
}

// LinearTrend fits an ordinary least squares line through the series. It returns
// nil for fewer than two points or when all points share one year.
func LinearTrend(series []YearValue) *Trend {
	if len(series) < 2 {
		return nil
	}

	n := float64(len(series))
	var sumX, sumY, sumXY, sumX2 float64
	for _, p := range series {
		x := float64(p.Year)
		sumX += x
		sumY += p.Value
		sumXY += x * p.Value
		sumX2 += x * x
	}

	denominator := n*sumX2 - sumX*sumX
	if denominator == 0 {
		return nil
	}

	slope := (n*sumXY - sumX*sumY) / denominator
	intercept := (sumY - slope*sumX) / n

	return &Trend{
		Slope:          Round2(slope),
		Intercept:      Round2(intercept),
		Prediction2027: Round2(slope*PredictionYear + intercept),
	}
}

type Change struct {
	TotalChangeCHF    float64 `json:"total_change_chf"`
	PercentChange     float64 `json:"percent_change"`
	AvgYearlyIncrease float64 `json:"avg_yearly_increase"`
}

// Changes compares the last point of the series with the first.
func Changes(series []YearValue) Change {
	if len(series) == 0 {
		return Change{}
	}

	first, last := series[0].Value, series[len(series)-1].Value
	total := last - first

	var c Change
	c.TotalChangeCHF = Round2(total)
	if first != 0 {
		c.PercentChange = Round2(total / first * 100)
	}
	if len(series) > 1 {
		c.AvgYearlyIncrease = Round2(total / float64(len(series)-1))
	}
	return c
}
