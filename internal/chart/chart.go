// Package chart turns aggregated premium data into renderer-neutral chart
// specifications. Nothing in this package performs I/O.
package chart

import (
	"github.com/ougirez/premiums/internal/aggregate"
)

type Kind string

const (
	KindComparison Kind = "comparison"
	KindTimeline   Kind = "timeline"
	KindInflation  Kind = "inflation"
)

var kinds = []Kind{KindComparison, KindTimeline, KindInflation}

func ParseKind(raw string) (Kind, bool) {
	for _, k := range kinds {
		if string(k) == raw {
			return k, true
		}
	}
	return "", false
}

func (k Kind) String() string {
	return string(k)
}

// Chart is implemented by Comparison, Timeline and Inflation only.
type Chart interface {
	Kind() Kind
	sealed()
}

// Comparison is a bar chart of the cheapest offers.
type Comparison struct {
	// Title overrides the default "Top N Günstigste".
	Title string
	Bars  []Bar
}

type Bar struct {
	InsurerID         string
	InsurerName       string
	MonthlyPremiumCHF float64
}

// Timeline draws one line per premium region.
type Timeline struct {
	InsurerName string
	Series      []Series
}

type Series struct {
	Region string
	Points []aggregate.YearValue
}

// Inflation pairs yearly rates (bars) with the cumulative curve (line).
type Inflation struct {
	Canton string
	Years  []aggregate.InflationYear
}

func (Comparison) Kind() Kind { return KindComparison }
func (Timeline) Kind() Kind   { return KindTimeline }
func (Inflation) Kind() Kind  { return KindInflation }

func (Comparison) sealed() {}
func (Timeline) sealed()   {}
func (Inflation) sealed()  {}
