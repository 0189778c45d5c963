// Package etl turns the yearly BAG premium files into premium rows ready for the
// store.
package etl

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ougirez/premiums/internal/domain"
)

const maxMonthlyPremium = 3000

// column aliases in lookup order, covering the headers used since 2011
var (
	colInsurer   = []string{"Versicherer", "G_ID", "INST", "Code", "CODE", "VersNr"}
	colCanton    = []string{"Kanton", "C_ID", "KT", "CANTON"}
	colRegion    = []string{"Region", "REGION", "R_ID", "PR", "Prämienregion"}
	colAgeBand   = []string{"Altersklasse", "V2_TYP", "AKL", "ALTER", "Age", "AGE"}
	colFranchise = []string{"Franchise", "FRA", "FRANCHISE"}
	colAccident  = []string{"Unfalleinschluss", "UNF", "Unfall", "ACCIDENT"}
	colModel     = []string{"Tariftyp", "Tarif-Typ", "Tarif", "TARIF", "V_TYP", "MODEL"}
	colModelDesc = []string{"Tarifbezeichnung", "V_KBEZ", "Bezeichnung", "Description"}
	colPremium   = []string{"Prämie", "PRÄMIE", "PRAEMIE", "Premium", "PREMIUM", "Monatsprämie"}
)

// Result is the outcome of transforming one year.
type Result struct {
	Year       int
	Premiums   []domain.Premium
	Invalid    int
	Duplicates int

	// rows whose codes fell back to a default
	UnknownCodes int
}

// Transform validates, normalises and deduplicates the rows of one year. The first
// row wins for a repeated composite key.
func Transform(year int, rows []Row) Result {
	res := Result{Year: year, Premiums: make([]domain.Premium, 0, len(rows))}
	seen := make(map[domain.Key]struct{}, len(rows))

	for _, row := range rows {
		p, known, ok := transformRow(year, row)
		if !ok {
			res.Invalid++
			continue
		}
		if !known {
			res.UnknownCodes++
		}

		key := p.Key()
		if _, dup := seen[key]; dup {
			res.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		res.Premiums = append(res.Premiums, p)
	}

	return res
}

func transformRow(year int, row Row) (p domain.Premium, known, ok bool) {
	insurer := row.pick(colInsurer...)
	canton := row.pick(colCanton...)
	if insurer == "" || canton == "" {
		return p, false, false
	}

	premium, err := decimal.NewFromString(strings.ReplaceAll(row.pick(colPremium...), ",", "."))
	if err != nil || !premium.IsPositive() || premium.GreaterThan(decimal.NewFromInt(maxMonthlyPremium)) {
		return p, false, false
	}

	franchise, franchiseKnown := MapFranchise(row.pick(colFranchise...))
	ageBand, ageKnown := MapAgeBand(row.pick(colAgeBand...))

	region := row.pick(colRegion...)
	if region == "" {
		region = "0"
	}

	p = domain.Premium{
		Year:              year,
		InsurerID:         padLeft(insurer, 4),
		Canton:            cantonCode(canton),
		RegionCode:        padLeft(region, 2),
		AgeBand:           ageBand,
		FranchiseCHF:      franchise,
		AccidentCovered:   MapAccidentCovered(row.pick(colAccident...)),
		ModelType:         MapModelType(row.pick(colModel...), row.pick(colModelDesc...)),
		MonthlyPremiumCHF: premium.Round(2).InexactFloat64(),
	}
	if desc := row.pick(colModelDesc...); desc != "" {
		p.TariffName = &desc
	}

	return p, franchiseKnown && ageKnown, true
}

func padLeft(s string, width int) string {
	// spreadsheets hand ids over as floats
	if n, err := strconv.ParseFloat(s, 64); err == nil && n == float64(int64(n)) {
		s = strconv.FormatInt(int64(n), 10)
	}
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func cantonCode(raw string) string {
	code := strings.ToUpper(raw)
	if len(code) > 2 {
		code = code[:2]
	}
	return code
}
