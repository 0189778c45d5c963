package chartsig

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/ougirez/premiums/internal/chart"
	"github.com/ougirez/premiums/internal/params"
)

// Params are the data selection parameters a chart URL may carry. Empty strings
// and nil pointers are left out of the URL.
type Params struct {
	Canton          string
	InsurerID       string
	InsurerName     string
	Profile         string
	AgeBand         string
	ModelType       string
	FranchiseCHF    *int
	StartYear       *int
	EndYear         *int
	Limit           *int
	AccidentCovered *bool
}

// Token is a verified chart request.
type Token struct {
	Kind   chart.Kind
	Params Params
}

const (
	keyCanton          = "canton"
	keyInsurerID       = "insurer_id"
	keyInsurerName     = "insurer_name"
	keyProfile         = "profile"
	keyAgeBand         = "age_band"
	keyModelType       = "model_type"
	keyFranchiseCHF    = "franchise_chf"
	keyStartYear       = "start_year"
	keyEndYear         = "end_year"
	keyLimit           = "limit"
	keyAccidentCovered = "accident_covered"
)

func (p Params) fields() map[string]any {
	fields := make(map[string]any)

	for key, v := range map[string]string{
		keyCanton:      p.Canton,
		keyInsurerID:   p.InsurerID,
		keyInsurerName: p.InsurerName,
		keyProfile:     p.Profile,
		keyAgeBand:     p.AgeBand,
		keyModelType:   p.ModelType,
	} {
		if v != "" {
			fields[key] = v
		}
	}

	for key, v := range map[string]*int{
		keyFranchiseCHF: p.FranchiseCHF,
		keyStartYear:    p.StartYear,
		keyEndYear:      p.EndYear,
		keyLimit:        p.Limit,
	} {
		if v != nil {
			fields[key] = *v
		}
	}

	if p.AccidentCovered != nil {
		fields[keyAccidentCovered] = *p.AccidentCovered
	}

	return fields
}

func parseParams(values url.Values) Params {
	p := Params{
		Canton:      values.Get(keyCanton),
		InsurerID:   values.Get(keyInsurerID),
		InsurerName: values.Get(keyInsurerName),
		Profile:     values.Get(keyProfile),
		AgeBand:     values.Get(keyAgeBand),
		ModelType:   values.Get(keyModelType),
	}

	p.FranchiseCHF = parseInt(values.Get(keyFranchiseCHF))
	p.StartYear = parseInt(values.Get(keyStartYear))
	p.EndYear = parseInt(values.Get(keyEndYear))
	p.Limit = parseInt(values.Get(keyLimit))

	if _, ok := values[keyAccidentCovered]; ok {
		covered := params.Bool(values.Get(keyAccidentCovered), false)
		p.AccidentCovered = &covered
	}

	return p
}

// parseInt treats anything that is not an integer as absent.
func parseInt(raw string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &v
}
