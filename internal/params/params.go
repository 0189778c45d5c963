// Package params validates raw query parameters against the closed premium
// dimensions and resolves named profiles. Nothing here performs I/O.
package params

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/ougirez/premiums/internal/domain"
	"github.com/ougirez/premiums/internal/normalize"
	"github.com/ougirez/premiums/internal/pkg/constants"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var AgeBands = []string{domain.AgeBandChild, domain.AgeBandYoungAdult, domain.AgeBandAdult}

var Franchises = []int{0, 100, 200, 300, 400, 500, 600, 1000, 1500, 2000, 2500}

var ModelTypes = []string{
	domain.ModelStandard,
	domain.ModelHMO,
	domain.ModelTelmed,
	domain.ModelFamilyDoctor,
	domain.ModelDiverse,
}

type Profile struct {
	Name            string `json:"type"`
	AgeBand         string `json:"age_band"`
	FranchiseCHF    int    `json:"franchise_chf"`
	AccidentCovered bool   `json:"accident_covered"`
	Description     string `json:"description"`
}

const DefaultProfile = "single_adult"

var profiles = map[string]Profile{
	"single_adult": {
		Name:         "single_adult",
		AgeBand:      domain.AgeBandAdult,
		FranchiseCHF: 2500,
		// accident cover usually comes with employment
		AccidentCovered: false,
		Description:     "Einzelperson, Erwachsener, hohe Franchise",
	},
	"couple": {
		Name:            "couple",
		AgeBand:         domain.AgeBandAdult,
		FranchiseCHF:    2500,
		AccidentCovered: true,
		Description:     "Paar, Erwachsene, hohe Franchise",
	},
	"family_1kid": {
		Name:            "family_1kid",
		AgeBand:         domain.AgeBandAdult,
		FranchiseCHF:    1000,
		AccidentCovered: true,
		Description:     "Familie mit 1 Kind, mittlere Franchise",
	},
	"family_2kids": {
		Name:            "family_2kids",
		AgeBand:         domain.AgeBandAdult,
		FranchiseCHF:    500,
		AccidentCovered: true,
		Description:     "Familie mit 2+ Kindern, tiefe Franchise",
	},
	"student": {
		Name:            "student",
		AgeBand:         domain.AgeBandYoungAdult,
		FranchiseCHF:    2500,
		AccidentCovered: false,
		Description:     "Student/in, 19-25 Jahre",
	},
	"young_adult": {
		Name:            "young_adult",
		AgeBand:         domain.AgeBandYoungAdult,
		FranchiseCHF:    2500,
		AccidentCovered: true,
		Description:     "Junger Erwachsener, 19-25 Jahre",
	},
}

var profileNames = []string{"single_adult", "couple", "family_1kid", "family_2kids", "student", "young_adult"}

func ProfileNames() []string {
	return append([]string(nil), profileNames...)
}

func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, ErrInvalidProfile.
			WithMessage(fmt.Sprintf("Profile '%s' is invalid", name)).
			WithSuggestion("Valid profiles: " + strings.Join(profileNames, ", "))
	}
	return p, nil
}

func Canton(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if !normalize.IsCanton(code) {
		return "", ErrInvalidCanton.
			WithMessage(fmt.Sprintf("Canton '%s' is invalid", raw)).
			WithSuggestion("Valid cantons: " + strings.Join(normalize.CantonCodes(), ", "))
	}
	return code, nil
}

func AgeBand(raw string) (string, error) {
	band := strings.TrimSpace(raw)
	for _, b := range AgeBands {
		if b == band {
			return band, nil
		}
	}
	return "", ErrInvalidAgeBand
}

func Franchise(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrInvalidFranchise
	}
	return value, FranchiseValue(value)
}

func FranchiseValue(value int) error {
	i := sort.SearchInts(Franchises, value)
	if i == len(Franchises) || Franchises[i] != value {
		return ErrInvalidFranchise
	}
	return nil
}

func ModelType(raw string) (string, error) {
	model := strings.TrimSpace(raw)
	for _, m := range ModelTypes {
		if m == model {
			return model, nil
		}
	}
	return "", ErrInvalidModelType.WithMessage(fmt.Sprintf("Model type '%s' is invalid", raw))
}

// Bool reads a flag from a query string or a chart token. Absent means def; any
// present value other than the literal "true" is false.
func Bool(raw string, def bool) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	return raw == "true"
}

// Limit parses a result count and clamps it into [1, max]. Unparseable or
// non-positive input yields def.
func Limit(raw string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		n = def
	}
	if n < 1 {
		n = 1
	}
	if n > max {
		n = max
	}
	return n
}

func Year(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1990 || year > 2100 {
		return 0, ErrInvalidYear.WithMessage(fmt.Sprintf("Year '%s' is invalid", raw))
	}
	return year, nil
}

func YearRange(rawStart, rawEnd string, defStart, defEnd int) (int, int, error) {
	start, err := Year(rawStart, defStart)
	if err != nil {
		return 0, 0, err
	}
	end, err := Year(rawEnd, defEnd)
	if err != nil {
		return 0, 0, err
	}
	if start > end {
		return 0, 0, ErrInvalidYear.WithMessage(fmt.Sprintf("start_year %d is after end_year %d", start, end))
	}
	return start, end, nil
}

// Years parses a comma separated year list, dropping duplicates but keeping order.
func Years(raw string) ([]int, error) {
	var years []int
	seen := make(map[int]struct{})
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		year, err := Year(part, 0)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[year]; ok {
			continue
		}
		seen[year] = struct{}{}
		years = append(years, year)
	}
	if len(years) == 0 {
		return nil, ErrInvalidYear.WithMessage("No years given")
	}
	return years, nil
}

var (
	ErrInvalidCanton = constants.NewCodedError(http.StatusBadRequest, constants.CodeInvalidCanton, "Canton is invalid")

	ErrInvalidAgeBand = constants.NewCodedError(http.StatusBadRequest, constants.CodeInvalidAgeBand, "Age must be: child, young_adult, or adult")

	ErrInvalidFranchise = constants.NewCodedError(http.StatusBadRequest, constants.CodeInvalidFranchise, "Invalid franchise amount").
				WithSuggestion("Valid franchises: 0, 100, 200, 300, 400, 500, 600, 1000, 1500, 2000, 2500")

	ErrInvalidModelType = constants.NewCodedError(http.StatusBadRequest, constants.CodeInvalidModelType, "Model type is invalid").
				WithSuggestion("Valid model types: standard, hmo, telmed, family_doctor, diverse")

	ErrInvalidProfile = constants.NewCodedError(http.StatusBadRequest, constants.CodeInvalidProfile, "Profile is invalid")

	ErrInvalidYear = constants.NewCodedError(http.StatusBadRequest, constants.CodeInvalidYear, "Year is invalid")
)
