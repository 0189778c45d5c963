package etl

import (
	"strconv"
	"strings"

	"github.com/ougirez/premiums/internal/domain"
)

const defaultFranchise = 2500

// franchise levels used by the BAG files instead of amounts
var franchiseSteps = map[string]int{
	"FRAST1": 0,
	"FRAST2": 100,
	"FRAST3": 200,
	"FRAST4": 300,
	"FRAST5": 500,
	"FRAST6": 1000,
	"FRAST7": 2500,
}

// MapFranchise reads FRA-n codes, franchise levels and plain amounts. Anything
// else maps to the highest adult franchise; ok is false in that case.
func MapFranchise(raw string) (value int, ok bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))

	if rest, found := strings.CutPrefix(code, "FRA-"); found {
		if n, err := strconv.Atoi(rest); err == nil {
			return n, true
		}
	}
	if n, found := franchiseSteps[code]; found {
		return n, true
	}

	digits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, code)
	if n, err := strconv.ParseFloat(digits, 64); err == nil && n >= 0 && n <= defaultFranchise {
		return int(n), true
	}

	return defaultFranchise, false
}

var ageBandCodes = map[string]string{
	"K": domain.AgeBandChild, "K1": domain.AgeBandChild, "KIN": domain.AgeBandChild, "KIND": domain.AgeBandChild,
	"0": domain.AgeBandChild, "00": domain.AgeBandChild, "CHD": domain.AgeBandChild,
	"J": domain.AgeBandYoungAdult, "J1": domain.AgeBandYoungAdult, "JUN": domain.AgeBandYoungAdult, "JUNG": domain.AgeBandYoungAdult,
	"19": domain.AgeBandYoungAdult, "26": domain.AgeBandYoungAdult, "YNG": domain.AgeBandYoungAdult,
	"E": domain.AgeBandAdult, "E1": domain.AgeBandAdult, "ERW": domain.AgeBandAdult,
}

// MapAgeBand reads AKL-* codes and the short forms of older files. Unknown codes
// map to adult with ok false.
func MapAgeBand(raw string) (band string, ok bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))

	switch {
	case strings.Contains(code, "AKL-KIN"):
		return domain.AgeBandChild, true
	case strings.Contains(code, "AKL-JUG"):
		return domain.AgeBandYoungAdult, true
	case strings.Contains(code, "AKL-ERW"):
		return domain.AgeBandAdult, true
	}
	if band, found := ageBandCodes[code]; found {
		return band, true
	}

	return domain.AgeBandAdult, false
}

// MapAccidentCovered defaults to covered for anything it does not recognise.
func MapAccidentCovered(raw string) bool {
	code := strings.ToUpper(strings.TrimSpace(raw))

	switch code {
	case "MIT-UNF", "MIT UNF", "UNF-JA", "JA", "1", "Y":
		return true
	case "OHN-UNF", "OHNE-UNF", "OHNE UNF", "UNF-NEIN", "NEIN", "0", "N":
		return false
	}

	switch {
	case strings.Contains(code, "MIT"), strings.Contains(code, "INCL"):
		return true
	case strings.Contains(code, "OHN"), strings.Contains(code, "EXCL"):
		return false
	}
	return true
}

var tariffCodes = map[string]string{
	"TAR-BASE": domain.ModelStandard,
	"BASE":     domain.ModelStandard,
	"TAR-HMO":  domain.ModelHMO,
	"TAR-FAM":  domain.ModelFamilyDoctor,
	"TAR-HA":   domain.ModelFamilyDoctor,
	"TAR-TEL":  domain.ModelTelmed,
	"TAR-DIV":  domain.ModelDiverse,
	// TAR-HAM covers both HMO and family doctor plans, the description decides
	"TAR-HAM": domain.ModelHMO,
}

// MapModelType looks at the tariff description before the tariff code.
func MapModelType(code, description string) string {
	desc := strings.ToUpper(description)

	switch {
	case strings.Contains(desc, "HAUSARZT"), strings.Contains(desc, "FAMILY"):
		return domain.ModelFamilyDoctor
	case strings.Contains(desc, "CALLMED"), strings.Contains(desc, "TELMED"), strings.Contains(desc, "CALL MED"):
		return domain.ModelTelmed
	case strings.Contains(desc, "GESUNDHEITSPRAXIS"), strings.Contains(desc, "HMO"):
		return domain.ModelHMO
	case strings.Contains(desc, "BASIS"), strings.Contains(desc, "GRUND"):
		return domain.ModelStandard
	}

	if model, ok := tariffCodes[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return model
	}
	return domain.ModelStandard
}
