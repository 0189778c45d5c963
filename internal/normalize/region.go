package normalize

import (
	"regexp"
	"strings"
)

var regionPrefix = regexp.MustCompile(`^PR-REG\s+`)

// regionAliases collapses the historical encodings onto four labels. The BAG
// numbers regions from 0, the labels from 1.
var regionAliases = map[string]string{
	"CH0":      "Region 1",
	"CH00":     "Region 1",
	"CH01":     "Region 1",
	"0":        "Region 1",
	"REGION 0": "Region 1",

	"CH1":      "Region 2",
	"CH10":     "Region 2",
	"CH11":     "Region 2",
	"1":        "Region 2",
	"REGION 1": "Region 2",

	"CH2":      "Region 3",
	"CH20":     "Region 3",
	"CH21":     "Region 3",
	"2":        "Region 3",
	"REGION 2": "Region 3",

	"CH3":      "Region 4",
	"CH30":     "Region 4",
	"CH31":     "Region 4",
	"3":        "Region 4",
	"REGION 3": "Region 4",
}

// RegionName returns the canonical label for a raw premium region code. It never
// fails: unknown codes come back cleaned but otherwise unchanged.
func RegionName(raw string) string {
	cleaned := regionPrefix.ReplaceAllString(strings.ToUpper(strings.TrimSpace(raw)), "")

	if label, ok := regionAliases[cleaned]; ok {
		return label
	}

	if strings.HasPrefix(cleaned, "REGION ") {
		return cleaned[:1] + strings.ToLower(cleaned[1:])
	}

	return cleaned
}

var premiumRegionNames = map[string]string{
	"PR-REG CH0": "Region 0",
	"PR-REG CH1": "Region 1",
	"PR-REG CH2": "Region 2",
	"PR-REG CH3": "Region 3",
}

// PremiumRegionName labels a region code as stored for the current year.
func PremiumRegionName(code string) string {
	if name, ok := premiumRegionNames[code]; ok {
		return name
	}
	return code
}

type Canton struct {
	Code string
	Name string
}

var cantons = []Canton{
	{"ZH", "Zürich"},
	{"BE", "Bern"},
	{"LU", "Luzern"},
	{"UR", "Uri"},
	{"SZ", "Schwyz"},
	{"OW", "Obwalden"},
	{"NW", "Nidwalden"},
	{"GL", "Glarus"},
	{"ZG", "Zug"},
	{"FR", "Fribourg"},
	{"SO", "Solothurn"},
	{"BS", "Basel-Stadt"},
	{"BL", "Basel-Landschaft"},
	{"SH", "Schaffhausen"},
	{"AR", "Appenzell Ausserrhoden"},
	{"AI", "Appenzell Innerrhoden"},
	{"SG", "St. Gallen"},
	{"GR", "Graubünden"},
	{"AG", "Aargau"},
	{"TG", "Thurgau"},
	{"TI", "Ticino"},
	{"VD", "Vaud"},
	{"VS", "Valais"},
	{"NE", "Neuchâtel"},
	{"GE", "Genève"},
	{"JU", "Jura"},
}

var cantonNames = func() map[string]string {
	m := make(map[string]string, len(cantons))
	for _, c := range cantons {
		m[c.Code] = c.Name
	}
	return m
}()

func CantonName(code string) (string, bool) {
	name, ok := cantonNames[code]
	return name, ok
}

// CantonDisplayName falls back to the code itself.
func CantonDisplayName(code string) string {
	if name, ok := cantonNames[code]; ok {
		return name
	}
	return code
}

func IsCanton(code string) bool {
	_, ok := cantonNames[code]
	return ok
}

// CantonCodes returns the 26 codes in federal order.
func CantonCodes() []string {
	codes := make([]string, len(cantons))
	for i, c := range cantons {
		codes[i] = c.Code
	}
	return codes
}
