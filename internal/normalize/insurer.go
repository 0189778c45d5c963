// Package normalize canonicalizes insurer ids, premium regions and canton codes.
// All tables are read-only after package init.
package normalize

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ougirez/premiums/internal/pkg/logger"
)

const insurerIDWidth = 4

const fallbackNamePrefix = "Insurer "

// insurerAliases keys are upper case so brand names match regardless of case.
var insurerAliases = map[string]string{
	// CSS
	"230": "0008",
	"8":   "0008",
	"08":  "0008",
	"008": "0008",
	"CSS": "0008",

	// Helsana
	"62":      "0062",
	"062":     "0062",
	"HELSANA": "0062",

	// Swica
	"57":    "0057",
	"057":   "0057",
	"SWICA": "0057",

	// Sanitas
	"32":      "0032",
	"032":     "0032",
	"SANITAS": "0032",

	// Concordia
	"312":       "0312",
	"CONCORDIA": "0312",

	// Assura
	"1318":   "1318",
	"ASSURA": "1318",

	// Visana
	"343":    "0343",
	"0343":   "0343",
	"VISANA": "0343",

	// ÖKK
	"182":  "0182",
	"0182": "0182",
	"OKK":  "0182",
	"ÖKK":  "0182",

	// KPT
	"290":  "0290",
	"0290": "0290",
	"KPT":  "0290",

	// Atupri
	"246":    "0246",
	"0246":   "0246",
	"ATUPRI": "0246",
}

var sortedInsurerIDs = func() []string {
	ids := make([]string, 0, len(insurerNames))
	for id := range insurerNames {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}()

// InsurerID maps any known spelling of an insurer to its canonical zero padded id.
// Unknown input is returned trimmed, short numeric input is padded. The result is a
// fixed point: InsurerID(InsurerID(x)) == InsurerID(x).
func InsurerID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" {
		return ""
	}

	if canonical, ok := insurerAliases[strings.ToUpper(id)]; ok {
		return canonical
	}

	if isDigits(id) && len(id) < insurerIDWidth {
		padded := padID(id)
		if canonical, ok := insurerAliases[padded]; ok {
			return canonical
		}
		return padded
	}

	return id
}

// InsurerName returns the display name for id, or a generic "Insurer {id}" label
// when the id is not in the table.
func InsurerName(ctx context.Context, id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return "Unknown insurer"
	}

	padded := padID(id)
	if name, ok := insurerNames[padded]; ok {
		return name
	}

	logger.Warnf(ctx, "unknown insurer id %s", padded)
	return fmt.Sprintf("%s%s", fallbackNamePrefix, padded)
}

// IsFallbackName reports whether name was produced by InsurerName for an unknown id.
func IsFallbackName(name string) bool {
	return strings.HasPrefix(name, fallbackNamePrefix)
}

// KnownInsurerName looks id up in the name table without the fallback label.
func KnownInsurerName(id string) (string, bool) {
	name, ok := insurerNames[padID(strings.TrimSpace(id))]
	return name, ok
}

func InsurerExists(id string) bool {
	_, ok := insurerNames[padID(strings.TrimSpace(id))]
	return ok
}

func InsurerIDs() []string {
	return append([]string(nil), sortedInsurerIDs...)
}

// FindInsurerByName searches the name table case-insensitively. Exact names beat
// substring matches; within each pass the lowest id wins.
func FindInsurerByName(name string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", false
	}

	for _, id := range sortedInsurerIDs {
		if strings.ToLower(insurerNames[id]) == needle {
			return id, true
		}
	}

	for _, id := range sortedInsurerIDs {
		if strings.Contains(strings.ToLower(insurerNames[id]), needle) {
			return id, true
		}
	}

	return "", false
}

func padID(id string) string {
	if len(id) >= insurerIDWidth {
		return id
	}
	return strings.Repeat("0", insurerIDWidth-len(id)) + id
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
