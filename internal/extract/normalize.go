package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/aniladanir/lr-gateway/internal/domain"
)

// UnassignedVehicles are phrases operators use when no plate is known yet.
// They are kept verbatim as the truck number.
var UnassignedVehicles = []string{
	"new truck", "new gadi", "new gaadi", "new vehicle", "new tempo", "bellgadi", "bell gadi", "bailgadi", "bail gadi",
}

var reNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Normalize applies the post-processing every tier goes through.
func Normalize(f domain.LRFields) domain.LRFields {
	return domain.LRFields{
		TruckNumber: NormalizeTruck(f.TruckNumber),
		From:        domain.TitleCase(f.From),
		To:          domain.TitleCase(f.To),
		Weight:      NormalizeWeight(f.Weight),
		Description: domain.TitleCase(f.Description),
		Name:        domain.TitleCase(f.Name),
	}
}

// NormalizeTruck compacts a plate to upper case without separators, unless
// the value is an unassigned-vehicle phrase.
func NormalizeTruck(s string) string {
	s = strings.TrimSpace(s)
	if phrase, ok := unassignedPhrase(s); ok {
		return phrase
	}
	return strings.ToUpper(compact(s))
}

func unassignedPhrase(s string) (string, bool) {
	lower := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	for _, p := range UnassignedVehicles {
		if lower == p {
			return p, true
		}
	}
	return "", false
}

// NormalizeWeight converts tonnes to kilograms. A value tagged "fix" is a
// fixed-rate shipment and is returned trimmed but otherwise untouched. The
// first number found is rounded; below 100 it is taken as tonnes.
func NormalizeWeight(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(strings.ToLower(s), "fix") {
		return s
	}
	m := reNumber.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return s
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return s
	}
	if n > 0 && n < 100 {
		n *= 1000
	}
	return strconv.FormatInt(int64(math.Round(n)), 10)
}

func compact(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '.', '_':
			return -1
		}
		return r
	}, s)
}
