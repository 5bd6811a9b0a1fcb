// Package classify screens inbound text for goods submissions and decides
// whether an extraction result is complete enough to render.
package classify

import (
	"regexp"
	"strings"

	"github.com/aniladanir/lr-gateway/internal/domain"
)

// GoodsKeywords is the trade vocabulary an operator's messages are screened
// against, including the misspellings seen in practice. Multi-word phrases
// come first so description matching prefers the more specific term.
var GoodsKeywords = []string{
	"aluminium section", "angel channel", "battery scrap", "finish goods", "paper scrap", "shutter material",
	"iron scrap", "metal scrap", "ms plates", "ms scrap", "machine scrap", "plastic dana", "plastic scrap",
	"rubber scrap", "pushta scrap", "rolling scrap", "tmt bar", "tarafa", "metal screp", "plastic screp",
	"plastic scrp", "plastic secrap", "raddi scrap", "pusta scrap", "allminium scrap",
	"ajwain", "ajvain", "aluminium", "alluminium", "allumium", "alluminum", "aluminum", "angel", "angal",
	"battery", "battrey", "cement", "siment", "chaddar", "chadar", "chader", "churi", "chhuri", "choori",
	"coil", "sheet", "sheets", "drum", "dram", "drums", "finish", "fenish", "paper", "shutter", "shuttar",
	"haldi", "haaldi", "oil", "taraba", "tarafe", "tarama", "tarana", "tarapa", "tarfa", "trafa", "machine",
	"pipe", "pip", "plastic", "pilastic", "pladtic", "plastec", "plastick", "plastics", "plastik", "rubber",
	"rubar", "rabar", "ruber", "pusta", "steel", "isteel", "steels", "stel", "sugar", "tubes", "tyre", "tayar",
	"tyer", "scrap", "screp", "dana", "pushta", "rolling", "tmt", "bar", "loha", "tilli", "tili",
	"finishu", "finisih", "finis", "finnish", "finsh", "finush", "fnish", "funish", "plates", "plate", "iron", "iran",
}

// IsGoodsCandidate reports whether text mentions any goods keyword. Matching
// is by substring on the lower-cased text so misspelled or glued words still
// pass the screen.
func IsGoodsCandidate(text string) bool {
	_, ok := MatchKeyword(text)
	return ok
}

var reGoodsWord = func() *regexp.Regexp {
	alts := make([]string, len(GoodsKeywords))
	for i, kw := range GoodsKeywords {
		alts[i] = regexp.QuoteMeta(kw)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
}()

// GoodsWordIndex returns the byte offset of the first vocabulary entry that
// appears in text as a whole word, or -1. Unlike MatchKeyword it does not
// fire on fragments, so "Barmer" and "Pipariya" are not goods.
func GoodsWordIndex(text string) int {
	loc := reGoodsWord.FindStringIndex(text)
	if loc == nil {
		return -1
	}
	return loc[0]
}

// MatchKeyword returns the first vocabulary entry contained in text.
func MatchKeyword(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, kw := range GoodsKeywords {
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}

// IsStructured reports whether the mandatory quartet is present.
func IsStructured(f domain.LRFields) bool {
	return f.TruckNumber != "" && f.To != "" && f.Weight != "" && f.Description != ""
}

// Missing names the mandatory fields that are empty.
func Missing(f domain.LRFields) []string {
	var out []string
	if f.TruckNumber == "" {
		out = append(out, "truck number")
	}
	if f.To == "" {
		out = append(out, "destination")
	}
	if f.Weight == "" {
		out = append(out, "weight")
	}
	if f.Description == "" {
		out = append(out, "description")
	}
	return out
}
