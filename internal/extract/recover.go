package extract

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// A recovery step turns model output into a JSON object, or gives up.
type recoveryStep func(text string) (map[string]any, bool)

// recoverySteps are tried in order; the first success wins.
var recoverySteps = []recoveryStep{
	parseStrict,
	parseEmbedded,
	parseRepaired,
}

// RecoverObject pulls a JSON object out of free-form model output.
func RecoverObject(text string) (map[string]any, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	for _, step := range recoverySteps {
		if obj, ok := step(text); ok {
			return obj, true
		}
	}
	return nil, false
}

func parseStrict(text string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// parseEmbedded parses the first balanced {...} block, which also covers
// objects wrapped in markdown fences or surrounded by prose.
func parseEmbedded(text string) (map[string]any, bool) {
	block, ok := firstObject(text)
	if !ok {
		return nil, false
	}
	return parseStrict(block)
}

// parseRepaired runs the object block through jsonrepair, which fixes
// single or smart quotes, unquoted keys, trailing commas and a missing
// closing brace.
func parseRepaired(text string) (map[string]any, bool) {
	block, ok := firstObject(text)
	if !ok {
		start := strings.Index(text, "{")
		if start < 0 {
			return nil, false
		}
		block = strings.TrimSuffix(strings.TrimSpace(text[start:]), "```")
	}

	repaired, err := jsonrepair.JSONRepair(block)
	if err != nil {
		return nil, false
	}
	return parseStrict(repaired)
}

// firstObject returns the first brace-balanced {...} substring, skipping
// braces inside double-quoted strings.
func firstObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
