package extract

import (
	"strings"
)

// BuildPrompt returns the instruction sent to the language model.
func BuildPrompt(message string) string {
	safe := strings.ReplaceAll(message, "```", "``` ")
	safe = strings.ReplaceAll(safe, "\r", "\n")

	var b strings.Builder
	b.WriteString(`You are a logistics parser for Indian lorry receipts. Extract the fields below and return ONLY one JSON object, with no markdown, code fences or commentary.

Schema (every key must be present; use "" when a value is not in the message):
{
  "truckNumber": "",
  "from": "",
  "to": "",
  "weight": "",
  "description": "",
  "name": ""
}

Rules:
- truckNumber, to, weight and description are mandatory when present in the text; from and name are optional.
- Do not guess. Only return what the message states.
- truckNumber: an Indian vehicle plate such as "MH 09 HH 4512". Remove spaces and hyphens and upper-case it ("MH09HH4512").
- If there is no plate but the message uses one of these phrases, return the phrase itself in lower case as truckNumber: `)
	b.WriteString(strings.Join(quoteAll(UnassignedVehicles), ", "))
	b.WriteString(`.
- from / to: origin and destination places, e.g. "Indore to Nagpur", "Indore se Nagpur", "Indore-Nagpur".
- weight: the number only. If the message marks it as fixed ("fix"), return the text as written, e.g. "fix 25000".
- description: the goods, e.g. "aluminium scrap", "tmt bar", "plastic dana".
- name: the person named after "n -", "n." or "name:".

Message:
"""`)
	b.WriteString(safe)
	b.WriteString(`"""`)
	return b.String()
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = `"` + s + `"`
	}
	return out
}
