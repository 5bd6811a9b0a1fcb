package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/aniladanir/lr-gateway/internal/classify"
	"github.com/aniladanir/lr-gateway/internal/domain"
)

var (
	rePlate     = regexp.MustCompile(`[A-Z]{2}\d{1,2}[A-Z]{1,3}\d{3,5}`)
	rePlateSpan = regexp.MustCompile(`(?i)\b[A-Z]{2}[\s.\-_]*\d{1,2}[\s.\-_]*[A-Z]{1,3}[\s.\-_]*\d{3,5}\b`)

	reRouteWord  = regexp.MustCompile(`(?i)^(?:from\s+)?(.+?)\s+(?:to|se)\s+(.+)$`)
	reRouteArrow = regexp.MustCompile(`^(.+?)\s*(?:->|→|=>|-|–)\s*(.+)$`)
	reToOnly     = regexp.MustCompile(`(?i)^to\s+(.+)$`)

	reNameLine = regexp.MustCompile(`(?i)^\s*(?:name\s*[:\-]|n\s*[-.:])\s*(.+)$`)

	reNumberToken = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	reUnitWord    = regexp.MustCompile(`(?i)\b(?:wt|weight|kg|kgs|kilo|ton|tons|tonne|tonnes|mt|quintal|qtl)\b|\d(?:kg|kgs|ton|tons|mt|qtl)\b`)
	reUnitAfter   = regexp.MustCompile(`(?i)^\s*(?:kg|kgs|kilo|kilos|ton|tons|tonne|tonnes|mt|quintal|qtl)\b`)
	reLabelBefore = regexp.MustCompile(`(?i)\b(?:wt|weight)\s*[:\-=]?\s*$`)
)

// ruleExtract reads the message with local pattern rules only. Each field
// found is cut out of its line so the rest of the line stays available to
// the later fields; a one-line LR is read the same as a multi-line one.
func ruleExtract(message string) domain.LRFields {
	lines := splitLines(message)

	var f domain.LRFields
	for i, l := range lines {
		if loc := rePlateSpan.FindStringIndex(l); loc != nil {
			f.TruckNumber = strings.ToUpper(compact(l[loc[0]:loc[1]]))
			lines[i] = cutSpan(l, loc[0], loc[1])
			break
		}
	}
	if f.TruckNumber == "" {
		f.TruckNumber = takeUnassigned(lines)
	}

	for i, l := range lines {
		if m := reNameLine.FindStringSubmatchIndex(l); m != nil {
			f.Name = strings.TrimSpace(l[m[2]:m[3]])
			lines[i] = cutSpan(l, m[0], m[1])
			break
		}
	}

	for i, l := range lines {
		if from, to, rest, ok := parseRoute(l); ok {
			f.From, f.To = from, to
			lines[i] = rest
			break
		}
	}

	f.Weight = pickWeight(lines)

	for _, l := range lines {
		kw, ok := classify.MatchKeyword(l)
		if !ok {
			continue
		}
		f.Description = stripWeight(l)
		if f.Description == "" {
			f.Description = kw
		}
		break
	}
	if f.Description == "" {
		if kw, ok := classify.MatchKeyword(message); ok {
			f.Description = kw
		}
	}

	return f
}

// takeUnassigned finds an unassigned-vehicle phrase and cuts it from its
// line.
func takeUnassigned(lines []string) string {
	for i, l := range lines {
		lower := strings.ToLower(l)
		for _, p := range UnassignedVehicles {
			if at := strings.Index(lower, p); at >= 0 {
				if len(lower) == len(l) {
					lines[i] = cutSpan(l, at, at+len(p))
				}
				return p
			}
		}
	}
	return ""
}

func cutSpan(line string, start, end int) string {
	return strings.Join(strings.Fields(line[:start]+" "+line[end:]), " ")
}

func splitLines(message string) []string {
	raw := strings.FieldsFunc(message, func(r rune) bool { return r == '\n' || r == '\r' })
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// parseRoute matches "A to B", "A se B", "A-B", "A->B" and "to B". rest is
// whatever follows the destination, such as weight and goods.
func parseRoute(line string) (from, to, rest string, ok bool) {
	if m := reToOnly.FindStringSubmatch(line); m != nil {
		to, rest = cutPlace(m[1])
		return "", to, rest, placeLike(to)
	}
	for _, re := range []*regexp.Regexp{reRouteWord, reRouteArrow} {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		from = cleanPlace(m[1])
		to, rest = cutPlace(m[2])
		if placeLike(from) && placeLike(to) {
			return from, to, rest, true
		}
	}
	return "", "", "", false
}

// cleanPlace keeps the place part of s, so "Nagpur 7300 kg" yields "Nagpur".
func cleanPlace(s string) string {
	place, _ := cutPlace(s)
	return place
}

// cutPlace splits s at the first digit or the first goods word.
func cutPlace(s string) (place, rest string) {
	cut := len(s)
	if i := strings.IndexAny(s, "0123456789"); i >= 0 {
		cut = i
	}
	if i := classify.GoodsWordIndex(s); i >= 0 && i < cut {
		cut = i
	}
	return strings.Trim(s[:cut], " \t,.:;-"), strings.TrimSpace(s[cut:])
}

// placeLike rejects weights, goods words and pure numbers. Goods words only
// count when whole, so Barmer or Pipariya remain places.
func placeLike(s string) bool {
	if s == "" {
		return false
	}
	if _, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
		return false
	}
	if reUnitWord.MatchString(s) || classify.GoodsWordIndex(s) >= 0 {
		return false
	}
	return !rePlate.MatchString(strings.ToUpper(compact(s)))
}

type weightCandidate struct {
	raw    string
	value  float64
	tagged bool
}

// pickWeight takes the first number written right next to a unit or a
// weight label ("25 mt", "wt: 7300"). Failing that it prefers the largest
// number on a line mentioning a unit, then the largest number of at least
// 1000, then the largest number. A line mentioning "fix" wins outright and is
// kept as written.
func pickWeight(lines []string) string {
	var cands []weightCandidate
	for _, l := range lines {
		if strings.Contains(strings.ToLower(l), "fix") && reNumberToken.MatchString(l) {
			return l
		}
		tagged := reUnitWord.MatchString(l)
		for _, loc := range reNumberToken.FindAllStringIndex(l, -1) {
			digits := strings.ReplaceAll(l[loc[0]:loc[1]], ",", "")
			if len(strings.SplitN(digits, ".", 2)[0]) > 6 {
				// phone numbers and ids
				continue
			}
			v, err := strconv.ParseFloat(digits, 64)
			if err != nil {
				continue
			}
			if reUnitAfter.MatchString(l[loc[1]:]) || reLabelBefore.MatchString(l[:loc[0]]) {
				return digits
			}
			cands = append(cands, weightCandidate{raw: digits, value: v, tagged: tagged})
		}
	}
	if len(cands) == 0 {
		return ""
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].value > cands[j].value })
	for _, c := range cands {
		if c.tagged {
			return c.raw
		}
	}
	for _, c := range cands {
		if c.value >= 1000 {
			return c.raw
		}
	}
	return cands[0].raw
}

// stripWeight removes numbers and unit words from a description line.
func stripWeight(line string) string {
	s := reUnitWord.ReplaceAllStringFunc(line, func(m string) string {
		if m != "" && m[0] >= '0' && m[0] <= '9' {
			return m[:1]
		}
		return ""
	})
	s = reNumberToken.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(strings.Trim(s, " \t,.:;-")), " ")
}
