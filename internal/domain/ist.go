package domain

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// IST is India Standard Time. Record dates and times are always written in it.
var IST = time.FixedZone("IST", 5*60*60+30*60)

// RecentWindow is how far back the cancel flow looks for a sender's records.
const RecentWindow = 24 * time.Hour

// FormatIST renders t as the dd/mm/yyyy date and hh:mm AM/PM time columns.
func FormatIST(t time.Time) (date, clock string) {
	t = t.In(IST)
	return t.Format("02/01/2006"), t.Format("03:04 PM")
}

// ParseIST reads the date and time columns back. Day, month and hour may be
// unpadded and the meridiem may be in any case. Anything else fails.
func ParseIST(date, clock string) (time.Time, bool) {
	dp := strings.Split(strings.TrimSpace(date), "/")
	if len(dp) != 3 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(dp[0])
	month, err2 := strconv.Atoi(dp[1])
	year, err3 := strconv.Atoi(dp[2])
	if err1 != nil || err2 != nil || err3 != nil || year < 1000 {
		return time.Time{}, false
	}

	tp := strings.Fields(strings.TrimSpace(clock))
	if len(tp) == 0 || len(tp) > 2 {
		return time.Time{}, false
	}
	hm := strings.Split(tp[0], ":")
	if len(hm) != 2 {
		return time.Time{}, false
	}
	hour, err1 := strconv.Atoi(hm[0])
	minute, err2 := strconv.Atoi(hm[1])
	if err1 != nil || err2 != nil || minute < 0 || minute > 59 {
		return time.Time{}, false
	}

	if len(tp) == 2 {
		if hour < 1 || hour > 12 {
			return time.Time{}, false
		}
		switch strings.ToUpper(strings.ReplaceAll(tp[1], ".", "")) {
		case "AM":
			if hour == 12 {
				hour = 0
			}
		case "PM":
			if hour != 12 {
				hour += 12
			}
		default:
			return time.Time{}, false
		}
	} else if hour < 0 || hour > 23 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, IST)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// WithinRecentWindow reports whether the record's stored date and time fall in
// [now-24h, now]. Unparseable records never match.
func WithinRecentWindow(r LRRecord, now time.Time) bool {
	at, ok := ParseIST(r.Date, r.Time)
	if !ok {
		return false
	}
	return !at.Before(now.Add(-RecentWindow)) && !at.After(now)
}

// DigitsOnly strips every non-digit rune.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), sub)
}

// TitleCase upper-cases the first letter of every whitespace-separated word
// and lower-cases the rest.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		rs := []rune(strings.ToLower(w))
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}
	return strings.Join(words, " ")
}
