// Free-text slot parsing for the quote flow. A single message may carry
// values for several slots at once; every parser here is deterministic.
package flow

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"github.com/quotepilot/quotepilot/internal/models"
)

var isoDateRe = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)

const monthNames = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`

// dateRangeRe matches spans like "Dec 1-14, 2025" or "December 1 to 14 2025",
// with an optional second month name for cross-month trips.
var dateRangeRe = regexp.MustCompile(
	`(?i)\b(` + monthNames + `)\.?\s+(\d{1,2})\s*(?:–|—|-|to|through|until)\s*(?:(` + monthNames + `)\.?\s+)?(\d{1,2})(?:\s*,?\s*(\d{4}))?`)

var monthIndex = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

func monthFromName(name string) (time.Month, bool) {
	if len(name) < 3 {
		return 0, false
	}
	m, found := monthIndex[strings.ToLower(name[:3])]
	return m, found
}

// ParseISODates returns all valid YYYY-MM-DD dates in the message, in order.
func ParseISODates(message string) []string {
	var dates []string
	for _, m := range isoDateRe.FindAllString(message, -1) {
		if _, err := time.Parse(models.DateLayout, m); err == nil {
			dates = append(dates, m)
		}
	}
	return dates
}

// ParseDateRange extracts a month-name date span such as "Dec 1-14, 2025".
// A missing year defaults to the next occurrence of the range.
func ParseDateRange(message string, now time.Time) (departure, ret string, found bool) {
	m := dateRangeRe.FindStringSubmatch(message)
	if m == nil {
		return "", "", false
	}
	startMonth, okStart := monthFromName(m[1])
	if !okStart {
		return "", "", false
	}
	endMonth := startMonth
	if m[3] != "" {
		em, okEnd := monthFromName(m[3])
		if !okEnd {
			return "", "", false
		}
		endMonth = em
	}
	startDay, _ := strconv.Atoi(m[2])
	endDay, _ := strconv.Atoi(m[4])

	year := now.Year()
	if m[5] != "" {
		year, _ = strconv.Atoi(m[5])
	}
	dep := time.Date(year, startMonth, startDay, 0, 0, 0, 0, time.UTC)
	if m[5] == "" && dep.Before(now) {
		year++
		dep = time.Date(year, startMonth, startDay, 0, 0, 0, 0, time.UTC)
	}
	retYear := year
	if endMonth < startMonth {
		retYear++
	}
	retDate := time.Date(retYear, endMonth, endDay, 0, 0, 0, 0, time.UTC)

	if dep.Day() != startDay || retDate.Day() != endDay {
		return "", "", false
	}
	return dep.Format(models.DateLayout), retDate.Format(models.DateLayout), true
}

// ParseSingleDate resolves one natural-language date from a message that is
// expected to contain only a date (used when a date slot is awaited).
func ParseSingleDate(message string, now time.Time) (string, bool) {
	if dates := ParseISODates(message); len(dates) > 0 {
		return dates[0], true
	}
	trimmed := strings.TrimSpace(message)
	if trimmed == "" || len(trimmed) > 40 {
		return "", false
	}
	t, err := dateparse.ParseAny(trimmed)
	if err != nil {
		return "", false
	}
	// require at least an explicit day number
	if !strings.ContainsAny(trimmed, "0123456789") {
		return "", false
	}
	if t.Year() == 0 {
		t = t.AddDate(now.Year(), 0, 0)
	}
	return t.Format(models.DateLayout), true
}

var countNouns = map[string]bool{
	"adult": true, "adults": true,
	"child": true, "children": true, "kid": true, "kids": true,
	"traveler": true, "travelers": true, "traveller": true, "travellers": true,
	"person": true, "persons": true, "people": true,
	"infant": true, "infants": true,
	"passenger": true, "passengers": true,
}

func tokenize(message string) []string {
	return strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ParseAges extracts traveler ages from spans introduced by "age"/"ages"/
// "aged" and from "N years old" phrases. Numbers that quantify a count noun
// ("2 adults") are traveler counts, not ages, and are skipped.
func ParseAges(message string) ([]int, bool) {
	words := tokenize(message)
	var ages []int

	for i := 0; i < len(words); i++ {
		switch words[i] {
		case "age", "ages", "aged":
			j := i + 1
			for j < len(words) {
				t := words[j]
				if t == "and" {
					j++
					continue
				}
				n, err := strconv.Atoi(t)
				if err != nil || n < 0 || n > 120 {
					break
				}
				if j+1 < len(words) && countNouns[words[j+1]] {
					break
				}
				ages = append(ages, n)
				j++
			}
			i = j - 1
		default:
			// "30 years old"
			if n, err := strconv.Atoi(words[i]); err == nil && n >= 0 && n <= 120 &&
				i+2 < len(words) && (words[i+1] == "year" || words[i+1] == "years") && words[i+2] == "old" {
				ages = append(ages, n)
				i += 2
			}
		}
	}
	return ages, len(ages) > 0
}

// ValidateAges enforces the traveler rules shared by the quote flow.
func ValidateAges(ages []int) error {
	if len(ages) == 0 {
		return models.ErrZeroTravelers
	}
	for _, age := range ages {
		if age >= 18 {
			return nil
		}
	}
	return models.ErrNoAdultTraveler
}

// CountAdults splits ages into adult and child counts at the age of 18.
func CountAdults(ages []int) (adults, children int) {
	for _, age := range ages {
		if age >= 18 {
			adults++
		} else {
			children++
		}
	}
	return adults, children
}

var affirmativeWords = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "yup": true, "y": true,
	"sure": true, "correct": true, "right": true, "confirm": true,
	"confirmed": true, "ok": true, "okay": true, "absolutely": true,
	"affirmative": true, "proceed": true,
}

var negativeWords = map[string]bool{
	"no": true, "nope": true, "nah": true, "n": true, "not": true,
	"wrong": true, "incorrect": true, "change": true, "actually": true,
}

// IsAffirmative reports whether the message reads as a yes.
func IsAffirmative(message string) bool {
	words := tokenize(message)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if negativeWords[w] {
			return false
		}
	}
	for _, w := range words {
		if affirmativeWords[w] {
			return true
		}
	}
	if strings.Contains(strings.ToLower(message), "sounds good") ||
		strings.Contains(strings.ToLower(message), "looks good") {
		return true
	}
	return false
}

// IsNegative reports whether the message reads as a no or a correction.
func IsNegative(message string) bool {
	for _, w := range tokenize(message) {
		if negativeWords[w] {
			return true
		}
	}
	return false
}

var sportsKeywords = []string{
	"adventure", "scuba", "diving", "ski", "snowboard", "trek", "hiking",
	"climb", "surf", "raft", "bungee", "paraglid", "extreme",
}

var sportsNegations = []string{
	"no adventure", "without adventure", "not doing adventure",
	"no extreme", "no sports", "skip adventure", "no risky",
}

// ParseAdventure detects an adventure-sports preference in the message. When
// the slot is being awaited, a plain yes/no answers it; otherwise only an
// explicit mention ("no adventure sports", "we plan to go scuba diving")
// fills the slot.
func ParseAdventure(message string, awaiting bool) (*bool, bool) {
	lowered := strings.ToLower(message)
	for _, neg := range sportsNegations {
		if strings.Contains(lowered, neg) {
			v := false
			return &v, true
		}
	}
	mentionsSports := false
	for _, kw := range sportsKeywords {
		if strings.Contains(lowered, kw) {
			mentionsSports = true
			break
		}
	}
	if mentionsSports {
		if IsNegative(message) {
			v := false
			return &v, true
		}
		v := true
		return &v, true
	}
	if awaiting {
		if IsAffirmative(message) {
			v := true
			return &v, true
		}
		if IsNegative(message) {
			v := false
			return &v, true
		}
	}
	return nil, false
}

// destinationRe captures capitalized place names after a travel preposition.
var destinationRe = regexp.MustCompile(`\b(?i:to|in|for|visiting)\s+((?:\p{Lu}[\p{L}'-]*)(?:\s+\p{Lu}[\p{L}'-]*)*)`)

var monthWordRe = regexp.MustCompile(`(?i)^(?:` + monthNames + `)\.?$`)

// ParseDestination extracts a destination string. Unrecognized strings are
// accepted as free text. When the destination slot is being awaited, a short
// message without digits is taken verbatim.
func ParseDestination(message string, awaiting bool) (string, bool) {
	if m := destinationRe.FindStringSubmatch(message); m != nil {
		words := strings.Fields(m[1])
		// trailing month names or numbers belong to a date, not the place
		for len(words) > 0 {
			last := words[len(words)-1]
			if monthWordRe.MatchString(last) || strings.ContainsAny(last, "0123456789") {
				words = words[:len(words)-1]
				continue
			}
			break
		}
		if len(words) > 0 {
			return strings.Join(words, " "), true
		}
	}
	if awaiting {
		trimmed := strings.Trim(strings.TrimSpace(message), ".!?")
		if trimmed != "" && !strings.ContainsAny(trimmed, "0123456789") &&
			len(strings.Fields(trimmed)) <= 4 && !containsChatter(trimmed) {
			return trimmed, true
		}
	}
	return "", false
}

// chatterWords never appear in a bare place name; they stop a short message
// from being taken verbatim as the destination.
var chatterWords = map[string]bool{
	"i": true, "need": true, "want": true, "insurance": true, "quote": true,
	"help": true, "travel": true, "trip": true, "please": true, "hi": true,
	"hello": true, "yes": true, "no": true, "what": true, "how": true,
}

func containsChatter(message string) bool {
	for _, w := range tokenize(message) {
		if chatterWords[w] {
			return true
		}
	}
	return false
}
