// =============================================================================
// Meal Voucher Generator - Normalizer
// =============================================================================
//
// Pure helper functions used by the business rules: passenger name assembly,
// date reformatting, stay duration and service-text folding. None of them
// fail; malformed input produces malformed (but deterministic) output.
//
// =============================================================================

package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// PassengerName joins a first name and an optional surname into the
// uppercase display name. The surname is dropped when it is empty, contains
// a digit or looks like an email address; exports sometimes carry those in
// the surname column.
func PassengerName(first, last string) string {
	name := strings.TrimSpace(first)
	surname := strings.TrimSpace(last)

	if includeSurname(surname) {
		name = name + " " + surname
	}

	return strings.ToUpper(name)
}

func includeSurname(surname string) bool {
	if surname == "" || strings.Contains(surname, "@") {
		return false
	}
	return !strings.ContainsFunc(surname, func(r rune) bool {
		return r >= '0' && r <= '9'
	})
}

// ReformatDate reorders a day/month/year date into year/month/day by token
// position only. "05/03/2024" becomes "2024/03/05". Missing tokens become
// empty, so "5" becomes "//5".
func ReformatDate(dmy string) string {
	parts := strings.Split(dmy, "/")
	token := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	return token(2) + "/" + token(1) + "/" + token(0)
}

// ParseDate parses a day/month/year date as a calendar date in UTC.
//
// The month must be 1-12 and the day 1-31; a day past the end of its month
// rolls over into the next one, so "31/02/2024" is 2 March 2024.
func ParseDate(dmy string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(dmy), "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	var values [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return time.Time{}, false
		}
		values[i] = n
	}

	day, month, year := values[0], values[1], values[2]
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// StayDuration returns the number of nights between two day/month/year
// dates, rounded to whole days. Inconsistent dates give negative values,
// which are returned as is. If either date cannot be parsed the duration
// is 0 and ok is false.
func StayDuration(checkIn, checkOut string) (days int, ok bool) {
	in, okIn := ParseDate(checkIn)
	out, okOut := ParseDate(checkOut)
	if !okIn || !okOut {
		return 0, false
	}

	return int(math.Round(out.Sub(in).Hours() / 24)), true
}

// FoldServices uppercases text and strips diacritics, so "Pensión completa"
// and "PENSION COMPLETA" compare equal.
func FoldServices(s string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, strings.ToUpper(s))
	if err != nil {
		return strings.ToUpper(s)
	}
	return folded
}

// LeadingInt reads an optionally signed integer from the start of s, after
// leading white space, ignoring anything that follows ("2 pax" is 2). It
// reports false when s does not start with a number.
func LeadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	value, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		if value > (math.MaxInt-9)/10 {
			break
		}
		value = value*10 + int(r-'0')
		digits++
	}

	if digits == 0 {
		return 0, false
	}
	if negative {
		value = -value
	}
	return value, true
}
