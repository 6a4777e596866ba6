package utils

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var wsRe = regexp.MustCompile(`\s+`)
var clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

var lowerSv = cases.Lower(language.Swedish)

var (
	ErrInvalidDate  = errors.New("invalid date format")
	ErrInvalidClock = errors.New("invalid time format")
)

const DateLayout = "2006-01-02"

// CollapseSpace trims and squeezes internal whitespace.
func CollapseSpace(s string) string {
	return wsRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Fold lowercases s with Swedish rules and strips diacritics, so that
// "Göteborg", "GOTEBORG" and "goteborg" compare equal.
func Fold(s string) string {
	s = CollapseSpace(s)
	if s == "" {
		return ""
	}
	t := norm.NFKD.String(lowerSv.String(s))
	b := make([]rune, 0, len(t))
	for _, r := range t {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b = append(b, r)
	}
	return string(b)
}

// FoldAll folds every entry and drops empties.
func FoldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if f := Fold(s); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// TrimList trims entries, drops empties and duplicates, and caps the length.
func TrimList(in []string, max int) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, s := range in {
		s = CollapseSpace(s)
		k := Fold(s)
		if s == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
		if len(out) == max {
			break
		}
	}
	return out
}

// TrimMax trims s to at most max runes.
func TrimMax(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// ValidClock reports whether s is a 24h HH:MM clock time.
func ValidClock(s string) bool {
	return clockRe.MatchString(s)
}

// ParseTime parses a time string in RFC3339 or other common formats
func ParseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		DateLayout,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}
