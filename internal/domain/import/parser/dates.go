package parser

import (
	"fmt"
	"strings"
	"time"
)

// permissiveLayouts are tried in order when a format has no date pattern.
// Month-first slash dates are tried before day-first ones.
var permissiveLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/06",
	"2/1/2006",
	"2/1/2006 15:04",
	"1-2-2006",
	"2-1-2006",
	"02.01.2006",
	"2 Jan 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
	"20060102",
}

// strftimeDirectives maps C-style directives to Go layout fragments.
// %m and %d map to the non-padded forms so both "7" and "07" parse.
var strftimeDirectives = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "1",
	'd': "2",
	'e': "_2",
	'b': "Jan",
	'h': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'H': "15",
	'I': "3",
	'M': "04",
	'S': "05",
	'p': "PM",
	'z': "-0700",
	'Z': "MST",
	'j': "002",
	'%': "%",
}

// ConvertDatePattern turns a strftime pattern ("%m/%d/%Y") into a Go layout.
// Patterns without '%' are assumed to already be Go layouts.
func ConvertDatePattern(pattern string) (string, error) {
	if !strings.Contains(pattern, "%") {
		return pattern, nil
	}

	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(pattern) {
			return "", fmt.Errorf("dangling %% in date pattern %q", pattern)
		}
		// glibc "no padding" flag: %-d, %-m
		if pattern[i] == '-' && i+1 < len(pattern) {
			i++
		}
		frag, ok := strftimeDirectives[pattern[i]]
		if !ok {
			return "", fmt.Errorf("unsupported directive %%%c in date pattern %q", pattern[i], pattern)
		}
		b.WriteString(frag)
	}
	return b.String(), nil
}

// DateParser parses statement dates into UTC calendar days.
type DateParser struct {
	layout string // empty means permissive
}

// NewDateParser builds a parser for pattern; an empty pattern is permissive.
func NewDateParser(pattern string) (DateParser, error) {
	if strings.TrimSpace(pattern) == "" {
		return DateParser{}, nil
	}
	layout, err := ConvertDatePattern(pattern)
	if err != nil {
		return DateParser{}, err
	}
	return DateParser{layout: layout}, nil
}

// Parse returns the calendar day of s at UTC midnight.
func (p DateParser) Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if p.layout != "" {
		t, err := time.Parse(p.layout, s)
		if err != nil {
			return time.Time{}, err
		}
		return truncateDay(t), nil
	}

	for _, layout := range permissiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
