package person

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// ISOPattern is the storage form written to address files.
	ISOPattern = "yyyy-MM-dd"
	// DefaultDisplayPattern is how birthdays are shown and typed in the UI.
	DefaultDisplayPattern = "dd.MM.yyyy"
)

// Date is a calendar date without time of day or zone. The zero value means
// the date is absent.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the date for the given day. Out-of-range values are
// normalized the way time.Date does it.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf extracts the calendar date from t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether the date is absent.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String renders the ISO form, or "" for the absent date.
func (d Date) String() string {
	return d.Format(ISOPattern)
}

// Format renders the date with a pattern made of yyyy, MM and dd tokens
// ("dd.MM.yyyy", "yyyy-MM-dd"). The absent date formats as "".
func (d Date) Format(pattern string) string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(layoutFor(pattern))
}

// ParseDate parses text written with pattern. Empty text yields the absent
// date.
func ParseDate(pattern, text string) (Date, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Date{}, nil
	}
	t, err := time.Parse(layoutFor(pattern), text)
	if err != nil {
		return Date{}, fmt.Errorf("person: parse date %q as %s: %w", text, pattern, err)
	}
	return DateOf(t), nil
}

// ParseUserDate accepts the display pattern first and falls back to the ISO
// form, so both "21.02.1999" and "1999-02-21" are understood.
func ParseUserDate(displayPattern, text string) (Date, error) {
	if strings.TrimSpace(displayPattern) == "" {
		displayPattern = DefaultDisplayPattern
	}
	d, err := ParseDate(displayPattern, text)
	if err == nil {
		return d, nil
	}
	if iso, isoErr := ParseDate(ISOPattern, text); isoErr == nil {
		return iso, nil
	}
	return Date{}, err
}

// ValidPattern reports whether pattern carries a year, month and day token.
func ValidPattern(pattern string) bool {
	return strings.Contains(pattern, "yyyy") &&
		strings.Contains(pattern, "MM") &&
		strings.Contains(pattern, "dd")
}

var patternReplacer = strings.NewReplacer(
	"yyyy", "2006",
	"MM", "01",
	"dd", "02",
)

func layoutFor(pattern string) string {
	if strings.TrimSpace(pattern) == "" {
		pattern = ISOPattern
	}
	return patternReplacer.Replace(pattern)
}

// MonthLabel returns the three letter English month name.
func MonthLabel(m time.Month) string {
	if m < time.January || m > time.December {
		return strconv.Itoa(int(m))
	}
	return m.String()[:3]
}
