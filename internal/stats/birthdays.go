// Package stats computes the birthday histogram shown in the statistics
// dialog.
package stats

import (
	"time"

	"github.com/kingrea/addressapp/internal/person"
)

// MonthCounts holds one counter per calendar month, January first.
type MonthCounts [12]int

// Bucket is one bar of the histogram.
type Bucket struct {
	Month time.Month
	Label string
	Count int
}

// BirthdayMonths counts records by the month of their birthday. Records
// without a birthday are skipped.
func BirthdayMonths(records []*person.Person) MonthCounts {
	var counts MonthCounts
	for _, p := range records {
		if p == nil || p.Birthday.IsZero() {
			continue
		}
		m := p.Birthday.Month
		if m < time.January || m > time.December {
			continue
		}
		counts[m-1]++
	}
	return counts
}

// Get returns the counter for m.
func (c MonthCounts) Get(m time.Month) int {
	if m < time.January || m > time.December {
		return 0
	}
	return c[m-1]
}

// Total returns the number of counted records.
func (c MonthCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Max returns the largest counter.
func (c MonthCounts) Max() int {
	max := 0
	for _, n := range c {
		if n > max {
			max = n
		}
	}
	return max
}

// Buckets lists the months January→December with their labels.
func (c MonthCounts) Buckets() []Bucket {
	out := make([]Bucket, 0, len(c))
	for i, n := range c {
		m := time.Month(i + 1)
		out = append(out, Bucket{Month: m, Label: person.MonthLabel(m), Count: n})
	}
	return out
}
