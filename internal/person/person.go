// Package person holds the contact record shown in the address book.
package person

import (
	"strconv"
	"strings"
	"time"
)

// Person is one contact entry. Records are mutated in place; nothing here
// validates the values, so empty names and a zero postal code are legal.
type Person struct {
	FirstName  string
	LastName   string
	Street     string
	PostalCode int
	City       string
	Birthday   Date
}

// New returns an empty record, the starting point of the "new person" dialog.
func New() *Person {
	return &Person{}
}

// NewNamed returns a record with the given names and placeholder address
// data, used for the sample address book.
func NewNamed(firstName, lastName string) *Person {
	return &Person{
		FirstName:  firstName,
		LastName:   lastName,
		Street:     "some street",
		PostalCode: 1234,
		City:       "some city",
		Birthday:   NewDate(1999, time.February, 21),
	}
}

// Samples returns the records a fresh address book starts with.
func Samples() []*Person {
	names := [][2]string{
		{"Hans", "Muster"},
		{"Ruth", "Mueller"},
		{"Heinz", "Kurz"},
		{"Cornelia", "Meier"},
		{"Werner", "Meyer"},
		{"Lydia", "Kunz"},
		{"Anna", "Best"},
		{"Stefan", "Meier"},
		{"Martin", "Mueller"},
	}
	out := make([]*Person, 0, len(names))
	for _, n := range names {
		out = append(out, NewNamed(n[0], n[1]))
	}
	return out
}

// Clone returns an independent copy of p.
func (p *Person) Clone() *Person {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// CopyFrom overwrites every field of p with the values of src.
func (p *Person) CopyFrom(src *Person) {
	if p == nil || src == nil {
		return
	}
	*p = *src
}

// Equal compares field values; birthdays compare as calendar dates.
func (p *Person) Equal(other *Person) bool {
	if p == nil || other == nil {
		return p == other
	}
	return *p == *other
}

// FullName joins first and last name.
func (p *Person) FullName() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// PostalCodeText renders the postal code the way the details pane shows it.
func (p *Person) PostalCodeText() string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(p.PostalCode)
}
