package storage

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kingrea/addressapp/internal/person"
)

// Header is written ahead of every address file.
const Header = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const indent = "    "

// Document is the on-disk shape of an address file.
type Document struct {
	XMLName xml.Name  `xml:"persons"`
	Persons []Element `xml:"person"`
}

// Element is one <person>. Field order here is the order written to disk.
// Postal code and birthday stay textual so DocumentToRecords decides how
// malformed values are reported.
type Element struct {
	FirstName  string `xml:"firstName"`
	LastName   string `xml:"lastName"`
	Street     string `xml:"street"`
	PostalCode string `xml:"postalCode"`
	City       string `xml:"city"`
	Birthday   string `xml:"birthday,omitempty"`
}

// RecordsToDocument maps records onto the file schema.
func RecordsToDocument(records []*person.Person) Document {
	doc := Document{Persons: make([]Element, 0, len(records))}
	for _, p := range records {
		if p == nil {
			continue
		}
		doc.Persons = append(doc.Persons, Element{
			FirstName:  p.FirstName,
			LastName:   p.LastName,
			Street:     p.Street,
			PostalCode: strconv.Itoa(p.PostalCode),
			City:       p.City,
			Birthday:   p.Birthday.Format(person.ISOPattern),
		})
	}
	return doc
}

// DocumentToRecords maps a decoded document back to records. A non-numeric
// postal code or an unparseable birthday fails the whole document.
func DocumentToRecords(doc Document) ([]*person.Person, error) {
	out := make([]*person.Person, 0, len(doc.Persons))
	for i, el := range doc.Persons {
		p, err := el.record()
		if err != nil {
			return nil, fmt.Errorf("person %d: %w", i+1, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (el Element) record() (*person.Person, error) {
	postal := 0
	if text := strings.TrimSpace(el.PostalCode); text != "" {
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("postalCode %q is not an integer", el.PostalCode)
		}
		postal = n
	}
	birthday, err := person.ParseDate(person.ISOPattern, el.Birthday)
	if err != nil {
		return nil, fmt.Errorf("birthday: %w", err)
	}
	return &person.Person{
		FirstName:  el.FirstName,
		LastName:   el.LastName,
		Street:     el.Street,
		PostalCode: postal,
		City:       el.City,
		Birthday:   birthday,
	}, nil
}

// Marshal renders records as an indented address file. Text XML cannot
// carry (invalid UTF-8, control characters) is an error rather than being
// replaced, so a saved file always reads back equal.
func Marshal(records []*person.Person) ([]byte, error) {
	if err := checkText(records); err != nil {
		return nil, fmt.Errorf("storage: encode: %w", err)
	}
	body, err := xml.MarshalIndent(RecordsToDocument(records), "", indent)
	if err != nil {
		return nil, fmt.Errorf("storage: encode: %w", err)
	}
	var buf bytes.Buffer
	buf.Grow(len(Header) + len(body) + 1)
	buf.WriteString(Header)
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// TextError names a field whose value cannot be written to an address file.
type TextError struct {
	Person int // 1-based position in the list
	Name   string
	Field  string
}

func (e *TextError) Error() string {
	return fmt.Sprintf("person %d (%s): %s holds characters XML cannot store", e.Person, e.Name, e.Field)
}

func checkText(records []*person.Person) error {
	for i, p := range records {
		if p == nil {
			continue
		}
		fields := [...]struct{ name, value string }{
			{"firstName", p.FirstName},
			{"lastName", p.LastName},
			{"street", p.Street},
			{"city", p.City},
		}
		for _, f := range fields {
			if !validText(f.value) {
				return &TextError{Person: i + 1, Name: p.FullName(), Field: f.name}
			}
		}
	}
	return nil
}

// validText reports whether s is valid UTF-8 made only of characters
// allowed in XML 1.0 character data.
func validText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if !validXMLRune(r) {
			return false
		}
	}
	return true
}

func validXMLRune(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

// Decode reads an address file. Input without a <persons> root, or with
// elements or text after it, is an error.
func Decode(r io.Reader) ([]*person.Person, error) {
	dec := xml.NewDecoder(r)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("storage: decode: no <persons> element")
		}
		return nil, fmt.Errorf("storage: decode: %w", err)
	}
	if err := expectEnd(dec); err != nil {
		return nil, fmt.Errorf("storage: decode: %w", err)
	}
	records, err := DocumentToRecords(doc)
	if err != nil {
		return nil, fmt.Errorf("storage: decode: %w", err)
	}
	return records, nil
}

// expectEnd consumes the rest of the input. Only whitespace, comments and
// processing instructions may follow the root element.
func expectEnd(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("unexpected <%s> after </persons>", t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return fmt.Errorf("unexpected text after </persons>")
			}
		}
	}
}

// Unmarshal decodes an address file held in memory.
func Unmarshal(data []byte) ([]*person.Person, error) {
	return Decode(bytes.NewReader(data))
}
