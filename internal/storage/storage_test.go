package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/addressapp/internal/person"
	"github.com/kingrea/addressapp/internal/prefs"
	"github.com/kingrea/addressapp/internal/roster"
)

func sampleRecords() []*person.Person {
	withoutBirthday := person.NewNamed("Lydia", "Kunz")
	withoutBirthday.Birthday = person.Date{}
	blank := person.New()
	return []*person.Person{
		person.NewNamed("Hans", "Muster"),
		{FirstName: "Ruth", LastName: "Mueller", Street: "Bahnhofstr. 3 & 4", PostalCode: 8001, City: "Zürich", Birthday: person.NewDate(1984, time.March, 9)},
		withoutBirthday,
		blank,
	}
}

func TestRecordsDocumentRoundTrip(t *testing.T) {
	in := sampleRecords()
	out, err := DocumentToRecords(RecordsToDocument(in))
	if err != nil {
		t.Fatalf("document to records: %v", err)
	}
	assertSameRecords(t, out, in)
}

func TestMarshalIsIndentedWithStableFieldOrder(t *testing.T) {
	data, err := Marshal([]*person.Person{person.NewNamed("Hans", "Muster")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, Header) {
		t.Fatalf("missing xml header:\n%s", text)
	}
	want := []string{
		"<persons>",
		"    <person>",
		"        <firstName>Hans</firstName>",
		"        <lastName>Muster</lastName>",
		"        <street>some street</street>",
		"        <postalCode>1234</postalCode>",
		"        <city>some city</city>",
		"        <birthday>1999-02-21</birthday>",
		"    </person>",
		"</persons>",
	}
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(text, Header)), "\n")
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), text)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestMarshalOmitsAbsentBirthday(t *testing.T) {
	data, err := Marshal([]*person.Person{person.New()})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "birthday") {
		t.Fatalf("absent birthday was written:\n%s", data)
	}
}

func TestUnmarshalRejectsNonNumericPostalCode(t *testing.T) {
	doc := Header + `<persons><person><firstName>A</firstName><postalCode>12a</postalCode></person></persons>`
	if _, err := Unmarshal([]byte(doc)); err == nil {
		t.Fatalf("expected error for non-numeric postal code")
	}
}

func TestUnmarshalIgnoresUnknownElements(t *testing.T) {
	doc := `<persons><person><firstName>A</firstName><nickname>x</nickname><postalCode> 42 </postalCode></person></persons>`
	records, err := Unmarshal([]byte(doc))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(records) != 1 || records[0].PostalCode != 42 || records[0].FirstName != "A" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestUnmarshalRejectsWrongRootAndEmptyInput(t *testing.T) {
	if _, err := Unmarshal([]byte(`<people></people>`)); err == nil {
		t.Fatalf("expected error for wrong root element")
	}
	if _, err := Unmarshal(nil); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persons.xml")
	settings := prefs.NewMemory()
	src := NewStore(roster.New(sampleRecords()...), settings)
	if err := src.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	dst := NewStore(roster.New(person.NewNamed("stale", "entry")), prefs.NewMemory())
	if err := dst.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSameRecords(t, dst.List().Snapshot(), sampleRecords())

	last, ok := src.LastPath()
	if !ok || last != path {
		t.Fatalf("last path after save = %q,%v want %q", last, ok, path)
	}
	if last, ok := dst.LastPath(); !ok || last != path {
		t.Fatalf("last path after load = %q,%v want %q", last, ok, path)
	}
}

func TestStoreLoadMissingFileKeepsList(t *testing.T) {
	list := roster.New(person.Samples()...)
	store := NewStore(list, prefs.NewMemory())
	before := list.Snapshot()
	missing := filepath.Join(t.TempDir(), "missing.xml")

	err := store.Load(missing)
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("err = %v, want ErrLoad", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist cause, got %v", err)
	}
	var le *LoadError
	if !errors.As(err, &le) || le.Path != missing {
		t.Fatalf("expected LoadError carrying the path, got %v", err)
	}
	assertUnchanged(t, list, before)
	if _, ok := store.LastPath(); ok {
		t.Fatalf("failed load must not record a path")
	}
}

func TestStoreLoadMalformedFileKeepsList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xml")
	doc := Header + `<persons>
    <person><firstName>Ok</firstName><postalCode>1</postalCode></person>
    <person><firstName>Bad</firstName><postalCode>abc</postalCode></person>
</persons>`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	list := roster.New(person.Samples()...)
	before := list.Snapshot()
	events := 0
	list.Subscribe(func(roster.Event) { events++ })

	err := NewStore(list, prefs.NewMemory()).Load(path)
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("err = %v, want ErrLoad", err)
	}
	assertUnchanged(t, list, before)
	if events != 0 {
		t.Fatalf("failed load emitted %d events", events)
	}
}

func TestStoreLoadRejectsTrailingContent(t *testing.T) {
	first := Header + "<persons><person><firstName>A</firstName></person></persons>\n"
	cases := map[string]string{
		"second root":   first + "<persons><person><firstName>B",
		"trailing text": first + "garbage",
	}
	for name, doc := range cases {
		path := filepath.Join(t.TempDir(), "concat.xml")
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
		list := roster.New(person.Samples()...)
		before := list.Snapshot()
		store := NewStore(list, prefs.NewMemory())
		if err := store.Load(path); !errors.Is(err, ErrLoad) {
			t.Fatalf("%s: err = %v, want ErrLoad", name, err)
		}
		assertUnchanged(t, list, before)
		if _, ok := store.LastPath(); ok {
			t.Fatalf("%s: failed load remembered the path", name)
		}
	}
}

func TestUnmarshalAllowsCommentsAfterRoot(t *testing.T) {
	doc := Header + "<persons><person><firstName>A</firstName></person></persons>\n<!-- saved -->\n\n"
	records, err := Unmarshal([]byte(doc))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(records) != 1 || records[0].FirstName != "A" {
		t.Fatalf("records = %+v", records)
	}
}

func TestUnmarshalWithoutRootNamesMissingElement(t *testing.T) {
	_, err := Unmarshal([]byte("nope"))
	if err == nil || !strings.Contains(err.Error(), "no <persons> element") {
		t.Fatalf("err = %v, want missing <persons> element", err)
	}
}

func TestMarshalRejectsTextXMLCannotHold(t *testing.T) {
	for _, p := range []*person.Person{
		{FirstName: "a\x01b", LastName: "Ok"},
		{FirstName: "Ok", LastName: "\xffz"},
	} {
		if _, err := Marshal([]*person.Person{person.NewNamed("Hans", "Muster"), p}); err == nil {
			t.Fatalf("marshal of %q %q succeeded", p.FirstName, p.LastName)
		} else {
			var textErr *TextError
			if !errors.As(err, &textErr) || textErr.Person != 2 {
				t.Fatalf("err = %v, want TextError for person 2", err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "persons.xml")
	store := NewStore(roster.New(&person.Person{City: "Bern\x00"}), prefs.NewMemory())
	err := store.Save(path)
	if !errors.Is(err, ErrSave) {
		t.Fatalf("save err = %v, want ErrSave", err)
	}
	var textErr *TextError
	if !errors.As(err, &textErr) || textErr.Field != "city" {
		t.Fatalf("save err = %v, want TextError on city", err)
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, fs.ErrNotExist) {
		t.Fatalf("rejected save wrote a file: %v", statErr)
	}
}

func TestRoundTripKeepsUnusualButValidText(t *testing.T) {
	in := []*person.Person{{FirstName: "Zoë\tTab", LastName: "<&>\"'", Street: "Line\nBreak", City: "東京 🎌"}}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	assertSameRecords(t, out, in)
}

func TestStoreSaveFailureKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "missing-dir", "persons.xml")
	store := NewStore(roster.New(person.Samples()...), prefs.NewMemory())
	err := store.Save(target)
	if !errors.Is(err, ErrSave) {
		t.Fatalf("err = %v, want ErrSave", err)
	}
	if _, ok := store.LastPath(); ok {
		t.Fatalf("failed save must not record a path")
	}

	existing := filepath.Join(dir, "persons.xml")
	if err := os.WriteFile(existing, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(existing); err != nil {
		t.Fatalf("save over existing: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestLastPathSetAndClear(t *testing.T) {
	store := NewStore(roster.New(), prefs.NewMemory())
	if _, ok := store.LastPath(); ok {
		t.Fatalf("expected no last path")
	}
	if err := store.SetLastPath("/data/persons.xml"); err != nil {
		t.Fatal(err)
	}
	if got, ok := store.LastPath(); !ok || got != "/data/persons.xml" {
		t.Fatalf("last path = %q,%v", got, ok)
	}
	if err := store.SetLastPath(""); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.LastPath(); ok {
		t.Fatalf("expected cleared last path")
	}
}

func assertSameRecords(t *testing.T, got, want []*person.Person) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func assertUnchanged(t *testing.T, list *roster.List, before []*person.Person) {
	t.Helper()
	after := list.Snapshot()
	if len(after) != len(before) {
		t.Fatalf("len = %d, want %d", len(after), len(before))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Fatalf("record %d replaced", i)
		}
	}
}
