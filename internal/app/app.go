// Package app is the address book controller: it owns the contact list and
// its storage, runs the new/edit/delete dialog flows and turns failures into
// notifications for whichever front end is attached.
package app

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kingrea/addressapp/internal/logbook"
	"github.com/kingrea/addressapp/internal/person"
	"github.com/kingrea/addressapp/internal/prefs"
	"github.com/kingrea/addressapp/internal/roster"
	"github.com/kingrea/addressapp/internal/stats"
	"github.com/kingrea/addressapp/internal/storage"
)

// Name is the base window title.
const Name = "AddressApp"

// ErrNoPath is returned by Save when no file has been opened or saved yet.
var ErrNoPath = errors.New("app: no file path remembered")

// DialogResult is how the user closed an edit dialog.
type DialogResult int

const (
	DialogCancel DialogResult = iota
	DialogOK
)

// Dialog edits draft in place and reports whether the user confirmed.
type Dialog interface {
	EditPerson(draft *person.Person) DialogResult
}

// DialogFunc adapts a function to Dialog.
type DialogFunc func(draft *person.Person) DialogResult

func (f DialogFunc) EditPerson(draft *person.Person) DialogResult { return f(draft) }

// Options configures a controller.
type Options struct {
	// Prefs stores the last used file. Nil means an in-memory store.
	Prefs prefs.Store
	// Log receives activity entries. Nil disables logging.
	Log *logbook.Logbook
	// Samples seeds the list with the sample address book.
	Samples bool
	// DateFormat is the birthday display pattern.
	DateFormat string
}

// App owns the contact list. Front ends hold a reference and never copy it.
type App struct {
	list       *roster.List
	store      *storage.Store
	log        *logbook.Logbook
	dateFormat string

	mu      sync.Mutex
	current string // file shown in the title, set only by a successful load or save
}

// New builds a controller.
func New(opts Options) *App {
	var seed []*person.Person
	if opts.Samples {
		seed = person.Samples()
	}
	list := roster.New(seed...)
	dateFormat := strings.TrimSpace(opts.DateFormat)
	if dateFormat == "" {
		dateFormat = person.DefaultDisplayPattern
	}
	a := &App{
		list:       list,
		log:        opts.Log,
		dateFormat: dateFormat,
	}
	a.store = storage.NewStore(list, opts.Prefs, storage.WithWarnFunc(a.log.Warn))
	return a
}

// List returns the contact list.
func (a *App) List() *roster.List { return a.list }

// Store returns the persistence adapter.
func (a *App) Store() *storage.Store { return a.store }

// DateFormat returns the birthday display pattern.
func (a *App) DateFormat() string { return a.dateFormat }

// FilePath returns the remembered file, if any.
func (a *App) FilePath() (string, bool) {
	return a.store.LastPath()
}

// Title is "AddressApp" or "AddressApp - <file name>" for the file the list
// was last loaded from or saved to.
func (a *App) Title() string {
	a.mu.Lock()
	path := a.current
	a.mu.Unlock()
	if path == "" {
		return Name
	}
	return Name + " - " + filepath.Base(path)
}

func (a *App) setCurrent(path string) {
	a.mu.Lock()
	a.current = path
	a.mu.Unlock()
}

// Startup reloads the remembered file, if any. A failure leaves the initial
// list in place; the returned error is for display only.
func (a *App) Startup() error {
	path, ok := a.FilePath()
	if !ok {
		a.log.Info("Startup · no remembered file, %d record(s) in memory", a.list.Len())
		return nil
	}
	return a.Open(path)
}

// Open replaces the list with the content of path.
func (a *App) Open(path string) error {
	if err := a.store.Load(path); err != nil {
		a.log.With("path", path).Error("Could not load data: %v", err)
		return err
	}
	a.setCurrent(path)
	a.log.With("path", path).Info("Loaded %d record(s)", a.list.Len())
	return nil
}

// Save writes the list to the remembered file.
func (a *App) Save() error {
	path, ok := a.FilePath()
	if !ok {
		return ErrNoPath
	}
	return a.SaveAs(path)
}

// SaveAs writes the list to path and remembers it.
func (a *App) SaveAs(path string) error {
	if err := a.store.Save(path); err != nil {
		a.log.With("path", path).Error("Could not save data: %v", err)
		return err
	}
	a.setCurrent(path)
	a.log.With("path", path).Info("Saved %d record(s)", a.list.Len())
	return nil
}

// NewBook empties the list and forgets the remembered file.
func (a *App) NewBook() error {
	a.list.Clear()
	a.setCurrent("")
	if err := a.store.SetLastPath(""); err != nil {
		a.log.Warn("%v", err)
		return err
	}
	a.log.Info("Started a new address book")
	return nil
}

// Draft returns an editable copy of the record at index.
func (a *App) Draft(index int) (*person.Person, error) {
	p, ok := a.list.At(index)
	if !ok {
		return nil, &roster.IndexError{Index: index, Len: a.list.Len()}
	}
	a.log.Debug("Editing %s", displayName(p))
	return p.Clone(), nil
}

// FinishNew appends draft when the dialog was confirmed. A cancelled draft
// is dropped. It reports whether the list changed.
func (a *App) FinishNew(draft *person.Person, result DialogResult) bool {
	if result != DialogOK || draft == nil {
		return false
	}
	a.list.Add(draft)
	a.log.Info("Added %s", displayName(draft))
	return true
}

// FinishEdit copies draft into the record at index when the dialog was
// confirmed.
func (a *App) FinishEdit(index int, draft *person.Person, result DialogResult) (bool, error) {
	if result != DialogOK || draft == nil {
		return false, nil
	}
	existing, ok := a.list.At(index)
	if !ok {
		return false, &roster.IndexError{Index: index, Len: a.list.Len()}
	}
	if err := a.list.Edit(existing, draft); err != nil {
		return false, err
	}
	a.log.Info("Edited %s", displayName(existing))
	return true, nil
}

// NewPerson runs dialog on an empty record and appends it on OK.
func (a *App) NewPerson(dialog Dialog) bool {
	draft := person.New()
	return a.FinishNew(draft, dialog.EditPerson(draft))
}

// EditPerson runs dialog on a copy of the record at index and applies the
// result on OK.
func (a *App) EditPerson(index int, dialog Dialog) (bool, error) {
	draft, err := a.Draft(index)
	if err != nil {
		return false, err
	}
	return a.FinishEdit(index, draft, dialog.EditPerson(draft))
}

// DeletePerson removes the record at index.
func (a *App) DeletePerson(index int) error {
	removed, err := a.list.RemoveAt(index)
	if err != nil {
		a.log.Warn("Delete rejected: %v", err)
		return err
	}
	a.log.Info("Deleted %s", displayName(removed))
	return nil
}

// BirthdayStats groups the current records by birthday month.
func (a *App) BirthdayStats() stats.MonthCounts {
	return stats.BirthdayMonths(a.list.Snapshot())
}

func displayName(p *person.Person) string {
	if name := p.FullName(); name != "" {
		return name
	}
	return "(unnamed)"
}
