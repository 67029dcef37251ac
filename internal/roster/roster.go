// Package roster holds the ordered, observable list of contacts that every
// view of the address book reads from.
package roster

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/kingrea/addressapp/internal/person"
)

var (
	// ErrIndex reports a mutation against a position that is not in the list.
	ErrIndex = errors.New("roster: index out of range")
	// ErrNotMember reports an edit of a record the list does not hold.
	ErrNotMember = errors.New("roster: person not in list")
)

// IndexError carries the rejected index and the list length at the time.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("roster: index %d out of range [0,%d)", e.Index, e.Len)
}

// Is lets errors.Is match ErrIndex.
func (e *IndexError) Is(target error) bool {
	return target == ErrIndex
}

// EventKind identifies what happened to the list.
type EventKind int

const (
	EventInsert EventKind = iota // a record was appended at Index
	EventRemove                  // the record at Index was removed
	EventUpdate                  // the record at Index changed in place
	EventReset                   // the whole content was replaced
)

func (k EventKind) String() string {
	switch k {
	case EventInsert:
		return "insert"
	case EventRemove:
		return "remove"
	case EventUpdate:
		return "update"
	case EventReset:
		return "reset"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event describes one change. Index is -1 for resets.
type Event struct {
	Kind   EventKind
	Index  int
	Person *person.Person
	Len    int
}

// Observer receives change events after the mutation has been applied.
type Observer func(Event)

type subscriber struct {
	id string
	fn Observer
}

// List is the single source of truth for the address book. Callers hold a
// reference to it, never a copy.
type List struct {
	mu          sync.RWMutex
	items       []*person.Person
	subscribers []subscriber
}

// New returns a list seeded with records (which may be nil).
func New(records ...*person.Person) *List {
	l := &List{}
	for _, p := range records {
		if p != nil {
			l.items = append(l.items, p)
		}
	}
	return l
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	ID   string
	list *List
}

// Cancel stops delivery to the subscribed observer. Safe to call twice.
func (s Subscription) Cancel() {
	if s.list == nil || s.ID == "" {
		return
	}
	s.list.unsubscribe(s.ID)
}

// Subscribe registers fn. Observers run synchronously, in subscription
// order, on the goroutine that performed the mutation.
func (l *List) Subscribe(fn Observer) Subscription {
	if fn == nil {
		return Subscription{}
	}
	id := uuid.NewString()
	l.mu.Lock()
	l.subscribers = append(l.subscribers, subscriber{id: id, fn: fn})
	l.mu.Unlock()
	return Subscription{ID: id, list: l}
}

func (l *List) unsubscribe(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, sub := range l.subscribers {
		if sub.id == id {
			l.subscribers = append(l.subscribers[:i:i], l.subscribers[i+1:]...)
			return
		}
	}
}

// Len returns the number of records.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// At returns the record at index, or false when index is out of range.
func (l *List) At(index int) (*person.Person, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.items) {
		return nil, false
	}
	return l.items[index], true
}

// IndexOf returns the position of p (by identity) or -1.
func (l *List) IndexOf(p *person.Person) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.indexOfLocked(p)
}

func (l *List) indexOfLocked(p *person.Person) int {
	for i, item := range l.items {
		if item == p {
			return i
		}
	}
	return -1
}

// Snapshot returns a copy of the pointer slice in display order.
func (l *List) Snapshot() []*person.Person {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*person.Person, len(l.items))
	copy(out, l.items)
	return out
}

// Add appends p at the end.
func (l *List) Add(p *person.Person) {
	if p == nil {
		return
	}
	l.mu.Lock()
	l.items = append(l.items, p)
	ev := Event{Kind: EventInsert, Index: len(l.items) - 1, Person: p, Len: len(l.items)}
	subs := l.subscribersLocked()
	l.mu.Unlock()
	notify(subs, ev)
}

// RemoveAt deletes the record at index and keeps the order of the rest.
func (l *List) RemoveAt(index int) (*person.Person, error) {
	l.mu.Lock()
	if index < 0 || index >= len(l.items) {
		n := len(l.items)
		l.mu.Unlock()
		return nil, &IndexError{Index: index, Len: n}
	}
	removed := l.items[index]
	copy(l.items[index:], l.items[index+1:])
	l.items[len(l.items)-1] = nil
	l.items = l.items[:len(l.items)-1]
	ev := Event{Kind: EventRemove, Index: index, Person: removed, Len: len(l.items)}
	subs := l.subscribersLocked()
	l.mu.Unlock()
	notify(subs, ev)
	return removed, nil
}

// Edit copies values into existing in place. No validation is applied.
func (l *List) Edit(existing, values *person.Person) error {
	if existing == nil || values == nil {
		return ErrNotMember
	}
	l.mu.Lock()
	idx := l.indexOfLocked(existing)
	if idx < 0 {
		l.mu.Unlock()
		return ErrNotMember
	}
	existing.CopyFrom(values)
	ev := Event{Kind: EventUpdate, Index: idx, Person: existing, Len: len(l.items)}
	subs := l.subscribersLocked()
	l.mu.Unlock()
	notify(subs, ev)
	return nil
}

// Replace clears the list and inserts records in order, emitting a single
// reset event.
func (l *List) Replace(records []*person.Person) {
	next := make([]*person.Person, 0, len(records))
	for _, p := range records {
		if p != nil {
			next = append(next, p)
		}
	}
	l.mu.Lock()
	l.items = next
	ev := Event{Kind: EventReset, Index: -1, Len: len(next)}
	subs := l.subscribersLocked()
	l.mu.Unlock()
	notify(subs, ev)
}

// Clear removes every record.
func (l *List) Clear() {
	l.Replace(nil)
}

func (l *List) subscribersLocked() []subscriber {
	if len(l.subscribers) == 0 {
		return nil
	}
	out := make([]subscriber, len(l.subscribers))
	copy(out, l.subscribers)
	return out
}

func notify(subs []subscriber, ev Event) {
	for _, sub := range subs {
		sub.fn(ev)
	}
}
