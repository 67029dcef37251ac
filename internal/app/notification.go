package app

import (
	"errors"
	"fmt"

	"github.com/kingrea/addressapp/internal/roster"
	"github.com/kingrea/addressapp/internal/storage"
)

// NotificationKind picks how a notification is presented.
type NotificationKind int

const (
	NotifyInfo NotificationKind = iota
	NotifyWarning
	NotifyError
)

func (k NotificationKind) String() string {
	switch k {
	case NotifyWarning:
		return "warning"
	case NotifyError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a user-facing alert: title, short header and body text.
type Notification struct {
	Kind    NotificationKind
	Title   string
	Header  string
	Content string
}

// NoSelection is shown when an edit or delete has no valid target.
var NoSelection = Notification{
	Kind:    NotifyWarning,
	Title:   "No Selection",
	Header:  "No Person Selected",
	Content: "Please select a person in the table.",
}

// NotificationFor converts an operation error into the alert the user sees.
func NotificationFor(err error) Notification {
	var le *storage.LoadError
	var se *storage.SaveError
	switch {
	case err == nil:
		return Notification{}
	case errors.As(err, &le):
		return Notification{
			Kind:    NotifyError,
			Title:   "Error",
			Header:  "Could not load data",
			Content: fmt.Sprintf("Could not load data from file:\n%s", le.Path),
		}
	case errors.As(err, &se):
		content := fmt.Sprintf("Could not save data to file:\n%s", se.Path)
		var te *storage.TextError
		if errors.As(err, &te) {
			content += "\n\n" + te.Error()
		}
		return Notification{
			Kind:    NotifyError,
			Title:   "Error",
			Header:  "Could not save data",
			Content: content,
		}
	case errors.Is(err, roster.ErrIndex), errors.Is(err, roster.ErrNotMember):
		return NoSelection
	case errors.Is(err, ErrNoPath):
		return Notification{
			Kind:    NotifyInfo,
			Title:   "Save",
			Header:  "No file selected",
			Content: "Choose a file to save the address book to.",
		}
	default:
		return Notification{
			Kind:    NotifyError,
			Title:   "Error",
			Header:  "Operation failed",
			Content: err.Error(),
		}
	}
}
