package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/addressapp/internal/person"
)

const (
	fieldFirstName = iota
	fieldLastName
	fieldStreet
	fieldPostalCode
	fieldCity
	fieldBirthday
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"First Name",
	"Last Name",
	"Street",
	"Postal Code",
	"City",
	"Birthday",
}

// editForm is the modal person dialog. index is -1 for a new person.
type editForm struct {
	title      string
	index      int
	draft      *person.Person
	inputs     [fieldCount]textinput.Model
	focus      int
	err        string
	dateFormat string
}

func newEditForm(title string, index int, draft *person.Person, dateFormat string) *editForm {
	f := &editForm{
		title:      title,
		index:      index,
		draft:      draft,
		dateFormat: dateFormat,
	}
	values := [fieldCount]string{
		draft.FirstName,
		draft.LastName,
		draft.Street,
		"",
		draft.City,
		draft.Birthday.Format(dateFormat),
	}
	if draft.PostalCode != 0 || index >= 0 {
		values[fieldPostalCode] = strconv.Itoa(draft.PostalCode)
	}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 120
		in.Width = 32
		in.SetValue(values[i])
		f.inputs[i] = in
	}
	f.inputs[fieldBirthday].Placeholder = dateFormat
	f.inputs[fieldPostalCode].Placeholder = "0"
	f.inputs[f.focus].Focus()
	return f
}

func (f *editForm) focusField(i int) tea.Cmd {
	if i < 0 {
		i = fieldCount - 1
	}
	if i >= fieldCount {
		i = 0
	}
	f.inputs[f.focus].Blur()
	f.focus = i
	return f.inputs[f.focus].Focus()
}

// update routes a key to the focused input. It returns true when the user
// confirmed the dialog.
func (f *editForm) update(msg tea.Msg) (bool, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			return false, f.focusField(f.focus + 1)
		case "shift+tab", "up":
			return false, f.focusField(f.focus - 1)
		case "ctrl+s":
			return f.commit(), nil
		case "enter":
			if f.focus < fieldCount-1 {
				return false, f.focusField(f.focus + 1)
			}
			return f.commit(), nil
		}
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return false, cmd
}

// commit copies the input values into the draft. Only values that cannot be
// represented at all (a postal code that is not a number, an unreadable
// date) keep the dialog open.
func (f *editForm) commit() bool {
	postalText := strings.TrimSpace(f.inputs[fieldPostalCode].Value())
	postal := 0
	if postalText != "" {
		n, err := strconv.Atoi(postalText)
		if err != nil {
			f.err = "Postal code must be a number"
			f.focusField(fieldPostalCode)
			return false
		}
		postal = n
	}
	birthday, err := person.ParseUserDate(f.dateFormat, f.inputs[fieldBirthday].Value())
	if err != nil {
		f.err = fmt.Sprintf("Birthday must look like %s", f.dateFormat)
		f.focusField(fieldBirthday)
		return false
	}
	f.draft.FirstName = f.inputs[fieldFirstName].Value()
	f.draft.LastName = f.inputs[fieldLastName].Value()
	f.draft.Street = f.inputs[fieldStreet].Value()
	f.draft.PostalCode = postal
	f.draft.City = f.inputs[fieldCity].Value()
	f.draft.Birthday = birthday
	f.err = ""
	return true
}

func (f *editForm) view() string {
	rows := []string{panelTitleStyle.Render(f.title), ""}
	for i := range f.inputs {
		label := labelStyle.Render(fieldLabels[i])
		if i == f.focus {
			label = labelStyle.Bold(true).Foreground(lipgloss.Color("#5B8DEF")).Render(fieldLabels[i])
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, label, " ", f.inputs[i].View()))
	}
	if f.err != "" {
		rows = append(rows, "", errorStyle.Render(f.err))
	}
	rows = append(rows, hintStyle.Render("Tab → next field    Enter on last field / Ctrl+S → OK    Esc → Cancel"))
	return panelStyle.Render(strings.Join(rows, "\n"))
}
