package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/addressapp/internal/person"
	"github.com/kingrea/addressapp/internal/roster"
)

const histogramWidth = 30

func personColumns(width int) []table.Column {
	col := max(12, (width-6)/2)
	return []table.Column{
		{Title: "First Name", Width: col},
		{Title: "Last Name", Width: col},
	}
}

func rowFor(p *person.Person) table.Row {
	return table.Row{p.FirstName, p.LastName}
}

// rebuildRows renders every record again, honouring the active filter.
func (a *App) rebuildRows() {
	records := a.ctrl.List().Snapshot()
	rows := make([]table.Row, 0, len(records))
	a.visible = nil
	if a.filter != nil {
		idx, err := a.filter.Indexes(records)
		if err != nil {
			a.statusMsg = err.Error()
			a.filter = nil
		} else {
			a.visible = idx
			for _, i := range idx {
				rows = append(rows, rowFor(records[i]))
			}
		}
	}
	if a.visible == nil {
		for _, p := range records {
			rows = append(rows, rowFor(p))
		}
	}
	a.setRows(rows)
}

// applyChanges patches the rows touched by pending list events. A filtered
// view, a reset, or an event that does not line up with the current rows
// falls back to a full rebuild.
func (a *App) applyChanges() {
	events := a.changes.drain()
	if len(events) == 0 {
		return
	}
	if a.filter != nil {
		a.rebuildRows()
		return
	}
	rows := a.rows
	for _, ev := range events {
		switch ev.Kind {
		case roster.EventInsert:
			if ev.Index < 0 || ev.Index > len(rows) || ev.Person == nil {
				a.rebuildRows()
				return
			}
			rows = append(rows, nil)
			copy(rows[ev.Index+1:], rows[ev.Index:])
			rows[ev.Index] = rowFor(ev.Person)
		case roster.EventRemove:
			if ev.Index < 0 || ev.Index >= len(rows) {
				a.rebuildRows()
				return
			}
			rows = append(rows[:ev.Index], rows[ev.Index+1:]...)
		case roster.EventUpdate:
			if ev.Index < 0 || ev.Index >= len(rows) || ev.Person == nil {
				a.rebuildRows()
				return
			}
			rows[ev.Index] = rowFor(ev.Person)
		default:
			a.rebuildRows()
			return
		}
	}
	a.setRows(rows)
}

func (a *App) setRows(rows []table.Row) {
	a.rows = rows
	a.table.SetRows(rows)
	if a.table.Cursor() >= len(rows) {
		a.table.SetCursor(len(rows) - 1)
	}
	if a.table.Cursor() < 0 && len(rows) > 0 {
		a.table.SetCursor(0)
	}
}

// selectedIndex maps the table cursor to a list index, -1 when nothing is
// selected.
func (a *App) selectedIndex() int {
	c := a.table.Cursor()
	if c < 0 || c >= len(a.rows) {
		return -1
	}
	if a.visible != nil {
		return a.visible[c]
	}
	return c
}

func (a *App) selectListIndex(index int) {
	if a.visible == nil {
		if index >= 0 && index < len(a.rows) {
			a.table.SetCursor(index)
		}
		return
	}
	for row, i := range a.visible {
		if i == index {
			a.table.SetCursor(row)
			return
		}
	}
}

func (a *App) resizeTable() {
	width := a.width
	if width <= 0 {
		width = 100
	}
	left := max(30, width/2)
	a.table.SetColumns(personColumns(left))
	a.table.SetWidth(left)
	a.table.SetHeight(max(5, a.height-14))
}

// View renders the current state to a string.
func (a *App) View() string {
	var body string
	switch a.state {
	case stateEdit:
		if a.form != nil {
			body = a.form.view()
		}
	case stateStats:
		body = a.renderStats()
	case stateAlert:
		body = a.renderAlert()
	case statePrompt:
		body = lipgloss.JoinVertical(lipgloss.Left,
			a.renderOverview(),
			panelStyle.Render(a.prompt.View()+"\n"+hintStyle.Render("Enter → confirm    Esc → cancel")),
		)
	default:
		body = a.renderOverview()
	}
	sections := []string{headerStyle.Render(a.ctrl.Title()), body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, statusStyle.Render(a.statusMsg))
	return strings.Join(sections, "\n")
}

func (a *App) renderOverview() string {
	tableBox := panelStyle.Render(a.table.View())
	details := panelStyle.Render(a.renderDetails())
	main := lipgloss.JoinHorizontal(lipgloss.Top, tableBox, details)
	keys := "n new · e edit · d delete · o open · s save · S save as · N new book · b statistics · / filter · f find · q quit"
	return lipgloss.JoinVertical(lipgloss.Left, main, hintStyle.Render(keys))
}

func (a *App) renderDetails() string {
	title := panelTitleStyle.Render("Person Details")
	p, ok := a.ctrl.List().At(a.selectedIndex())
	values := [fieldCount]string{}
	if ok {
		values = [fieldCount]string{
			p.FirstName,
			p.LastName,
			p.Street,
			p.PostalCodeText(),
			p.City,
			p.Birthday.Format(a.ctrl.DateFormat()),
		}
	}
	lines := []string{title, ""}
	for i, label := range fieldLabels {
		lines = append(lines, labelStyle.Render(label)+" "+valueStyle.Render(values[i]))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderStats() string {
	counts := a.ctrl.BirthdayStats()
	peak := counts.Max()
	lines := []string{panelTitleStyle.Render("Birthday Statistics"), ""}
	for _, b := range counts.Buckets() {
		bar := ""
		if peak > 0 && b.Count > 0 {
			bar = strings.Repeat("█", max(1, b.Count*histogramWidth/peak))
		}
		lines = append(lines, fmt.Sprintf("%s %s %d", labelStyle.Width(4).Render(b.Label), barStyle.Render(bar), b.Count))
	}
	lines = append(lines, "", fmt.Sprintf("%d of %d person(s) have a birthday", counts.Total(), a.ctrl.List().Len()))
	lines = append(lines, hintStyle.Render("Esc → close"))
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) renderAlert() string {
	n := a.alert
	color, ok := alertBorder[n.Kind.String()]
	if !ok {
		color = alertBorder["info"]
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		panelTitleStyle.Foreground(color).Render(n.Title),
		valueStyle.Bold(true).Render(n.Header),
		"",
		n.Content,
		hintStyle.Render("Press any key"),
	)
	return panelStyle.BorderForeground(color).Render(content)
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, _ := a.logbook.Tail(5)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := panelTitleStyle.Render(fmt.Sprintf("LOG · %s", fileName))
	return panelStyle.Render(fmt.Sprintf("%s\n%s", head, logStyle.Render(strings.Join(lines, "\n"))))
}
