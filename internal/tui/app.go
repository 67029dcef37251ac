// internal/tui/app.go
//
// This is the terminal front end of the address book. It uses bubbletea,
// which follows The Elm Architecture:
//
// 1. Model: the App below (table, dialogs, status line)
// 2. Update: key presses and finished file operations become state changes
// 3. View: the state is rendered to a string
//
// The contact list itself lives in the app controller. The TUI subscribes to
// it and patches only the table rows an event touched.

package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/addressapp/internal/app"
	"github.com/kingrea/addressapp/internal/filter"
	"github.com/kingrea/addressapp/internal/logbook"
	"github.com/kingrea/addressapp/internal/person"
	"github.com/kingrea/addressapp/internal/roster"
)

// appState represents which "screen" we're on
type appState int

const (
	stateOverview appState = iota // person table and details
	stateEdit                     // new/edit person dialog
	statePrompt                   // single line input: file path or filter
	stateStats                    // birthday statistics
	stateAlert                    // modal notification
)

type promptPurpose int

const (
	promptOpen promptPurpose = iota
	promptSaveAs
	promptFilter
	promptSearch
)

type fileOp int

const (
	opStartup fileOp = iota
	opOpen
	opSave
)

// fileOpMsg reports a load or save that ran off the update loop.
type fileOpMsg struct {
	op   fileOp
	path string
	err  error
}

// changeQueue buffers roster events until the next Update drains them.
// Loads run inside a tea.Cmd, so events can arrive from another goroutine.
type changeQueue struct {
	mu     sync.Mutex
	events []roster.Event
}

func (q *changeQueue) push(ev roster.Event) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
}

func (q *changeQueue) drain() []roster.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	return out
}

// App is the bubbletea model.
type App struct {
	state    appState
	returnTo appState
	ctrl     *app.App
	logbook  *logbook.Logbook

	table   table.Model
	rows    []table.Row
	visible []int // table row -> list index while a filter is active
	filter  filter.Selector

	sub     roster.Subscription
	changes *changeQueue
	busy    bool

	form          *editForm
	prompt        textinput.Model
	promptPurpose promptPurpose
	alert         app.Notification

	statusMsg string
	width     int
	height    int
}

// NewApp creates the model around a controller.
func NewApp(ctrl *app.App, lb *logbook.Logbook) *App {
	a := &App{
		state:   stateOverview,
		ctrl:    ctrl,
		logbook: lb,
		changes: &changeQueue{},
	}
	a.table = table.New(
		table.WithColumns(personColumns(80)),
		table.WithFocused(true),
		table.WithHeight(12),
		table.WithStyles(tableStyles()),
	)
	a.sub = ctrl.List().Subscribe(a.changes.push)
	a.rebuildRows()
	return a
}

// Close detaches the model from the contact list.
func (a *App) Close() {
	a.sub.Cancel()
}

// Init is called once when the program starts: it reloads the last file.
func (a *App) Init() tea.Cmd {
	if _, ok := a.ctrl.FilePath(); !ok {
		return nil
	}
	a.busy = true
	a.statusMsg = "Loading last file..."
	ctrl := a.ctrl
	return func() tea.Msg {
		path, _ := ctrl.FilePath()
		return fileOpMsg{op: opStartup, path: path, err: ctrl.Startup()}
	}
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := a.update(msg)
	a.applyChanges()
	return a, cmd
}

func (a *App) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resizeTable()
		return nil

	case fileOpMsg:
		return a.handleFileOp(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return tea.Quit
		}
		switch a.state {
		case stateAlert:
			return a.dismissAlert()
		case stateStats:
			switch msg.String() {
			case "esc", "q", "enter", "b":
				a.state = stateOverview
			}
			return nil
		case stateEdit:
			return a.updateEdit(msg)
		case statePrompt:
			return a.updatePrompt(msg)
		default:
			return a.updateOverview(msg)
		}
	}

	switch a.state {
	case stateEdit:
		if a.form != nil {
			_, cmd := a.form.update(msg)
			return cmd
		}
	case statePrompt:
		var cmd tea.Cmd
		a.prompt, cmd = a.prompt.Update(msg)
		return cmd
	}
	return nil
}

func (a *App) updateOverview(msg tea.KeyMsg) tea.Cmd {
	if a.busy {
		switch msg.String() {
		case "up", "down", "k", "j", "pgup", "pgdown", "home", "end":
		default:
			a.statusMsg = "Please wait for the file operation to finish"
			return nil
		}
	}
	switch msg.String() {
	case "q":
		return tea.Quit
	case "n":
		a.openForm("New Person", -1, person.New())
		return nil
	case "e", "enter":
		return a.beginEdit()
	case "d", "delete":
		a.deleteSelected()
		return nil
	case "o":
		a.openPrompt(promptOpen, "Open file: ", a.currentPath())
		return nil
	case "s":
		if _, ok := a.ctrl.FilePath(); !ok {
			a.openPrompt(promptSaveAs, "Save as: ", "")
			return nil
		}
		return a.startSave("")
	case "S":
		a.openPrompt(promptSaveAs, "Save as: ", a.currentPath())
		return nil
	case "N":
		if err := a.ctrl.NewBook(); err != nil {
			a.showAlert(app.NotificationFor(err), stateOverview)
			return nil
		}
		a.clearFilter()
		a.statusMsg = "Started a new address book"
		return nil
	case "b":
		a.state = stateStats
		return nil
	case "/":
		expr, _ := a.filter.(*filter.Filter)
		a.openPrompt(promptFilter, "Filter: ", expr.String())
		return nil
	case "f":
		search, _ := a.filter.(*filter.Search)
		a.openPrompt(promptSearch, "Find: ", search.String())
		return nil
	case "esc":
		if a.filter != nil {
			a.clearFilter()
			a.statusMsg = "Filter cleared"
		}
		return nil
	}
	var cmd tea.Cmd
	a.table, cmd = a.table.Update(msg)
	return cmd
}

func (a *App) beginEdit() tea.Cmd {
	index := a.selectedIndex()
	draft, err := a.ctrl.Draft(index)
	if err != nil {
		a.showAlert(app.NotificationFor(err), stateOverview)
		return nil
	}
	a.openForm("Edit Person", index, draft)
	return nil
}

func (a *App) deleteSelected() {
	if err := a.ctrl.DeletePerson(a.selectedIndex()); err != nil {
		a.showAlert(app.NotificationFor(err), stateOverview)
		return
	}
	a.statusMsg = "Person deleted"
}

func (a *App) openForm(title string, index int, draft *person.Person) {
	a.form = newEditForm(title, index, draft, a.ctrl.DateFormat())
	a.state = stateEdit
}

func (a *App) updateEdit(msg tea.KeyMsg) tea.Cmd {
	if a.form == nil {
		a.state = stateOverview
		return nil
	}
	if msg.String() == "esc" {
		a.closeForm(app.DialogCancel)
		return nil
	}
	ok, cmd := a.form.update(msg)
	if ok {
		a.closeForm(app.DialogOK)
	}
	return cmd
}

func (a *App) closeForm(result app.DialogResult) {
	form := a.form
	a.form = nil
	a.state = stateOverview
	if form.index < 0 {
		if a.ctrl.FinishNew(form.draft, result) {
			a.applyChanges()
			a.selectListIndex(a.ctrl.List().Len() - 1)
			a.statusMsg = "Person added"
		}
		return
	}
	changed, err := a.ctrl.FinishEdit(form.index, form.draft, result)
	if err != nil {
		a.showAlert(app.NotificationFor(err), stateOverview)
		return
	}
	if changed {
		a.statusMsg = "Person updated"
	}
}

func (a *App) openPrompt(purpose promptPurpose, label, value string) {
	in := textinput.New()
	in.Prompt = label
	in.CharLimit = 4096
	in.Width = max(20, a.width-len(label)-8)
	in.SetValue(value)
	in.CursorEnd()
	in.Focus()
	switch purpose {
	case promptFilter:
		in.Placeholder = `city == "Bern" && birthMonth == 3`
	case promptSearch:
		in.Placeholder = "part of a name"
	}
	a.prompt = in
	a.promptPurpose = purpose
	a.state = statePrompt
}

func (a *App) updatePrompt(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.state = stateOverview
		return nil
	case "enter":
		value := strings.TrimSpace(a.prompt.Value())
		a.state = stateOverview
		switch a.promptPurpose {
		case promptOpen:
			if value == "" {
				return nil
			}
			return a.startOpen(value)
		case promptSaveAs:
			if value == "" {
				return nil
			}
			return a.startSave(value)
		case promptFilter:
			a.applyFilter(value)
		case promptSearch:
			a.applySearch(value)
		}
		return nil
	}
	var cmd tea.Cmd
	a.prompt, cmd = a.prompt.Update(msg)
	return cmd
}

func (a *App) startOpen(path string) tea.Cmd {
	a.busy = true
	a.statusMsg = fmt.Sprintf("Loading %s...", path)
	ctrl := a.ctrl
	return func() tea.Msg {
		return fileOpMsg{op: opOpen, path: path, err: ctrl.Open(path)}
	}
}

// startSave writes to path, or to the remembered file when path is empty.
func (a *App) startSave(path string) tea.Cmd {
	a.busy = true
	a.statusMsg = "Saving..."
	ctrl := a.ctrl
	return func() tea.Msg {
		if path == "" {
			current, _ := ctrl.FilePath()
			return fileOpMsg{op: opSave, path: current, err: ctrl.Save()}
		}
		return fileOpMsg{op: opSave, path: path, err: ctrl.SaveAs(path)}
	}
}

func (a *App) handleFileOp(msg fileOpMsg) tea.Cmd {
	a.busy = false
	if msg.err != nil {
		a.statusMsg = ""
		a.showAlert(app.NotificationFor(msg.err), stateOverview)
		return nil
	}
	switch msg.op {
	case opSave:
		a.statusMsg = fmt.Sprintf("Saved %d person(s) to %s", a.ctrl.List().Len(), msg.path)
	default:
		a.clearFilter()
		a.statusMsg = fmt.Sprintf("Loaded %d person(s) from %s", a.ctrl.List().Len(), msg.path)
	}
	return nil
}

func (a *App) showAlert(n app.Notification, returnTo appState) {
	a.alert = n
	a.returnTo = returnTo
	a.state = stateAlert
}

func (a *App) dismissAlert() tea.Cmd {
	a.alert = app.Notification{}
	a.state = a.returnTo
	return nil
}

func (a *App) applyFilter(expression string) {
	f, err := filter.Compile(expression)
	if err != nil {
		a.showAlert(app.Notification{
			Kind:    app.NotifyWarning,
			Title:   "Filter",
			Header:  "Invalid filter",
			Content: err.Error(),
		}, stateOverview)
		return
	}
	if f.String() == "" {
		a.clearFilter()
		return
	}
	a.filter = f
	a.rebuildRows()
	a.statusMsg = fmt.Sprintf("Filter: %s (%d of %d)", f.String(), len(a.rows), a.ctrl.List().Len())
}

func (a *App) applySearch(pattern string) {
	if pattern == "" {
		a.clearFilter()
		return
	}
	a.filter = filter.NewSearch(pattern)
	a.rebuildRows()
	if len(a.rows) > 0 {
		a.table.SetCursor(0)
	}
	a.statusMsg = fmt.Sprintf("Find: %s (%d of %d)", pattern, len(a.rows), a.ctrl.List().Len())
}

func (a *App) clearFilter() {
	if a.filter == nil {
		return
	}
	a.filter = nil
	a.rebuildRows()
}

func (a *App) currentPath() string {
	path, _ := a.ctrl.FilePath()
	return path
}
