package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/notes"
	"github.com/desertthunder/jot/internal/reorder"
	"github.com/desertthunder/jot/internal/session"
	"github.com/desertthunder/jot/internal/shared"
	"github.com/desertthunder/jot/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CheckingView ViewState = iota
	LoginView
	NotesView
	AddView
	EditView
	ConfirmView
)

const (
	msgCredentialsRequired = "Username and password are required"
	msgFieldsRequired      = "Title and content are required"
	msgLoadFailed          = "Failed to load notes"
	msgSaveFailed          = "Failed to save note"
	msgDeleteFailed        = "Failed to delete note"
	msgReorderFailed       = "Failed to save the new order"
	msgClearFilter         = "Clear the filter to reorder notes"
)

// Opts holds the services a [Model] drives. Monitor and Reorder are optional.
type Opts struct {
	Session *session.Service
	Notes   *notes.Service
	Reorder *reorder.Controller
	Monitor *tasks.StatusMonitor
	Logger  *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	view    ViewState
	session *session.Service
	notes   *notes.Service
	reorder *reorder.Controller
	monitor *tasks.StatusMonitor
	editing *notes.EditTarget
	logger  *log.Logger

	width    int
	height   int
	list     list.Model
	username textinput.Model
	password textinput.Model
	title    textinput.Model
	content  textarea.Model
	focus    int
	deleting *models.Note

	statusChan chan tasks.StatusUpdate
	status     *tasks.StatusUpdate
	message    string
	busy       bool
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model with the provided services.
//
// The model's context is canceled when the user quits.
func NewModel(ctx context.Context, opts Opts) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	ctx, cancel := context.WithCancel(ctx)

	username := textinput.New()
	username.Placeholder = "Username"
	username.Prompt = "Username: "

	password := textinput.New()
	password.Placeholder = "Password"
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 200

	content := textarea.New()
	content.Placeholder = "Content"
	content.ShowLineNumbers = false

	notesList := list.New(nil, list.NewDefaultDelegate(), 76, 16)
	notesList.Title = "Notes"
	notesList.SetShowHelp(false)
	notesList.KeyMap.Quit.SetEnabled(false)

	return &Model{
		ctx:      ctx,
		cancel:   cancel,
		view:     CheckingView,
		session:  opts.Session,
		notes:    opts.Notes,
		reorder:  opts.Reorder,
		monitor:  opts.Monitor,
		editing:  &notes.EditTarget{},
		logger:   opts.Logger,
		list:     notesList,
		username: username,
		password: password,
		title:    title,
		content:  content,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// ViewState returns the active view.
func (m *Model) ViewState() ViewState { return m.view }

// Message returns the message currently shown to the user, if any.
func (m *Model) Message() string { return m.message }

// Init restores the session and starts polling the backend status.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.checkSession()}
	if m.monitor != nil {
		m.statusChan = make(chan tasks.StatusUpdate, 1)
		go m.monitor.Run(m.ctx, m.statusChan)
		cmds = append(cmds, m.waitForStatus())
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		m.title.Width = msg.Width - 8
		m.content.SetWidth(msg.Width - 4)
		m.content.SetHeight(max(msg.Height-12, 3))
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, m.quit()
		}
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case NotesView:
			return m.handleNotesKeys(msg)
		case AddView, EditView:
			return m.handleFormKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case CheckingView:
			if key.Matches(msg, m.keys.quit) {
				return m, m.quit()
			}
		}
		return m, nil

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateComponents(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSessionChecked:
		if user, _ := msg.data.(*models.User); user == nil {
			return m, m.toLogin()
		}
		return m, m.toNotes()

	case MsgLoggedIn:
		m.busy = false
		data := msg.data.(struct {
			ok     bool
			errMsg string
		})
		if !data.ok {
			m.message = data.errMsg
			return m, nil
		}
		m.password.Reset()
		return m, m.toNotes()

	case MsgNotesLoaded:
		m.busy = false
		if ok := msg.data.(bool); !ok {
			m.message = msgLoadFailed
		}
		m.syncList(0)
		return m, nil

	case MsgNoteSaved:
		m.busy = false
		note, _ := msg.data.(*models.Note)
		if note == nil {
			m.message = msgSaveFailed
			return m, nil
		}
		m.editing.End()
		m.view = NotesView
		m.message = ""
		m.syncList(note.ID)
		return m, nil

	case MsgNoteDeleted:
		m.busy = false
		m.deleting = nil
		m.view = NotesView
		if ok := msg.data.(bool); !ok {
			m.message = msgDeleteFailed
		}
		m.syncList(0)
		return m, nil

	case MsgReordered:
		m.busy = false
		data := msg.data.(struct {
			order    []models.Note
			selected int
			ok       bool
		})
		if !data.ok {
			m.message = msgReorderFailed
			m.syncList(0)
			return m, nil
		}
		m.list.SetItems(noteItems(data.order))
		m.list.Select(data.selected)
		return m, nil

	case MsgStatusUpdate:
		update := msg.data.(tasks.StatusUpdate)
		m.status = &update
		return m, m.waitForStatus()
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case CheckingView:
		body = styles.help.Render("Checking session...")
	case LoginView:
		body = m.renderLogin()
	case NotesView:
		body = m.renderNotes()
	case AddView, EditView:
		body = m.renderForm()
	case ConfirmView:
		body = m.renderConfirm()
	}

	var footer string
	if m.busy {
		footer = "\n" + styles.warn.Render("Working...")
	}
	if m.message != "" {
		footer += "\n" + styles.err.Render(m.message)
	}
	return fmt.Sprintf("%s\n%s%s", m.renderHeader(), body, footer)
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.next):
		return m, m.focusLogin(1 - m.focus)
	case key.Matches(msg, m.keys.submit):
		if m.focus == 0 {
			return m, m.focusLogin(1)
		}
		return m, m.login()
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleNotesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.SettingFilter() {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.add):
		return m, m.openForm(nil)
	case key.Matches(msg, m.keys.edit):
		if note, ok := m.selected(); ok {
			return m, m.openForm(&note)
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if note, ok := m.selected(); ok {
			m.deleting = &note
			m.view = ConfirmView
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		return m, m.move(-1)
	case key.Matches(msg, m.keys.moveDown):
		return m, m.move(1)
	case key.Matches(msg, m.keys.refresh):
		return m, m.load()
	case key.Matches(msg, m.keys.logout):
		m.flushReorder()
		m.session.Logout()
		m.list.SetItems(nil)
		return m, m.toLogin()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.editing.End()
		m.view = NotesView
		m.message = ""
		return m, nil
	case key.Matches(msg, m.keys.next):
		return m, m.focusForm(1 - m.focus)
	case key.Matches(msg, m.keys.save):
		return m, m.save()
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.content, cmd = m.content.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		return m, m.remove()
	case key.Matches(msg, m.keys.no):
		m.deleting = nil
		m.view = NotesView
	}
	return m, nil
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LoginView:
		if m.focus == 0 {
			m.username, cmd = m.username.Update(msg)
		} else {
			m.password, cmd = m.password.Update(msg)
		}
	case NotesView:
		m.list, cmd = m.list.Update(msg)
	case AddView, EditView:
		if m.focus == 0 {
			m.title, cmd = m.title.Update(msg)
		} else {
			m.content, cmd = m.content.Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) quit() tea.Cmd {
	m.flushReorder()
	m.cancel()
	return tea.Quit
}

func (m *Model) flushReorder() {
	if m.reorder != nil {
		m.reorder.Flush()
	}
}

func (m *Model) toLogin() tea.Cmd {
	m.view = LoginView
	m.busy = false
	return m.focusLogin(0)
}

func (m *Model) toNotes() tea.Cmd {
	m.view = NotesView
	m.message = ""
	m.syncList(0)
	return nil
}

func (m *Model) focusLogin(i int) tea.Cmd {
	m.focus = i
	if i == 0 {
		m.password.Blur()
		return m.username.Focus()
	}
	m.username.Blur()
	return m.password.Focus()
}

func (m *Model) focusForm(i int) tea.Cmd {
	m.focus = i
	if i == 0 {
		m.content.Blur()
		return m.title.Focus()
	}
	m.title.Blur()
	return m.content.Focus()
}

// syncList shows the held collection, keeping the selection on keep when it is non-zero
// and on the current note otherwise.
func (m *Model) syncList(keep int64) {
	if keep == 0 {
		if note, ok := m.selected(); ok {
			keep = note.ID
		}
	}

	held := m.notes.Notes()
	m.list.SetItems(noteItems(held))
	for i, n := range held {
		if n.ID == keep {
			m.list.Select(i)
			return
		}
	}
}

func (m *Model) selected() (models.Note, bool) {
	item, ok := m.list.SelectedItem().(noteItem)
	if !ok {
		return models.Note{}, false
	}
	return item.note, true
}

func (m *Model) openForm(note *models.Note) tea.Cmd {
	m.message = ""
	m.title.Reset()
	m.content.Reset()
	if note == nil {
		m.editing.End()
		m.view = AddView
	} else {
		m.editing.Begin(note.ID)
		m.title.SetValue(note.Title)
		m.content.SetValue(note.Content)
		m.view = EditView
	}
	return m.focusForm(0)
}

func (m *Model) login() tea.Cmd {
	username := strings.TrimSpace(m.username.Value())
	password := m.password.Value()
	if username == "" || password == "" {
		m.message = msgCredentialsRequired
		return nil
	}
	if m.busy {
		return nil
	}

	m.busy = true
	m.message = ""
	return func() tea.Msg {
		ok := m.session.Login(m.ctx, username, password)
		return loggedInMsg(ok, m.session.Error())
	}
}

func (m *Model) load() tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	m.message = ""
	return func() tea.Msg {
		m.flushReorder()
		return notesLoadedMsg(m.notes.Load(m.ctx))
	}
}

func (m *Model) save() tea.Cmd {
	title, content := m.title.Value(), m.content.Value()
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		m.message = msgFieldsRequired
		return nil
	}
	if m.busy {
		return nil
	}

	m.busy = true
	id, editing := m.editing.Current()
	return func() tea.Msg {
		m.flushReorder()
		if editing {
			return noteSavedMsg(m.notes.Update(m.ctx, id, title, content))
		}
		return noteSavedMsg(m.notes.Add(m.ctx, title, content))
	}
}

func (m *Model) remove() tea.Cmd {
	if m.deleting == nil || m.busy {
		return nil
	}
	m.busy = true
	id := m.deleting.ID
	return func() tea.Msg {
		m.flushReorder()
		return noteDeletedMsg(m.notes.Delete(m.ctx, id))
	}
}

// move shifts the selected note by delta places, the keyboard equivalent of a drag.
func (m *Model) move(delta int) tea.Cmd {
	if m.reorder == nil || m.busy {
		return nil
	}
	if m.list.FilterState() != list.Unfiltered {
		m.message = msgClearFilter
		return nil
	}

	from := m.list.Index()
	to := from + delta
	if to < 0 || to >= len(m.list.Items()) {
		return nil
	}

	m.busy = true
	m.message = ""
	return func() tea.Msg {
		order, ok := m.reorder.Drag(m.ctx, from, to)
		return reorderedMsg(order, to, ok)
	}
}

func (m *Model) checkSession() tea.Cmd {
	return func() tea.Msg {
		m.session.Init(m.ctx)
		return sessionCheckedMsg(m.session.User())
	}
}

func (m *Model) waitForStatus() tea.Cmd {
	return func() tea.Msg {
		if m.statusChan == nil {
			return nil
		}
		select {
		case update := <-m.statusChan:
			return statusUpdateMsg(update)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) renderHeader() string {
	status := styles.help.Render("○ Checking status")
	if m.status != nil {
		if m.status.Online {
			status = styles.ok.Render("● " + m.status.Label())
		} else {
			status = styles.err.Render("● " + m.status.Label())
		}
	}

	header := styles.label.Render("jot") + "  " + status
	if user := m.session.User(); user != nil {
		header += "  " + styles.help.Render(user.DisplayName())
	}
	return styles.header.Render(header)
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("Sign in")
	helpKeys := []key.Binding{m.keys.next, m.keys.submit}
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, m.username.View(), m.password.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderNotes() string {
	if len(m.list.Items()) == 0 {
		empty := styles.help.Render("No notes yet. Press a to add one.")
		helpKeys := []key.Binding{m.keys.add, m.keys.refresh, m.keys.logout, m.keys.quit}
		return fmt.Sprintf("%s\n\n%s", empty, m.help.ShortHelpView(helpKeys))
	}

	helpKeys := []key.Binding{m.keys.add, m.keys.edit, m.keys.remove, m.keys.moveUp, m.keys.moveDown, m.keys.logout, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.list.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderForm() string {
	heading := "New note"
	if m.view == EditView {
		heading = "Edit note"
	}
	helpKeys := []key.Binding{m.keys.next, m.keys.save, m.keys.back}
	return fmt.Sprintf(
		"%s\n%s\n\n%s\n\n%s",
		styles.title.Render(heading),
		m.title.View(),
		m.content.View(),
		m.help.ShortHelpView(helpKeys),
	)
}

func (m *Model) renderConfirm() string {
	if m.deleting == nil {
		return ""
	}
	title := styles.title.Render(fmt.Sprintf("Delete '%s'?", m.deleting.Title))
	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s", title, m.help.ShortHelpView(helpKeys))
}
