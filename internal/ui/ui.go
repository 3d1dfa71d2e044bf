package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/nissyi-gh/taskmgr/internal/model"
	"github.com/nissyi-gh/taskmgr/internal/notify"
	"github.com/nissyi-gh/taskmgr/internal/prompt"
	"github.com/nissyi-gh/taskmgr/internal/taskstore"
	"github.com/nissyi-gh/taskmgr/internal/view"
)

type appState int

const (
	stateList appState = iota
	stateForm
	stateSearch
	stateConfirmDelete
	stateConfirmClear
)

var (
	appStyle     = lipgloss.NewStyle().Padding(1, 2)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	confirmStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	tabStyle     = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeTab    = tabStyle.Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Bold(true)
	statStyle    = lipgloss.NewStyle().Bold(true)
	detailStyle  = lipgloss.NewStyle().
			Padding(1, 2).
			BorderLeft(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("241"))
	descBoxStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241"))
	toastStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("231"))
)

type extraKeyMap struct {
	Add    key.Binding
	Edit   key.Binding
	Toggle key.Binding
	Delete key.Binding
	Clear  key.Binding
	Search key.Binding
	Filter key.Binding
	Copy   key.Binding
	Prompt key.Binding
}

func newExtraKeyMap() extraKeyMap {
	return extraKeyMap{
		Add: key.NewBinding(
			key.WithKeys("a", "n"),
			key.WithHelp("a/n", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", "x"),
			key.WithHelp("enter/x", "toggle"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Clear: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear completed"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Filter: key.NewBinding(
			key.WithKeys("tab", "1", "2", "3"),
			key.WithHelp("tab/1-3", "filter"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy title"),
		),
		Prompt: key.NewBinding(
			key.WithKeys("p", "P"),
			key.WithHelp("p/P", "copy prompt"),
		),
	}
}

func (k extraKeyMap) short() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Toggle, k.Delete, k.Search, k.Filter}
}

func (k extraKeyMap) full() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Toggle, k.Delete, k.Clear, k.Search, k.Filter, k.Copy, k.Prompt}
}

// Options configures the TUI.
type Options struct {
	Filter          view.Filter
	DefaultPriority model.Priority
	// Clipboard writes text to the system clipboard. Defaults to clipboard.WriteAll.
	Clipboard func(string) error
	// Now defaults to time.Now.
	Now func() time.Time
}

// Model is the top-level BubbleTea model for the taskmgr TUI.
type Model struct {
	state    appState
	store    *taskstore.Store
	center   *notify.Center
	list     list.Model
	search   textinput.Model
	form     taskForm
	progress progress.Model
	keys     extraKeyMap
	filter   view.Filter
	term     string
	shown    int
	opts     Options
	err      error
	width    int
	height   int
}

type expireMsg uint64

// NewModel creates a new TUI model. The store should send its
// notifications to center.
func NewModel(s *taskstore.Store, center *notify.Center, opts Options) Model {
	if opts.Filter == "" {
		opts.Filter = view.FilterAll
	}
	if opts.DefaultPriority == "" {
		opts.DefaultPriority = model.PriorityMedium
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	keys := newExtraKeyMap()

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)
	l := list.New(nil, delegate, 0, 0)
	l.Title = "Task Manager"
	l.Styles.Title = titleStyle
	l.SetShowHelp(true)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("task", "tasks")
	l.AdditionalShortHelpKeys = keys.short
	l.AdditionalFullHelpKeys = keys.full

	search := textinput.New()
	search.Placeholder = "Search tasks..."
	search.Prompt = "/ "
	search.CharLimit = 128

	m := Model{
		state:    stateList,
		store:    s,
		center:   center,
		list:     l,
		search:   search,
		form:     newTaskForm(opts.DefaultPriority),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		keys:     keys,
		filter:   opts.Filter,
		opts:     opts,
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

// refresh reprojects the store into the list.
func (m *Model) refresh() {
	now := m.opts.Now()
	tasks := view.FilterAndSearch(m.store.Tasks(), m.filter, m.term)
	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		items[i] = TaskItem{Task: t, Now: now}
	}
	m.list.SetItems(items)
	m.shown = len(tasks)
}

// afterMutation records err, reprojects, and schedules expiry of any new
// notification.
func (m Model) afterMutation(err error) (Model, tea.Cmd) {
	m.err = err
	m.refresh()
	n, ok := m.center.Current()
	if !ok {
		return m, nil
	}
	seq := n.Seq
	return m, tea.Tick(m.center.TTL(), func(time.Time) tea.Msg {
		return expireMsg(seq)
	})
}

func (m Model) selected() (TaskItem, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	return item, ok
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.layout()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h, _ := appStyle.GetFrameSize()
		m.form.setWidth(msg.Width - h - 4)
		m.search.Width = m.leftWidth() - 4
		return m, nil

	case expireMsg:
		m.center.Expire(uint64(msg))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	switch m.state {
	case stateList:
		return m.updateList(msg)
	case stateForm:
		return m.updateForm(msg)
	case stateSearch:
		return m.updateSearch(msg)
	case stateConfirmDelete:
		return m.updateConfirmDelete(msg)
	case stateConfirmClear:
		return m.updateConfirmClear(msg)
	}

	return m, nil
}

func (m Model) updateList(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "a", "n":
			m.state = stateForm
			m.err = nil
			m.form = newTaskForm(m.opts.DefaultPriority)
			m.form.setWidth(m.width - 8)
			return m, m.form.focusOn(focusTitle, false)
		case "e":
			if item, ok := m.selected(); ok {
				m.state = stateForm
				m.err = nil
				m.form = newTaskForm(m.opts.DefaultPriority)
				m.form.fill(item.Task)
				m.form.setWidth(m.width - 8)
				return m, m.form.focusOn(focusTitle, false)
			}
		case "enter", "x":
			if item, ok := m.selected(); ok {
				_, err := m.store.Toggle(item.Task.ID)
				return m.afterMutation(err)
			}
		case "d":
			if _, ok := m.selected(); ok {
				m.state = stateConfirmDelete
				return m, nil
			}
		case "C":
			if view.Stats(m.store.Tasks()).Completed > 0 {
				m.state = stateConfirmClear
				return m, nil
			}
		case "/":
			m.state = stateSearch
			m.search.SetValue(m.term)
			m.search.CursorEnd()
			return m, m.search.Focus()
		case "tab":
			m.filter = m.filter.Next()
			m.refresh()
			return m, nil
		case "1", "2", "3":
			m.filter = view.Filters()[keyMsg.String()[0]-'1']
			m.refresh()
			return m, nil
		case "y":
			if item, ok := m.selected(); ok {
				m.err = m.opts.Clipboard(item.Task.Title)
				if m.err == nil {
					m.center.Notify("Title copied to clipboard", notify.Success)
				}
				return m.afterMutation(m.err)
			}
		case "p":
			if item, ok := m.selected(); ok {
				m.err = m.opts.Clipboard(prompt.GenerateFromTask(item.Task, m.store.Tasks()))
				if m.err == nil {
					m.center.Notify("Breakdown prompt copied to clipboard", notify.Success)
				}
				return m.afterMutation(m.err)
			}
		case "P":
			m.err = m.opts.Clipboard(prompt.GenerateNew())
			if m.err == nil {
				m.center.Notify("Planning prompt copied to clipboard", notify.Success)
			}
			return m.afterMutation(m.err)
		case "esc":
			if m.term != "" {
				m.term = ""
				m.refresh()
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.state = stateList
			m.err = nil
			return m, nil
		case "tab", "down":
			if keyMsg.String() == "tab" || m.form.focus != focusDesc {
				return m, m.form.move(1)
			}
		case "shift+tab", "up":
			if keyMsg.String() == "shift+tab" || m.form.focus != focusDesc {
				return m, m.form.move(-1)
			}
		case "ctrl+s":
			return m.submitForm()
		case "enter":
			if m.form.focus != focusDesc {
				return m.submitForm()
			}
		}
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m Model) submitForm() (Model, tea.Cmd) {
	d, err := m.form.draft(m.opts.Now())
	if err != nil {
		m.err = err
		return m, nil
	}

	m.state = stateList
	if m.form.editID == "" {
		_, err = m.store.Create(d)
	} else {
		_, err = m.store.Update(m.form.editID, patch(d))
	}
	return m.afterMutation(err)
}

func (m Model) updateSearch(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			m.state = stateList
			m.search.Blur()
			return m, nil
		case "esc":
			m.state = stateList
			m.search.Blur()
			m.term = ""
			m.refresh()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.term {
		m.term = m.search.Value()
		m.refresh()
	}
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "y":
			m.state = stateList
			if item, ok := m.selected(); ok {
				_, err := m.store.Delete(item.Task.ID)
				return m.afterMutation(err)
			}
			return m, nil
		case "n", "esc":
			m.state = stateList
			return m, nil
		}
	}
	return m, nil
}

func (m Model) updateConfirmClear(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "y":
			m.state = stateList
			_, err := m.store.ClearCompleted()
			return m.afterMutation(err)
		case "n", "esc":
			m.state = stateList
			return m, nil
		}
	}
	return m, nil
}

func (m Model) leftWidth() int {
	h, _ := appStyle.GetFrameSize()
	return (m.width - h) * 60 / 100
}

// bodyHeight is what remains for the list and detail panes once the
// header, toast and error line are drawn.
func (m Model) bodyHeight() int {
	_, v := appStyle.GetFrameSize()
	used := v + lipgloss.Height(m.renderHeader())
	if toast := m.renderToast(); toast != "" {
		used += lipgloss.Height(toast)
	}
	if errLine := m.renderError(); errLine != "" {
		used += lipgloss.Height(errLine)
	}
	return max(m.height-used, 0)
}

// layout fits the list to the space left by the current header and toast.
func (m *Model) layout() {
	if m.width == 0 && m.height == 0 {
		return
	}
	m.list.SetSize(m.leftWidth(), m.bodyHeight())
}

func (m Model) renderHeader() string {
	stats := view.Stats(m.store.Tasks())
	counts := fmt.Sprintf("%s %s   %s %s   %s %s   %s %s",
		statusStyle.Render("Total"), statStyle.Render(fmt.Sprint(stats.Total)),
		statusStyle.Render("Completed"), statStyle.Foreground(lipgloss.Color("42")).Render(fmt.Sprint(stats.Completed)),
		statusStyle.Render("Pending"), statStyle.Foreground(lipgloss.Color("208")).Render(fmt.Sprint(stats.Pending)),
		statusStyle.Render("Progress"), statStyle.Foreground(lipgloss.Color("141")).Render(fmt.Sprintf("%d%%", stats.CompletionPercentage)),
	)
	bar := ""
	if stats.Total > 0 {
		bar = "\n" + m.progress.ViewAs(float64(stats.CompletionPercentage)/100)
	}

	var tabs []string
	for _, f := range view.Filters() {
		style := tabStyle
		if f == m.filter {
			style = activeTab
		}
		tabs = append(tabs, style.Render(string(f)))
	}
	filterLine := strings.Join(tabs, " ")
	if m.state == stateSearch {
		filterLine += "  " + m.search.View()
	} else if m.term != "" {
		filterLine += "  " + statusStyle.Render("search: "+m.term)
	}

	return counts + bar + "\n\n" + filterLine + "\n"
}

func (m Model) renderToast() string {
	n, ok := m.center.Current()
	if !ok {
		return ""
	}
	bg := lipgloss.Color("34")
	if n.Severity == notify.Warning {
		bg = lipgloss.Color("208")
	}
	return toastStyle.Background(bg).Render(notify.Icon(n.Severity) + " " + n.Message)
}

func (m Model) renderError() string {
	if m.err == nil {
		return ""
	}
	return errorStyle.Render("Error: " + m.err.Error())
}

func (m Model) renderDetail(width int) string {
	item, ok := m.selected()
	if !ok {
		return ""
	}
	t := item.Task

	descContent := statusStyle.Render("(no description)")
	if t.Description != "" {
		descContent = t.Description
		if w := width - 8; w > 10 {
			descContent = wordwrap.String(t.Description, w)
		}
	}
	desc := descBoxStyle.Render(descContent)

	status := "pending"
	if t.Completed {
		status = "completed"
	}

	dueLine := ""
	if due := t.Due(); due != "" {
		label := "due_date:   " + due
		if t.IsOverdueAt(item.Now) {
			label = errorStyle.Render("⚠️ " + label)
		} else if t.IsDueOn(item.Now) {
			label = "📅 " + label
		}
		dueLine = "\n" + label
	}

	return fmt.Sprintf("%s\n\n%s\n\nstatus:     %s\npriority:   %s%s\ncreated_at: %s\n\n%s",
		t.Title,
		desc,
		status,
		priorityBadge(t.Priority),
		dueLine,
		t.CreatedAt.Local().Format("2006-01-02 15:04"),
		statusStyle.Render("e: edit  y: copy title  p: copy prompt"),
	)
}

func (m Model) View() string {
	var errView string
	if errLine := m.renderError(); errLine != "" {
		errView = "\n" + errLine + "\n"
	}
	toast := m.renderToast()
	if toast != "" {
		toast += "\n"
	}

	switch m.state {
	case stateForm:
		header := "New Task"
		if m.form.editID != "" {
			header = "Edit Task"
		}
		return appStyle.Render(
			toast +
				titleStyle.Render(header) + "\n\n" +
				m.form.view() + "\n\n" +
				statusStyle.Render("tab: next field • enter/ctrl+s: save • esc: cancel") +
				errView,
		)
	case stateConfirmDelete:
		item, _ := m.selected()
		return appStyle.Render(
			confirmStyle.Render("Delete Task?") + "\n\n" +
				"  " + item.Task.Title + "\n\n" +
				statusStyle.Render("y: delete • n/esc: cancel") +
				errView,
		)
	case stateConfirmClear:
		n := view.Stats(m.store.Tasks()).Completed
		return appStyle.Render(
			confirmStyle.Render("Clear Completed Tasks?") + "\n\n" +
				fmt.Sprintf("  %d completed task(s) will be removed", n) + "\n\n" +
				statusStyle.Render("y: clear • n/esc: cancel") +
				errView,
		)
	default:
		h, _ := appStyle.GetFrameSize()
		body := m.bodyHeight()
		leftWidth := m.leftWidth()
		rightWidth := m.width - h - leftWidth

		leftPane := m.list.View()
		if m.shown == 0 && m.store.Len() > 0 {
			leftPane = lipgloss.NewStyle().Width(leftWidth).Render(
				"\n" + titleStyle.Render("No tasks found") + "\n" +
					statusStyle.Render("Try adjusting your search or filter criteria"),
			)
		}
		leftPane = lipgloss.NewStyle().MaxHeight(body).Render(leftPane)
		rightPane := detailStyle.
			Width(max(rightWidth, 0)).
			Height(body).
			MaxHeight(body).
			Render(m.renderDetail(rightWidth))
		content := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

		parts := []string{}
		if t := m.renderToast(); t != "" {
			parts = append(parts, t)
		}
		parts = append(parts, m.renderHeader(), content)
		if errLine := m.renderError(); errLine != "" {
			parts = append(parts, errLine)
		}
		return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	}
}
