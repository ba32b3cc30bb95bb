// Package board is a read-only terminal dashboard over the tracker store.
package board

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kyri56xcaesar/pms-tracker/internal/store"
	"kyri56xcaesar/pms-tracker/internal/utils"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const loadTimeout = 5 * time.Second

// Source is the slice of the store the board reads from.
type Source interface {
	ListProjects(ctx context.Context) ([]store.Project, error)
	ProjectStats(ctx context.Context) (store.ProjectStats, error)
}

type keyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7"))
	statStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#c0caf5"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e"))
	frameStyle = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3b4261"))
)

type loadedMsg struct {
	projects []store.Project
	stats    store.ProjectStats
}

type errMsg struct{ err error }

type Model struct {
	src    Source
	table  table.Model
	keys   keyMap
	stats  store.ProjectStats
	count  int
	err    error
	loaded bool
	now    func() time.Time
}

func New(src Source) *Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 5},
			{Title: "Project", Width: 24},
			{Title: "Techno", Width: 8},
			{Title: "Web", Width: 12},
			{Title: "AS400", Width: 12},
			{Title: "Tasks", Width: 6},
			{Title: "Created", Width: 14},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("#1a1b26")).Background(lipgloss.Color("#7aa2f7"))
	t.SetStyles(s)

	return &Model{src: src, table: t, keys: defaultKeys(), now: time.Now}
}

func (m *Model) Init() tea.Cmd {
	return m.load
}

func (m *Model) load() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	projects, err := m.src.ListProjects(ctx)
	if err != nil {
		return errMsg{fmt.Errorf("list projects: %w", err)}
	}
	stats, err := m.src.ProjectStats(ctx)
	if err != nil {
		return errMsg{fmt.Errorf("project stats: %w", err)}
	}
	return loadedMsg{projects: projects, stats: stats}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, m.load
		}

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-8, 3))
		return m, nil

	case loadedMsg:
		now := m.now()
		m.table.SetRows(utils.Map(msg.projects, func(p store.Project) table.Row {
			return projectRow(p, now)
		}))
		m.stats = msg.stats
		m.count = len(msg.projects)
		m.err = nil
		m.loaded = true
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func projectRow(p store.Project, now time.Time) table.Row {
	return table.Row{
		strconv.FormatInt(p.ID, 10),
		p.Name,
		p.Techno,
		string(p.Status),
		string(p.AS400Status),
		strconv.Itoa(p.TaskCount),
		utils.Ago(p.CreatedAt, now),
	}
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Projects"))
	b.WriteString("\n")
	b.WriteString(statStyle.Render(fmt.Sprintf(
		"projects %d  tasks %d  AS400 users %d  web collaborators %d",
		m.stats.TotalProjects, m.stats.TotalTasks, m.stats.TotalUsers, m.stats.TotalWeb,
	)))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	case !m.loaded:
		b.WriteString(dimStyle.Render("loading..."))
		b.WriteString("\n")
	case m.count == 0:
		b.WriteString(dimStyle.Render("no projects yet"))
		b.WriteString("\n")
	}

	b.WriteString(frameStyle.Render(m.table.View()))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.keys.Refresh.Help().Key + " " + m.keys.Refresh.Help().Desc +
		" • " + m.keys.Quit.Help().Key + " " + m.keys.Quit.Help().Desc))

	return b.String()
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, src Source) error {
	p := tea.NewProgram(New(src), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
