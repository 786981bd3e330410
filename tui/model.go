// Package tui is a small terminal browser for a user's memories, searching
// through a running recall server as you type queries.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"recall/client"
	"recall/domain"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type item struct {
	mem   domain.Memory
	score float64
}

func (i item) Title() string {
	return i.mem.Content
}

func (i item) Description() string {
	desc := fmt.Sprintf("%s  %s", i.mem.ID[:8], i.mem.UpdatedAt.Format(time.RFC3339))
	if i.score > 0 {
		desc = fmt.Sprintf("%s  score %.2f", desc, i.score)
	}
	return desc
}

func (i item) FilterValue() string {
	return i.mem.Content
}

type memoriesMsg []list.Item

type errMsg struct {
	err error
}

type Model struct {
	client *client.Client
	user   string

	input textinput.Model
	list  list.Model
	err   error
}

func New(c *client.Client, user string) Model {
	input := textinput.New()
	input.Placeholder = "search, enter to run, empty for everything"
	input.Focus()

	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "memories for " + user
	l.SetFilteringEnabled(false)

	return Model{
		client: c,
		user:   user,
		input:  input,
		list:   l,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.load(""))
}

func (m Model) load(query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if strings.TrimSpace(query) == "" {
			memories, err := m.client.GetAll(ctx, m.user)
			if err != nil {
				return errMsg{err}
			}

			items := make([]list.Item, len(memories))
			for i, mem := range memories {
				items[i] = item{mem: *mem}
			}
			return memoriesMsg(items)
		}

		results, err := m.client.Search(ctx, m.user, query, 0)
		if err != nil {
			return errMsg{err}
		}

		items := make([]list.Item, len(results))
		for i, result := range results {
			items[i] = item{mem: result.Memory, score: result.Score}
		}
		return memoriesMsg(items)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.load(m.input.Value())
		}

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, max(msg.Height-3, 1))

	case memoriesMsg:
		m.err = nil
		return m, m.list.SetItems(msg)

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	cmds := make([]tea.Cmd, 0, 2)
	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	sb := strings.Builder{}

	sb.WriteString(m.input.View())
	sb.WriteString("\n")

	if m.err != nil {
		sb.WriteString("error: " + m.err.Error())
		sb.WriteString("\n")
	}

	sb.WriteString(m.list.View())

	return sb.String()
}
