package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/RichieZhu26/incubator-tvm/internal/ir"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type inspectorState int

const (
	stateSelectExample inspectorState = iota
	stateShowDiff
)

// inspectorModel pages through the built-in catalog; the diff view is backed
// by a bubbles viewport so an IR dump too tall for the terminal scrolls
// instead of clipping.
type inspectorModel struct {
	selected int
	state    inspectorState

	width, height int
	vp            viewport.Model
	vpReady       bool

	err error
}

func newInspectorModel() *inspectorModel {
	return &inspectorModel{state: stateSelectExample}
}

func (m *inspectorModel) Init() tea.Cmd { return nil }

func (m *inspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		vpHeight := msg.Height - 4
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.vpReady {
			m.vp = viewport.New(msg.Width, vpHeight)
			m.vpReady = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = vpHeight
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectExample && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectExample && m.selected < len(catalog)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectExample:
				m.runSelected()
				m.state = stateShowDiff
			case stateShowDiff:
				m.state = stateSelectExample
				m.err = nil
			}

		case "esc":
			if m.state == stateShowDiff {
				m.state = stateSelectExample
				m.err = nil
			}
		}
	}

	if m.state == stateShowDiff && m.vpReady {
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *inspectorModel) runSelected() {
	ex := catalog[m.selected]
	before := ex.build()
	beforeText := ir.Print(before)

	after, err := runPass(ex, before)
	if err != nil {
		m.err = err
		if m.vpReady {
			m.vp.SetContent(errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		}
		return
	}
	afterText := ir.Print(after)

	content := headingStyle.Render("before") + "\n" + beforeText + "\n" +
		headingStyle.Render("after") + "\n" + afterText
	if m.vpReady {
		m.vp.SetContent(content)
		m.vp.GotoTop()
	}
}

func (m *inspectorModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("IR Pass Inspector"))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectExample:
		b.WriteString("Select a built-in example:\n\n")
		for i, ex := range catalog {
			line := fmt.Sprintf("%s(%s) %s", nameStyle.Render(ex.name), passStyle.Render(ex.pass), ex.desc)
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + line))
			} else {
				b.WriteString(cursor + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter run • q quit"))

	case stateShowDiff:
		ex := catalog[m.selected]
		b.WriteString(fmt.Sprintf("%s [%s]\n\n", nameStyle.Render(ex.name), passStyle.Render(ex.pass)))
		if m.vpReady {
			b.WriteString(m.vp.View())
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓/pgup/pgdn scroll • enter/esc back • q quit"))
	}

	return b.String()
}

func runInteractive() error {
	p := tea.NewProgram(newInspectorModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
