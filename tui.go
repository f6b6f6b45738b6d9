package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"miccap/recorder"
)

type StateMsg recorder.State

type LevelMsg float64

type ErrorMsg struct{ Err error }

type ArtifactMsg struct {
	Name     string
	Size     int
	Duration int
}

type tickMsg time.Time

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	recordingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	pausedStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	idleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	meterStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type tuiModel struct {
	sess       *recorder.Session
	deviceLine string
	capsLine   string

	state    recorder.State
	duration int
	level    float64
	status   string
}

func newTUIModel(sess *recorder.Session, deviceLine, capsLine string) tuiModel {
	return tuiModel{
		sess:       sess,
		deviceLine: deviceLine,
		capsLine:   capsLine,
		state:      recorder.StateIdle,
	}
}

func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.sess.Close()
			return m, tea.Quit
		case " ":
			switch m.state {
			case recorder.StateRecording, recorder.StatePaused:
				sess := m.sess
				return m, func() tea.Msg {
					if _, err := sess.Stop(); err != nil {
						return ErrorMsg{err}
					}
					return nil
				}
			default:
				sess := m.sess
				return m, func() tea.Msg {
					if err := sess.Start(); err != nil {
						return ErrorMsg{err}
					}
					return nil
				}
			}
		case "p":
			switch m.state {
			case recorder.StateRecording:
				m.sess.Pause()
			case recorder.StatePaused:
				m.sess.Resume()
			}
		case "c":
			m.sess.Cancel()
			m.status = "canceled"
			m.level = 0
		}

	case tickMsg:
		m.duration = m.sess.Duration()
		if m.state != recorder.StateRecording {
			m.level = 0
		}
		return m, tick()

	case StateMsg:
		m.state = recorder.State(msg)

	case LevelMsg:
		m.level = float64(msg)

	case ErrorMsg:
		m.status = errorStyle.Render("error: " + msg.Err.Error())

	case ArtifactMsg:
		m.status = fmt.Sprintf("saved %s (%d bytes, %ds)", msg.Name, msg.Size, msg.Duration)
	}
	return m, nil
}

func (m tuiModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("miccap") + "\n\n")

	switch m.state {
	case recorder.StateRecording:
		b.WriteString(recordingStyle.Render("● recording"))
	case recorder.StatePaused:
		b.WriteString(pausedStyle.Render("‖ paused"))
	case recorder.StateStopped:
		b.WriteString(idleStyle.Render("■ stopped"))
	default:
		b.WriteString(idleStyle.Render("○ idle"))
	}
	b.WriteString(fmt.Sprintf("  %02d:%02d\n", m.duration/60, m.duration%60))

	bars := int(m.level * 60)
	if bars > 30 {
		bars = 30
	}
	b.WriteString(meterStyle.Render(strings.Repeat("█", bars)) +
		idleStyle.Render(strings.Repeat("░", 30-bars)) + "\n\n")

	b.WriteString(m.deviceLine + "\n")
	b.WriteString(m.capsLine + "\n")
	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("space: start/stop  p: pause/resume  c: cancel  q: quit") + "\n")
	return b.String()
}
