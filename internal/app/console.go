// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/relabs-tech/gyro2d/internal/render"
)

// ErrConsoleQuit is returned by Console.Run when the user quits.
var ErrConsoleQuit = errors.New("console: quit")

var (
	consoleTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	consoleLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	consoleValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	consoleWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	consoleHelpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	consoleBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// consoleFrameMsg carries the scene of one frame into the TUI.
type consoleFrameMsg struct {
	seq   uint64
	at    time.Time
	scene render.Scene
}

// Console is a terminal sink. Present never blocks: only the newest
// scene waits for the TUI to pick it up.
type Console struct {
	interval time.Duration
	opts     []tea.ProgramOption
	latest   chan consoleFrameMsg
	lastSent time.Time
}

// NewConsole refreshes the terminal at most once per interval.
func NewConsole(interval time.Duration, opts ...tea.ProgramOption) *Console {
	return &Console{
		interval: interval,
		opts:     opts,
		latest:   make(chan consoleFrameMsg, 1),
	}
}

// Run drives the TUI until ctx is done or the user quits.
func (c *Console) Run(ctx context.Context) error {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, c.opts...)
	p := tea.NewProgram(newConsoleModel(c.latest), opts...)
	m, err := p.Run()
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}
	if cm, ok := m.(consoleModel); ok && cm.quit {
		return ErrConsoleQuit
	}
	return nil
}

func (c *Console) Present(_ context.Context, f Frame) error {
	if !c.lastSent.IsZero() && f.At.Sub(c.lastSent) < c.interval {
		return nil
	}
	c.lastSent = f.At

	msg := consoleFrameMsg{seq: f.Seq, at: f.At, scene: f.Scene}
	// Single producer: replace a stale frame instead of waiting.
	select {
	case <-c.latest:
	default:
	}
	c.latest <- msg
	return nil
}

func (c *Console) Close() error {
	return nil
}

type consoleModel struct {
	frames <-chan consoleFrameMsg
	last   consoleFrameMsg
	have   bool
	quit   bool
}

func newConsoleModel(frames <-chan consoleFrameMsg) consoleModel {
	return consoleModel{frames: frames}
}

func waitForFrame(frames <-chan consoleFrameMsg) tea.Cmd {
	return func() tea.Msg {
		return <-frames
	}
}

func (m consoleModel) Init() tea.Cmd {
	return waitForFrame(m.frames)
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case consoleFrameMsg:
		m.last = msg
		m.have = true
		return m, waitForFrame(m.frames)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m consoleModel) View() string {
	var sb strings.Builder
	sb.WriteString(consoleTitleStyle.Render("gyro2d"))
	sb.WriteString("\n\n")

	if !m.have {
		sb.WriteString(consoleWarnStyle.Render("waiting for frames..."))
		sb.WriteString("\n\n")
		sb.WriteString(consoleHelpStyle.Render("q: quit"))
		return consoleBoxStyle.Render(sb.String())
	}

	s := m.last.scene
	row := func(label, value string) {
		sb.WriteString(consoleLabelStyle.Render(label))
		sb.WriteString(consoleValueStyle.Render(value))
		sb.WriteString("\n")
	}
	row("frame", fmt.Sprintf("%d  %s", m.last.seq, m.last.at.Format("15:04:05.000")))
	row("tilt", fmt.Sprintf("x=%+.3f  y=%+.3f", s.Orientation.RotationX, s.Orientation.RotationY))
	row("yaw", fmt.Sprintf("%+.3f rad  %+7.1f°", s.Orientation.RotationZ, s.Orientation.YawDegrees()))
	row("accel", fmt.Sprintf("x=%+6.2f  y=%+6.2f", s.Accel.X, s.Accel.Y))
	row("mag", fmt.Sprintf("x=%+6.1f  y=%+6.1f", s.Mag.X, s.Mag.Y))
	if s.Touch.Active {
		row("touch", fmt.Sprintf("(%.0f,%.0f) (%.0f,%.0f)",
			s.Touch.First.X, s.Touch.First.Y, s.Touch.Second.X, s.Touch.Second.Y))
	} else {
		row("touch", "-")
	}
	if s.Status != "" {
		sb.WriteString("\n")
		sb.WriteString(consoleWarnStyle.Render(s.Status))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(consoleHelpStyle.Render("q: quit"))
	return consoleBoxStyle.Render(sb.String())
}
