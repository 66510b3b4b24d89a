// Package tui provides the terminal user interface for cadre runs.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cadrehq/cadre/internal/orchestrator"
)

// RunState tracks the visible progress of an orchestrator run.
type RunState struct {
	Objective      string
	Iteration      int
	CurrentStep    string
	StepsCompleted int
	TasksRunning   int
	TasksDone      int
	TasksFailed    int
	Synthesizing   bool
}

// LogEntry represents one line in the activity log.
type LogEntry struct {
	Timestamp time.Time
	Kind      string
	Message   string
}

// EventMsg wraps an orchestrator event for the bubbletea loop.
type EventMsg struct {
	Event orchestrator.Event
}

// RunDoneMsg is sent when the run finishes.
type RunDoneMsg struct {
	Result string
	Err    error
}

// RunApp is the main bubbletea model for the run command TUI.
type RunApp struct {
	state    RunState
	logs     []LogEntry
	spinner  spinner.Model
	width    int
	height   int
	quitting bool
	done     bool
	result   string
	err      error

	// Styles
	headerStyle  lipgloss.Style
	labelStyle   lipgloss.Style
	valueStyle   lipgloss.Style
	stepStyle    lipgloss.Style
	logStyle     lipgloss.Style
	logTimeStyle lipgloss.Style
	logKindStyle lipgloss.Style
	errorStyle   lipgloss.Style
	doneStyle    lipgloss.Style
	dimStyle     lipgloss.Style
}

// NewRunApp creates a new RunApp for the given objective.
func NewRunApp(objective string) *RunApp {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &RunApp{
		state:   RunState{Objective: objective},
		logs:    make([]LogEntry, 0),
		spinner: s,

		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("238")).
			MarginBottom(1),

		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(12),

		valueStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true),

		stepStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true),

		logStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),

		logTimeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		logKindStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Width(10),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),

		doneStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")).
			Bold(true),

		dimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
}

// Init implements tea.Model.
func (a *RunApp) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update implements tea.Model.
func (a *RunApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case EventMsg:
		a.applyEvent(msg.Event)

	case RunDoneMsg:
		a.done = true
		a.result = msg.Result
		a.err = msg.Err
		// Stay on screen so the user can read the final state
	}

	return a, nil
}

// applyEvent folds an orchestrator event into the displayed state.
func (a *RunApp) applyEvent(ev orchestrator.Event) {
	a.state.Iteration = ev.Iteration

	switch ev.Type {
	case orchestrator.EventPlanCreated:
		a.log("plan", ev.Message)
	case orchestrator.EventStepStarted:
		a.state.CurrentStep = ev.StepDescription
		a.log("step", ev.StepDescription)
	case orchestrator.EventStepCompleted:
		a.state.StepsCompleted++
		a.state.TasksRunning = 0
	case orchestrator.EventTaskStarted:
		a.state.TasksRunning++
		a.log("task", fmt.Sprintf("%s -> %s", ev.AgentName, ev.TaskDescription))
	case orchestrator.EventTaskCompleted:
		a.state.TasksDone++
		if a.state.TasksRunning > 0 {
			a.state.TasksRunning--
		}
	case orchestrator.EventTaskFailed:
		a.state.TasksFailed++
		a.log("error", ev.Message)
	case orchestrator.EventSynthesisStarted:
		a.state.Synthesizing = true
		a.state.CurrentStep = ""
		a.log("final", "Composing final answer")
	case orchestrator.EventRunCompleted:
		a.log("done", ev.Message)
	}
}

// log appends an activity log entry.
func (a *RunApp) log(kind, message string) {
	a.logs = append(a.logs, LogEntry{
		Timestamp: time.Now(),
		Kind:      kind,
		Message:   message,
	})
}

// View implements tea.Model.
func (a *RunApp) View() string {
	if a.quitting {
		return "Run cancelled.\n"
	}

	var b strings.Builder

	b.WriteString(a.headerStyle.Render("cadre run"))
	b.WriteString("\n")

	objective := a.state.Objective
	if a.width > 20 && len(objective) > a.width-14 {
		objective = objective[:a.width-17] + "..."
	}
	b.WriteString(a.labelStyle.Render("Objective:"))
	b.WriteString(a.valueStyle.Render(objective))
	b.WriteString("\n")

	b.WriteString(a.labelStyle.Render("Iteration:"))
	b.WriteString(a.valueStyle.Render(fmt.Sprintf("%d", a.state.Iteration)))
	b.WriteString("  ")
	b.WriteString(a.labelStyle.Render("Steps:"))
	b.WriteString(a.valueStyle.Render(fmt.Sprintf("%d done", a.state.StepsCompleted)))
	b.WriteString("\n")

	tasks := fmt.Sprintf("%d done, %d running", a.state.TasksDone, a.state.TasksRunning)
	if a.state.TasksFailed > 0 {
		tasks += a.errorStyle.Render(fmt.Sprintf(", %d failed", a.state.TasksFailed))
	}
	b.WriteString(a.labelStyle.Render("Tasks:"))
	b.WriteString(a.valueStyle.Render(tasks))
	b.WriteString("\n\n")

	if !a.done {
		b.WriteString(a.spinner.View())
		b.WriteString(" ")
		switch {
		case a.state.Synthesizing:
			b.WriteString(a.stepStyle.Render("Synthesizing final answer"))
		case a.state.CurrentStep != "":
			b.WriteString(a.stepStyle.Render(a.state.CurrentStep))
		default:
			b.WriteString(a.stepStyle.Render("Planning"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.renderLogs())

	b.WriteString("\n")
	if a.done {
		if a.err != nil {
			b.WriteString(a.errorStyle.Render(fmt.Sprintf("Error: %v", a.err)))
		} else {
			b.WriteString(a.doneStyle.Render("Run complete. Press q to exit."))
			if a.result != "" {
				b.WriteString("\n\n")
				b.WriteString(a.result)
			}
		}
	} else {
		b.WriteString(a.dimStyle.Render("Press q to cancel"))
	}
	b.WriteString("\n")

	return b.String()
}

// renderLogs renders the recent log entries.
func (a *RunApp) renderLogs() string {
	if len(a.logs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("252")).
		Render("Activity"))
	b.WriteString("\n")

	// Show last 10 log entries
	start := 0
	if len(a.logs) > 10 {
		start = len(a.logs) - 10
	}

	for _, entry := range a.logs[start:] {
		ts := a.logTimeStyle.Render(entry.Timestamp.Format("15:04:05"))
		kind := a.logKindStyle.Render(entry.Kind)
		msg := a.logStyle.Render(entry.Message)
		b.WriteString(fmt.Sprintf("  %s %s %s\n", ts, kind, msg))
	}

	return b.String()
}

// Done reports whether the run finished.
func (a *RunApp) Done() bool {
	return a.done
}

// NewRunProgram creates a new bubbletea program for the run TUI.
// Events and the final result are fed in from outside via Program.Send.
func NewRunProgram(objective string) (*tea.Program, *RunApp) {
	app := NewRunApp(objective)
	p := tea.NewProgram(app, tea.WithAltScreen())
	return p, app
}
