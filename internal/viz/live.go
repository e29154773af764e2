package viz

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/heatmarch/internal/march"
)

const historyCapacity = 600

// StepMsg reports one completed step to the progress view.
type StepMsg struct {
	Step          int
	Clock         float64
	Mode          string
	Exterior      float64
	Mean          float64
	Min, Max      float64
	Checkpoint    string
	CheckpointErr error
}

// DoneMsg ends the progress view.
type DoneMsg struct {
	Result *march.Result
	Err    error
}

// Progress is the Bubble Tea model of a running simulation.
type Progress struct {
	title       string
	steps       int
	step        int
	clock       float64
	mode        string
	exterior    float64
	mean        float64
	lo, hi      float64
	history     []float64
	checkpoints []string
	errors      []string
	done        bool
	err         error
	result      *march.Result
	cancel      context.CancelFunc
}

// NewProgress creates the view. cancel is called when the user quits
// before the run ends.
func NewProgress(title string, steps int, cancel context.CancelFunc) Progress {
	return Progress{
		title:   title,
		steps:   steps,
		history: make([]float64, 0, historyCapacity),
		cancel:  cancel,
	}
}

func (m Progress) Init() tea.Cmd { return nil }

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.done && m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case StepMsg:
		m.step, m.clock, m.mode, m.exterior = msg.Step, msg.Clock, msg.Mode, msg.Exterior
		m.mean, m.lo, m.hi = msg.Mean, msg.Min, msg.Max
		if len(m.history) == historyCapacity {
			m.history = m.history[1:]
		}
		m.history = append(m.history, msg.Mean)
		if msg.Checkpoint != "" {
			m.checkpoints = append(m.checkpoints, msg.Checkpoint)
		}
		if msg.CheckpointErr != nil {
			m.errors = append(m.errors, msg.CheckpointErr.Error())
		}
	case DoneMsg:
		m.done, m.err, m.result = true, msg.Err, msg.Result
		return m, tea.Quit
	}
	return m, nil
}

func (m Progress) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")

	pct := 0.0
	if m.steps > 0 {
		pct = float64(m.step) / float64(m.steps)
	}
	s.WriteString(ProgressBar(pct, 40) + fmt.Sprintf(" %d/%d\n\n", m.step, m.steps))

	s.WriteString(labelStyle.Render("time") + valueStyle.Render(fmt.Sprintf("%.0f s", m.clock)) + "\n")
	s.WriteString(labelStyle.Render("exterior T") + valueStyle.Render(fmt.Sprintf("%.4f", m.exterior)) + "\n")
	s.WriteString(labelStyle.Render("assembly") + valueStyle.Render(m.mode) + "\n")
	s.WriteString(labelStyle.Render("mean T") + valueStyle.Render(fmt.Sprintf("%.4f", m.mean)) + "\n")
	s.WriteString(labelStyle.Render("min / max") + valueStyle.Render(fmt.Sprintf("%.4f / %.4f", m.lo, m.hi)) + "\n")
	s.WriteString(labelStyle.Render("checkpoints") + valueStyle.Render(fmt.Sprintf("%d", len(m.checkpoints))))
	if n := len(m.checkpoints); n > 0 {
		s.WriteString(valueStyle.Render("  last " + m.checkpoints[n-1]))
	}
	s.WriteString("\n")

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(6), asciigraph.Width(50), asciigraph.Caption("mean temperature"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	for _, e := range m.errors {
		s.WriteString(errorStyle.Render(e) + "\n")
	}
	if m.err != nil {
		s.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}
	if m.done {
		if m.result != nil {
			s.WriteString(valueStyle.Render(fmt.Sprintf("%d steps, %d checkpoints", m.result.Steps, len(m.result.Records))) + "\n")
		}
		s.WriteString(helpStyle.Render("done") + "\n")
	} else {
		s.WriteString(helpStyle.Render("q: stop the run") + "\n")
	}
	return s.String()
}

// Forwarder is a march.Observer sending each step to a running program.
// exterior, when set, gives the air temperature the step was assembled with.
type Forwarder struct {
	send     func(tea.Msg)
	exterior func(t float64) float64
}

func NewForwarder(p *tea.Program, exterior func(t float64) float64) *Forwarder {
	return &Forwarder{send: p.Send, exterior: exterior}
}

func (f *Forwarder) OnStep(ev march.StepEvent) {
	msg := StepMsg{Step: ev.Step, Clock: ev.Clock, Mode: ev.Mode.String(), CheckpointErr: ev.CheckpointErr}
	if f.exterior != nil {
		msg.Exterior = f.exterior(ev.Time)
	}
	if ev.Solution != nil {
		vals := ev.Solution.Values()
		if len(vals) > 0 {
			msg.Min, msg.Max = vals[0], vals[0]
			sum := 0.0
			for _, v := range vals {
				sum += v
				if v < msg.Min {
					msg.Min = v
				}
				if v > msg.Max {
					msg.Max = v
				}
			}
			msg.Mean = sum / float64(len(vals))
		}
	}
	if ev.Checkpoint != nil {
		msg.Checkpoint = ev.Checkpoint.Complete
	}
	f.send(msg)
}
