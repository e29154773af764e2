package march

import (
	"context"
	"fmt"
	"math"
	"time"
)

// AssemblyMode selects what a backend rebuilds for a step.
type AssemblyMode int

const (
	// Full rebuilds the system matrix and the right-hand side.
	Full AssemblyMode = iota
	// RHSOnly rebuilds the right-hand side and reuses the last matrix.
	RHSOnly
)

func (m AssemblyMode) String() string {
	switch m {
	case Full:
		return "full"
	case RHSOnly:
		return "rhs-only"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Vector is a raw solution vector returned by a linear solve.
type Vector []float64

func (v Vector) Clone() Vector {
	c := make(Vector, len(v))
	copy(c, v)
	return c
}

// System is an assembled linear system. Its layout is owned by the backend.
type System interface {
	Dim() int
}

// Solution is the backend's field representation of the current state.
type Solution interface {
	Values() []float64
}

// AssemblyRequest carries everything a backend needs to assemble one step.
// Time is the clock value before the step advances it.
type AssemblyRequest struct {
	Step     int
	Time     float64
	Mode     AssemblyMode
	Previous Solution
}

type Backend interface {
	Initial() (Solution, error)
	Assemble(ctx context.Context, req AssemblyRequest) (System, error)
	Solve(ctx context.Context, sys System) (Vector, error)
	Solution(vec Vector, step int, t float64) (Solution, error)
}

// Record identifies the two artifacts written for one checkpoint.
type Record struct {
	Step     int     `json:"step"`
	Time     float64 `json:"time"`
	Linear   string  `json:"linear"`
	Complete string  `json:"complete"`
}

type Checkpointer interface {
	Checkpoint(ctx context.Context, step int, t float64, sol Solution) (Record, error)
}

// StepEvent describes a completed step. Time is the clock value the step was
// assembled at and Clock the value carried by the returned State.
type StepEvent struct {
	Step          int
	Time          float64
	Clock         float64
	Mode          AssemblyMode
	Solution      Solution
	SolveDuration time.Duration
	Checkpoint    *Record
	CheckpointErr error
}

type Observer interface {
	OnStep(ev StepEvent)
}

type Metric interface {
	Name() string
	Observe(sol Solution, t float64)
	Value() float64
	Reset()
}

// Policy decides what happens after a checkpoint write fails.
type Policy int

const (
	Abort Policy = iota
	Continue
)

func (p Policy) String() string {
	if p == Continue {
		return "continue"
	}
	return "abort"
}

// ParsePolicy accepts "abort" and "continue"; the empty string means abort.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "abort":
		return Abort, nil
	case "continue":
		return Continue, nil
	}
	return Abort, fmt.Errorf("%w: unknown checkpoint error policy %q", ErrInvalidConfig, s)
}

type Config struct {
	FinalTime         float64
	Tau               float64
	OutputFrequency   int
	OnCheckpointError Policy
}

func (c Config) Validate() error {
	if !(c.FinalTime > 0) || math.IsInf(c.FinalTime, 0) {
		return fmt.Errorf("%w: final time must be positive, got %v", ErrInvalidConfig, c.FinalTime)
	}
	if !(c.Tau > 0) || math.IsInf(c.Tau, 0) {
		return fmt.Errorf("%w: tau must be positive, got %v", ErrInvalidConfig, c.Tau)
	}
	if c.OutputFrequency <= 0 {
		return fmt.Errorf("%w: output frequency must be a positive integer, got %d", ErrInvalidConfig, c.OutputFrequency)
	}
	if StepCount(c.FinalTime, c.Tau) < 1 {
		return fmt.Errorf("%w: final time %v shorter than half a step of %v", ErrInvalidConfig, c.FinalTime, c.Tau)
	}
	return nil
}

// StepCount is round(finalTime/tau). It is computed once per run and never
// corrected for clock drift.
func StepCount(finalTime, tau float64) int {
	return int(math.Round(finalTime / tau))
}

// ShouldCheckpoint reports whether step is on the checkpoint cadence.
func ShouldCheckpoint(step, freq int) bool {
	return freq > 0 && step%freq == 0
}

type Phase int

const (
	NotStarted Phase = iota
	Stepping
	Finished
	Aborted
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not-started"
	case Stepping:
		return "stepping"
	case Finished:
		return "finished"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// State is the driver state threaded through Step. Step is the number of
// completed steps and Clock the time the next step assembles at.
type State struct {
	Phase    Phase
	Step     int
	Steps    int
	Clock    float64
	Solution Solution
}

func (s State) Done() bool { return s.Phase == Finished || s.Phase == Aborted }

type Result struct {
	Steps     int
	FinalTime float64
	Solution  Solution
	Records   []Record
	Modes     []AssemblyMode
	Metrics   map[string]float64
	Errors    []error
}
