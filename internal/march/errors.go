package march

import (
	"errors"
	"fmt"
)

// Domain errors for driver operations.
var (
	// ErrInvalidConfig indicates a config value outside its valid range.
	ErrInvalidConfig = errors.New("march: invalid config")

	// ErrSolverFailure matches every *SolverFailure.
	ErrSolverFailure = errors.New("march: solver failure")

	// ErrCheckpointWrite matches every *CheckpointWriteError.
	ErrCheckpointWrite = errors.New("march: checkpoint write failed")

	// ErrCanceled indicates the run was interrupted between steps.
	ErrCanceled = errors.New("march: run canceled")

	// ErrFinished indicates a step was requested on a finished or aborted run.
	ErrFinished = errors.New("march: run already finished")

	// ErrNotStarted indicates a step was requested before Start.
	ErrNotStarted = errors.New("march: run not started")
)

// Stage names the part of a step that failed.
type Stage string

const (
	StageAssemble Stage = "assemble"
	StageSolve    Stage = "solve"
	StageMap      Stage = "map"
)

// SolverFailure is returned when assembly, the linear solve or the mapping of
// the solution vector fails. The run cannot continue past it.
type SolverFailure struct {
	Step  int
	Time  float64
	Stage Stage
	Err   error
}

func (e *SolverFailure) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s failed: %v", e.Step, e.Time, e.Stage, e.Err)
}

func (e *SolverFailure) Unwrap() error { return e.Err }

func (e *SolverFailure) Is(target error) bool { return target == ErrSolverFailure }

// CheckpointWriteError is returned when persisting a checkpoint fails. Unlike
// a SolverFailure the simulation state is still valid.
type CheckpointWriteError struct {
	Step int
	Name string
	Err  error
}

func (e *CheckpointWriteError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("step %d: checkpoint: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("step %d: checkpoint %s: %v", e.Step, e.Name, e.Err)
}

func (e *CheckpointWriteError) Unwrap() error { return e.Err }

func (e *CheckpointWriteError) Is(target error) bool { return target == ErrCheckpointWrite }
