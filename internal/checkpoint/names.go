package checkpoint

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	ExtLinear   = ".lin"
	ExtSolution = ".dat"

	namePrefix   = "tsln_"
	ManifestName = "manifest.json"
)

var ErrBadName = errors.New("checkpoint: not a checkpoint file name")

// LinearName is the visualization file of a step, e.g. tsln_20.lin.
func LinearName(step int) string { return fmt.Sprintf("%s%d%s", namePrefix, step, ExtLinear) }

// SolutionName is the complete solution file of a step, e.g. tsln_20.dat.
func SolutionName(step int) string { return fmt.Sprintf("%s%d%s", namePrefix, step, ExtSolution) }

// ParseStep extracts the step number and extension from a checkpoint name.
func ParseStep(name string) (int, string, error) {
	var ext string
	switch {
	case strings.HasSuffix(name, ExtLinear):
		ext = ExtLinear
	case strings.HasSuffix(name, ExtSolution):
		ext = ExtSolution
	default:
		return 0, "", fmt.Errorf("%w: %q", ErrBadName, name)
	}
	digits, ok := strings.CutPrefix(strings.TrimSuffix(name, ext), namePrefix)
	if !ok || digits == "" {
		return 0, "", fmt.Errorf("%w: %q", ErrBadName, name)
	}
	step, err := strconv.Atoi(digits)
	if err != nil || step < 1 || strconv.Itoa(step) != digits {
		return 0, "", fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return step, ext, nil
}

// Schedule lists the steps of an n-step run that produce a checkpoint.
func Schedule(n, freq int) []int {
	if freq <= 0 || n < freq {
		return []int{}
	}
	steps := make([]int, 0, n/freq)
	for k := freq; k <= n; k += freq {
		steps = append(steps, k)
	}
	return steps
}

// Names lists every file a schedule produces, linear file first.
func Names(steps []int) []string {
	out := make([]string, 0, 2*len(steps))
	for _, k := range steps {
		out = append(out, LinearName(k), SolutionName(k))
	}
	return out
}
