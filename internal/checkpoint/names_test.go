package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNames(t *testing.T) {
	assert.Equal(t, "tsln_20.lin", LinearName(20))
	assert.Equal(t, "tsln_60.dat", SolutionName(60))
	assert.Equal(t, LinearName(40), LinearName(40))
}

func TestParseStep(t *testing.T) {
	tests := []struct {
		name string
		step int
		ext  string
		ok   bool
	}{
		{"tsln_20.lin", 20, ExtLinear, true},
		{"tsln_60.dat", 60, ExtSolution, true},
		{"tsln_.dat", 0, "", false},
		{"tsln_007.dat", 0, "", false},
		{"tsln_0.lin", 0, "", false},
		{"manifest.json", 0, "", false},
		{"out_20.lin", 0, "", false},
	}

	for _, tt := range tests {
		step, ext, err := ParseStep(tt.name)
		if !tt.ok {
			assert.ErrorIs(t, err, ErrBadName, tt.name)
			continue
		}
		assert.NoError(t, err, tt.name)
		assert.Equal(t, tt.step, step, tt.name)
		assert.Equal(t, tt.ext, ext, tt.name)
	}
}

func TestSchedule(t *testing.T) {
	assert.Equal(t, []int{20, 40, 60}, Schedule(60, 20))
	assert.Equal(t, []int{20, 40}, Schedule(59, 20))
	assert.Equal(t, []int{1, 2, 3}, Schedule(3, 1))
	assert.Empty(t, Schedule(19, 20))
	assert.Empty(t, Schedule(10, 0))

	assert.Equal(t,
		[]string{"tsln_20.lin", "tsln_20.dat", "tsln_40.lin", "tsln_40.dat"},
		Names(Schedule(40, 20)))
}
