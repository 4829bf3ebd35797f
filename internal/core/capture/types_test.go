package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestWifiBars(t *testing.T) {
	tests := []struct {
		name     string
		dbm      *int
		expected int
	}{
		{name: "missing reading", dbm: nil, expected: 0},
		{name: "excellent signal", dbm: intPtr(-42), expected: 5},
		{name: "boundary -50", dbm: intPtr(-50), expected: 5},
		{name: "boundary -60", dbm: intPtr(-60), expected: 4},
		{name: "boundary -70", dbm: intPtr(-70), expected: 3},
		{name: "boundary -80", dbm: intPtr(-80), expected: 2},
		{name: "boundary -90", dbm: intPtr(-90), expected: 1},
		{name: "below -90", dbm: intPtr(-95), expected: 0},
		{name: "between thresholds", dbm: intPtr(-65), expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WifiBars(tt.dbm))
		})
	}
}

func TestStepStatusString(t *testing.T) {
	assert.Equal(t, "SUCCESS", StepSuccess.String())
	assert.Equal(t, "TIMEOUT", StepTimedOut.String())
	assert.Equal(t, "FAILED", StepFailed.String())
}
