package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"not found", NotFound("submission", "42"), CodeNotFound},
		{"conflict", Conflict("Step is locked"), CodeConflict},
		{"validation", Validation("action %q is not supported", "hold"), CodeValidation},
		{"wrapped with fmt", fmt.Errorf("start chain: %w", NotFound("chain", "c1")), CodeNotFound},
		{"plain error", errors.New("boom"), CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestSentinelMatching(t *testing.T) {
	locked := Conflict("Step is locked")
	err := fmt.Errorf("act on step: %w", Conflict("Step is locked"))

	assert.ErrorIs(t, err, locked)
	assert.NotErrorIs(t, err, Conflict("Step already decided"))
	assert.True(t, IsConflict(err))
	assert.Equal(t, "Step is locked", MessageOf(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause, "load submission")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "load submission: connection reset", err.Error())
	assert.Equal(t, "load submission", MessageOf(err))
}
