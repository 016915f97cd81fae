package adapter

import (
	"fmt"
	"testing"

	hubErrors "github.com/conneroisu/cmdhub/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, ExitOK},
		{"plain error", fmt.Errorf("boom"), ExitError},
		{"invalid hint", hubErrors.NewInvalidHintError("p", "conflict"), ExitUsage},
		{"validation", hubErrors.NewInvalidNameError("a..b", "empty segment"), ExitUsage},
		{"render", hubErrors.NewRenderError("cmd", "unsupported", nil), ExitRender},
		{"not found", hubErrors.NewNotFoundError("x", "command"), ExitNotFound},
		{"duplicate", hubErrors.NewDuplicateEntryError("x", "command"), ExitDuplicate},
		{"initialization", hubErrors.NewInitializationError(fmt.Errorf("seed")), ExitInitialization},
		{"wrapped not found", fmt.Errorf("outer: %w", hubErrors.NewNotFoundError("x", "command")), ExitNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExitCode(tt.err))
		})
	}
}
