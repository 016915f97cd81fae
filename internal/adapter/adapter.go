// Package adapter defines the capability interface between the cmdhub core
// and concrete CLI rendering frameworks. The hub and tree builder have no
// knowledge of any framework's types; a binding implements Adapter once per
// framework and lives in its own subpackage.
package adapter

import (
	"context"

	"github.com/conneroisu/cmdhub/internal/cmdtree"
	"github.com/conneroisu/cmdhub/internal/errors"
)

// Runner is the executable surface produced by rendering a command tree.
type Runner interface {
	// Run executes the CLI with the given argument list (excluding the
	// program name). The returned error maps to an exit status via
	// ExitCode.
	Run(ctx context.Context, args []string) error
}

// Adapter renders a built command tree into an executable CLI. Render must
// fail with a render error for parameter or binding combinations the
// framework cannot express, never silently drop them.
type Adapter interface {
	Render(root *cmdtree.Node) (Runner, error)
}

// Invoker is implemented by value targets that can be executed directly,
// such as commands loaded from discovery manifests. Args holds the coerced
// parameter values keyed by parameter name.
type Invoker interface {
	Invoke(ctx context.Context, args map[string]interface{}) error
}

// Exit statuses for core error kinds. Adapters translate errors through
// ExitCode so every binding reports failures identically.
const (
	ExitOK             = 0
	ExitError          = 1
	ExitUsage          = 2
	ExitRender         = 3
	ExitNotFound       = 4
	ExitDuplicate      = 5
	ExitInitialization = 6
)

// ExitCode maps an error to its documented exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.IsInvalidHint(err), errors.IsValidation(err):
		return ExitUsage
	case errors.IsRender(err):
		return ExitRender
	case errors.IsNotFound(err):
		return ExitNotFound
	case errors.IsDuplicateEntry(err):
		return ExitDuplicate
	case errors.IsInitialization(err):
		return ExitInitialization
	default:
		return ExitError
	}
}
