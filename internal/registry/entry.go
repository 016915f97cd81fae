package registry

import (
	"strings"

	"github.com/conneroisu/cmdhub/internal/errors"
)

// Dimension is a named partition of the registry's namespace. The set of
// dimensions is closed; registering under an unknown dimension fails.
type Dimension string

const (
	DimensionCommand      Dimension = "command"
	DimensionConfigSource Dimension = "config-source"
	DimensionProcessor    Dimension = "processor"
	DimensionErrorHandler Dimension = "error-handler"
)

// DefaultDimension is used when a registration does not name a dimension.
const DefaultDimension = DimensionCommand

// Dimensions returns the closed set of known dimensions.
func Dimensions() []Dimension {
	return []Dimension{
		DimensionCommand,
		DimensionConfigSource,
		DimensionProcessor,
		DimensionErrorHandler,
	}
}

// Known reports whether d is a member of the closed dimension set.
func (d Dimension) Known() bool {
	switch d {
	case DimensionCommand, DimensionConfigSource, DimensionProcessor, DimensionErrorHandler:
		return true
	}
	return false
}

// TargetKind identifies which variant a Target holds.
type TargetKind int

const (
	// TargetKindHandler is a callable invoked when the entry is executed.
	TargetKindHandler TargetKind = iota + 1
	// TargetKindValue is a plain registered object or descriptor.
	TargetKindValue
	// TargetKindGroup is a metadata-only marker for an explicit command
	// group; it carries no invocable payload.
	TargetKindGroup
)

// String returns the string representation of the target kind.
func (k TargetKind) String() string {
	switch k {
	case TargetKindHandler:
		return "handler"
	case TargetKindValue:
		return "value"
	case TargetKindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Target is the tagged union of values a registration may carry. Exactly one
// variant is populated, selected by the constructor used.
type Target struct {
	kind    TargetKind
	handler interface{}
	value   interface{}
}

// HandlerTarget wraps a callable. The registry stores the reference as-is;
// signature inspection happens later, at introspection time.
func HandlerTarget(fn interface{}) Target {
	return Target{kind: TargetKindHandler, handler: fn}
}

// ValueTarget wraps a plain object or descriptor.
func ValueTarget(v interface{}) Target {
	return Target{kind: TargetKindValue, value: v}
}

// GroupTarget returns the metadata-only target used for explicit command
// groups.
func GroupTarget() Target {
	return Target{kind: TargetKindGroup}
}

// Kind returns which variant the target holds.
func (t Target) Kind() TargetKind { return t.kind }

// Handler returns the wrapped callable, or nil for non-handler targets.
func (t Target) Handler() interface{} { return t.handler }

// Value returns the wrapped object, or nil for non-value targets.
func (t Target) Value() interface{} { return t.value }

// allowedKinds constrains which target variants each dimension accepts.
var allowedKinds = map[Dimension][]TargetKind{
	DimensionCommand:      {TargetKindHandler, TargetKindValue, TargetKindGroup},
	DimensionConfigSource: {TargetKindHandler, TargetKindValue},
	DimensionProcessor:    {TargetKindHandler, TargetKindValue},
	DimensionErrorHandler: {TargetKindHandler},
}

func (d Dimension) accepts(kind TargetKind) bool {
	for _, k := range allowedKinds[d] {
		if k == kind {
			return true
		}
	}
	return false
}

// Entry is the atomic unit stored in the registry. Entries are immutable
// once published; Aliases and Metadata are defensive copies of the caller's
// values.
type Entry struct {
	Name      string
	Dimension Dimension
	Target    Target
	Aliases   []string
	Metadata  map[string]interface{}

	// Seq is a monotonic registration sequence number. It orders List
	// output and has no uniqueness role.
	Seq uint64
}

// RegisterOptions carries the optional parts of a registration.
type RegisterOptions struct {
	Aliases  []string
	Metadata map[string]interface{}

	// Replace swaps an existing entry with the same canonical name instead
	// of failing. Aliases of the replaced entry are dropped, not carried
	// over; the replacement receives a fresh sequence number.
	Replace bool
}

// ValidateName checks that a name is non-empty and contains no empty
// dot-separated segments (leading, trailing, or doubled dots).
func ValidateName(name string) error {
	if name == "" {
		return errors.NewInvalidNameError(name, "name cannot be empty")
	}
	for _, segment := range strings.Split(name, ".") {
		if segment == "" {
			return errors.NewInvalidNameError(name, "name contains an empty dot segment")
		}
	}
	return nil
}
