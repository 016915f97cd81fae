// Package introspect derives the invocable surface of a registered handler:
// for each parameter, its name, declared type, default, required-ness, and
// whether it binds as a positional argument or a named option.
//
// Go reflection exposes parameter types but not names or defaults, so those
// travel in explicit Hints supplied at registration time. Hints are matched
// to parameters by position. A leading context.Context parameter is
// invocation plumbing, not part of the user-facing surface, and is skipped.
//
// String-to-type coercion of actual values is deliberately not done here;
// that is the rendering adapter's responsibility.
package introspect

import (
	"context"
	"fmt"
	"reflect"

	"github.com/conneroisu/cmdhub/internal/errors"
)

// BindingKind distinguishes how a parameter is supplied on the command line.
type BindingKind int

const (
	// BindPositional parameters are taken from the argument list in order.
	BindPositional BindingKind = iota + 1
	// BindOption parameters are supplied as named options (flags).
	BindOption
)

// String returns the string representation of the binding kind.
func (k BindingKind) String() string {
	switch k {
	case BindPositional:
		return "positional"
	case BindOption:
		return "option"
	default:
		return "unknown"
	}
}

// ParameterDescriptor describes one user-facing parameter of a handler.
// Binding and Required are independent axes: a parameter with a default and
// an explicit positional hint binds positionally but is optional.
type ParameterDescriptor struct {
	Name       string
	Type       reflect.Type
	HasDefault bool
	Default    interface{}
	Required   bool
	Binding    BindingKind
	Variadic   bool
	Help       string
}

// Hint carries the per-parameter information reflection cannot provide,
// plus explicit binding overrides. Hints are positional: hints[i] applies to
// the i-th user-facing parameter. A missing or zero hint means "infer".
type Hint struct {
	// Name is the user-facing parameter name. Empty falls back to argN.
	Name string
	// Positional forces positional binding.
	Positional bool
	// Option forces named-option binding.
	Option bool
	// Optional marks the parameter optional without supplying a default.
	Optional bool
	// Default, when non-nil, is the value used when the parameter is not
	// supplied. Its type must be assignable to the parameter type.
	Default interface{}
	// Help is carried through to descriptor metadata consumers unchanged.
	Help string
}

// Describe resolves a handler's parameters into ordered descriptors.
//
// Per parameter, in priority order: an explicit positional or option hint is
// honored; otherwise a parameter without a default is a required positional
// argument; otherwise it is an optional named option. Conflicting hints fail
// with an invalid-hint error naming the parameter.
func Describe(fn interface{}, hints []Hint) ([]ParameterDescriptor, error) {
	if fn == nil {
		return nil, errors.NewInvalidTargetError("", "", "handler is nil")
	}
	t := reflect.TypeOf(fn)
	if t.Kind() != reflect.Func {
		return nil, errors.NewInvalidTargetError("", "", "handler is not a function: "+t.String())
	}

	params := userParams(t)
	if len(hints) > len(params) {
		extra := hints[len(params)]
		return nil, errors.NewInvalidHintError(hintName(extra, len(params)),
			fmt.Sprintf("hint for nonexistent parameter (handler has %d user-facing parameters)", len(params)))
	}

	descriptors := make([]ParameterDescriptor, 0, len(params))
	sawOptionHint := false
	sawOptionalPositional := false

	for i, paramType := range params {
		var hint Hint
		if i < len(hints) {
			hint = hints[i]
		}
		name := hintName(hint, i)

		if hint.Positional && hint.Option {
			return nil, errors.NewInvalidHintError(name, "hinted both positional and option")
		}

		variadic := t.IsVariadic() && i == len(params)-1
		if variadic && hint.Option {
			return nil, errors.NewInvalidHintError(name, "variadic parameter cannot bind as an option")
		}

		hasDefault := hint.Default != nil
		if hasDefault {
			defaultType := reflect.TypeOf(hint.Default)
			want := paramType
			if variadic {
				want = paramType.Elem()
			}
			if !defaultType.AssignableTo(want) {
				return nil, errors.NewInvalidHintError(name,
					fmt.Sprintf("default value of type %s is not assignable to parameter type %s", defaultType, want))
			}
		}

		binding := BindOption
		switch {
		case hint.Positional, variadic:
			binding = BindPositional
		case hint.Option:
			binding = BindOption
		case !hasDefault:
			binding = BindPositional
		}

		required := !hasDefault && !hint.Optional && !variadic

		if binding == BindPositional {
			if hint.Positional && sawOptionHint {
				return nil, errors.NewInvalidHintError(name,
					"positional hint after a named-option hint is ambiguous at invocation time")
			}
			if required && sawOptionalPositional {
				return nil, errors.NewInvalidHintError(name,
					"required positional parameter after an optional positional parameter")
			}
			if !required {
				sawOptionalPositional = true
			}
		} else if hint.Option {
			sawOptionHint = true
		}

		descriptors = append(descriptors, ParameterDescriptor{
			Name:       name,
			Type:       paramType,
			HasDefault: hasDefault,
			Default:    hint.Default,
			Required:   required,
			Binding:    binding,
			Variadic:   variadic,
			Help:       hint.Help,
		})
	}

	return descriptors, nil
}

// userParams returns the handler's user-facing parameter types, skipping a
// leading context.Context.
func userParams(t reflect.Type) []reflect.Type {
	params := make([]reflect.Type, 0, t.NumIn())
	for i := 0; i < t.NumIn(); i++ {
		if i == 0 && isContext(t.In(i)) {
			continue
		}
		params = append(params, t.In(i))
	}
	return params
}

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

func isContext(t reflect.Type) bool {
	return t == contextType
}

func hintName(hint Hint, index int) string {
	if hint.Name != "" {
		return hint.Name
	}
	return fmt.Sprintf("arg%d", index+1)
}
