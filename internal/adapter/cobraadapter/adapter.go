// Package cobraadapter binds the cmdhub command tree to spf13/cobra. It is
// the one place in the repository that knows cobra's types; the hub and
// tree builder stay framework-agnostic behind the adapter interface.
package cobraadapter

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/conneroisu/cmdhub/internal/adapter"
	"github.com/conneroisu/cmdhub/internal/cmdtree"
	"github.com/conneroisu/cmdhub/internal/errors"
	"github.com/conneroisu/cmdhub/internal/introspect"
	"github.com/conneroisu/cmdhub/internal/registry"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func init() {
	// Help listings must follow registration order, not cobra's default
	// alphabetical sort.
	cobra.EnableCommandSorting = false
}

// CobraAdapter renders command trees into executable cobra command trees.
type CobraAdapter struct {
	use   string
	short string
}

var _ adapter.Adapter = (*CobraAdapter)(nil)

// Option configures the adapter.
type Option func(*CobraAdapter)

// WithUse sets the rendered root command's name.
func WithUse(use string) Option {
	return func(a *CobraAdapter) { a.use = use }
}

// WithShort sets the rendered root command's short description.
func WithShort(short string) Option {
	return func(a *CobraAdapter) { a.short = short }
}

// New creates a cobra adapter.
func New(opts ...Option) *CobraAdapter {
	a := &CobraAdapter{use: "cmdhub"}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Render builds an executable runner for the tree. Unsupported parameter
// types or binding combinations fail here, at render time, never silently.
func (a *CobraAdapter) Render(root *cmdtree.Node) (adapter.Runner, error) {
	cmd, err := a.RenderCommand(root)
	if err != nil {
		return nil, err
	}
	return &runner{cmd: cmd}, nil
}

// RenderCommand builds the cobra command tree directly, for embedding into
// an existing CLI alongside hand-written subcommands.
func (a *CobraAdapter) RenderCommand(root *cmdtree.Node) (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:           a.use,
		Short:         a.short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	for _, child := range root.Children() {
		cmd, err := buildNode(child)
		if err != nil {
			return nil, err
		}
		rootCmd.AddCommand(cmd)
	}

	return rootCmd, nil
}

type runner struct {
	cmd *cobra.Command
}

func (r *runner) Run(ctx context.Context, args []string) error {
	r.cmd.SetArgs(args)
	return r.cmd.ExecuteContext(ctx)
}

func buildNode(node *cmdtree.Node) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   usageLine(node),
		Short: node.Help(),
	}

	if node.IsLeaf() {
		cmd.Aliases = leafAliases(node.Leaf)
		if err := bindLeaf(cmd, node); err != nil {
			return nil, err
		}
	}

	for _, child := range node.Children() {
		sub, err := buildNode(child)
		if err != nil {
			return nil, err
		}
		cmd.AddCommand(sub)
	}

	return cmd, nil
}

// usageLine renders the cobra Use string: the segment followed by
// positional placeholders, <required> then [optional], [variadic...].
func usageLine(node *cmdtree.Node) string {
	var b strings.Builder
	b.WriteString(node.Segment)
	for _, p := range node.Params {
		if p.Binding != introspect.BindPositional {
			continue
		}
		switch {
		case p.Variadic:
			fmt.Fprintf(&b, " [%s...]", p.Name)
		case p.Required:
			fmt.Fprintf(&b, " <%s>", p.Name)
		default:
			fmt.Fprintf(&b, " [%s]", p.Name)
		}
	}
	return b.String()
}

// leafAliases returns the entry aliases expressible as cobra aliases.
// Dotted aliases address a different tree position and only participate in
// registry-level resolution, not in rendering.
func leafAliases(entry *registry.Entry) []string {
	var aliases []string
	for _, alias := range entry.Aliases {
		if !strings.Contains(alias, ".") {
			aliases = append(aliases, alias)
		}
	}
	return aliases
}

func bindLeaf(cmd *cobra.Command, node *cmdtree.Node) error {
	entry := node.Leaf

	switch entry.Target.Kind() {
	case registry.TargetKindHandler:
	case registry.TargetKindValue:
		if _, ok := entry.Target.Value().(adapter.Invoker); !ok {
			return errors.NewRenderError(entry.Name, "value target is not invocable", nil)
		}
	default:
		return errors.NewRenderError(entry.Name, "unsupported target kind: "+entry.Target.Kind().String(), nil)
	}

	var positionals, options []introspect.ParameterDescriptor
	for _, p := range node.Params {
		if err := checkSupported(entry.Name, p); err != nil {
			return err
		}
		if p.Binding == introspect.BindPositional {
			positionals = append(positionals, p)
		} else {
			options = append(options, p)
		}
	}

	for _, p := range options {
		if err := registerFlag(cmd.Flags(), p); err != nil {
			return errors.NewRenderError(entry.Name, "cannot render option "+p.Name, err)
		}
		if p.Required {
			if err := cmd.MarkFlagRequired(p.Name); err != nil {
				return errors.NewRenderError(entry.Name, "cannot mark option required: "+p.Name, err)
			}
		}
	}

	required := 0
	for _, p := range positionals {
		if p.Required {
			required++
		}
	}
	if len(positionals) > 0 && positionals[len(positionals)-1].Variadic {
		cmd.Args = cobra.MinimumNArgs(required)
	} else {
		cmd.Args = cobra.RangeArgs(required, len(positionals))
	}

	cmd.RunE = func(c *cobra.Command, args []string) error {
		values, err := collectValues(c, positionals, options, args)
		if err != nil {
			return err
		}

		ctx := c.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		if entry.Target.Kind() == registry.TargetKindHandler {
			return invokeHandler(ctx, entry.Target.Handler(), node.Params, values)
		}
		return entry.Target.Value().(adapter.Invoker).Invoke(ctx, values)
	}

	return nil
}

// collectValues coerces positional arguments and flag values into the
// parameter types, applying defaults for anything unsupplied.
func collectValues(c *cobra.Command, positionals, options []introspect.ParameterDescriptor, args []string) (map[string]interface{}, error) {
	values := make(map[string]interface{}, len(positionals)+len(options))

	for i, p := range positionals {
		switch {
		case p.Variadic:
			// Earlier optional positionals may be unsupplied, leaving fewer
			// args than positional slots.
			start := min(i, len(args))
			slice := reflect.MakeSlice(p.Type, 0, len(args)-start)
			for _, arg := range args[start:] {
				elem, err := coerce(arg, p.Type.Elem())
				if err != nil {
					return nil, errors.NewArgumentError(p.Name, "cannot parse argument: "+err.Error())
				}
				slice = reflect.Append(slice, reflect.ValueOf(elem))
			}
			values[p.Name] = slice.Interface()
		case i < len(args):
			v, err := coerce(args[i], p.Type)
			if err != nil {
				return nil, errors.NewArgumentError(p.Name, "cannot parse argument: "+err.Error())
			}
			values[p.Name] = v
		case p.HasDefault:
			values[p.Name] = convertDefault(p.Default, p.Type)
		default:
			values[p.Name] = reflect.Zero(p.Type).Interface()
		}
	}

	for _, p := range options {
		flag := c.Flags().Lookup(p.Name)
		if flag == nil {
			return nil, errors.NewRenderError(p.Name, "option flag missing after render", nil)
		}
		v, err := coerce(flag.Value.String(), p.Type)
		if err != nil {
			return nil, errors.NewArgumentError(p.Name, "cannot parse option: "+err.Error())
		}
		values[p.Name] = v
	}

	return values, nil
}

// invokeHandler calls the registered handler with coerced values in
// declaration order, passing through a leading context.Context when the
// handler takes one. A trailing error result is propagated.
func invokeHandler(ctx context.Context, handler interface{}, params []introspect.ParameterDescriptor, values map[string]interface{}) error {
	fn := reflect.ValueOf(handler)
	t := fn.Type()

	in := make([]reflect.Value, 0, t.NumIn())
	if t.NumIn() > 0 && t.In(0) == reflect.TypeOf((*context.Context)(nil)).Elem() {
		in = append(in, reflect.ValueOf(ctx))
	}

	for _, p := range params {
		v := reflect.ValueOf(values[p.Name])
		if !v.IsValid() {
			v = reflect.Zero(p.Type)
		} else if v.Type() != p.Type {
			v = v.Convert(p.Type)
		}
		in = append(in, v)
	}

	var out []reflect.Value
	if t.IsVariadic() {
		out = fn.CallSlice(in)
	} else {
		out = fn.Call(in)
	}

	if len(out) > 0 {
		if err, ok := out[len(out)-1].Interface().(error); ok && err != nil {
			return err
		}
	}
	return nil
}

// registerFlag declares a typed pflag for an option parameter.
func registerFlag(flags *pflag.FlagSet, p introspect.ParameterDescriptor) error {
	if p.Type == reflect.TypeOf(time.Duration(0)) {
		flags.Duration(p.Name, cast.ToDuration(p.Default), p.Help)
		return nil
	}

	switch p.Type.Kind() {
	case reflect.Bool:
		flags.Bool(p.Name, cast.ToBool(p.Default), p.Help)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		flags.Int64(p.Name, cast.ToInt64(p.Default), p.Help)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		flags.Uint64(p.Name, cast.ToUint64(p.Default), p.Help)
	case reflect.Float32, reflect.Float64:
		flags.Float64(p.Name, cast.ToFloat64(p.Default), p.Help)
	case reflect.String:
		flags.String(p.Name, cast.ToString(p.Default), p.Help)
	default:
		return fmt.Errorf("no flag type for %s", p.Type)
	}
	return nil
}

// checkSupported rejects parameter types the binding cannot coerce from
// command-line strings.
func checkSupported(command string, p introspect.ParameterDescriptor) error {
	t := p.Type
	if p.Variadic {
		t = p.Type.Elem()
	}
	if !coercible(t) {
		return errors.NewRenderError(command,
			fmt.Sprintf("parameter %s has unsupported type %s", p.Name, t), nil)
	}
	return nil
}

func coercible(t reflect.Type) bool {
	if t == reflect.TypeOf(time.Duration(0)) {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// coerce converts a command-line string to the parameter's declared type.
func coerce(s string, t reflect.Type) (interface{}, error) {
	if t == reflect.TypeOf(time.Duration(0)) {
		return cast.ToDurationE(s)
	}

	switch t.Kind() {
	case reflect.Bool:
		return cast.ToBoolE(s)
	case reflect.String:
		return reflect.ValueOf(s).Convert(t).Interface(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := cast.ToInt64E(s)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(v).Convert(t).Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := cast.ToUint64E(s)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(v).Convert(t).Interface(), nil
	case reflect.Float32, reflect.Float64:
		v, err := cast.ToFloat64E(s)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(v).Convert(t).Interface(), nil
	}
	return nil, fmt.Errorf("cannot coerce %q to %s", s, t)
}

// convertDefault aligns a hint default with the parameter's exact type.
func convertDefault(v interface{}, t reflect.Type) interface{} {
	rv := reflect.ValueOf(v)
	if rv.IsValid() && rv.Type() != t && rv.Type().ConvertibleTo(t) {
		return rv.Convert(t).Interface()
	}
	return v
}
