// Package discovery loads command manifests from the filesystem and
// registers them with a hub. A manifest is a YAML file declaring external
// commands: each entry names a command, its parameters, and the argv to run.
// Discovered commands are plain registry entries; the tree builder and
// adapters treat them like any hand-registered command.
package discovery

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/cmdhub/internal/errors"
	"github.com/conneroisu/cmdhub/internal/introspect"
)

// Manifest is the top-level document of a discovery file.
type Manifest struct {
	Commands []CommandSpec `yaml:"commands"`
}

// CommandSpec declares one external command.
type CommandSpec struct {
	Name    string      `yaml:"name"`
	Help    string      `yaml:"help"`
	Aliases []string    `yaml:"aliases"`
	Replace bool        `yaml:"replace"`
	Exec    []string    `yaml:"exec"`
	Params  []ParamSpec `yaml:"params"`
}

// ParamSpec declares one parameter of a manifest command.
type ParamSpec struct {
	Name       string      `yaml:"name"`
	Type       string      `yaml:"type"`
	Help       string      `yaml:"help"`
	Positional bool        `yaml:"positional"`
	Optional   bool        `yaml:"optional"`
	Default    interface{} `yaml:"default"`
}

// paramTypes maps manifest type names to Go types. Durations are declared
// as "duration" and parsed from strings like "30s".
var paramTypes = map[string]reflect.Type{
	"string":   reflect.TypeOf(""),
	"int":      reflect.TypeOf(0),
	"bool":     reflect.TypeOf(false),
	"float":    reflect.TypeOf(0.0),
	"duration": reflect.TypeOf(time.Duration(0)),
}

// ParseManifest decodes a manifest document and validates every command
// spec. Validation failures carry the spec's command name so a scan over
// many files stays diagnosable.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}

	for i := range m.Commands {
		if err := m.Commands[i].validate(); err != nil {
			return nil, err
		}
	}

	return &m, nil
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	return m, nil
}

func (s *CommandSpec) validate() error {
	if s.Name == "" {
		return errors.NewInvalidNameError("", "manifest command has no name")
	}
	if len(s.Exec) == 0 {
		return errors.NewInvalidTargetError(s.Name, "", "manifest command has no exec argv")
	}

	for _, p := range s.Params {
		if p.Name == "" {
			return errors.NewInvalidHintError("", "manifest parameter has no name")
		}
		typeName := p.Type
		if typeName == "" {
			typeName = "string"
		}
		if _, ok := paramTypes[typeName]; !ok {
			return errors.NewInvalidHintError(p.Name, "unknown parameter type: "+typeName)
		}
	}

	return nil
}

// Command is the registered form of a manifest command spec. It exposes its
// parameters for tree building and runs the declared argv when invoked.
type Command struct {
	spec   CommandSpec
	source string
	params []introspect.ParameterDescriptor
}

// NewCommand builds a registrable command from a validated spec. source is
// the manifest path, kept for diagnostics.
func NewCommand(spec CommandSpec, source string) (*Command, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	params := make([]introspect.ParameterDescriptor, 0, len(spec.Params))
	sawOptionalPositional := false
	for _, p := range spec.Params {
		typeName := p.Type
		if typeName == "" {
			typeName = "string"
		}
		paramType := paramTypes[typeName]

		hasDefault := p.Default != nil
		var def interface{}
		if hasDefault {
			v, err := coerceDefault(p.Default, paramType)
			if err != nil {
				return nil, errors.NewInvalidHintError(p.Name, err.Error())
			}
			def = v
		}

		binding := introspect.BindOption
		if p.Positional || (!hasDefault && !p.Optional) {
			binding = introspect.BindPositional
		}
		required := !hasDefault && !p.Optional

		if binding == introspect.BindPositional {
			if required && sawOptionalPositional {
				return nil, errors.NewInvalidHintError(p.Name,
					"required positional parameter after an optional positional parameter")
			}
			if !required {
				sawOptionalPositional = true
			}
		}

		params = append(params, introspect.ParameterDescriptor{
			Name:       p.Name,
			Type:       paramType,
			HasDefault: hasDefault,
			Default:    def,
			Required:   required,
			Binding:    binding,
			Help:       p.Help,
		})
	}

	return &Command{spec: spec, source: source, params: params}, nil
}

// coerceDefault normalizes a YAML-decoded default into the declared
// parameter type. YAML hands back int for numbers and string for everything
// quoted, so durations and floats need explicit conversion.
func coerceDefault(value interface{}, want reflect.Type) (interface{}, error) {
	v := reflect.ValueOf(value)
	if v.Type() == want {
		return value, nil
	}

	switch want {
	case paramTypes["duration"]:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("duration default must be a string, got %T", value)
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("parsing duration default: %v", err)
		}
		return d, nil
	case paramTypes["float"]:
		if v.CanInt() {
			return float64(v.Int()), nil
		}
	case paramTypes["int"]:
		if v.CanInt() {
			return int(v.Int()), nil
		}
	}

	if v.Type().ConvertibleTo(want) && v.Kind() != reflect.String {
		return v.Convert(want).Interface(), nil
	}

	return nil, fmt.Errorf("default value of type %T is not assignable to parameter type %s", value, want)
}

// Name returns the command's dotted name.
func (c *Command) Name() string { return c.spec.Name }

// Help returns the command's short help text.
func (c *Command) Help() string { return c.spec.Help }

// Source returns the manifest path the command was loaded from.
func (c *Command) Source() string { return c.source }

// Parameters implements the tree builder's parameter source.
func (c *Command) Parameters() []introspect.ParameterDescriptor { return c.params }

// Invoke runs the declared argv with parameter values substituted.
// Occurrences of ${name} in argv elements are replaced with the value's
// string form; an element that is exactly a substitution for an unset value
// is dropped rather than passed as an empty argument.
func (c *Command) Invoke(ctx context.Context, args map[string]interface{}) error {
	argv := make([]string, 0, len(c.spec.Exec))
	for _, elem := range c.spec.Exec {
		expanded, drop := expand(elem, args)
		if drop {
			continue
		}
		argv = append(argv, expanded)
	}

	if len(argv) == 0 {
		return errors.NewInvalidTargetError(c.spec.Name, "", "argv expanded to nothing")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", c.spec.Name, err)
	}

	return nil
}

func expand(elem string, args map[string]interface{}) (string, bool) {
	if !strings.Contains(elem, "${") {
		return elem, false
	}

	// Whole-element substitution of an unset value drops the element.
	if strings.HasPrefix(elem, "${") && strings.HasSuffix(elem, "}") && strings.Count(elem, "${") == 1 {
		name := elem[2 : len(elem)-1]
		v, ok := args[name]
		if !ok || v == nil {
			return "", true
		}
		return fmt.Sprintf("%v", v), false
	}

	expanded := elem
	for name, v := range args {
		expanded = strings.ReplaceAll(expanded, "${"+name+"}", fmt.Sprintf("%v", v))
	}
	return expanded, false
}
