package discovery

import (
	"reflect"
	"testing"
	"time"

	hubErrors "github.com/conneroisu/cmdhub/internal/errors"
	"github.com/conneroisu/cmdhub/internal/introspect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifest(t *testing.T) {
	data := []byte(`
commands:
  - name: db.backup
    help: Back up the database
    aliases: [bak]
    exec: ["pg_dump", "--file", "${output}"]
    params:
      - name: output
        type: string
        help: destination file
`)

	m, err := ParseManifest(data)
	require.NoError(t, err)
	require.Len(t, m.Commands, 1)

	spec := m.Commands[0]
	assert.Equal(t, "db.backup", spec.Name)
	assert.Equal(t, "Back up the database", spec.Help)
	assert.Equal(t, []string{"bak"}, spec.Aliases)
	require.Len(t, spec.Params, 1)
	assert.Equal(t, "output", spec.Params[0].Name)
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing name", "commands:\n  - exec: [ls]\n"},
		{"missing exec", "commands:\n  - name: x\n"},
		{"unknown param type", "commands:\n  - name: x\n    exec: [ls]\n    params:\n      - name: p\n        type: complex128\n"},
		{"unnamed param", "commands:\n  - name: x\n    exec: [ls]\n    params:\n      - type: string\n"},
		{"not yaml", "{{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestNewCommand_ParameterDerivation(t *testing.T) {
	spec := CommandSpec{
		Name: "deploy",
		Exec: []string{"deployer", "${environment}", "--replicas", "${replicas}"},
		Params: []ParamSpec{
			{Name: "environment"},
			{Name: "replicas", Type: "int", Default: 2},
			{Name: "timeout", Type: "duration", Default: "30s"},
		},
	}

	cmd, err := NewCommand(spec, "ops.yml")
	require.NoError(t, err)

	params := cmd.Parameters()
	require.Len(t, params, 3)

	assert.Equal(t, "environment", params[0].Name)
	assert.True(t, params[0].Required)
	assert.Equal(t, introspect.BindPositional, params[0].Binding)

	assert.Equal(t, "replicas", params[1].Name)
	assert.False(t, params[1].Required)
	assert.Equal(t, introspect.BindOption, params[1].Binding)
	assert.Equal(t, 2, params[1].Default)

	assert.Equal(t, reflect.TypeOf(time.Duration(0)), params[2].Type)
	assert.Equal(t, 30*time.Second, params[2].Default)
}

func TestNewCommand_RequiredAfterOptionalPositional(t *testing.T) {
	spec := CommandSpec{
		Name: "x",
		Exec: []string{"x"},
		Params: []ParamSpec{
			{Name: "a", Positional: true, Optional: true},
			{Name: "b", Positional: true},
		},
	}

	_, err := NewCommand(spec, "m.yml")
	require.Error(t, err)
	assert.True(t, hubErrors.IsInvalidHint(err))
}

func TestNewCommand_BadDefault(t *testing.T) {
	spec := CommandSpec{
		Name:   "x",
		Exec:   []string{"x"},
		Params: []ParamSpec{{Name: "n", Type: "int", Default: "five"}},
	}

	_, err := NewCommand(spec, "m.yml")
	require.Error(t, err)
	assert.True(t, hubErrors.IsInvalidHint(err))
}

func TestExpand(t *testing.T) {
	args := map[string]interface{}{"env": "prod", "replicas": 3}

	got, drop := expand("${env}", args)
	assert.False(t, drop)
	assert.Equal(t, "prod", got)

	got, drop = expand("--replicas=${replicas}", args)
	assert.False(t, drop)
	assert.Equal(t, "--replicas=3", got)

	_, drop = expand("${missing}", args)
	assert.True(t, drop)

	got, drop = expand("plain", args)
	assert.False(t, drop)
	assert.Equal(t, "plain", got)
}
