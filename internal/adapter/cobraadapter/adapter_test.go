package cobraadapter

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/conneroisu/cmdhub/internal/adapter"
	"github.com/conneroisu/cmdhub/internal/cmdtree"
	hubErrors "github.com/conneroisu/cmdhub/internal/errors"
	"github.com/conneroisu/cmdhub/internal/hub"
	"github.com/conneroisu/cmdhub/internal/introspect"
	"github.com/conneroisu/cmdhub/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringType() reflect.Type { return reflect.TypeOf("") }

func buildTree(t *testing.T, h *hub.Hub) *cmdtree.Node {
	t.Helper()
	root, err := cmdtree.NewBuilder(h).Build()
	require.NoError(t, err)
	return root
}

func TestRender_TreeStructure(t *testing.T) {
	h := hub.New()
	_, err := h.RegisterCommand("db.migrate.up", func() error { return nil }, registry.RegisterOptions{})
	require.NoError(t, err)
	_, err = h.RegisterCommand("db.migrate.down", func() error { return nil }, registry.RegisterOptions{})
	require.NoError(t, err)

	a := New(WithUse("app"), WithShort("demo"))
	cmd, err := a.RenderCommand(buildTree(t, h))
	require.NoError(t, err)

	assert.Equal(t, "app", cmd.Use)
	require.Len(t, cmd.Commands(), 1)

	db := cmd.Commands()[0]
	assert.Equal(t, "db", db.Name())
	require.Len(t, db.Commands(), 1)

	migrate := db.Commands()[0]
	names := []string{migrate.Commands()[0].Name(), migrate.Commands()[1].Name()}
	assert.Equal(t, []string{"up", "down"}, names)
}

func TestRun_PositionalAndOption(t *testing.T) {
	h := hub.New()

	var gotEnv string
	var gotReplicas int
	handler := func(env string, replicas int) error {
		gotEnv = env
		gotReplicas = replicas
		return nil
	}
	_, err := h.RegisterCommand("deploy", handler, registry.RegisterOptions{
		Metadata: map[string]interface{}{
			cmdtree.MetadataHints: []introspect.Hint{
				{Name: "environment"},
				{Name: "replicas", Default: 2},
			},
		},
	})
	require.NoError(t, err)

	runner, err := New().Render(buildTree(t, h))
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background(), []string{"deploy", "staging", "--replicas", "5"}))
	assert.Equal(t, "staging", gotEnv)
	assert.Equal(t, 5, gotReplicas)
}

func TestRun_OptionDefaultApplied(t *testing.T) {
	h := hub.New()

	var gotReplicas int
	_, err := h.RegisterCommand("deploy", func(replicas int) error {
		gotReplicas = replicas
		return nil
	}, registry.RegisterOptions{
		Metadata: map[string]interface{}{
			cmdtree.MetadataHints: []introspect.Hint{{Name: "replicas", Default: 3}},
		},
	})
	require.NoError(t, err)

	runner, err := New().Render(buildTree(t, h))
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background(), []string{"deploy"}))
	assert.Equal(t, 3, gotReplicas)
}

func TestRun_OptionalPositionalDefault(t *testing.T) {
	h := hub.New()

	var gotTarget string
	_, err := h.RegisterCommand("build", func(target string) error {
		gotTarget = target
		return nil
	}, registry.RegisterOptions{
		Metadata: map[string]interface{}{
			cmdtree.MetadataHints: []introspect.Hint{
				{Name: "target", Positional: true, Default: "all"},
			},
		},
	})
	require.NoError(t, err)

	runner, err := New().Render(buildTree(t, h))
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background(), []string{"build"}))
	assert.Equal(t, "all", gotTarget)

	require.NoError(t, runner.Run(context.Background(), []string{"build", "docs"}))
	assert.Equal(t, "docs", gotTarget)
}

func TestRun_MissingRequiredPositional(t *testing.T) {
	h := hub.New()

	_, err := h.RegisterCommand("deploy", func(env string) error { return nil }, registry.RegisterOptions{
		Metadata: map[string]interface{}{
			cmdtree.MetadataHints: []introspect.Hint{{Name: "environment"}},
		},
	})
	require.NoError(t, err)

	runner, err := New().Render(buildTree(t, h))
	require.NoError(t, err)

	assert.Error(t, runner.Run(context.Background(), []string{"deploy"}))
}

func TestRun_Variadic(t *testing.T) {
	h := hub.New()

	var gotTags []string
	_, err := h.RegisterCommand("tag", func(first string, rest ...string) error {
		gotTags = append([]string{first}, rest...)
		return nil
	}, registry.RegisterOptions{
		Metadata: map[string]interface{}{
			cmdtree.MetadataHints: []introspect.Hint{{Name: "first"}, {Name: "rest"}},
		},
	})
	require.NoError(t, err)

	runner, err := New().Render(buildTree(t, h))
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background(), []string{"tag", "v1", "v2", "v3"}))
	assert.Equal(t, []string{"v1", "v2", "v3"}, gotTags)

	require.NoError(t, runner.Run(context.Background(), []string{"tag", "solo"}))
	assert.Equal(t, []string{"solo"}, gotTags)
}

func TestRun_VariadicAfterOptionalPositional(t *testing.T) {
	h := hub.New()

	var gotSrc string
	var gotFiles []string
	_, err := h.RegisterCommand("copy", func(src string, files ...string) error {
		gotSrc = src
		gotFiles = files
		return nil
	}, registry.RegisterOptions{
		Metadata: map[string]interface{}{
			cmdtree.MetadataHints: []introspect.Hint{
				{Name: "src", Positional: true, Default: "."},
				{Name: "files"},
			},
		},
	})
	require.NoError(t, err)

	runner, err := New().Render(buildTree(t, h))
	require.NoError(t, err)

	// Fewer args than positional slots: the optional positional falls back
	// to its default and the variadic tail is empty.
	require.NoError(t, runner.Run(context.Background(), []string{"copy"}))
	assert.Equal(t, ".", gotSrc)
	assert.Empty(t, gotFiles)

	require.NoError(t, runner.Run(context.Background(), []string{"copy", "/tmp", "a.txt", "b.txt"}))
	assert.Equal(t, "/tmp", gotSrc)
	assert.Equal(t, []string{"a.txt", "b.txt"}, gotFiles)
}

func TestRun_ContextPassedToHandler(t *testing.T) {
	h := hub.New()

	type ctxKey struct{}
	var gotValue interface{}
	_, err := h.RegisterCommand("probe", func(ctx context.Context) error {
		gotValue = ctx.Value(ctxKey{})
		return nil
	}, registry.RegisterOptions{})
	require.NoError(t, err)

	runner, err := New().Render(buildTree(t, h))
	require.NoError(t, err)

	ctx := context.WithValue(context.Background(), ctxKey{}, "present")
	require.NoError(t, runner.Run(ctx, []string{"probe"}))
	assert.Equal(t, "present", gotValue)
}

func TestRun_DurationOption(t *testing.T) {
	h := hub.New()

	var gotTimeout time.Duration
	_, err := h.RegisterCommand("wait", func(timeout time.Duration) error {
		gotTimeout = timeout
		return nil
	}, registry.RegisterOptions{
		Metadata: map[string]interface{}{
			cmdtree.MetadataHints: []introspect.Hint{
				{Name: "timeout", Default: 30 * time.Second},
			},
		},
	})
	require.NoError(t, err)

	runner, err := New().Render(buildTree(t, h))
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background(), []string{"wait", "--timeout", "1m"}))
	assert.Equal(t, time.Minute, gotTimeout)

	// Flag state sticks to a rendered command, so default behavior is
	// checked against a fresh render.
	runner, err = New().Render(buildTree(t, h))
	require.NoError(t, err)
	require.NoError(t, runner.Run(context.Background(), []string{"wait"}))
	assert.Equal(t, 30*time.Second, gotTimeout)
}

func TestRun_HandlerErrorPropagates(t *testing.T) {
	h := hub.New()

	boom := hubErrors.NewNotFoundError("resource", "command")
	_, err := h.RegisterCommand("fail", func() error { return boom }, registry.RegisterOptions{})
	require.NoError(t, err)

	runner, err := New().Render(buildTree(t, h))
	require.NoError(t, err)

	err = runner.Run(context.Background(), []string{"fail"})
	require.Error(t, err)
	assert.Equal(t, adapter.ExitNotFound, adapter.ExitCode(err))
}

func TestRun_Alias(t *testing.T) {
	h := hub.New()

	called := false
	_, err := h.RegisterCommand("status", func() error {
		called = true
		return nil
	}, registry.RegisterOptions{Aliases: []string{"st", "info.status"}})
	require.NoError(t, err)

	runner, err := New().Render(buildTree(t, h))
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background(), []string{"st"}))
	assert.True(t, called)
}

func TestRender_UnsupportedParameterType(t *testing.T) {
	h := hub.New()

	type opaque struct{ x int }
	_, err := h.RegisterCommand("weird", func(o opaque) error { return nil }, registry.RegisterOptions{})
	require.NoError(t, err)

	_, err = New().Render(buildTree(t, h))
	require.Error(t, err)
	assert.True(t, hubErrors.IsRender(err))
	assert.Equal(t, adapter.ExitRender, adapter.ExitCode(err))
}

func TestRender_ValueTargetWithoutInvoker(t *testing.T) {
	h := hub.New()

	_, err := h.Register("inert", registry.ValueTarget("just data"), registry.DimensionCommand, registry.RegisterOptions{})
	require.NoError(t, err)

	_, err = New().Render(buildTree(t, h))
	require.Error(t, err)
	assert.True(t, hubErrors.IsRender(err))
}

type invokableCommand struct {
	params []introspect.ParameterDescriptor
	got    map[string]interface{}
}

func (c *invokableCommand) Parameters() []introspect.ParameterDescriptor { return c.params }

func (c *invokableCommand) Invoke(ctx context.Context, args map[string]interface{}) error {
	c.got = args
	return nil
}

func TestRun_InvokerValueTarget(t *testing.T) {
	h := hub.New()

	cmd := &invokableCommand{params: []introspect.ParameterDescriptor{
		{Name: "path", Type: stringType(), Required: true, Binding: introspect.BindPositional},
	}}
	_, err := h.Register("ingest", registry.ValueTarget(cmd), registry.DimensionCommand, registry.RegisterOptions{})
	require.NoError(t, err)

	runner, err := New().Render(buildTree(t, h))
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background(), []string{"ingest", "/tmp/data"}))
	assert.Equal(t, "/tmp/data", cmd.got["path"])
}

func TestRender_GroupWithHelp(t *testing.T) {
	h := hub.New()

	_, err := h.RegisterGroup("db", map[string]interface{}{cmdtree.MetadataHelp: "database operations"})
	require.NoError(t, err)
	_, err = h.RegisterCommand("db.backup", func() error { return nil }, registry.RegisterOptions{})
	require.NoError(t, err)

	cmd, err := New().RenderCommand(buildTree(t, h))
	require.NoError(t, err)

	db := cmd.Commands()[0]
	assert.Equal(t, "database operations", db.Short)
	assert.False(t, db.Runnable())
	require.Len(t, db.Commands(), 1)
}
