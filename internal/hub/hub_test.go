package hub

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	hubErrors "github.com/conneroisu/cmdhub/internal/errors"
	"github.com/conneroisu/cmdhub/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_LazyInitRunsOnFirstUse(t *testing.T) {
	var calls int32
	h := New(WithSetup(func(r *registry.Registry) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	_, err := h.Commands()
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Subsequent operations do not re-run setup.
	_, err = h.Commands()
	require.NoError(t, err)
	_, err = h.RegisterCommand("deploy", func() {}, registry.RegisterOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHub_ExactlyOnceInitUnderConcurrency(t *testing.T) {
	var calls int32
	h := New(WithSetup(func(r *registry.Registry) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))

	const goroutines = 64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := h.RegisterCommand(fmt.Sprintf("cmd-%d", i), func() {}, registry.RegisterOptions{})
			assert.NoError(t, err)
		}(i)
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	entries, err := h.Commands()
	require.NoError(t, err)
	assert.Len(t, entries, goroutines)
}

func TestHub_FailedInitIsRetried(t *testing.T) {
	var calls int32
	h := New(WithSetup(func(r *registry.Registry) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return fmt.Errorf("transient setup failure")
		}
		return nil
	}))

	for attempt := 0; attempt < 2; attempt++ {
		_, err := h.Commands()
		require.Error(t, err)
		assert.True(t, hubErrors.IsInitialization(err))
	}

	// Third attempt succeeds; the flag only latches on success.
	_, err := h.Commands()
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	// No further setup runs after success.
	_, err = h.Commands()
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHub_InitErrorWrapsCause(t *testing.T) {
	cause := fmt.Errorf("seed entry collided")
	h := New(WithSetup(func(r *registry.Registry) error { return cause }))

	_, err := h.Commands()
	require.Error(t, err)
	assert.True(t, hubErrors.IsInitialization(err))
	assert.ErrorIs(t, err, cause)
}

func TestHub_DefaultSetupSeedsErrorHandler(t *testing.T) {
	h := New()

	entry, err := h.ErrorHandler(DefaultErrorHandlerName)
	require.NoError(t, err)
	assert.Equal(t, registry.TargetKindHandler, entry.Target.Kind())

	format, ok := entry.Target.Handler().(func(error) string)
	require.True(t, ok)
	assert.Equal(t, "boom", format(fmt.Errorf("boom")))
}

func TestHub_DefaultSetupIsRetrySafe(t *testing.T) {
	// Running the default setup twice against one registry must not fail:
	// seeded entries use replace semantics.
	r := registry.New()
	require.NoError(t, defaultSetup(r))
	require.NoError(t, defaultSetup(r))
	assert.Equal(t, 1, r.Count(registry.DimensionErrorHandler))
}

func TestHub_RegisterCommand(t *testing.T) {
	h := New()

	entry, err := h.RegisterCommand("db.migrate.up", func() error { return nil }, registry.RegisterOptions{
		Aliases:  []string{"up"},
		Metadata: map[string]interface{}{"help": "apply migrations"},
	})
	require.NoError(t, err)
	assert.Equal(t, registry.DimensionCommand, entry.Dimension)

	byAlias, err := h.Command("up")
	require.NoError(t, err)
	assert.Same(t, entry, byAlias)
}

func TestHub_RegisterCommand_RejectsEmptySegments(t *testing.T) {
	h := New()

	for _, name := range []string{"db..migrate", ".db", "db.", ""} {
		_, err := h.RegisterCommand(name, func() {}, registry.RegisterOptions{})
		require.Error(t, err, "name %q", name)
		assert.True(t, hubErrors.IsValidation(err))
	}
}

func TestHub_RegisterGroup(t *testing.T) {
	h := New()

	group, err := h.RegisterGroup("db", map[string]interface{}{"help": "database operations"})
	require.NoError(t, err)
	assert.Equal(t, registry.TargetKindGroup, group.Target.Kind())

	// A leaf below the explicit group shares the prefix without conflict.
	_, err = h.RegisterCommand("db.migrate.up", func() {}, registry.RegisterOptions{})
	require.NoError(t, err)

	entries, err := h.Commands()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "db", entries[0].Name)
	assert.Equal(t, "db.migrate.up", entries[1].Name)
}

func TestHub_DimensionHelpers(t *testing.T) {
	h := New()

	_, err := h.RegisterConfigSource("env", map[string]string{"kind": "environment"}, registry.RegisterOptions{})
	require.NoError(t, err)
	_, err = h.RegisterProcessor("normalize", func(s string) string { return s }, registry.RegisterOptions{})
	require.NoError(t, err)
	_, err = h.RegisterErrorHandler("verbose", func(err error) string { return "error: " + err.Error() }, registry.RegisterOptions{})
	require.NoError(t, err)

	source, err := h.ConfigSource("env")
	require.NoError(t, err)
	assert.Equal(t, registry.TargetKindValue, source.Target.Kind())

	processors, err := h.Processors()
	require.NoError(t, err)
	assert.Len(t, processors, 1)

	handlers, err := h.ErrorHandlers()
	require.NoError(t, err)
	// The default handler plus the one registered above.
	assert.Len(t, handlers, 2)

	dims, err := h.PopulatedDimensions()
	require.NoError(t, err)
	assert.Equal(t, []registry.Dimension{
		registry.DimensionConfigSource,
		registry.DimensionErrorHandler,
		registry.DimensionProcessor,
	}, dims)
}

func TestHub_RemoveForTestIsolation(t *testing.T) {
	h := New()

	_, err := h.RegisterCommand("deploy", func() {}, registry.RegisterOptions{})
	require.NoError(t, err)

	removed, err := h.Remove("deploy", registry.DimensionCommand)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = h.Remove("deploy", registry.DimensionCommand)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = h.Command("deploy")
	assert.True(t, hubErrors.IsNotFound(err))
}

func TestHub_IsolatedInstancesDoNotShareState(t *testing.T) {
	a := New()
	b := New()

	_, err := a.RegisterCommand("only-in-a", func() {}, registry.RegisterOptions{})
	require.NoError(t, err)

	_, err = b.Command("only-in-a")
	assert.True(t, hubErrors.IsNotFound(err))
}

func TestHub_SharedRegistry(t *testing.T) {
	r := registry.New()
	a := New(WithRegistry(r))
	b := New(WithRegistry(r))

	_, err := a.RegisterCommand("shared", func() {}, registry.RegisterOptions{})
	require.NoError(t, err)

	entry, err := b.Command("shared")
	require.NoError(t, err)
	assert.Equal(t, "shared", entry.Name)
}

func TestDefault_ReturnsSameInstance(t *testing.T) {
	assert.Same(t, Default(), Default())
}
