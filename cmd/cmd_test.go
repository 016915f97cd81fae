package cmd

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/cmdhub/internal/cmdtree"
	"github.com/conneroisu/cmdhub/internal/hub"
	"github.com/conneroisu/cmdhub/internal/registry"
)

func TestDimensionFromFlag(t *testing.T) {
	dim, err := dimensionFromFlag("processor")
	require.NoError(t, err)
	assert.Equal(t, registry.DimensionProcessor, dim)

	_, err = dimensionFromFlag("widget")
	assert.Error(t, err)
}

func TestEntryHelp(t *testing.T) {
	entry := &registry.Entry{Metadata: map[string]interface{}{cmdtree.MetadataHelp: "does things"}}
	assert.Equal(t, "does things", entryHelp(entry))

	assert.Empty(t, entryHelp(&registry.Entry{}))
	assert.Empty(t, entryHelp(&registry.Entry{Metadata: map[string]interface{}{cmdtree.MetadataHelp: 7}}))
}

func TestFormatError_UsesDefaultHandler(t *testing.T) {
	h := hub.New()
	err := fmt.Errorf("database on fire")

	assert.Equal(t, "database on fire", formatError(h, err))
}

func TestFormatError_CustomHandler(t *testing.T) {
	h := hub.New()
	_, regErr := h.RegisterErrorHandler(hub.DefaultErrorHandlerName,
		func(err error) string { return "oops: " + err.Error() },
		registry.RegisterOptions{Replace: true})
	require.NoError(t, regErr)

	assert.Equal(t, "oops: boom", formatError(h, fmt.Errorf("boom")))
}

func TestMountRegisteredCommands(t *testing.T) {
	h := hub.New()
	_, err := h.RegisterCommand("ping", func() error { return nil }, registry.RegisterOptions{})
	require.NoError(t, err)

	require.NoError(t, mountRegisteredCommands(h))

	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "ping" {
			found = true
			rootCmd.RemoveCommand(cmd)
		}
	}
	assert.True(t, found)
}
