// Package hub provides the facade over the cmdhub registry. A Hub owns lazy,
// exactly-once initialization of built-in entries and exposes per-dimension
// registration and lookup helpers. Feature modules talk to a Hub; only the
// hub talks to the registry directly.
package hub

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/conneroisu/cmdhub/internal/errors"
	"github.com/conneroisu/cmdhub/internal/logging"
	"github.com/conneroisu/cmdhub/internal/registry"
)

// SetupFunc seeds a registry during the hub's one-time initialization.
// Setup must be retry-safe: a failed attempt is retried on the next hub
// operation, so registrations made here should use Replace semantics.
type SetupFunc func(*registry.Registry) error

// Hub composes a registry with lazy initialization and dimension-specific
// helpers. The zero value is not usable; construct with New.
type Hub struct {
	registry *registry.Registry
	logger   logging.Logger
	setup    SetupFunc

	// initialized flips to true only after setup succeeds, so a failed
	// attempt is retried rather than poisoning the hub.
	initialized atomic.Bool
	initMu      sync.Mutex
}

// Option configures a Hub.
type Option func(*Hub)

// WithRegistry uses an existing registry instead of a fresh one.
func WithRegistry(r *registry.Registry) Option {
	return func(h *Hub) { h.registry = r }
}

// WithLogger sets the hub's logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

// WithSetup replaces the default initialization routine. Mainly used by
// tests to observe or fail initialization.
func WithSetup(fn SetupFunc) Option {
	return func(h *Hub) { h.setup = fn }
}

// New creates a hub. Initialization does not run here; it runs on first use.
func New(opts ...Option) *Hub {
	h := &Hub{
		setup: defaultSetup,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.registry == nil {
		h.registry = registry.New()
	}
	if h.logger == nil {
		h.logger = logging.NewNop()
	}
	return h
}

var (
	defaultHub  *Hub
	defaultOnce sync.Once
)

// Default returns the conventional process-wide hub used by production
// entry points. Tests and library code should construct isolated hubs with
// New instead.
func Default() *Hub {
	defaultOnce.Do(func() {
		defaultHub = New()
	})
	return defaultHub
}

// DefaultErrorHandlerName is the error-handler entry seeded by the default
// initialization routine.
const DefaultErrorHandlerName = "default"

// defaultSetup seeds the built-in entries. Registrations use Replace so a
// partially-applied failed attempt can be retried cleanly.
func defaultSetup(r *registry.Registry) error {
	_, err := r.Register(
		DefaultErrorHandlerName,
		registry.HandlerTarget(func(err error) string { return err.Error() }),
		registry.DimensionErrorHandler,
		registry.RegisterOptions{
			Metadata: map[string]interface{}{"help": "formats an error for terminal output"},
			Replace:  true,
		},
	)
	return err
}

// ensureInit runs the one-time setup with double-checked locking: a
// lock-free fast path, then a recheck under the lock so concurrent first
// callers run setup exactly once.
func (h *Hub) ensureInit() error {
	if h.initialized.Load() {
		return nil
	}

	h.initMu.Lock()
	defer h.initMu.Unlock()

	if h.initialized.Load() {
		return nil
	}

	if err := h.setup(h.registry); err != nil {
		return errors.NewInitializationError(err)
	}

	h.initialized.Store(true)
	h.logger.Debug(context.Background(), "hub initialized")
	return nil
}

// Register stores a target in an arbitrary dimension. Most callers want the
// dimension-specific helpers below.
func (h *Hub) Register(name string, target registry.Target, dimension registry.Dimension, opts registry.RegisterOptions) (*registry.Entry, error) {
	if err := h.ensureInit(); err != nil {
		return nil, err
	}
	return h.registry.Register(name, target, dimension, opts)
}

// Resolve looks up an entry by canonical name or alias in any dimension.
func (h *Hub) Resolve(name string, dimension registry.Dimension) (*registry.Entry, error) {
	if err := h.ensureInit(); err != nil {
		return nil, err
	}
	return h.registry.Resolve(name, dimension)
}

// List returns a dimension's entries in registration order.
func (h *Hub) List(dimension registry.Dimension) ([]*registry.Entry, error) {
	if err := h.ensureInit(); err != nil {
		return nil, err
	}
	return h.registry.List(dimension), nil
}

// Remove deletes a canonical entry and its aliases. It reports whether
// anything was removed. Primarily used for test isolation.
func (h *Hub) Remove(name string, dimension registry.Dimension) (bool, error) {
	if err := h.ensureInit(); err != nil {
		return false, err
	}
	return h.registry.Remove(name, dimension), nil
}

// PopulatedDimensions returns the dimensions currently holding entries.
func (h *Hub) PopulatedDimensions() ([]registry.Dimension, error) {
	if err := h.ensureInit(); err != nil {
		return nil, err
	}
	return h.registry.PopulatedDimensions(), nil
}

// Command dimension helpers

// RegisterCommand registers a callable under a dotted command name. The
// name's dot segments become the command's position in the derived tree.
func (h *Hub) RegisterCommand(name string, handler interface{}, opts registry.RegisterOptions) (*registry.Entry, error) {
	return h.Register(name, registry.HandlerTarget(handler), registry.DimensionCommand, opts)
}

// RegisterGroup pre-registers a metadata-only group node at a dotted path,
// controlling group help text independent of any leaf below it.
func (h *Hub) RegisterGroup(name string, metadata map[string]interface{}) (*registry.Entry, error) {
	return h.Register(name, registry.GroupTarget(), registry.DimensionCommand, registry.RegisterOptions{
		Metadata: metadata,
	})
}

// Command resolves a command entry by name or alias.
func (h *Hub) Command(name string) (*registry.Entry, error) {
	return h.Resolve(name, registry.DimensionCommand)
}

// Commands lists all command-dimension entries (commands and explicit
// groups) in registration order.
func (h *Hub) Commands() ([]*registry.Entry, error) {
	return h.List(registry.DimensionCommand)
}

// Config-source dimension helpers

// RegisterConfigSource registers a configuration source descriptor.
func (h *Hub) RegisterConfigSource(name string, source interface{}, opts registry.RegisterOptions) (*registry.Entry, error) {
	return h.Register(name, registry.ValueTarget(source), registry.DimensionConfigSource, opts)
}

// ConfigSource resolves a config-source entry by name or alias.
func (h *Hub) ConfigSource(name string) (*registry.Entry, error) {
	return h.Resolve(name, registry.DimensionConfigSource)
}

// ConfigSources lists all config-source entries in registration order.
func (h *Hub) ConfigSources() ([]*registry.Entry, error) {
	return h.List(registry.DimensionConfigSource)
}

// Processor dimension helpers

// RegisterProcessor registers a processing callable.
func (h *Hub) RegisterProcessor(name string, processor interface{}, opts registry.RegisterOptions) (*registry.Entry, error) {
	return h.Register(name, registry.HandlerTarget(processor), registry.DimensionProcessor, opts)
}

// Processor resolves a processor entry by name or alias.
func (h *Hub) Processor(name string) (*registry.Entry, error) {
	return h.Resolve(name, registry.DimensionProcessor)
}

// Processors lists all processor entries in registration order.
func (h *Hub) Processors() ([]*registry.Entry, error) {
	return h.List(registry.DimensionProcessor)
}

// Error-handler dimension helpers

// RegisterErrorHandler registers an error-handling callable.
func (h *Hub) RegisterErrorHandler(name string, handler interface{}, opts registry.RegisterOptions) (*registry.Entry, error) {
	return h.Register(name, registry.HandlerTarget(handler), registry.DimensionErrorHandler, opts)
}

// ErrorHandler resolves an error-handler entry by name or alias.
func (h *Hub) ErrorHandler(name string) (*registry.Entry, error) {
	return h.Resolve(name, registry.DimensionErrorHandler)
}

// ErrorHandlers lists all error-handler entries in registration order.
func (h *Hub) ErrorHandlers() ([]*registry.Entry, error) {
	return h.List(registry.DimensionErrorHandler)
}
