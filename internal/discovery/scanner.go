package discovery

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/conneroisu/cmdhub/internal/cmdtree"
	"github.com/conneroisu/cmdhub/internal/hub"
	"github.com/conneroisu/cmdhub/internal/logging"
	"github.com/conneroisu/cmdhub/internal/registry"
)

// MetadataSource is the metadata key recording which manifest file a
// discovered command came from.
const MetadataSource = "source"

// Scanner discovers manifest files under configured paths and registers
// their commands with a hub.
type Scanner struct {
	hub    *hub.Hub
	logger logging.Logger
	paths  []string

	mu         sync.Mutex
	registered []string // names registered by the last scan, for rescans
}

// ScannerOption configures a scanner.
type ScannerOption func(*Scanner)

// WithLogger sets the scanner's logger. The default discards everything.
func WithLogger(l logging.Logger) ScannerOption {
	return func(s *Scanner) { s.logger = l }
}

// NewScanner creates a scanner that registers into h and scans the given
// paths. Each path may be a manifest file or a directory searched
// recursively for .yml and .yaml files.
func NewScanner(h *hub.Hub, paths []string, opts ...ScannerOption) *Scanner {
	s := &Scanner{hub: h, paths: paths, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Paths returns the configured scan paths.
func (s *Scanner) Paths() []string { return s.paths }

// Scan loads every manifest under the configured paths and registers each
// declared command. It returns the number of commands registered. A missing
// scan path is skipped with a warning; a malformed manifest or a duplicate
// registration fails the scan.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.collect(ctx)
	if err != nil {
		return 0, err
	}

	registered := 0
	for _, file := range files {
		n, err := s.registerFile(ctx, file)
		if err != nil {
			return registered, err
		}
		registered += n
	}

	s.logger.Info(ctx, "manifest scan complete",
		"files", len(files), "commands", registered)

	return registered, nil
}

// Rescan removes every command registered by the previous scan and scans
// again, picking up manifest edits, additions, and deletions. Commands
// registered outside discovery are untouched.
func (s *Scanner) Rescan(ctx context.Context) (int, error) {
	s.mu.Lock()
	for _, name := range s.registered {
		if _, err := s.hub.Remove(name, registry.DimensionCommand); err != nil {
			s.mu.Unlock()
			return 0, err
		}
	}
	s.registered = nil
	s.mu.Unlock()

	return s.Scan(ctx)
}

func (s *Scanner) collect(ctx context.Context) ([]string, error) {
	var files []string
	for _, path := range s.paths {
		info, err := os.Stat(path)
		if err != nil {
			s.logger.Warn(ctx, err, "skipping scan path", "path", path)
			continue
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if isManifestFile(p) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", path, err)
		}
	}

	// Deterministic registration order regardless of walk order.
	sort.Strings(files)
	return files, nil
}

func isManifestFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yml" || ext == ".yaml"
}

func (s *Scanner) registerFile(ctx context.Context, path string) (int, error) {
	manifest, err := LoadManifest(path)
	if err != nil {
		return 0, err
	}

	for _, spec := range manifest.Commands {
		cmd, err := NewCommand(spec, path)
		if err != nil {
			return 0, fmt.Errorf("manifest %s: %w", path, err)
		}

		opts := registry.RegisterOptions{
			Aliases: spec.Aliases,
			Replace: spec.Replace,
			Metadata: map[string]interface{}{
				cmdtree.MetadataHelp: spec.Help,
				MetadataSource:       path,
			},
		}
		if _, err := s.hub.Register(spec.Name, registry.ValueTarget(cmd), registry.DimensionCommand, opts); err != nil {
			return 0, fmt.Errorf("manifest %s: %w", path, err)
		}
		s.registered = append(s.registered, spec.Name)

		s.logger.Debug(ctx, "registered manifest command",
			"name", spec.Name, "manifest", path)
	}

	return len(manifest.Commands), nil
}
