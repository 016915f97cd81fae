// Package cmdtree derives a hierarchical command tree from the flat,
// dot-separated command names registered in a hub. The tree is ephemeral:
// it is rebuilt on each render and holds no lifecycle state of its own.
package cmdtree

import (
	"strings"

	"github.com/conneroisu/cmdhub/internal/hub"
	"github.com/conneroisu/cmdhub/internal/introspect"
	"github.com/conneroisu/cmdhub/internal/registry"
)

// Metadata keys interpreted by the tree builder and adapters. The registry
// itself never looks at metadata.
const (
	// MetadataHelp holds a short human-readable summary for a command or
	// group, surfaced as CLI help text.
	MetadataHelp = "help"
	// MetadataHints holds []introspect.Hint for a handler's parameters.
	MetadataHints = "hints"
)

// Node is one segment of the derived command tree. A node may be a group
// (it has children), a leaf (its exact dotted path was registered as a
// command), or both at once.
type Node struct {
	// Segment is the node's own dot-separated path component.
	Segment string
	// Path is the full dotted path from the root.
	Path string
	// Leaf is the command entry registered at exactly this path, if any.
	Leaf *registry.Entry
	// Group is the explicit metadata-only group entry at this path, if any.
	Group *registry.Entry
	// Params describes the leaf handler's invocable surface. Nil for pure
	// groups and for value targets without a parameter descriptor.
	Params []introspect.ParameterDescriptor

	children map[string]*Node
	order    []string
}

func newNode(segment, path string) *Node {
	return &Node{
		Segment:  segment,
		Path:     path,
		children: make(map[string]*Node),
	}
}

// Child returns the child for a segment, if present.
func (n *Node) Child(segment string) (*Node, bool) {
	child, ok := n.children[segment]
	return child, ok
}

// Children returns the node's children in insertion order, which follows
// registration order of the commands that first created each child.
func (n *Node) Children() []*Node {
	children := make([]*Node, 0, len(n.order))
	for _, segment := range n.order {
		children = append(children, n.children[segment])
	}
	return children
}

// IsLeaf reports whether the exact dotted path was registered as a command.
func (n *Node) IsLeaf() bool { return n.Leaf != nil }

// IsGroup reports whether the node groups further commands, either because
// children exist beneath it or because an explicit group was registered.
func (n *Node) IsGroup() bool { return len(n.children) > 0 || n.Group != nil }

// Help returns the node's help text: the explicit group's help for groups,
// otherwise the leaf entry's help metadata.
func (n *Node) Help() string {
	if n.Group != nil {
		if help, ok := n.Group.Metadata[MetadataHelp].(string); ok {
			return help
		}
	}
	if n.Leaf != nil {
		if help, ok := n.Leaf.Metadata[MetadataHelp].(string); ok {
			return help
		}
	}
	return ""
}

// Walk visits the node and every descendant in depth-first, insertion order.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, segment := range n.order {
		n.children[segment].Walk(visit)
	}
}

// child returns the named child, creating it if absent.
func (n *Node) child(segment string) *Node {
	if existing, ok := n.children[segment]; ok {
		return existing
	}
	path := segment
	if n.Path != "" {
		path = n.Path + "." + segment
	}
	created := newNode(segment, path)
	n.children[segment] = created
	n.order = append(n.order, segment)
	return created
}

// ParameterSource is implemented by value targets that carry their own
// parameter descriptors (e.g. commands loaded from discovery manifests).
type ParameterSource interface {
	Parameters() []introspect.ParameterDescriptor
}

// Builder derives the command tree from a hub's command dimension.
type Builder struct {
	hub *hub.Hub
}

// NewBuilder creates a builder over the given hub.
func NewBuilder(h *hub.Hub) *Builder {
	return &Builder{hub: h}
}

// Build fetches all command entries and composes the tree. Entry names are
// already validated at registration time, so segments are never empty, and
// exact-path duplicates cannot occur (the registry's uniqueness invariant).
// Iteration order at every level follows registration order.
func (b *Builder) Build() (*Node, error) {
	entries, err := b.hub.Commands()
	if err != nil {
		return nil, err
	}

	root := newNode("", "")
	for _, entry := range entries {
		if err := b.place(root, entry); err != nil {
			return nil, err
		}
	}

	return root, nil
}

func (b *Builder) place(root *Node, entry *registry.Entry) error {
	node := root
	for _, segment := range strings.Split(entry.Name, ".") {
		node = node.child(segment)
	}

	if entry.Target.Kind() == registry.TargetKindGroup {
		node.Group = entry
		return nil
	}

	node.Leaf = entry

	switch entry.Target.Kind() {
	case registry.TargetKindHandler:
		params, err := introspect.Describe(entry.Target.Handler(), entryHints(entry))
		if err != nil {
			return err
		}
		node.Params = params
	case registry.TargetKindValue:
		if source, ok := entry.Target.Value().(ParameterSource); ok {
			node.Params = source.Parameters()
		}
	}

	return nil
}

// entryHints extracts explicit parameter hints from entry metadata.
func entryHints(entry *registry.Entry) []introspect.Hint {
	hints, _ := entry.Metadata[MetadataHints].([]introspect.Hint)
	return hints
}
