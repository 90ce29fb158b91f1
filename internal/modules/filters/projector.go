package filters

import (
	"sort"

	"github.com/fabricpulse/rtms/internal/modules/hierarchy"
)

// Projection is the result of resolving a selection against a rollup tree:
// the matching subtree plus the valid option set for the first unset level.
type Projection struct {
	// Node is the subtree matching the selected path, or the tree root for
	// an empty selection. Nil when the path names a key absent from the tree.
	Node *hierarchy.Node

	// NextLevel names the first unset selection level, empty when the
	// selection is complete.
	NextLevel string

	// Options are the valid keys for NextLevel, derived from the resolved
	// node's children rather than the raw record stream, so the UI never
	// offers a dead-end choice. Sorted for stable output.
	Options []string
}

// Project resolves a selection against a tree built with ProjectionLevels.
// The walk consumes the selected path one level at a time; an unknown key
// yields a nil node and an empty option set.
func Project(root *hierarchy.Node, sel Selection) Projection {
	node := root
	for _, key := range sel.Path() {
		child, ok := node.Children[key]
		if !ok {
			return Projection{NextLevel: levelName(sel.NextLevel())}
		}
		node = child
	}

	proj := Projection{Node: node}
	if next := sel.NextLevel(); next >= 0 {
		proj.NextLevel = next.String()
		proj.Options = childKeys(node)
	}
	return proj
}

// childKeys returns a node's child keys in sorted order.
func childKeys(n *hierarchy.Node) []string {
	keys := make([]string, 0, len(n.Children))
	for key := range n.Children {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func levelName(l SelectionLevel) string {
	if l < 0 {
		return ""
	}
	return l.String()
}
