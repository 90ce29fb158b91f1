package filters

import (
	"context"

	"github.com/fabricpulse/rtms/internal/modules/hierarchy"
)

// TreeProvider hands out the current projection tree. Implemented by the
// monitor service; the tree is replaced wholesale on every rebuild.
type TreeProvider interface {
	ProjectionTree() *hierarchy.Node
}

// TreeSource serves filter options from the current rollup tree instead of a
// remote backend. Options come from the resolved node's children, so every
// offered choice is guaranteed to resolve to a non-empty subtree.
type TreeSource struct {
	provider TreeProvider
}

// NewTreeSource creates an OptionsSource backed by the provider's tree.
func NewTreeSource(provider TreeProvider) *TreeSource {
	return &TreeSource{provider: provider}
}

var _ OptionsSource = (*TreeSource)(nil)

// Units lists the unit keys at the tree root.
func (s *TreeSource) Units(_ context.Context) ([]string, error) {
	return s.optionsFor(Selection{}), nil
}

// Floors lists the floors under one unit.
func (s *TreeSource) Floors(_ context.Context, unit string) ([]string, error) {
	return s.optionsFor(Selection{Unit: unit}), nil
}

// Lines lists the lines under one unit and floor.
func (s *TreeSource) Lines(_ context.Context, unit, floor string) ([]string, error) {
	return s.optionsFor(Selection{Unit: unit, Floor: floor}), nil
}

// Parts lists the parts under one unit, floor and line.
func (s *TreeSource) Parts(_ context.Context, unit, floor, line string) ([]string, error) {
	return s.optionsFor(Selection{Unit: unit, Floor: floor, Line: line}), nil
}

func (s *TreeSource) optionsFor(sel Selection) []string {
	root := s.provider.ProjectionTree()
	if root == nil {
		return nil
	}
	return Project(root, sel).Options
}
