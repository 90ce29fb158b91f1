// Package hierarchy builds the multi-level rollup tree that all dashboard
// views consume. Construction is a pure function of the record snapshot:
// insert records level by level, deduplicate employees first-wins, then run
// a single bottom-up rollup pass.
package hierarchy

import (
	"github.com/fabricpulse/rtms/internal/modules/classification"
	"github.com/fabricpulse/rtms/internal/modules/normalize"
)

// Node is one aggregate node of the rollup tree. Internal nodes hold
// Children; the level directly above employees holds Employees instead.
// Production/target are zero until Rollup runs.
type Node struct {
	Name                string                     `json:"name"`
	Production          int                        `json:"production"`
	Target              int                        `json:"target"`
	Efficiency          float64                    `json:"efficiency"`
	Status              classification.Status      `json:"status"`
	EmployeeCount       int                        `json:"employee_count"`
	UnderperformerCount int                        `json:"underperformer_count"`
	Children            map[string]*Node           `json:"children,omitempty"`
	Employees           []normalize.EmployeeRecord `json:"employees,omitempty"`
}

// Build inserts normalized records into a fresh tree shaped by levels.
// Nodes are created on first encounter; inserting an existing key is a no-op
// walk. Employees deduplicate by code across the whole build, first wins:
// the monitoring domain treats a duplicate code as a stale re-sent record,
// never a correction.
func Build(records []normalize.EmployeeRecord, levels []Level) *Node {
	root := &Node{Name: "root", Children: make(map[string]*Node)}
	seen := make(map[string]bool, len(records))

	for _, rec := range records {
		if seen[rec.EmpCode] {
			continue
		}
		seen[rec.EmpCode] = true

		node := root
		for i, level := range levels {
			key := level.Key(rec)
			child, ok := node.Children[key]
			if !ok {
				child = &Node{Name: key}
				if i < len(levels)-1 {
					child.Children = make(map[string]*Node)
				}
				node.Children[key] = child
			}
			node = child
		}
		node.Employees = append(node.Employees, rec)
	}

	return root
}

// Rollup performs the single bottom-up aggregation pass. Every internal
// node's production and target become the sum over its children; efficiency
// and status are derived from the node's own totals afterwards, never from
// averaging child efficiencies. threshold is the underperformer boundary
// used for the rolled-up underperformer counts.
func Rollup(root *Node, threshold float64) {
	rollupNode(root, threshold)
}

func rollupNode(n *Node, threshold float64) {
	if len(n.Children) == 0 && len(n.Employees) == 0 {
		// Degenerate empty node: totals stay zero.
		n.Efficiency = 0
		n.Status = classification.Classify(0)
		return
	}

	if n.Employees != nil {
		for _, emp := range n.Employees {
			n.Production += emp.Production
			n.Target += emp.Target
			n.EmployeeCount++
			if emp.Efficiency < threshold {
				n.UnderperformerCount++
			}
		}
	}

	for _, child := range n.Children {
		rollupNode(child, threshold)
		n.Production += child.Production
		n.Target += child.Target
		n.EmployeeCount += child.EmployeeCount
		n.UnderperformerCount += child.UnderperformerCount
	}

	n.Efficiency = classification.Efficiency(n.Production, n.Target)
	n.Status = classification.Classify(n.Efficiency)
}

// BuildTree is the Build+Rollup convenience used by every rebuild cycle.
func BuildTree(records []normalize.EmployeeRecord, levels []Level, threshold float64) *Node {
	root := Build(records, levels)
	Rollup(root, threshold)
	return root
}

// WalkEmployees visits every employee leaf in the tree. Visit order across
// sibling subtrees is unspecified (map iteration); callers that need a
// stable order sort afterwards.
func (n *Node) WalkEmployees(visit func(normalize.EmployeeRecord)) {
	for _, emp := range n.Employees {
		visit(emp)
	}
	for _, child := range n.Children {
		child.WalkEmployees(visit)
	}
}

// FlattenEmployees collects every employee leaf below the node.
func (n *Node) FlattenEmployees() []normalize.EmployeeRecord {
	var out []normalize.EmployeeRecord
	n.WalkEmployees(func(r normalize.EmployeeRecord) {
		out = append(out, r)
	})
	return out
}
