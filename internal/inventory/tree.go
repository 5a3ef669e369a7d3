// Package inventory merges inventory rows into a tree addressed by paths
// like hardware/system.
package inventory

import (
	"sort"
	"strings"

	"unifimon/internal/checkapi"
)

// Row is one table row: key columns and inventory columns together.
type Row map[string]any

type Node struct {
	Attributes map[string]any   `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Table      []Row            `json:"table,omitempty" yaml:"table,omitempty"`
	Nodes      map[string]*Node `json:"nodes,omitempty" yaml:"nodes,omitempty"`
}

func newNode() *Node {
	return &Node{}
}

func (n *Node) child(name string) *Node {
	if n.Nodes == nil {
		n.Nodes = make(map[string]*Node)
	}
	c, ok := n.Nodes[name]
	if !ok {
		c = newNode()
		n.Nodes[name] = c
	}
	return c
}

func (n *Node) setAttributes(attrs map[string]any) {
	if n.Attributes == nil {
		n.Attributes = make(map[string]any, len(attrs))
	}
	for k, v := range attrs {
		n.Attributes[k] = v
	}
}

// addRow updates the row with the same key columns or appends a new one.
func (n *Node) addRow(keys, columns map[string]any) {
	for _, row := range n.Table {
		if row.matches(keys) {
			for k, v := range columns {
				row[k] = v
			}
			return
		}
	}
	row := make(Row, len(keys)+len(columns))
	for k, v := range keys {
		row[k] = v
	}
	for k, v := range columns {
		row[k] = v
	}
	n.Table = append(n.Table, row)
}

func (r Row) matches(keys map[string]any) bool {
	for k, v := range keys {
		if existing, ok := r[k]; !ok || existing != v {
			return false
		}
	}
	return true
}

// Tree is the inventory of one host.
type Tree struct {
	Root *Node `json:"root" yaml:"root"`
}

func New() *Tree {
	return &Tree{Root: newNode()}
}

// Build creates a tree from inventory rows.
func Build(rows []checkapi.InventoryRow) *Tree {
	t := New()
	t.Add(rows...)
	return t
}

// Add merges rows into the tree. Later attributes overwrite earlier ones.
func (t *Tree) Add(rows ...checkapi.InventoryRow) {
	for _, row := range rows {
		node := t.Root
		for _, name := range row.NodePath() {
			node = node.child(name)
		}
		switch r := row.(type) {
		case checkapi.Attributes:
			node.setAttributes(r.InventoryAttributes)
		case checkapi.TableRow:
			node.addRow(r.KeyColumns, r.InventoryColumns)
		}
	}
}

// Get returns the node at path.
func (t *Tree) Get(path ...string) (*Node, bool) {
	node := t.Root
	for _, name := range path {
		next, ok := node.Nodes[name]
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

// Paths lists every node carrying attributes or a table, joined with "/",
// in sorted order.
func (t *Tree) Paths() []string {
	var paths []string
	var walk func(prefix []string, n *Node)
	walk = func(prefix []string, n *Node) {
		if len(n.Attributes) > 0 || len(n.Table) > 0 {
			paths = append(paths, strings.Join(prefix, "/"))
		}
		for name, c := range n.Nodes {
			walk(append(append([]string(nil), prefix...), name), c)
		}
	}
	walk(nil, t.Root)
	sort.Strings(paths)
	return paths
}

// Empty reports whether the tree holds no data.
func (t *Tree) Empty() bool {
	return len(t.Paths()) == 0
}
