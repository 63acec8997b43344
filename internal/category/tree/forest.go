// Package tree holds the category forest and the copy-on-write operations
// the explorer uses to update it.
package tree

import "github.com/fekuna/omnipos-backoffice/internal/model"

// MaxDepth bounds every recursive walk over a forest. Category trees in
// practice are a handful of levels deep; anything past this is malformed data.
const MaxDepth = 64

// Forest is the ordered list of root nodes. A published forest is never
// mutated; PatchNode returns a new one.
type Forest []*model.CategoryNode

// Patch lists the node fields to overwrite. Nil fields are left untouched.
type Patch struct {
	Title       *string
	HasChildren *bool
	IsLoading   *bool
	IsExpanded  *bool
	Children    *[]*model.CategoryNode
}

func Bool(v bool) *bool { return &v }

func String(v string) *string { return &v }

func Children(nodes []*model.CategoryNode) *[]*model.CategoryNode { return &nodes }

func (p Patch) apply(n *model.CategoryNode) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.HasChildren != nil {
		n.HasChildren = *p.HasChildren
	}
	if p.IsLoading != nil {
		n.IsLoading = *p.IsLoading
	}
	if p.IsExpanded != nil {
		n.IsExpanded = *p.IsExpanded
	}
	if p.Children != nil {
		n.Children = *p.Children
		if n.Children == nil {
			n.Children = []*model.CategoryNode{}
		}
	}
}

// BuildForest groups a flat list of categories by parent id and returns the
// roots. A node is a root when its parent id is absent, points at itself, or
// does not match any id in the list. Every returned node is a fresh copy with
// the transient flags cleared; the input is not modified.
//
// Duplicate ids keep their first occurrence. Nodes whose ancestry loops back
// on itself never reach a root and are reported in orphans.
func BuildForest(flat []*model.CategoryNode) (forest Forest, orphans []int64) {
	nodes := make([]*model.CategoryNode, 0, len(flat))
	byID := make(map[int64]*model.CategoryNode, len(flat))

	for _, src := range flat {
		if src == nil {
			continue
		}
		if _, dup := byID[src.ID]; dup {
			continue
		}
		n := Fresh(src)
		nodes = append(nodes, n)
		byID[n.ID] = n
	}

	forest = Forest{}
	for _, n := range nodes {
		if n.ParentID == nil || *n.ParentID == n.ID {
			forest = append(forest, n)
			continue
		}
		parent, ok := byID[*n.ParentID]
		if !ok {
			forest = append(forest, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	reached := make(map[int64]struct{}, len(nodes))
	Walk(forest, func(n *model.CategoryNode, _ int) bool {
		reached[n.ID] = struct{}{}
		return true
	})
	for _, n := range nodes {
		if _, ok := reached[n.ID]; !ok {
			orphans = append(orphans, n.ID)
		}
	}

	return forest, orphans
}

// Fresh copies a gateway node into a detached tree node: no children, not
// loading, not expanded.
func Fresh(src *model.CategoryNode) *model.CategoryNode {
	n := *src
	if src.ParentID != nil {
		pid := *src.ParentID
		n.ParentID = &pid
	}
	n.Children = []*model.CategoryNode{}
	n.IsLoading = false
	n.IsExpanded = false
	return &n
}

// PatchNode returns a forest in which the node with the given id has been
// replaced by a copy merged with patch. Every ancestor on the path to that
// node is copied too; every other subtree is shared with the input. When the
// id is not present the input forest itself is returned.
func PatchNode(forest Forest, id int64, patch Patch) Forest {
	visited := make(map[int64]struct{})
	out, ok := patchLevel(forest, id, patch, 0, visited)
	if !ok {
		return forest
	}
	return out
}

func patchLevel(nodes []*model.CategoryNode, id int64, patch Patch, depth int, visited map[int64]struct{}) ([]*model.CategoryNode, bool) {
	for i, n := range nodes {
		if n == nil {
			continue
		}
		if n.ID == id {
			cp := *n
			patch.apply(&cp)
			return replaceAt(nodes, i, &cp), true
		}

		if _, seen := visited[n.ID]; seen || depth+1 >= MaxDepth {
			continue
		}
		visited[n.ID] = struct{}{}

		children, ok := patchLevel(n.Children, id, patch, depth+1, visited)
		if !ok {
			continue
		}
		cp := *n
		cp.Children = children
		return replaceAt(nodes, i, &cp), true
	}
	return nil, false
}

func replaceAt(nodes []*model.CategoryNode, i int, n *model.CategoryNode) []*model.CategoryNode {
	out := make([]*model.CategoryNode, len(nodes))
	copy(out, nodes)
	out[i] = n
	return out
}

// FindNode returns the node with the given id, searching depth first, or nil.
func FindNode(forest Forest, id int64) *model.CategoryNode {
	var found *model.CategoryNode
	Walk(forest, func(n *model.CategoryNode, _ int) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Walk visits nodes depth first, parents before children. Returning false
// from fn stops the walk. Each id is visited at most once.
func Walk(forest Forest, fn func(n *model.CategoryNode, depth int) bool) {
	visited := make(map[int64]struct{})
	walk(forest, fn, 0, visited)
}

func walk(nodes []*model.CategoryNode, fn func(*model.CategoryNode, int) bool, depth int, visited map[int64]struct{}) bool {
	if depth >= MaxDepth {
		return true
	}
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if _, seen := visited[n.ID]; seen {
			continue
		}
		visited[n.ID] = struct{}{}

		if !fn(n, depth) {
			return false
		}
		if !walk(n.Children, fn, depth+1, visited) {
			return false
		}
	}
	return true
}

// ExpandedIDs lists the ids of every expanded node in walk order.
func ExpandedIDs(forest Forest) []int64 {
	var ids []int64
	Walk(forest, func(n *model.CategoryNode, _ int) bool {
		if n.IsExpanded {
			ids = append(ids, n.ID)
		}
		return true
	})
	return ids
}
