package tree

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// ChangeType represents the kind of tree change detected.
type ChangeType string

const (
	ChangeAdded   ChangeType = "added"
	ChangeRemoved ChangeType = "removed"
	ChangeChanged ChangeType = "changed"
)

// NodeChange is a single change between two snapshots.
type NodeChange struct {
	Type     ChangeType           `yaml:"type"              json:"type"`
	TS       int64                `yaml:"ts"                json:"ts"`
	Node     *FlatNode            `yaml:"node,omitempty"    json:"node,omitempty"`
	Position string               `yaml:"pos,omitempty"     json:"pos,omitempty"`
	Changes  map[string][2]string `yaml:"changes,omitempty" json:"changes,omitempty"`
}

// ForestDiff is the result of comparing two flattened forests.
type ForestDiff struct {
	Added          []FlatNode   `yaml:"added,omitempty"   json:"added,omitempty"`
	Removed        []FlatNode   `yaml:"removed,omitempty" json:"removed,omitempty"`
	Changed        []NodeChange `yaml:"changed,omitempty" json:"changed,omitempty"`
	UnchangedCount int          `yaml:"unchanged_count"   json:"unchanged_count"`
}

// Empty reports whether nothing changed.
func (d ForestDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// NodeHash computes an identity hash from a node's element name,
// component, and breadcrumb path. Nodes keep their hash when siblings
// before them are inserted or removed, which positions do not.
func NodeHash(n FlatNode) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s", n.Element, n.Component, n.Path)
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// DiffForests compares two flattened forests by node hash. Duplicate
// hashes are matched in order.
func DiffForests(prev, curr []FlatNode) ForestDiff {
	prevByHash := make(map[string][]FlatNode, len(prev))
	for _, n := range prev {
		h := NodeHash(n)
		prevByHash[h] = append(prevByHash[h], n)
	}

	var diff ForestDiff
	for _, n := range curr {
		h := NodeHash(n)
		candidates := prevByHash[h]
		if len(candidates) == 0 {
			diff.Added = append(diff.Added, n)
			continue
		}
		prevNode := candidates[0]
		prevByHash[h] = candidates[1:]
		changes := diffNode(prevNode, n)
		if len(changes) > 0 {
			diff.Changed = append(diff.Changed, NodeChange{
				Type:     ChangeChanged,
				Position: n.Position,
				Changes:  changes,
			})
		} else {
			diff.UnchangedCount++
		}
	}

	for _, n := range prev {
		h := NodeHash(n)
		if rest := prevByHash[h]; len(rest) > 0 && rest[0].Position == n.Position {
			diff.Removed = append(diff.Removed, n)
			prevByHash[h] = rest[1:]
		}
	}
	return diff
}

// Changes converts the diff into a stream of timestamped change events.
func (d ForestDiff) Changes(ts int64) []NodeChange {
	var out []NodeChange
	for i := range d.Added {
		n := d.Added[i]
		out = append(out, NodeChange{Type: ChangeAdded, TS: ts, Node: &n, Position: n.Position})
	}
	for i := range d.Removed {
		n := d.Removed[i]
		out = append(out, NodeChange{Type: ChangeRemoved, TS: ts, Node: &n, Position: n.Position})
	}
	for _, c := range d.Changed {
		c.TS = ts
		out = append(out, c)
	}
	return out
}

// diffNode compares fields that are not part of the hash.
func diffNode(prev, curr FlatNode) map[string][2]string {
	diffs := make(map[string][2]string)
	if prev.Position != curr.Position {
		diffs["pos"] = [2]string{prev.Position, curr.Position}
	}
	if a, b := strings.Join(prev.Directives, ","), strings.Join(curr.Directives, ","); a != b {
		diffs["d"] = [2]string{a, b}
	}
	if a, b := idText(prev.ID), idText(curr.ID); a != b {
		diffs["id"] = [2]string{a, b}
	}
	if len(diffs) == 0 {
		return nil
	}
	return diffs
}

func idText(id *int) string {
	if id == nil {
		return ""
	}
	return fmt.Sprint(*id)
}
