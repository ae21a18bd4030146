package tree

import (
	"strings"

	"github.com/mj1618/component-inspector/internal/protocol"
)

// FilterByName keeps nodes whose element, component, or directive names
// contain text (case-insensitive). Ancestors of a match are kept so the
// result is still a forest; their unmatched children are dropped.
func FilterByName(forest []protocol.DevToolsNode, text string) []protocol.DevToolsNode {
	if text == "" {
		return forest
	}
	textLower := strings.ToLower(text)
	var result []protocol.DevToolsNode
	for _, node := range forest {
		childMatches := FilterByName(node.Children, text)
		if nameMatches(node, textLower) || len(childMatches) > 0 {
			filtered := node
			filtered.Children = childMatches
			if filtered.Children == nil {
				filtered.Children = []protocol.DevToolsNode{}
			}
			result = append(result, filtered)
		}
	}
	return result
}

func nameMatches(node protocol.DevToolsNode, textLower string) bool {
	if strings.Contains(strings.ToLower(node.Element), textLower) {
		return true
	}
	if node.Component != nil && strings.Contains(strings.ToLower(node.Component.Name), textLower) {
		return true
	}
	for _, d := range node.Directives {
		if strings.Contains(strings.ToLower(d.Name), textLower) {
			return true
		}
	}
	return false
}

// FindByName returns the flat nodes that match text, in render order.
// Exact matches on the component or element name are returned alone when
// there are any.
func FindByName(forest []protocol.DevToolsNode, text string) []FlatNode {
	textLower := strings.ToLower(text)
	var partial, exact []FlatNode
	for _, n := range FlattenForest(forest) {
		matched, isExact := false, false
		for _, name := range append([]string{n.Element, n.Component}, n.Directives...) {
			lower := strings.ToLower(name)
			if name == "" || !strings.Contains(lower, textLower) {
				continue
			}
			matched = true
			isExact = isExact || lower == textLower
		}
		switch {
		case isExact:
			exact = append(exact, n)
		case matched:
			partial = append(partial, n)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	return partial
}
