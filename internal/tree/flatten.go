package tree

import (
	"strings"

	"github.com/mj1618/component-inspector/internal/protocol"
)

// FlatNode is a forest node with a path breadcrumb instead of children.
type FlatNode struct {
	Position   string   `yaml:"pos"                  json:"pos"`
	Element    string   `yaml:"el"                   json:"el"`
	Component  string   `yaml:"c,omitempty"          json:"c,omitempty"`
	ID         *int     `yaml:"id,omitempty"         json:"id,omitempty"`
	Directives []string `yaml:"d,omitempty"          json:"d,omitempty"`
	Path       string   `yaml:"p,omitempty"          json:"p,omitempty"`
}

// FlattenForest converts a forest into a flat list in render order. Each
// node gets a path string showing its location using element names
// joined with " > ".
func FlattenForest(forest []protocol.DevToolsNode) []FlatNode {
	var result []FlatNode
	for i, node := range forest {
		flattenRecursive(node, protocol.ElementPosition{i}, "", &result)
	}
	return result
}

func flattenRecursive(node protocol.DevToolsNode, pos protocol.ElementPosition, parentPath string, result *[]FlatNode) {
	currentPath := node.Element
	if parentPath != "" {
		currentPath = parentPath + " > " + node.Element
	}

	flat := FlatNode{
		Position: pos.String(),
		Element:  node.Element,
		Path:     currentPath,
	}
	if node.Component != nil {
		flat.Component = node.Component.Name
		id := node.Component.ID
		flat.ID = &id
	}
	for _, d := range node.Directives {
		flat.Directives = append(flat.Directives, d.Name)
		if flat.ID == nil {
			id := d.ID
			flat.ID = &id
		}
	}
	*result = append(*result, flat)

	for i, child := range node.Children {
		flattenRecursive(child, pos.Child(i), currentPath, result)
	}
}

// Label renders the node the way the text tree shows it:
// "app-root (AppComponent) [NgIf, NgFor]".
func (f FlatNode) Label() string {
	var b strings.Builder
	b.WriteString(f.Element)
	if f.Component != "" {
		b.WriteString(" (" + f.Component + ")")
	}
	if len(f.Directives) > 0 {
		b.WriteString(" [" + strings.Join(f.Directives, ", ") + "]")
	}
	return b.String()
}
