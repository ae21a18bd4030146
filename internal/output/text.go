package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/mj1618/component-inspector/internal/protocol"
	"github.com/mj1618/component-inspector/internal/tree"
)

// PrintText writes the forest as an indented outline, one element per
// line prefixed with its position:
//
//	0      app-root (AppComponent)
//	0.1      app-todo-list (TodoListComponent) [NgIf]
func PrintText(forest []protocol.DevToolsNode) error {
	return WriteText(Stdout, forest)
}

// WriteText writes the PrintText outline to w.
func WriteText(w io.Writer, forest []protocol.DevToolsNode) error {
	for _, n := range tree.FlattenForest(forest) {
		depth := strings.Count(n.Position, ".")
		label := n.Label()
		if n.ID != nil {
			label = fmt.Sprintf("%s #%d", label, *n.ID)
		}
		if _, err := fmt.Fprintf(w, "%-8s%s%s\n", n.Position, strings.Repeat("  ", depth), label); err != nil {
			return err
		}
	}
	return nil
}
