package output

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// PrintYAML serializes v to Stdout as YAML. Protocol types only carry
// json tags, so v goes through its JSON form first; field names and
// order match the wire.
func PrintYAML(v interface{}) error {
	node, err := ToYAMLNode(v)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}

// ToYAMLNode converts v to a YAML document node via its JSON encoding.
func ToYAMLNode(v interface{}) (*yaml.Node, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yaml encode: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("yaml encode: %w", err)
	}
	clearStyle(&node)
	return &node, nil
}

// clearStyle drops the flow style inherited from JSON so the output is
// block YAML. Strings keep their quoting only when required.
func clearStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		n.Style &^= yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		clearStyle(c)
	}
}
