package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// NewEncoder returns a JSON encoder for w that leaves HTML characters
// alone. Streaming commands share it so every JSONL line looks the same.
func NewEncoder(w io.Writer, pretty bool) *json.Encoder {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	enc.SetEscapeHTML(false)
	return enc
}

// PrintJSON writes v to Stdout as one JSON document.
func PrintJSON(v any, pretty bool) error {
	if err := NewEncoder(Stdout, pretty).Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}
