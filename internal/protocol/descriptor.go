package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// PropType is the closed set of value categories a Descriptor can carry.
// The wire value is the ordinal.
type PropType int

const (
	PropNumber PropType = iota
	PropString
	PropNull
	PropUndefined
	PropSymbol
	PropHTMLNode
	PropBoolean
	PropBigInt
	PropFunction
	PropObject
	PropDate
	PropArray
	PropSet
	PropUnknown
)

var propTypeNames = [...]string{
	"Number", "String", "Null", "Undefined", "Symbol", "HTMLNode", "Boolean",
	"BigInt", "Function", "Object", "Date", "Array", "Set", "Unknown",
}

func (t PropType) String() string {
	if t < 0 || int(t) >= len(propTypeNames) {
		return fmt.Sprintf("PropType(%d)", int(t))
	}
	return propTypeNames[t]
}

// Valid reports whether t is a member of the closed set.
func (t PropType) Valid() bool {
	return t >= PropNumber && t <= PropUnknown
}

// IsContainer reports whether values of this type can have children.
func (t PropType) IsContainer() bool {
	return t == PropObject || t == PropArray || t == PropSet
}

// Descriptor is a bounded, serializable stand-in for a live value.
//
// Value holds the raw value for primitive leaves. For an Object or Set that
// was explicitly expanded it holds map[string]Descriptor; for an expanded
// Array it holds []Descriptor. Otherwise it is nil.
type Descriptor struct {
	Expandable bool     `json:"expandable"`
	Value      any      `json:"value,omitempty"`
	Editable   bool     `json:"editable"`
	Type       PropType `json:"type"`
	Preview    string   `json:"preview"`
}

// CircularPreview is the preview of a descriptor that closes a cycle.
const CircularPreview = "[Circular]"

// CircularDescriptor marks an edge back to an ancestor already being
// serialized.
func CircularDescriptor() Descriptor {
	return Descriptor{Type: PropUnknown, Preview: CircularPreview}
}

// IsCircular reports whether d is the cycle marker.
func (d Descriptor) IsCircular() bool {
	return d.Type == PropUnknown && d.Preview == CircularPreview && !d.Expandable
}

// Children returns the nested descriptors of an expanded Object or Set.
func (d Descriptor) Children() map[string]Descriptor {
	m, _ := d.Value.(map[string]Descriptor)
	return m
}

// Elements returns the nested descriptors of an expanded Array.
func (d Descriptor) Elements() []Descriptor {
	s, _ := d.Value.([]Descriptor)
	return s
}

type descriptorWire struct {
	Expandable bool     `json:"expandable"`
	Editable   bool     `json:"editable"`
	Type       PropType `json:"type"`
	Preview    string   `json:"preview"`
}

// UnmarshalJSON restores typed nested descriptors for expanded containers.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var head descriptorWire
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	var raw struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	value, err := decodeDescriptorValue(head.Type, raw.Value, json.Unmarshal)
	if err != nil {
		return fmt.Errorf("descriptor value: %w", err)
	}
	*d = Descriptor{
		Expandable: head.Expandable,
		Editable:   head.Editable,
		Type:       head.Type,
		Preview:    head.Preview,
		Value:      value,
	}
	return nil
}

// UnmarshalCBOR is the CBOR counterpart of UnmarshalJSON.
func (d *Descriptor) UnmarshalCBOR(data []byte) error {
	var wire struct {
		Expandable bool            `json:"expandable"`
		Editable   bool            `json:"editable"`
		Type       PropType        `json:"type"`
		Preview    string          `json:"preview"`
		Value      cbor.RawMessage `json:"value"`
	}
	if err := cborDecMode.Unmarshal(data, &wire); err != nil {
		return err
	}
	value, err := decodeDescriptorValue(wire.Type, wire.Value, cborDecMode.Unmarshal)
	if err != nil {
		return fmt.Errorf("descriptor value: %w", err)
	}
	*d = Descriptor{
		Expandable: wire.Expandable,
		Editable:   wire.Editable,
		Type:       wire.Type,
		Preview:    wire.Preview,
		Value:      value,
	}
	return nil
}

func decodeDescriptorValue(t PropType, raw []byte, unmarshal func([]byte, any) error) (any, error) {
	if len(raw) == 0 || isNullEncoding(raw) {
		return nil, nil
	}
	switch t {
	case PropObject, PropSet:
		var children map[string]Descriptor
		if err := unmarshal(raw, &children); err != nil {
			return nil, err
		}
		return children, nil
	case PropArray:
		var elements []Descriptor
		if err := unmarshal(raw, &elements); err != nil {
			return nil, err
		}
		return elements, nil
	}
	var v any
	if err := unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// isNullEncoding matches JSON null and CBOR null/undefined.
func isNullEncoding(raw []byte) bool {
	if string(raw) == "null" {
		return true
	}
	return len(raw) == 1 && (raw[0] == 0xf6 || raw[0] == 0xf7)
}
