package protocol

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Envelope is the logical wire shape of every message:
// {topic, args: [...]} with args matching the topic's parameter list.
type Envelope struct {
	Topic Topic `json:"topic"`
	Args  []any `json:"args"`
}

// Codec turns messages into transport frames and back.
type Codec interface {
	Name() string
	// Binary reports whether frames should travel as binary payloads.
	Binary() bool
	Encode(m Message) ([]byte, error)
	// Decode returns a *MalformedMessageError for unknown topics, wrong
	// arity, payload shape mismatches, and constraint violations.
	Decode(data []byte) (Message, error)
}

var (
	// JSON is the default text codec.
	JSON Codec = envelopeCodec{
		name:        "json",
		marshal:     marshalJSON,
		unmarshal:   json.Unmarshal,
		splitFrames: splitJSON,
	}
	// CBOR is a compact binary codec using deterministic encoding.
	CBOR Codec = envelopeCodec{
		name:        "cbor",
		binary:      true,
		marshal:     func(v any) ([]byte, error) { return cborEncMode.Marshal(v) },
		unmarshal:   func(data []byte, v any) error { return cborDecMode.Unmarshal(data, v) },
		splitFrames: splitCBOR,
	}
)

// CodecByName returns the codec called name ("json" or "cbor").
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON, nil
	case "cbor":
		return CBOR, nil
	}
	return nil, fmt.Errorf("unsupported codec: %s (use json or cbor)", name)
}

var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	var err error
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("protocol: CBOR encoder initialization failed: " + err.Error())
	}
	cborDecMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("protocol: CBOR decoder initialization failed: " + err.Error())
	}
}

type envelopeCodec struct {
	name        string
	binary      bool
	marshal     func(any) ([]byte, error)
	unmarshal   func([]byte, any) error
	splitFrames func([]byte) (Topic, [][]byte, error)
}

func (c envelopeCodec) Name() string { return c.name }
func (c envelopeCodec) Binary() bool { return c.binary }

func (c envelopeCodec) Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("encode: nil message")
	}
	args := m.args()
	if args == nil {
		args = []any{}
	}
	data, err := c.marshal(Envelope{Topic: m.Topic(), Args: args})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Topic(), err)
	}
	return data, nil
}

func (c envelopeCodec) Decode(data []byte) (Message, error) {
	topic, args, err := c.splitFrames(data)
	if err != nil {
		return nil, &MalformedMessageError{Topic: topic, Reason: "unreadable envelope", Err: err}
	}
	spec, ok := catalogue[topic]
	if !ok {
		return nil, &MalformedMessageError{Topic: topic, Reason: "unknown topic"}
	}
	if len(args) < spec.minArgs || len(args) > spec.maxArgs {
		return nil, &MalformedMessageError{
			Topic:  topic,
			Reason: fmt.Sprintf("expected %s, got %d", arityText(spec.minArgs, spec.maxArgs), len(args)),
		}
	}
	msg, err := spec.decode(args, c.unmarshal)
	if err != nil {
		return nil, &MalformedMessageError{Topic: topic, Reason: "payload shape mismatch", Err: err}
	}
	if v, ok := msg.(validator); ok {
		if err := v.validate(); err != nil {
			return nil, &MalformedMessageError{Topic: topic, Reason: err.Error()}
		}
	}
	return msg, nil
}

func arityText(min, max int) string {
	if min == max {
		return fmt.Sprintf("%d argument(s)", min)
	}
	return fmt.Sprintf("%d to %d arguments", min, max)
}

func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

func splitJSON(data []byte) (Topic, [][]byte, error) {
	var env struct {
		Topic Topic             `json:"topic"`
		Args  []json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, err
	}
	args := make([][]byte, len(env.Args))
	for i, a := range env.Args {
		args[i] = a
	}
	return env.Topic, args, nil
}

func splitCBOR(data []byte) (Topic, [][]byte, error) {
	var env struct {
		Topic Topic             `json:"topic"`
		Args  []cbor.RawMessage `json:"args"`
	}
	if err := cborDecMode.Unmarshal(data, &env); err != nil {
		return "", nil, err
	}
	args := make([][]byte, len(env.Args))
	for i, a := range env.Args {
		args[i] = a
	}
	return env.Topic, args, nil
}
