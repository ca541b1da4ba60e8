package gateway

import (
	"bytes"
	"encoding/json"
)

// Shape is the envelope a collaborator list response arrived in.
type Shape int

const (
	// ShapeEmpty is an empty body or JSON null.
	ShapeEmpty Shape = iota
	// ShapeBare is a top-level JSON array.
	ShapeBare
	// ShapeEnveloped is {"data": [...]}.
	ShapeEnveloped
	// ShapePaged is {"content": [...]} or {"data": {"content": [...]}}.
	ShapePaged
	// ShapeEncodedString is a JSON string that itself holds one of the other shapes.
	ShapeEncodedString
	// ShapeUnknown is anything else.
	ShapeUnknown
)

func (s Shape) String() string {
	switch s {
	case ShapeEmpty:
		return "empty"
	case ShapeBare:
		return "bare"
	case ShapeEnveloped:
		return "enveloped"
	case ShapePaged:
		return "paged"
	case ShapeEncodedString:
		return "encoded_string"
	default:
		return "unknown"
	}
}

// maxStringDepth bounds how many times an encoded string is unwrapped.
const maxStringDepth = 2

// Normalized is the result of normalizing a list response.
type Normalized struct {
	Items []json.RawMessage
	Shape Shape

	// Warning is set when the body was not a recognized list shape.
	Warning string
}

// DetectShape reports the shape of raw without unwrapping encoded strings.
func DetectShape(raw []byte) Shape {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ShapeEmpty
	}
	switch raw[0] {
	case '[':
		return ShapeBare
	case '"':
		return ShapeEncodedString
	case '{':
		var env struct {
			Data    json.RawMessage `json:"data"`
			Content json.RawMessage `json:"content"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return ShapeUnknown
		}
		if isArray(env.Data) {
			return ShapeEnveloped
		}
		if isArray(env.Content) {
			return ShapePaged
		}
		if len(env.Data) > 0 {
			var inner struct {
				Content json.RawMessage `json:"content"`
			}
			if json.Unmarshal(env.Data, &inner) == nil && isArray(inner.Content) {
				return ShapePaged
			}
		}
	}
	return ShapeUnknown
}

// Normalize turns any accepted list envelope into its element list. It never
// fails; unrecognized input yields an empty list and a warning. Normalizing
// the re-encoded items of a result yields the same items.
func Normalize(raw []byte) Normalized {
	return normalize(raw, 0)
}

func normalize(raw []byte, depth int) Normalized {
	raw = bytes.TrimSpace(raw)
	shape := DetectShape(raw)

	switch shape {
	case ShapeEmpty:
		return Normalized{Items: []json.RawMessage{}, Shape: shape}

	case ShapeBare:
		return elements(raw, shape)

	case ShapeEnveloped:
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		_ = json.Unmarshal(raw, &env)
		return elements(env.Data, shape)

	case ShapePaged:
		var env struct {
			Data    json.RawMessage `json:"data"`
			Content json.RawMessage `json:"content"`
		}
		_ = json.Unmarshal(raw, &env)
		if isArray(env.Content) {
			return elements(env.Content, shape)
		}
		var inner struct {
			Content json.RawMessage `json:"content"`
		}
		_ = json.Unmarshal(env.Data, &inner)
		return elements(inner.Content, shape)

	case ShapeEncodedString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || depth >= maxStringDepth {
			return Normalized{Items: []json.RawMessage{}, Shape: shape, Warning: "undecodable string body"}
		}
		if !json.Valid([]byte(s)) {
			return Normalized{Items: []json.RawMessage{}, Shape: shape, Warning: "string body is not JSON"}
		}
		inner := normalize([]byte(s), depth+1)
		inner.Shape = ShapeEncodedString
		return inner
	}

	return Normalized{Items: []json.RawMessage{}, Shape: ShapeUnknown, Warning: "unrecognized list shape"}
}

func elements(arr json.RawMessage, shape Shape) Normalized {
	var items []json.RawMessage
	if err := json.Unmarshal(arr, &items); err != nil {
		return Normalized{Items: []json.RawMessage{}, Shape: ShapeUnknown, Warning: "malformed array"}
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return Normalized{Items: items, Shape: shape}
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
