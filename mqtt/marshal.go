package mqtt

import (
	"bytes"
	"encoding/json/v2"
	"strconv"
)

// ValueMarshaler encodes a value as an MQTT payload.
type ValueMarshaler[T any] func(v T) ([]byte, error)

// ValueUnmarshaler decodes an MQTT payload.
type ValueUnmarshaler[T any] func([]byte) (T, error)

// TextMarshaler publishes string kinds as their raw text.
func TextMarshaler[T ~string]() ValueMarshaler[T] {
	return func(v T) ([]byte, error) {
		return []byte(v), nil
	}
}

// TextUnmarshaler reads a raw text payload into a string kind. Surrounding whitespace is trimmed.
func TextUnmarshaler[T ~string]() ValueUnmarshaler[T] {
	return func(payload []byte) (T, error) {
		return T(bytes.TrimSpace(payload)), nil
	}
}

var (
	UintMarshaler ValueMarshaler[uint] = func(v uint) ([]byte, error) {
		return strconv.AppendUint(nil, uint64(v), 10), nil
	}
)

// JSONMarshaler encodes T as a JSON document.
func JSONMarshaler[T any]() ValueMarshaler[T] {
	return func(v T) ([]byte, error) {
		return json.Marshal(v)
	}
}

// JSONUnmarshaler decodes a JSON document into T. Unknown members are ignored.
func JSONUnmarshaler[T any]() ValueUnmarshaler[T] {
	return func(payload []byte) (T, error) {
		var v T
		err := json.Unmarshal(payload, &v)

		return v, err
	}
}
