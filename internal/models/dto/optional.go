package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrNotString is returned when a present field is not a JSON string.
	ErrNotString = errors.New("value is not a string")
	// ErrNotInteger is returned when a present field is not an integer id.
	ErrNotInteger = errors.New("value is not an integer")
)

// Optional records a request field whose presence matters. A missing key and an
// explicit null both leave it unset, so partial updates never clear a column.
type Optional struct {
	raw json.RawMessage
}

// Value builds a set Optional from any JSON-encodable value. Handy for callers
// that construct requests in code rather than decoding them.
func Value(v any) Optional {
	raw, err := json.Marshal(v)
	if err != nil || string(raw) == "null" {
		return Optional{}
	}
	return Optional{raw: raw}
}

// UnmarshalJSON keeps the raw value for later typed access.
func (o *Optional) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		o.raw = nil
		return nil
	}
	o.raw = append(o.raw[:0], data...)
	return nil
}

// MarshalJSON writes the raw value back, or null when unset.
func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.IsSet() {
		return []byte("null"), nil
	}
	return o.raw, nil
}

// IsSet reports whether the field carried a non-null value.
func (o Optional) IsSet() bool {
	return len(o.raw) > 0
}

// Raw returns the undecoded JSON value.
func (o Optional) Raw() json.RawMessage {
	return o.raw
}

// AsString decodes the value as a JSON string.
func (o Optional) AsString() (string, error) {
	var s string
	if err := json.Unmarshal(o.raw, &s); err != nil {
		return "", ErrNotString
	}
	return s, nil
}

// AsInt64 decodes an id given either as a JSON integer or as a numeric string.
func (o Optional) AsInt64() (int64, error) {
	raw := o.raw
	if len(raw) > 0 && raw[0] == '"' {
		s, err := o.AsString()
		if err != nil {
			return 0, ErrNotInteger
		}
		raw = []byte(strings.TrimSpace(s))
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	return id, nil
}
