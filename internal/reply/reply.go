// Package reply holds the raw assistant reply exchanged between server and client.
package reply

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Raw 是一次请求得到的原始回复：结构化对象、可能内嵌 JSON 的字符串，或纯文本。
// 零值表示空回复。
type Raw struct {
	value any
}

// FromValue wraps an already decoded value (map[string]any, string, ...).
func FromValue(v any) Raw {
	return Raw{value: v}
}

// Text wraps a plain string reply.
func Text(s string) Raw {
	return Raw{value: s}
}

// Decode parses a JSON-encoded reply value as found in the "response" field.
func Decode(data []byte) (Raw, error) {
	var r Raw
	if err := r.UnmarshalJSON(data); err != nil {
		return Raw{}, err
	}
	return r, nil
}

func (r Raw) Value() any { return r.value }

func (r Raw) IsZero() bool { return r.value == nil }

// Text returns the reply when it is a string.
func (r Raw) Text() (string, bool) {
	s, ok := r.value.(string)
	return s, ok
}

// Object returns the reply as a JSON object. A string reply is parsed first; anything
// that is not an object yields ok == false.
func (r Raw) Object() (map[string]any, bool) {
	switch v := r.value.(type) {
	case map[string]any:
		return v, true
	case string:
		parsed, ok := TryParse(v)
		if inner, isString := parsed.(string); ok && isString {
			// 被二次编码的对象（"{\"a\":1}"）只再解一层
			parsed, ok = TryParse(inner)
		}
		if !ok {
			return nil, false
		}
		obj, ok := parsed.(map[string]any)
		return obj, ok
	default:
		return nil, false
	}
}

// String renders the reply as display text: strings verbatim, everything else as
// indented JSON.
func (r Raw) String() string {
	switch v := r.value.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	data, err := json.MarshalIndent(r.value, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

func (r Raw) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.value)
}

func (r *Raw) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r.value = v
	return nil
}

// TryParse decodes s as a single JSON value. Non-JSON text is a normal outcome and
// reports ok == false.
func TryParse(s string) (any, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, false
	}
	switch trimmed[0] {
	case '{', '[', '"':
	default:
		// 仅把对象/数组/字符串视为内嵌 JSON，避免把 "42" 之类的纯文本当成结构化回复
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return v, true
}
