package render

import (
	"encoding/json"
	"strconv"
	"strings"
)

// text 把任意 JSON 值转成展示用字符串；缺失或 null 为空串。
func text(obj map[string]any, key string) string {
	v, ok := obj[key]
	if !ok {
		return ""
	}
	return stringify(v)
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// firstText returns the first non-blank value among keys.
func firstText(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := text(obj, key); strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func boolean(obj map[string]any, key string) (bool, bool) {
	b, ok := obj[key].(bool)
	return b, ok
}

func yesNo(obj map[string]any, key string) string {
	if b, _ := boolean(obj, key); b {
		return "Yes"
	}
	return "No"
}

func list(obj map[string]any, key string) ([]any, bool) {
	l, ok := obj[key].([]any)
	return l, ok
}

func object(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// items 把列表元素转换为对象；非对象元素视为空对象。
func items(l []any) []map[string]any {
	out := make([]map[string]any, 0, len(l))
	for _, v := range l {
		m, ok := object(v)
		if !ok {
			m = map[string]any{}
		}
		out = append(out, m)
	}
	return out
}

func integer(obj map[string]any, key string) int {
	switch x := obj[key].(type) {
	case float64:
		return int(x)
	case json.Number:
		n, _ := x.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(x))
		return n
	default:
		return 0
	}
}
