package jsondoc

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Doc is a decoded JSON object.
type Doc map[string]any

var whitespace = regexp.MustCompile(`\s+`)

// truthyWords are the normalized strings treated as true.
var truthyWords = map[string]bool{
	"true": true, "1": true, "yes": true, "installed": true, "ok": true,
	"enabled": true, "active": true, "success": true, "completed": true, "done": true,
}

// Parse decodes data into a Doc. It fails when data is not a JSON object.
func Parse(data []byte) (Doc, error) {
	var d Doc
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse json object: %w", err)
	}
	return d, nil
}

// Normalize case-folds s, collapses internal whitespace and trims it.
func Normalize(s string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// Truthy reports whether v should be read as a true flag.
func Truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case string:
		return truthyWords[Normalize(t)]
	}
	return false
}

// Has reports whether key is present.
func (d Doc) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Value returns the first present, non-nil value among aliases.
func (d Doc) Value(aliases ...string) (any, bool) {
	for _, k := range aliases {
		if v, ok := d[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// String returns the first alias holding a non-empty value, rendered as a string.
func (d Doc) String(aliases ...string) string {
	for _, k := range aliases {
		v, ok := d[k]
		if !ok || v == nil {
			continue
		}
		if s := stringify(v); s != "" {
			return s
		}
	}
	return ""
}

// Bool reports whether any alias holds a truthy value.
func (d Doc) Bool(aliases ...string) bool {
	for _, k := range aliases {
		if Truthy(d[k]) {
			return true
		}
	}
	return false
}

// Int returns the first alias holding a number (or numeric string).
func (d Doc) Int(aliases ...string) (int, bool) {
	for _, k := range aliases {
		switch t := d[k].(type) {
		case float64:
			return int(t), true
		case int:
			return t, true
		case json.Number:
			if i, err := t.Int64(); err == nil {
				return int(i), true
			}
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
				return i, true
			}
		}
	}
	return 0, false
}

// Object returns the first alias holding a JSON object.
func (d Doc) Object(aliases ...string) (Doc, bool) {
	for _, k := range aliases {
		switch t := d[k].(type) {
		case map[string]any:
			return Doc(t), true
		case Doc:
			return t, true
		}
	}
	return nil, false
}

// Objects returns the object elements of the first alias holding an array.
// Non-object elements are skipped.
func (d Doc) Objects(aliases ...string) ([]Doc, bool) {
	for _, k := range aliases {
		if arr, ok := d[k].([]any); ok {
			return ObjectsOf(arr), true
		}
	}
	return nil, false
}

// ObjectsOf keeps the object elements of arr.
func ObjectsOf(arr []any) []Doc {
	out := make([]Doc, 0, len(arr))
	for _, v := range arr {
		if m, ok := v.(map[string]any); ok {
			out = append(out, Doc(m))
		}
	}
	return out
}

// Clone returns a shallow copy of d.
func (d Doc) Clone() Doc {
	out := make(Doc, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// IsEmpty reports whether v is nil, "", an empty list or an empty object.
// false and 0 are not empty.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case Doc:
		return len(t) == 0
	}
	return false
}

// Falsy reports whether v is empty, false, or numerically zero.
func Falsy(v any) bool {
	if IsEmpty(v) {
		return true
	}
	switch t := v.(type) {
	case bool:
		return !t
	case float64:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case map[string]any, []any:
		return ""
	}
	return fmt.Sprint(v)
}
