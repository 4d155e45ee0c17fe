// Package jsonutil decodes JSON arrays into typed slices.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned by Parse for input that is not valid JSON.
var ErrInvalidJSON = errors.New("invalid json")

// DecodeError identifies the array element that failed to decode.
type DecodeError struct {
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode element %d: %v", e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Parse validates raw and returns it as a JSON value.
func Parse(raw []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, ErrInvalidJSON
	}
	return gjson.ParseBytes(raw), nil
}

// DecodeArray decodes every element of v into T using encoding/json.
// A non-array value yields an empty slice. Any element failure discards all results.
func DecodeArray[T any](v gjson.Result) ([]T, error) {
	return DecodeArrayWith(v, func(elem gjson.Result) (T, error) {
		var out T
		err := json.Unmarshal([]byte(elem.Raw), &out)
		return out, err
	})
}

// DecodeArrayWith is DecodeArray with a caller-supplied element decoder.
func DecodeArrayWith[T any](v gjson.Result, decode func(gjson.Result) (T, error)) ([]T, error) {
	if !v.IsArray() {
		return []T{}, nil
	}

	elems := v.Array()
	out := make([]T, 0, len(elems))
	for i, elem := range elems {
		item, err := decode(elem)
		if err != nil {
			return nil, &DecodeError{Index: i, Err: err}
		}
		out = append(out, item)
	}
	return out, nil
}

// StringField returns field of the JSON object in raw, stringified.
// Strings come back unquoted; other values as their JSON text.
func StringField(raw []byte, field string) (string, bool) {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return "", false
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return "", false
	}
	var val gjson.Result
	found := false
	// exact key match; gjson path syntax would treat dots and wildcards specially
	doc.ForEach(func(key, value gjson.Result) bool {
		if key.Str == field {
			val, found = value, true
			return false
		}
		return true
	})
	if !found {
		return "", false
	}
	if val.Type == gjson.String {
		return val.Str, true
	}
	return val.Raw, true
}
