// Package decode turns loosely typed event payloads into typed structs.
// Field names come from `json` tags. Clients are sloppy about types, so
// numbers and strings are coerced where the target asks for it.
package decode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"PTalk/tools/errs"

	"github.com/mitchellh/mapstructure"
)

var stringSlice = reflect.TypeOf([]string(nil))

// DecodeJSON decodes a raw JSON object payload into T. Empty or null input
// yields the zero T; anything other than an object is a validation error.
func DecodeJSON[T any](raw json.RawMessage) (*T, error) {
	var out T
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return &out, nil
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errs.ErrValidation.WrapCause(err, "payload must be a JSON object")
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			idListHook(),
			idHook(),
		),
	})
	if err != nil {
		return nil, errs.WrapMsg(err, "new decoder")
	}
	if err := dec.Decode(m); err != nil {
		return nil, errs.ErrValidation.WrapCause(err, "malformed payload")
	}
	return &out, nil
}

// idHook renders numeric ids without a trailing ".0" or exponent.
func idHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Kind, data any) (any, error) {
		if from != reflect.Float64 || to != reflect.String {
			return data, nil
		}
		return strconv.FormatFloat(data.(float64), 'f', -1, 64), nil
	}
}

// idListHook accepts user id lists as a JSON array of strings or numbers,
// or as one comma separated string. Blank entries are dropped.
func idListHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Type, data any) (any, error) {
		if to != stringSlice {
			return data, nil
		}
		var parts []string
		switch v := data.(type) {
		case string:
			parts = strings.Split(v, ",")
		case []any:
			for _, it := range v {
				switch x := it.(type) {
				case string:
					parts = append(parts, x)
				case float64:
					parts = append(parts, strconv.FormatFloat(x, 'f', -1, 64))
				default:
					return nil, errs.ErrValidation.WrapMsg("id list holds a non scalar", "kind", fmt.Sprintf("%T", it))
				}
			}
		default:
			return data, nil
		}
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	}
}
