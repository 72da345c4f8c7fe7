package normalizer

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	appErr "judgegate/pkg/errors"
)

// object is one decoded JSON object or XML element. XML values decoded by
// mxj are strings, JSON numbers are json.Number.
type object map[string]any

func (o object) value(key string) (any, error) {
	v, ok := o[key]
	if !ok {
		return nil, appErr.MissingField(key)
	}
	return v, nil
}

// str returns key as text. null reads as "".
func (o object) str(key string) (string, error) {
	v, err := o.value(key)
	if err != nil {
		return "", err
	}
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", appErr.Newf(appErr.ReportMalformed, "%s: expected text, got %T", key, v)
	}
}

func (o object) integer(key string) (int, error) {
	v, err := o.value(key)
	if err != nil {
		return 0, err
	}
	var text string
	switch val := v.(type) {
	case json.Number:
		text = val.String()
	case string:
		text = strings.TrimSpace(val)
	default:
		return 0, appErr.Newf(appErr.ReportMalformed, "%s: expected integer, got %T", key, v)
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, appErr.Wrapf(err, appErr.ReportMalformed, "%s: %q is not an integer", key, text)
	}
	return n, nil
}

// decodeObjects reads a JSON array of objects.
func decodeObjects(data []byte) ([]object, error) {
	var items []any
	if err := decodeJSON(data, &items); err != nil {
		return nil, err
	}
	objects := make([]object, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, appErr.Newf(appErr.ReportMalformed, "item %d is not an object", i)
		}
		objects = append(objects, object(m))
	}
	return objects, nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return appErr.Wrapf(err, appErr.ReportMalformed, "decode tool output failed")
	}
	return nil
}

// asList mirrors how XML decoders fold repeated elements: one child is a
// value, several are a list, none is absent.
func asList(v any) []any {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		return val
	default:
		return []any{val}
	}
}

// asObject accepts an element that may be empty text when it has no
// attributes or children.
func asObject(v any, name string) (object, error) {
	switch val := v.(type) {
	case map[string]any:
		return object(val), nil
	case string:
		if strings.TrimSpace(val) == "" {
			return object{}, nil
		}
	case nil:
		return object{}, nil
	}
	return nil, appErr.Newf(appErr.ReportMalformed, "%s: unexpected element content", name)
}
