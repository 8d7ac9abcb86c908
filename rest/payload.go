package rest

import (
	"encoding/json"

	"github.com/8r2y5/guilded/errors"
)

// decodeObject unmarshals a JSON object body; an empty body yields nil.
func decodeObject(body []byte) (map[string]any, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.Wrap(err, "rest", "decodeObject", "decode response")
	}
	return out, nil
}

// objectSlice extracts a list of JSON objects from a response field,
// skipping entries of any other shape.
func objectSlice(data map[string]any, key string) []map[string]any {
	if data == nil {
		return nil
	}
	raw, _ := data[key].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}
