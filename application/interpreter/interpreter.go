// Package interpreter turns raw language-model output into text or
// validated structs. Every failure is a ModelOutputError carrying the raw output.
package interpreter

import (
	"encoding/json"
	"fmt"
	"strings"

	pkgerrors "ideagraph/pkg/errors"
	"ideagraph/pkg/utils"
)

// Text passes free-form output through unchanged. Output that is empty after
// trimming whitespace is rejected.
func Text(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", pkgerrors.NewModelOutputError("model returned an empty response", raw, nil)
	}
	return raw, nil
}

// ExtractJSON slices raw from the first '{' to the last '}'.
// This tolerates prose and code fences around the object.
func ExtractJSON(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return "", pkgerrors.NewModelOutputError("model response contains no JSON object", raw, nil)
	}
	return raw[start : end+1], nil
}

// Decode extracts the JSON object from raw, checks requiredKeys are present,
// unmarshals into out and validates its struct tags.
func Decode(raw string, requiredKeys []string, out interface{}) error {
	body, err := ExtractJSON(raw)
	if err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return pkgerrors.NewModelOutputError("model response is not valid JSON", raw, err)
	}

	var missing []string
	for _, key := range requiredKeys {
		if v, ok := fields[key]; !ok || string(v) == "null" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.NewModelOutputError(
			fmt.Sprintf("model response is missing keys: %s", strings.Join(missing, ", ")), raw, nil)
	}

	if err := json.Unmarshal([]byte(body), out); err != nil {
		return pkgerrors.NewModelOutputError("model response has the wrong value types", raw, err)
	}
	if err := utils.ValidateStruct(out); err != nil {
		return pkgerrors.NewModelOutputError("model response failed validation", raw, err)
	}
	return nil
}
