package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when no JSON object can be located in a completion.
var ErrNoJSON = errors.New("llm: no JSON object in completion")

// DecodeJSON unmarshals a completion that was asked to be strict JSON.
// Models occasionally wrap the object in prose or code fences, so when a
// direct unmarshal fails it salvages the substring between the first "{"
// and the last "}" and retries.
func DecodeJSON(raw string, v interface{}) error {
	raw = strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return ErrNoJSON
	}
	return json.Unmarshal([]byte(raw[start:end+1]), v)
}
