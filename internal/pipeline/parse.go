package pipeline

import (
	"encoding/json"
	"strings"
)

// decodeJSON unmarshals a model response, tolerating a single markdown code
// fence around the JSON. Anything else non-conforming is a parse error.
func decodeJSON(raw string, v any) error {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	return json.Unmarshal([]byte(s), v)
}
