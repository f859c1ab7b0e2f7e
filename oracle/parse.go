package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON pulls the first JSON object out of a model reply. Models
// routinely wrap JSON in markdown fences or lead with a sentence of
// prose; the wire shape is the part between the outermost braces.
func ExtractJSON(reply string) (string, error) {
	s := strings.TrimSpace(reply)

	// Strip markdown code fences
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object found in reply")
	}

	return s[start : end+1], nil
}

// DecodeJSONReply extracts and unmarshals the JSON object in a model
// reply into dest.
func DecodeJSONReply(reply string, dest interface{}) error {
	raw, err := ExtractJSON(reply)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("failed to decode reply JSON: %w", err)
	}
	return nil
}
