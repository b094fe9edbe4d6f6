package dispatcher

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseDraft decodes the raw header and body text of a draft. Blank text maps
// to an empty object; anything else must be a JSON object.
func ParseDraft(rawHeaders, rawBody string) (headers, body map[string]any, err error) {
	headers, err = parseObject(rawHeaders)
	if err != nil {
		return nil, nil, &InvalidInputError{Err: fmt.Errorf("headers: %w", err)}
	}
	body, err = parseObject(rawBody)
	if err != nil {
		return nil, nil, &InvalidInputError{Err: fmt.Errorf("body: %w", err)}
	}
	return headers, body, nil
}

func parseObject(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	if out == nil {
		// literal null
		return nil, fmt.Errorf("expected a JSON object, got null")
	}
	return out, nil
}
