package dispatcher

import "encoding/json"

// HarvestToken looks for a credential embedded in a proxy response's data
// field. Only a string holding a JSON object with a non-empty string "token"
// qualifies; every other shape yields ok=false.
func HarvestToken(data any) (token string, ok bool) {
	s, isString := data.(string)
	if !isString {
		return "", false
	}

	var payload struct {
		Token any `json:"token"`
	}
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return "", false
	}
	token, isString = payload.Token.(string)
	if !isString || token == "" {
		return "", false
	}
	return token, true
}
