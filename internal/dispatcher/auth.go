package dispatcher

// AuthorizationHeader is the header the credential is injected into.
const AuthorizationHeader = "Authorization"

// AugmentHeaders returns a copy of headers carrying the bearer credential.
// With an empty token the copy is unchanged. The input map is never mutated.
func AugmentHeaders(headers map[string]any, token string) map[string]any {
	out := make(map[string]any, len(headers)+1)
	for k, v := range headers {
		out[k] = v
	}
	if token != "" {
		out[AuthorizationHeader] = "Bearer " + token
	}
	return out
}
