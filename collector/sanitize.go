package collector

import "regexp"

// RedactionMarker replaces values whose keys look sensitive.
const RedactionMarker = "[REDACTED]"

// sensitiveKeyPattern matches payload keys that must never reach persistent
// storage in clear text. Matching is case-insensitive and substring-based:
// "apiKey", "AUTH_HEADER" and "refresh_token" are all caught.
var sensitiveKeyPattern = regexp.MustCompile(`(?i)password|token|secret|auth|key`)

// Sanitize returns a copy of data with the values of sensitive keys
// replaced by RedactionMarker. Nested maps are walked recursively; all
// other values are carried over unchanged. A nil map stays nil so the
// caller's required-field validation still fires.
func Sanitize(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		if sensitiveKeyPattern.MatchString(k) {
			out[k] = RedactionMarker
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			out[k] = Sanitize(nested)
			continue
		}
		out[k] = v
	}
	return out
}
