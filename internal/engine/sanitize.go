package engine

// sensitiveContextKeys are redacted from the evaluation context before it
// is attached to any audit record or log line.
var sensitiveContextKeys = []string{"password", "cardNumber", "cvv", "ssn", "abn"}

// RedactedMarker replaces sensitive values in sanitized contexts.
const RedactedMarker = "***REDACTED***"

// SanitizeContext returns a shallow copy of the context with top-level
// sensitive keys redacted. Nested sensitive fields are not scrubbed; the
// redaction is deliberately shallow and best-effort.
func SanitizeContext(context map[string]any) map[string]any {
	if context == nil {
		return nil
	}
	sanitized := make(map[string]any, len(context))
	for k, v := range context {
		sanitized[k] = v
	}
	for _, key := range sensitiveContextKeys {
		if _, ok := sanitized[key]; ok {
			sanitized[key] = RedactedMarker
		}
	}
	return sanitized
}
