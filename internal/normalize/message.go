package normalize

import "strings"

var messageAliases = []string{"message", "status", "info"}

// Acceptance reports whether a write response is an asynchronous-acceptance
// acknowledgement rather than the committed record: the remote answered
// with a textual marker meaning "queued, not yet visible".
func Acceptance(v interface{}) (string, bool) {
	msg, ok := responseMessage(v)
	if !ok {
		return "", false
	}
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "started") || strings.Contains(lower, "processing") || strings.Contains(lower, "queued") {
		return msg, true
	}
	return "", false
}

// NoDataYet reports the specific "store not populated yet" reply, which is
// a legitimate empty result rather than an error.
func NoDataYet(v interface{}) bool {
	msg, ok := responseMessage(v)
	if !ok {
		return false
	}
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "no data") || strings.Contains(lower, "no rows")
}

func responseMessage(v interface{}) (string, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return "", false
	}
	return stringField(m, messageAliases...)
}
