package normalize

import (
	"strconv"
	"strings"
)

// stringField returns the first alias present in the map with a non-empty
// string value, coercing numbers to their text form. Identifier fields rely
// on this coercion: the remote renders ids as numbers or strings
// interchangeably.
func stringField(m map[string]interface{}, aliases ...string) (string, bool) {
	for _, alias := range aliases {
		raw, ok := m[alias]
		if !ok || raw == nil {
			continue
		}
		if s, ok := coerceString(raw); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// intField returns the first alias coercible to an integer.
func intField(m map[string]interface{}, aliases ...string) (int, bool) {
	for _, alias := range aliases {
		raw, ok := m[alias]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return int(v), true
		case int:
			return v, true
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func coerceString(raw interface{}) (string, bool) {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// NormalizeDate rewrites MM/DD/YYYY dates to YYYY-MM-DD. Strings containing
// a dash are assumed already normalized; anything else passes through
// unchanged rather than failing.
func NormalizeDate(s string) string {
	if !strings.Contains(s, "/") {
		return s
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return s
	}
	month, err1 := strconv.Atoi(parts[0])
	day, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return s
	}
	return strconv.Itoa(year) + "-" + pad2(month) + "-" + pad2(day)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
