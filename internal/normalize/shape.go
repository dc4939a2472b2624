package normalize

import (
	"fmt"
	"strconv"
)

// Shape identifies which of the documented response layouts a payload used.
// Every remote reply is decoded into exactly one variant; the extraction
// rules differ per variant instead of probing properties speculatively.
type Shape string

const (
	// ShapeWrapped is an object carrying the collection under a known
	// wrapper key, e.g. {"songs": [...]} or {"data": [...]}.
	ShapeWrapped Shape = "wrapped"
	// ShapeArray is a bare JSON array. Elements may each be a one-level
	// wrapper around a record or nested collection.
	ShapeArray Shape = "array"
	// ShapeIndexed is an object whose keys are consecutive integers
	// starting at zero; its values are the collection.
	ShapeIndexed Shape = "indexed"
	// ShapeSingle is any other value, treated as a one-element collection.
	ShapeSingle Shape = "single"
)

// genericWrapperKeys are accepted for any entity kind, after the
// entity-specific plural key.
var genericWrapperKeys = []string{"data", "items", "result"}

// Collection flattens a decoded JSON value into an ordered element slice.
// wrapperKeys are tried in order before the generic wrapper keys. The
// decode never fails on shape variance; the returned Shape names the
// variant that matched.
func Collection(v interface{}, wrapperKeys ...string) ([]interface{}, Shape) {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := append(append([]string{}, wrapperKeys...), genericWrapperKeys...)
		keys = append(keys, singularize(wrapperKeys)...)
		for _, key := range keys {
			inner, ok := val[key]
			if !ok {
				continue
			}
			switch iv := inner.(type) {
			case []interface{}:
				return unwrapElements(iv, wrapperKeys), ShapeWrapped
			case map[string]interface{}:
				// Bare record under the entity key, e.g. {"song": {...}}
				return []interface{}{iv}, ShapeWrapped
			}
		}
		if arr, ok := indexedValues(val); ok {
			return unwrapElements(arr, wrapperKeys), ShapeIndexed
		}
		return []interface{}{v}, ShapeSingle

	case []interface{}:
		return unwrapElements(val, wrapperKeys), ShapeArray

	case nil:
		return nil, ShapeSingle

	default:
		return []interface{}{v}, ShapeSingle
	}
}

// unwrapElements applies the one-level wrapper check: an element that is an
// object holding only a known wrapper key is replaced by what it wraps. A
// wrapped nested collection is spliced in place.
func unwrapElements(arr []interface{}, wrapperKeys []string) []interface{} {
	singularKeys := singularize(wrapperKeys)
	out := make([]interface{}, 0, len(arr))
	for _, el := range arr {
		m, ok := el.(map[string]interface{})
		if !ok || len(m) != 1 {
			out = append(out, el)
			continue
		}
		unwrapped := false
		for _, key := range append(append([]string{}, wrapperKeys...), singularKeys...) {
			inner, ok := m[key]
			if !ok {
				continue
			}
			switch iv := inner.(type) {
			case []interface{}:
				out = append(out, iv...)
			default:
				out = append(out, iv)
			}
			unwrapped = true
			break
		}
		if !unwrapped {
			out = append(out, el)
		}
	}
	return out
}

// singularize derives singular record keys from plural wrapper keys, so an
// element like {"song": {...}} inside an array unwraps too.
func singularize(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if len(k) > 1 && k[len(k)-1] == 's' {
			out = append(out, k[:len(k)-1])
		}
	}
	return out
}

// indexedValues detects the {"0": ..., "1": ...} layout. Keys must be
// consecutive integers starting at zero.
func indexedValues(m map[string]interface{}) ([]interface{}, bool) {
	if len(m) == 0 {
		return nil, false
	}
	out := make([]interface{}, len(m))
	for k, v := range m {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || idx >= len(m) {
			return nil, false
		}
		if k != fmt.Sprintf("%d", idx) {
			return nil, false
		}
		out[idx] = v
	}
	return out, true
}
