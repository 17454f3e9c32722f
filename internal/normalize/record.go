// Package normalize turns loosely typed sheet rows into model types.
package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record is one row as it arrives from the remote sheet: header -> cell value.
type Record map[string]any

// Lookup finds field in rec ignoring key case. An exact key wins; otherwise
// among keys that fold to the same name the lexically smallest one is used,
// so the result does not depend on map iteration order.
func Lookup(rec Record, field string) (any, bool) {
	if rec == nil {
		return nil, false
	}
	if v, ok := rec[field]; ok {
		return v, true
	}
	want := strings.ToLower(field)
	var matches []string
	for k := range rec {
		if strings.ToLower(k) == want {
			matches = append(matches, k)
		}
	}
	if len(matches) == 0 {
		return nil, false
	}
	sort.Strings(matches)
	return rec[matches[0]], true
}

// String looks up field and coerces it to text. Missing and null values
// report ok=false.
func String(rec Record, field string) (string, bool) {
	v, ok := Lookup(rec, field)
	if !ok || v == nil {
		return "", false
	}
	return toText(v), true
}

func toText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%d", t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// stringOr returns the field text, or def when it is missing or empty.
func stringOr(rec Record, field, def string) string {
	if s, ok := String(rec, field); ok && s != "" {
		return s
	}
	return def
}
