// Package mapping resolves which local repository a ticket targets, either
// through explicit field rules or by scoring repo contents against the
// ticket text. Resolution must yield exactly one unambiguous repo name;
// anything else is for a human to untangle.
package mapping

import (
	"sort"
	"strconv"
	"strings"
)

// MapRepo applies explicit mapping rules to the ticket's fields. Rule keys
// take three forms: "field" (present at all), "field:value" and
// "field=value" (field equals value; list-valued fields match element-wise).
// Rules are evaluated in sorted-key order so precedence is deterministic.
func MapRepo(fields map[string]any, rules map[string]string) string {
	keys := make([]string, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		repo := rules[key]
		sep := ""
		if strings.Contains(key, ":") {
			sep = ":"
		} else if strings.Contains(key, "=") {
			sep = "="
		}

		if sep == "" {
			if _, ok := fields[key]; ok {
				return repo
			}
			continue
		}

		parts := strings.SplitN(key, sep, 2)
		field, expected := parts[0], parts[1]
		value, ok := fields[field]
		if !ok || value == nil {
			continue
		}
		if list, isList := value.([]any); isList {
			for _, v := range list {
				if Stringify(v) == expected {
					return repo
				}
			}
			continue
		}
		if Stringify(value) == expected {
			return repo
		}
	}
	return ""
}

// Stringify renders a loosely-typed field value the way the tracker JSON
// would print it. Unknown shapes render empty rather than failing.
func Stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; integral values print bare.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
