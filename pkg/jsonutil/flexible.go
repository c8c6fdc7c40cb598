// Package jsonutil provides tolerant JSON decoding for client-submitted
// payloads.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleInt decodes a JSON value that should be an integer but may arrive
// as a number, a numeric string, or null. Mobile clients serialize scoring
// form fields inconsistently.
type FlexibleInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleInt) UnmarshalJSON(raw []byte) error {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}

	var numVal int
	if err := json.Unmarshal(raw, &numVal); err == nil {
		*f = FlexibleInt(numVal)
		return nil
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		parsed, err := strconv.Atoi(strings.TrimSpace(strVal))
		if err != nil {
			return fmt.Errorf("cannot parse %q as integer", strVal)
		}
		*f = FlexibleInt(parsed)
		return nil
	}

	return fmt.Errorf("cannot decode %s as integer", s)
}

// IntMap converts a map of FlexibleInt values to a plain map[string]int.
func IntMap(in map[string]FlexibleInt) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = int(v)
	}
	return out
}
