package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FlexibleID accepts either a JSON number or a JSON string and keeps the raw
// text. Browser forms post ids as strings while socket clients send numbers.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
		return fmt.Errorf("id must be a number or string, got %s", raw)
	}
	*f = FlexibleID(raw)
	return nil
}

func (f FlexibleID) String() string { return string(f) }
