package models

import (
	"encoding/json"
	"fmt"
)

// scanJSON decodes a JSONB column value into dst. NULL leaves dst untouched.
func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported source type %T for JSON column", src)
	}
}
