package models

import (
	"database/sql/driver"
	"encoding/json"
)

// JSON is a free-form object payload stored as jsonb
type JSON map[string]interface{}

// Value implements driver.Valuer
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return json.Marshal(map[string]interface{}{})
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner
func (j *JSON) Scan(value interface{}) error {
	return scanJSON(value, j)
}
