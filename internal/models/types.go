package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringList is an ordered list of strings stored as a Postgres text[].
// Other dialects get the same array literal in a text column.
type StringList []string

// Value implements the driver.Valuer interface for StringList
func (l StringList) Value() (driver.Value, error) {
	return pq.StringArray(l).Value()
}

// Scan implements the sql.Scanner interface for StringList
func (l *StringList) Scan(value interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(value); err != nil {
		return fmt.Errorf("failed to scan string list: %w", err)
	}
	*l = StringList(arr)
	return nil
}

func (StringList) GormDataType() string {
	return "text"
}

func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// AvailabilityMap is a date (YYYY-MM-DD) → available units map stored as JSON.
type AvailabilityMap map[string]int

// Value implements the driver.Valuer interface for AvailabilityMap
func (m AvailabilityMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for AvailabilityMap
func (m *AvailabilityMap) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*m = AvailabilityMap{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported availability data type %T", value)
	}

	result := make(AvailabilityMap)
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*m = result
	return nil
}

func (AvailabilityMap) GormDataType() string {
	return "text"
}

func (AvailabilityMap) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}

// Clone returns an independent copy so a captured snapshot cannot be mutated
// through a shared map.
func (m AvailabilityMap) Clone() AvailabilityMap {
	out := make(AvailabilityMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
