package models

import (
	"database/sql/driver"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSON stores free-form documents such as a generation's business context.
// It wraps gorm.io/datatypes.JSON so the column type can vary per dialect.
type JSON struct {
	datatypes.JSON
}

// NewJSON marshals v into a JSON column value. A nil v yields an empty (NULL) value.
func NewJSON(v interface{}) (JSON, error) {
	if v == nil {
		return JSON{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return JSON{}, err
	}
	if string(raw) == "null" {
		return JSON{}, nil
	}
	return JSON{JSON: datatypes.JSON(raw)}, nil
}

// IsEmpty reports whether the column holds no document
func (j JSON) IsEmpty() bool {
	return len(j.JSON) == 0 || string(j.JSON) == "null"
}

// Decode unmarshals the stored document into v
func (j JSON) Decode(v interface{}) error {
	if j.IsEmpty() {
		return nil
	}
	return json.Unmarshal(j.JSON, v)
}

// Value promotes the embedded JSON's Value method
func (j JSON) Value() (driver.Value, error) {
	if j.IsEmpty() {
		return nil, nil
	}
	return j.JSON.Value()
}

// Scan promotes the embedded JSON's Scan method
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		j.JSON = nil
		return nil
	}
	return j.JSON.Scan(value)
}

// GormDBDataType picks a JSON-capable column type per driver.
// MSSQL has no json type, so it falls back to NVARCHAR(MAX).
func (JSON) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	case "sqlite":
		return "JSON"
	}
	return "TEXT"
}
