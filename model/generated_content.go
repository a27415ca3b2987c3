package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JSONMap is a custom type for storing JSON data as JSONB
type JSONMap map[string]interface{}

// Scan implements the sql.Scanner interface for reading from database
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = JSONMap{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONMap value")
	}

	if len(raw) == 0 {
		*j = JSONMap{}
		return nil
	}

	return json.Unmarshal(raw, j)
}

// Value implements the driver.Valuer interface for writing to database
func (j JSONMap) Value() (driver.Value, error) {
	if len(j) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// Content types recorded in the audit trail
const (
	ContentTypeVideo  = "video"
	ContentTypeScript = "script"
	ContentTypeImage  = "image"
)

// GeneratedContent is an append-only audit record for a produced artifact
type GeneratedContent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SessionID   string    `gorm:"type:varchar(64);not null;index" json:"session_id"`
	ContentType string    `gorm:"type:varchar(40);not null;index" json:"content_type"`
	ContentPath string    `gorm:"type:text;not null" json:"content_path"`
	Metadata    JSONMap   `gorm:"type:jsonb" json:"metadata"`
	CreatedAt   time.Time `gorm:"not null;index;autoCreateTime:false" json:"created_at"`
}

func (GeneratedContent) TableName() string {
	return "generated_content"
}
