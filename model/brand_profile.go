package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// BrandProfileRecord is a saved brand, reusable across sessions.
// Name is not unique; the most recently saved row wins.
type BrandProfileRecord struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null;index" json:"name"`
	Industry  string         `gorm:"type:varchar(255)" json:"industry"`
	Overview  string         `gorm:"type:text" json:"overview"`
	Colors    pq.StringArray `gorm:"type:text[]" json:"colors"`
	Brand     datatypes.JSON `gorm:"type:jsonb" json:"brand"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;index;autoUpdateTime:false" json:"updated_at"`
}

func (BrandProfileRecord) TableName() string {
	return "brand_profiles"
}

func NewBrandProfileRecord(b BrandProfile) (*BrandProfileRecord, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to encode brand profile: %w", err)
	}
	return &BrandProfileRecord{
		Name:     b.Name,
		Industry: b.Industry,
		Overview: b.Overview,
		Colors:   pq.StringArray(b.Colors),
		Brand:    datatypes.JSON(data),
	}, nil
}

func (r *BrandProfileRecord) ToBrandProfile() (*BrandProfile, error) {
	var b BrandProfile
	if len(r.Brand) > 0 {
		if err := json.Unmarshal(r.Brand, &b); err != nil {
			return nil, fmt.Errorf("failed to decode brand profile %q: %w", r.Name, err)
		}
	}
	b.Name = r.Name
	b.Industry = r.Industry
	b.Overview = r.Overview
	if len(r.Colors) > 0 {
		b.Colors = []string(r.Colors)
	}
	return &b, nil
}
