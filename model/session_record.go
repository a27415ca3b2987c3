package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// SessionRecord is the durable row behind a Session.
// Timestamps are owned by the store clock, not gorm.
type SessionRecord struct {
	SessionID string         `gorm:"primaryKey;type:varchar(64)" json:"session_id"`
	UserID    string         `gorm:"type:varchar(128);not null;index" json:"user_id"`
	Stage     string         `gorm:"type:varchar(40);not null;default:'start'" json:"stage"`
	State     datatypes.JSON `gorm:"type:jsonb" json:"state"`
	Version   int64          `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;index;autoUpdateTime:false" json:"updated_at"`
}

func (SessionRecord) TableName() string {
	return "sessions"
}

type sessionState struct {
	Brand BrandProfile `json:"brand"`
	Video VideoContext `json:"video"`
}

// NewSessionRecord flattens a session into its row form
func NewSessionRecord(s *Session) (*SessionRecord, error) {
	state, err := json.Marshal(sessionState{Brand: s.Brand, Video: s.Video})
	if err != nil {
		return nil, fmt.Errorf("failed to encode session state: %w", err)
	}
	return &SessionRecord{
		SessionID: s.SessionID,
		UserID:    s.UserID,
		Stage:     string(s.Stage),
		State:     datatypes.JSON(state),
		Version:   s.Version,
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
	}, nil
}

// ToSession rebuilds the domain session, rejecting rows with unknown stages
func (r *SessionRecord) ToSession() (*Session, error) {
	stage, err := ParseStage(r.Stage)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", r.SessionID, err)
	}
	var state sessionState
	if len(r.State) > 0 {
		if err := json.Unmarshal(r.State, &state); err != nil {
			return nil, fmt.Errorf("failed to decode session %s state: %w", r.SessionID, err)
		}
	}
	return &Session{
		SessionID: r.SessionID,
		UserID:    r.UserID,
		Stage:     stage,
		Brand:     state.Brand,
		Video:     state.Video,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}
