package model

import (
	"encoding/json"
	"time"
)

// CoopSession is a two-player Element Soup session. The server copy of the
// element bank and counters is authoritative; joins are claimed atomically.
type CoopSession struct {
	ID                     string          `json:"id" gorm:"primaryKey;type:text;not null"`
	InviteCode             string          `json:"invite_code" gorm:"not null;size:6;uniqueIndex"`
	HostUserID             string          `json:"host_user_id" gorm:"not null;index"`
	PartnerUserID          *string         `json:"partner_user_id,omitempty" gorm:"index"`
	Status                 string          `json:"status" gorm:"not null;default:waiting;size:16;index"`
	Mode                   string          `json:"mode" gorm:"size:16"`
	ElementBank            json.RawMessage `json:"element_bank" gorm:"type:jsonb"`
	TotalMoves             int             `json:"total_moves" gorm:"default:0;not null"`
	TotalDiscoveries       int             `json:"total_discoveries" gorm:"default:0;not null"`
	FirstDiscoveryElements json.RawMessage `json:"first_discovery_elements" gorm:"type:jsonb"`
	StartedAt              time.Time       `json:"started_at"`
	LastActivityAt         time.Time       `json:"last_activity_at" gorm:"not null;index"`
	CreatedAt              time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt              time.Time       `json:"updated_at" gorm:"not null"`
}

// CoopSave is a participant's private creative-save slot; writing one never
// touches the live session row.
type CoopSave struct {
	ID          string          `json:"id" gorm:"primaryKey;type:text;not null"`
	UserID      string          `json:"user_id" gorm:"not null;uniqueIndex:idx_coop_saves_user_slot,priority:1"`
	Slot        int             `json:"slot" gorm:"not null;uniqueIndex:idx_coop_saves_user_slot,priority:2"`
	ElementBank json.RawMessage `json:"element_bank" gorm:"type:jsonb;not null"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null"`
}
