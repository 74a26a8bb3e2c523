package model

import (
	"encoding/json"
	"time"
)

// LeaderboardEntry holds one best score per (game, board, date, user).
// Daily boards carry the puzzle date; streak boards use an empty date.
type LeaderboardEntry struct {
	ID        string          `json:"id" gorm:"primaryKey;type:text;not null"`
	Game      string          `json:"game" gorm:"not null;size:16;uniqueIndex:idx_lb_game_board_date_user,priority:1"`
	Board     string          `json:"board" gorm:"not null;size:16;uniqueIndex:idx_lb_game_board_date_user,priority:2"`
	Date      string          `json:"date" gorm:"size:10;uniqueIndex:idx_lb_game_board_date_user,priority:3"`
	UserID    string          `json:"user_id" gorm:"not null;uniqueIndex:idx_lb_game_board_date_user,priority:4"`
	Score     int             `json:"score" gorm:"not null;index"`
	Metadata  json.RawMessage `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"not null"`
}

type LeaderboardPreference struct {
	UserID    string    `json:"user_id" gorm:"primaryKey;type:text;not null"`
	Enabled   bool      `json:"enabled" gorm:"default:true;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}
