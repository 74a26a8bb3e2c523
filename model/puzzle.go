package model

import (
	"encoding/json"
	"time"
)

// Puzzle is the puzzle of record for one (game, date). Payload is the
// game-specific document; see dto for the per-game shapes.
type Puzzle struct {
	ID         string          `json:"id" gorm:"primaryKey;type:text;not null"`
	Game       string          `json:"game" gorm:"not null;size:16;uniqueIndex:idx_puzzles_game_date,priority:1"`
	Date       string          `json:"date" gorm:"not null;size:10;uniqueIndex:idx_puzzles_game_date,priority:2;index"`
	Payload    json.RawMessage `json:"payload" gorm:"type:jsonb;not null"`
	Difficulty int             `json:"difficulty" gorm:"default:0"`
	Theme      string          `json:"theme"`
	CreatedBy  string          `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time       `json:"updated_at" gorm:"not null"`
}

// PuzzleSubmission is a user-generated Reel Connections puzzle awaiting
// review. Approved submissions are promoted into the puzzles table.
type PuzzleSubmission struct {
	ID          string          `json:"id" gorm:"primaryKey;type:text;not null"`
	UserID      string          `json:"user_id" gorm:"not null;index"`
	DisplayName string          `json:"display_name" gorm:"size:64"`
	Anonymous   bool            `json:"anonymous" gorm:"default:false;not null"`
	Groups      json.RawMessage `json:"groups" gorm:"type:jsonb;not null"`
	Status      string          `json:"status" gorm:"not null;default:pending;size:16;index"`
	ReviewedBy  string          `json:"reviewed_by"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null"`
}
