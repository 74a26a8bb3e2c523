package model

import (
	"encoding/json"
	"time"
)

// PuzzleResult is one user's result for one (game, date). Upserts are
// idempotent on the natural key; a completed row is never downgraded.
type PuzzleResult struct {
	ID          string          `json:"id" gorm:"primaryKey;type:text;not null"`
	UserID      string          `json:"user_id" gorm:"not null;uniqueIndex:idx_results_user_game_date,priority:1"`
	Game        string          `json:"game" gorm:"not null;size:16;uniqueIndex:idx_results_user_game_date,priority:2"`
	Date        string          `json:"date" gorm:"not null;size:10;uniqueIndex:idx_results_user_game_date,priority:3"`
	Completed   bool            `json:"completed" gorm:"default:false;not null"`
	TimeTaken   int             `json:"time_taken" gorm:"default:0"`
	Mistakes    int             `json:"mistakes" gorm:"default:0"`
	HintsUsed   int             `json:"hints_used" gorm:"default:0"`
	Metadata    json.RawMessage `json:"metadata,omitempty" gorm:"type:jsonb"`
	CompletedAt time.Time       `json:"completed_at"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null"`
}

// UserGameStats carries the per-game aggregate counters and the compact
// per-date completion map used for cross-device merges.
type UserGameStats struct {
	ID               string          `json:"id" gorm:"primaryKey;type:text;not null"`
	UserID           string          `json:"user_id" gorm:"not null;uniqueIndex:idx_stats_user_game,priority:1"`
	Game             string          `json:"game" gorm:"not null;size:16;uniqueIndex:idx_stats_user_game,priority:2"`
	TotalCompleted   int             `json:"total_completed" gorm:"default:0;not null"`
	CurrentStreak    int             `json:"current_streak" gorm:"default:0;not null"`
	LongestStreak    int             `json:"longest_streak" gorm:"default:0;not null"`
	AverageTime      float64         `json:"average_time" gorm:"default:0"`
	BestTime         int             `json:"best_time" gorm:"default:0"`
	LastPlayedDate   string          `json:"last_played_date" gorm:"size:10"`
	CompletedPuzzles json.RawMessage `json:"completed_puzzles" gorm:"type:jsonb"`
	CreatedAt        time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt        time.Time       `json:"updated_at" gorm:"not null"`
}
