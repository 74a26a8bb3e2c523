package dto

import "encoding/json"

type CompletePuzzleRequest struct {
	Game         string          `json:"game" validate:"required,game_type"`
	PuzzleDate   string          `json:"puzzleDate" validate:"required,puzzle_date"`
	PuzzleNumber int             `json:"puzzleNumber" validate:"min=0"`
	TimeTaken    int             `json:"timeTaken" validate:"required,min=1,max=7200"`
	Mistakes     int             `json:"mistakes" validate:"min=0,max=100"`
	HintsUsed    int             `json:"hintsUsed" validate:"min=0,max=100"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

func (r CompletePuzzleRequest) Validate() error {
	return validate.Struct(r)
}

type CompletePuzzleResponse struct {
	AlreadyCompleted bool `json:"alreadyCompleted"`
	Rank             int  `json:"rank,omitempty"`
	CurrentStreak    int  `json:"currentStreak"`
	LongestStreak    int  `json:"longestStreak"`
	TotalCompleted   int  `json:"totalCompleted"`
	Perfect          bool `json:"perfect"`
}

// CompletionRecord is one entry of the per-date completion map.
type CompletionRecord struct {
	CompletedAt string `json:"completedAt"`
	TimeTaken   int    `json:"timeTaken"`
	Mistakes    int    `json:"mistakes,omitempty"`
	HintsUsed   int    `json:"hintsUsed,omitempty"`
}

// StatsPayload is the aggregate-stats document exchanged on sync. The same
// shape is stored server-side and presented by devices on sign-in.
type StatsPayload struct {
	TotalCompleted   int                         `json:"totalCompleted" validate:"min=0"`
	CurrentStreak    int                         `json:"currentStreak" validate:"min=0"`
	LongestStreak    int                         `json:"longestStreak" validate:"min=0"`
	AverageTime      float64                     `json:"averageTime" validate:"min=0"`
	BestTime         int                         `json:"bestTime" validate:"min=0"`
	LastPlayedDate   string                      `json:"lastPlayedDate" validate:"omitempty,puzzle_date"`
	CompletedPuzzles map[string]CompletionRecord `json:"completedPuzzles"`
}

type MergeStatsRequest struct {
	Game  string       `json:"game" validate:"required,game_type"`
	Stats StatsPayload `json:"stats" validate:"required"`
}

func (r MergeStatsRequest) Validate() error {
	return validate.Struct(r)
}

type StatsResponse struct {
	Game  string       `json:"game"`
	Stats StatsPayload `json:"stats"`
}
