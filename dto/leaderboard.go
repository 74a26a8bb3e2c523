package dto

import "encoding/json"

type SubmitDailyScoreRequest struct {
	Game     string          `json:"game" validate:"required,game_type"`
	Date     string          `json:"date" validate:"required,puzzle_date"`
	Score    int             `json:"score" validate:"required,min=1,max=7200"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

func (r SubmitDailyScoreRequest) Validate() error {
	return validate.Struct(r)
}

type SubmitStreakRequest struct {
	Game     string          `json:"game" validate:"required,game_type"`
	Streak   int             `json:"streak" validate:"required,min=1,max=10000"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

func (r SubmitStreakRequest) Validate() error {
	return validate.Struct(r)
}

type SubmitScoreResponse struct {
	EntryID *string `json:"entryId"`
	Message string  `json:"message,omitempty"`
	Rank    int     `json:"rank,omitempty"`
}

type LeaderboardRow struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	AvatarPath  string `json:"avatar_path,omitempty"`
	CountryFlag string `json:"country_flag,omitempty"`
	Score       int    `json:"score"`
}

type LeaderboardResponse struct {
	Game    string           `json:"game"`
	Board   string           `json:"board"`
	Date    string           `json:"date,omitempty"`
	Entries []LeaderboardRow `json:"entries"`
	// UserRank is the caller's rank when authenticated and present, else 0.
	UserRank int `json:"user_rank,omitempty"`
}

type LeaderboardPreferenceRequest struct {
	Enabled bool `json:"enabled"`
}
