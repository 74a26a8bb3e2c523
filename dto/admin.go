package dto

import "time"

// ==================== AI ASSIST ====================

type SuggestThemesRequest struct {
	RecentThemes []string `json:"recent_themes" validate:"max=100"`
	Count        int      `json:"count" validate:"omitempty,min=1,max=20"`
}

func (r SuggestThemesRequest) Validate() error {
	return validate.Struct(r)
}

type SuggestThemesResponse struct {
	Themes []string `json:"themes"`
}

type SuggestConnectionsRequest struct {
	Difficulty          int      `json:"difficulty" validate:"omitempty,min=1,max=4"`
	RecentConnections   []string `json:"recent_connections" validate:"max=100"`
	ExistingConnections []string `json:"existing_connections" validate:"max=10"`
}

func (r SuggestConnectionsRequest) Validate() error {
	return validate.Struct(r)
}

type SuggestedConnection struct {
	Connection string   `json:"connection"`
	Movies     []string `json:"movies"`
}

type SuggestConnectionsResponse struct {
	Connections []SuggestedConnection `json:"connections"`
}

type SuggestCrosswordWordsRequest struct {
	Pattern     string     `json:"pattern" validate:"required,max=5"`
	Constraints []string   `json:"constraints" validate:"max=20"`
	Grid        [][]string `json:"grid" validate:"omitempty,len=5"`
	Direction   string     `json:"direction" validate:"omitempty,oneof=across down"`
}

func (r SuggestCrosswordWordsRequest) Validate() error {
	return validate.Struct(r)
}

type SuggestCrosswordWordsResponse struct {
	Words []string `json:"words"`
}

type GenerateHintsRequest struct {
	Theme   string       `json:"theme" validate:"required"`
	Puzzles []TandemPair `json:"puzzles" validate:"required,min=1,max=4,dive"`
}

func (r GenerateHintsRequest) Validate() error {
	return validate.Struct(r)
}

type GenerateHintsResponse struct {
	Hints []string `json:"hints"`
}

type RegenerateEmojiPairRequest struct {
	Theme   string `json:"theme" validate:"required"`
	Answer  string `json:"answer" validate:"required"`
	Context string `json:"context"`
}

func (r RegenerateEmojiPairRequest) Validate() error {
	return validate.Struct(r)
}

type RegenerateEmojiPairResponse struct {
	Emoji string `json:"emoji"`
	Hint  string `json:"hint,omitempty"`
}

type AssessCrypticDifficultyRequest struct {
	Clue   string        `json:"clue" validate:"required"`
	Answer string        `json:"answer" validate:"required"`
	Hints  []CrypticHint `json:"hints" validate:"omitempty,len=4,dive"`
}

func (r AssessCrypticDifficultyRequest) Validate() error {
	return validate.Struct(r)
}

type AssessCrypticDifficultyResponse struct {
	Difficulty int    `json:"difficulty"`
	Rationale  string `json:"rationale,omitempty"`
}

// ==================== SUBMISSION REVIEW ====================

type ReviewSubmissionRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	// Date schedules an approved submission as the reel puzzle of record.
	Date string `json:"date" validate:"omitempty,puzzle_date"`
}

func (r ReviewSubmissionRequest) Validate() error {
	return validate.Struct(r)
}

// ==================== RATE LIMITS ====================

type RateLimitInfo struct {
	Allowed      bool       `json:"allowed"`
	Limit        int        `json:"limit"`
	Remaining    int        `json:"remaining"`
	ResetTime    *time.Time `json:"reset_time,omitempty"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty"`
}
