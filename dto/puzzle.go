package dto

import "encoding/json"

// ==================== GAME PAYLOADS ====================

type TandemPair struct {
	Emoji  string `json:"emoji" validate:"required"`
	Answer string `json:"answer" validate:"required"`
	Hint   string `json:"hint,omitempty"`
}

type TandemPayload struct {
	Theme   string       `json:"theme" validate:"required"`
	Puzzles []TandemPair `json:"puzzles" validate:"required,len=4,dive"`
}

// LegacyTandemPayload is the pre-migration stored shape. Reads transform it
// into TandemPayload on the fly; writes only ever use the new shape.
type LegacyTandemPayload struct {
	Theme          string   `json:"theme"`
	EmojiPairs     []string `json:"emojiPairs"`
	Words          []string `json:"words"`
	CorrectAnswers []string `json:"correctAnswers"`
}

type CrypticHint struct {
	Type string `json:"type" validate:"required,oneof=fodder indicator definition letter"`
	Text string `json:"text" validate:"required"`
}

type CrypticPayload struct {
	Clue        string        `json:"clue" validate:"required"`
	Answer      string        `json:"answer" validate:"required"`
	Length      int           `json:"length" validate:"required,min=1"`
	WordPattern []int         `json:"word_pattern" validate:"required,min=1"`
	Hints       []CrypticHint `json:"hints" validate:"required,len=4,dive"`
	Explanation string        `json:"explanation"`
	Difficulty  int           `json:"difficulty" validate:"required,min=1,max=5"`
	Device      string        `json:"device"`
}

type MiniClue struct {
	Number int    `json:"number" validate:"required,min=1"`
	Row    int    `json:"row" validate:"min=0,max=4"`
	Col    int    `json:"col" validate:"min=0,max=4"`
	Length int    `json:"length" validate:"required,min=1,max=5"`
	Clue   string `json:"clue" validate:"required"`
	Answer string `json:"answer" validate:"required"`
}

type MiniPayload struct {
	Grid   [][]string `json:"grid" validate:"required,len=5"`
	Across []MiniClue `json:"across" validate:"required,min=1,dive"`
	Down   []MiniClue `json:"down" validate:"required,min=1,dive"`
}

type ReelMovie struct {
	ImdbID string `json:"imdb_id" validate:"required"`
	Title  string `json:"title" validate:"required"`
	Year   int    `json:"year" validate:"required,min=1888"`
	Poster string `json:"poster"`
	Order  int    `json:"order" validate:"min=0,max=3"`
}

type ReelGroup struct {
	Connection string      `json:"connection" validate:"required"`
	Difficulty int         `json:"difficulty" validate:"required,min=1,max=4"`
	Order      int         `json:"order" validate:"min=0,max=3"`
	Movies     []ReelMovie `json:"movies" validate:"required,len=4,dive"`
}

type ReelPayload struct {
	Groups []ReelGroup `json:"groups" validate:"required,len=4,dive"`
}

type SoupPayload struct {
	TargetElement string   `json:"target_element" validate:"required"`
	TargetEmoji   string   `json:"target_emoji" validate:"required"`
	ParMoves      int      `json:"par_moves" validate:"required,min=1"`
	Difficulty    int      `json:"difficulty" validate:"min=0,max=5"`
	SolutionPath  []string `json:"solution_path,omitempty"`
}

// ==================== CATALOG REQUESTS ====================

type CreatePuzzleRequest struct {
	Game       string          `json:"game" validate:"required,game_type"`
	Date       string          `json:"date" validate:"required,puzzle_date"`
	Payload    json.RawMessage `json:"payload" validate:"required"`
	Difficulty int             `json:"difficulty" validate:"min=0,max=5"`
	Theme      string          `json:"theme"`
}

func (r CreatePuzzleRequest) Validate() error {
	return validate.Struct(r)
}

type UpdatePuzzleRequest struct {
	Date       *string         `json:"date" validate:"omitempty,puzzle_date"`
	Payload    json.RawMessage `json:"payload"`
	Difficulty *int            `json:"difficulty" validate:"omitempty,min=0,max=5"`
	Theme      *string         `json:"theme"`
}

func (r UpdatePuzzleRequest) Validate() error {
	return validate.Struct(r)
}

type ListPuzzlesRequest struct {
	From  string `json:"from" query:"from" validate:"omitempty,puzzle_date"`
	To    string `json:"to" query:"to" validate:"omitempty,puzzle_date"`
	Limit int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=500"`
}

func (r ListPuzzlesRequest) Validate() error {
	return validate.Struct(r)
}

type BatchPuzzlesRequest struct {
	Dates []string `json:"dates" validate:"required,min=1,max=100,dive,puzzle_date"`
}

func (r BatchPuzzlesRequest) Validate() error {
	return validate.Struct(r)
}

// ==================== DELIVERY RESPONSES ====================

type DailyPuzzleResponse struct {
	Date         string      `json:"date"`
	PuzzleNumber int         `json:"puzzleNumber"`
	Puzzle       interface{} `json:"puzzle"`
	DisplayDate  string      `json:"displayDate"`
}

type PuzzleResponse struct {
	ID         string          `json:"id"`
	Game       string          `json:"game"`
	Date       string          `json:"date"`
	Payload    json.RawMessage `json:"payload"`
	Difficulty int             `json:"difficulty,omitempty"`
	Theme      string          `json:"theme,omitempty"`
}

type PaginatedPuzzlesResponse struct {
	Puzzles    []PuzzleResponse `json:"puzzles"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalCount int64            `json:"total_count"`
	HasMore    bool             `json:"has_more"`
}

// ArchivePage pairs a page of the archive with its strong ETag.
type ArchivePage struct {
	Response *PaginatedPuzzlesResponse
	ETag     string
}

// ==================== USER SUBMISSIONS ====================

type SubmitPuzzleRequest struct {
	DisplayName string      `json:"display_name" validate:"omitempty,max=64"`
	Anonymous   bool        `json:"anonymous"`
	Groups      []ReelGroup `json:"groups" validate:"required,len=4,dive"`
}

func (r SubmitPuzzleRequest) Validate() error {
	return validate.Struct(r)
}

type SubmissionResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}
