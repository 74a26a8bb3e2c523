package services

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/model"
	"github.com/tandemdaily/api/shared"
)

func validTandemPayload() []byte {
	payload := dto.TandemPayload{
		Theme: "Weather",
		Puzzles: []dto.TandemPair{
			{Emoji: "🌧️⛈️", Answer: "storm"},
			{Emoji: "❄️🌨️", Answer: "Snow"},
			{Emoji: "🌞🔥", Answer: "HEAT"},
			{Emoji: "🌈🎨", Answer: "rainbow"},
		},
	}
	raw, _ := json.Marshal(payload)
	return raw
}

func validReelGroups() []dto.ReelGroup {
	groups := make([]dto.ReelGroup, 4)
	for g := 0; g < 4; g++ {
		movies := make([]dto.ReelMovie, 4)
		for m := 0; m < 4; m++ {
			movies[m] = dto.ReelMovie{
				ImdbID: "tt000" + string(rune('0'+g)) + string(rune('0'+m)),
				Title:  "Movie",
				Year:   2000,
				Order:  m,
			}
		}
		groups[g] = dto.ReelGroup{
			Connection: "Connection",
			Difficulty: g + 1,
			Order:      g,
			Movies:     movies,
		}
	}
	return groups
}

func TestNormalizeTandemUppercasesAnswers(t *testing.T) {
	svc := &ContentService{}

	out, theme, err := svc.NormalizePayload(shared.GameTandem, validTandemPayload())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if theme != "Weather" {
		t.Fatalf("theme=%q", theme)
	}

	var payload dto.TandemPayload
	if err := json.Unmarshal(out, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{"STORM", "SNOW", "HEAT", "RAINBOW"}
	for i, pair := range payload.Puzzles {
		if pair.Answer != want[i] {
			t.Fatalf("answer %d = %q, want %q", i, pair.Answer, want[i])
		}
	}
}

func TestNormalizeTandemRejectsBadShapes(t *testing.T) {
	svc := &ContentService{}

	cases := []struct {
		name string
		raw  string
	}{
		{"three pairs", `{"theme":"x","puzzles":[{"emoji":"a","answer":"A"},{"emoji":"b","answer":"B"},{"emoji":"c","answer":"C"}]}`},
		{"missing theme", `{"puzzles":[{"emoji":"a","answer":"A"},{"emoji":"b","answer":"B"},{"emoji":"c","answer":"C"},{"emoji":"d","answer":"D"}]}`},
		{"non letter answer", `{"theme":"x","puzzles":[{"emoji":"a","answer":"A1"},{"emoji":"b","answer":"B"},{"emoji":"c","answer":"C"},{"emoji":"d","answer":"D"}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.NormalizePayload(shared.GameTandem, []byte(tc.raw))
			wantAppError(t, err, http.StatusBadRequest)
		})
	}
}

func TestNormalizeCryptic(t *testing.T) {
	svc := &ContentService{}

	base := dto.CrypticPayload{
		Clue:   "Confused artist holds nothing back (6)",
		Answer: "rat run",
		Length: 6,
		Hints: []dto.CrypticHint{
			{Type: shared.HintDefinition, Text: "a"},
			{Type: shared.HintFodder, Text: "b"},
			{Type: shared.HintIndicator, Text: "c"},
			{Type: shared.HintLetter, Text: "d"},
		},
		Difficulty: 3,
	}

	t.Run("normalizes answer and accepts matching pattern", func(t *testing.T) {
		payload := base
		payload.WordPattern = []int{3, 3}
		raw, _ := json.Marshal(payload)

		out, _, err := svc.NormalizePayload(shared.GameCryptic, raw)
		if err != nil {
			t.Fatalf("normalize: %v", err)
		}
		var got dto.CrypticPayload
		if err := json.Unmarshal(out, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Answer != "RATRUN" {
			t.Fatalf("answer=%q", got.Answer)
		}
	})

	t.Run("rejects pattern sum mismatch", func(t *testing.T) {
		payload := base
		payload.WordPattern = []int{3, 4}
		raw, _ := json.Marshal(payload)

		_, _, err := svc.NormalizePayload(shared.GameCryptic, raw)
		wantAppError(t, err, http.StatusBadRequest)
	})

	t.Run("rejects length mismatch", func(t *testing.T) {
		payload := base
		payload.Length = 7
		payload.WordPattern = []int{3, 3}
		raw, _ := json.Marshal(payload)

		_, _, err := svc.NormalizePayload(shared.GameCryptic, raw)
		wantAppError(t, err, http.StatusBadRequest)
	})
}

func TestCheckMiniClue(t *testing.T) {
	grid := [][]string{
		{"H", "E", "L", "L", "O"},
		{"A", shared.BlockCell, "A", shared.BlockCell, "P"},
		{"T", "R", "M", "A", "E"},
		{shared.BlockCell, "A", "P", shared.BlockCell, "R"},
		{"S", "T", "S", "E", "A"},
	}

	t.Run("valid across", func(t *testing.T) {
		clue := dto.MiniClue{Number: 1, Row: 0, Col: 0, Length: 5, Answer: "HELLO"}
		if err := checkMiniClue(grid, clue, true); err != nil {
			t.Fatalf("valid clue rejected: %v", err)
		}
	})

	t.Run("valid down", func(t *testing.T) {
		clue := dto.MiniClue{Number: 2, Row: 0, Col: 4, Length: 5, Answer: "OPERA"}
		if err := checkMiniClue(grid, clue, false); err != nil {
			t.Fatalf("valid clue rejected: %v", err)
		}
	})

	t.Run("block inside the word", func(t *testing.T) {
		clue := dto.MiniClue{Number: 3, Row: 1, Col: 0, Length: 3, Answer: "ABC"}
		wantAppError(t, checkMiniClue(grid, clue, true), http.StatusBadRequest)
	})

	t.Run("grid does not spell answer", func(t *testing.T) {
		clue := dto.MiniClue{Number: 1, Row: 0, Col: 0, Length: 5, Answer: "WORLD"}
		wantAppError(t, checkMiniClue(grid, clue, true), http.StatusBadRequest)
	})

	t.Run("runs off the grid", func(t *testing.T) {
		clue := dto.MiniClue{Number: 4, Row: 0, Col: 2, Length: 4, Answer: "LLOX"}
		wantAppError(t, checkMiniClue(grid, clue, true), http.StatusBadRequest)
	})

	t.Run("does not terminate", func(t *testing.T) {
		// HEL stops mid-run; the next cell is a letter, not a block or edge.
		clue := dto.MiniClue{Number: 1, Row: 0, Col: 0, Length: 3, Answer: "HEL"}
		wantAppError(t, checkMiniClue(grid, clue, true), http.StatusBadRequest)
	})
}

func TestCheckReelGroups(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		if err := checkReelGroups(validReelGroups()); err != nil {
			t.Fatalf("valid groups rejected: %v", err)
		}
	})

	t.Run("three groups", func(t *testing.T) {
		wantAppError(t, checkReelGroups(validReelGroups()[:3]), http.StatusBadRequest)
	})

	t.Run("duplicate group order", func(t *testing.T) {
		groups := validReelGroups()
		groups[1].Order = groups[0].Order
		wantAppError(t, checkReelGroups(groups), http.StatusBadRequest)
	})

	t.Run("duplicate movie order", func(t *testing.T) {
		groups := validReelGroups()
		groups[0].Movies[1].Order = groups[0].Movies[0].Order
		wantAppError(t, checkReelGroups(groups), http.StatusBadRequest)
	})
}

func TestCreatePuzzleDuplicateDate(t *testing.T) {
	db := newTestDB(t)
	svc := &ContentService{db: db}

	req := dto.CreatePuzzleRequest{
		Game:    shared.GameTandem,
		Date:    "2025-06-01",
		Payload: validTandemPayload(),
	}

	if _, err := svc.CreatePuzzle("admin", req); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.CreatePuzzle("admin", req)
	wantAppError(t, err, http.StatusConflict)

	// Another game on the same date is fine.
	groupsRaw, _ := json.Marshal(dto.ReelPayload{Groups: validReelGroups()})
	if _, err := svc.CreatePuzzle("admin", dto.CreatePuzzleRequest{
		Game:    shared.GameReel,
		Date:    "2025-06-01",
		Payload: groupsRaw,
	}); err != nil {
		t.Fatalf("other game same date: %v", err)
	}
}

func TestReviewSubmissionPromotes(t *testing.T) {
	db := newTestDB(t)
	svc := &ContentService{db: db}
	userID := seedUser(t, db, "creator")

	sub, err := svc.CreateSubmission(userID, dto.SubmitPuzzleRequest{
		DisplayName: "Creator",
		Groups:      validReelGroups(),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Status != shared.SubmissionPending {
		t.Fatalf("status=%s", sub.Status)
	}

	if err := svc.ReviewSubmission(sub.ID, "reviewer", dto.ReviewSubmissionRequest{
		Status: shared.SubmissionApproved,
		Date:   "2025-07-01",
	}); err != nil {
		t.Fatalf("review: %v", err)
	}

	// Approval with a date promotes the submission into the catalog.
	var puzzle model.Puzzle
	if err := db.Where("game = ? AND date = ?", shared.GameReel, "2025-07-01").First(&puzzle).Error; err != nil {
		t.Fatalf("promoted puzzle missing: %v", err)
	}

	// A reviewed submission cannot be reviewed again.
	err = svc.ReviewSubmission(sub.ID, "reviewer", dto.ReviewSubmissionRequest{Status: shared.SubmissionRejected})
	wantAppError(t, err, http.StatusConflict)
}
