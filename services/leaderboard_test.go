package services

import (
	"net/http"
	"testing"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/shared"
)

func TestSubmitDailyImprovementOnly(t *testing.T) {
	db := newTestDB(t)
	svc := &LeaderboardService{db: db}
	userID := seedUser(t, db, "runner")

	resp, err := svc.SubmitDaily(userID, dto.SubmitDailyScoreRequest{
		Game:  shared.GameTandem,
		Date:  "2025-06-01",
		Score: 120,
	})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if resp.EntryID == nil || resp.Rank != 1 {
		t.Fatalf("first submit: %+v", resp)
	}

	// A slower time is not an improvement on the daily speed board.
	resp, err = svc.SubmitDaily(userID, dto.SubmitDailyScoreRequest{
		Game:  shared.GameTandem,
		Date:  "2025-06-01",
		Score: 200,
	})
	if err != nil {
		t.Fatalf("worse submit: %v", err)
	}
	if resp.EntryID != nil || resp.Message != "Score not improved" {
		t.Fatalf("worse submit accepted: %+v", resp)
	}

	resp, err = svc.SubmitDaily(userID, dto.SubmitDailyScoreRequest{
		Game:  shared.GameTandem,
		Date:  "2025-06-01",
		Score: 90,
	})
	if err != nil {
		t.Fatalf("better submit: %v", err)
	}
	if resp.EntryID == nil {
		t.Fatalf("better submit rejected: %+v", resp)
	}
}

func TestSubmitStreakHigherWins(t *testing.T) {
	db := newTestDB(t)
	svc := &LeaderboardService{db: db}
	userID := seedUser(t, db, "streaker")

	if _, err := svc.SubmitStreak(userID, dto.SubmitStreakRequest{Game: shared.GameMini, Streak: 5}); err != nil {
		t.Fatalf("first streak: %v", err)
	}

	resp, err := svc.SubmitStreak(userID, dto.SubmitStreakRequest{Game: shared.GameMini, Streak: 3})
	if err != nil {
		t.Fatalf("lower streak: %v", err)
	}
	if resp.EntryID != nil {
		t.Fatalf("lower streak accepted: %+v", resp)
	}

	resp, err = svc.SubmitStreak(userID, dto.SubmitStreakRequest{Game: shared.GameMini, Streak: 9})
	if err != nil {
		t.Fatalf("higher streak: %v", err)
	}
	if resp.EntryID == nil {
		t.Fatalf("higher streak rejected: %+v", resp)
	}
}

func TestRankAndBoardOrdering(t *testing.T) {
	db := newTestDB(t)
	svc := &LeaderboardService{db: db}

	scores := map[string]int{"alice": 60, "bob": 90, "carol": 120}
	ids := map[string]string{}
	for name, score := range scores {
		id := seedUser(t, db, name)
		ids[name] = id
		if _, err := svc.SubmitDaily(id, dto.SubmitDailyScoreRequest{
			Game:  shared.GameTandem,
			Date:  "2025-06-01",
			Score: score,
		}); err != nil {
			t.Fatalf("submit %s: %v", name, err)
		}
	}

	board, err := svc.GetBoard(shared.GameTandem, shared.BoardDailySpeed, "2025-06-01", 50, ids["bob"])
	if err != nil {
		t.Fatalf("get board: %v", err)
	}
	if len(board.Entries) != 3 {
		t.Fatalf("entries=%d", len(board.Entries))
	}
	if board.Entries[0].Username != "alice" || board.Entries[2].Username != "carol" {
		t.Fatalf("ordering: %+v", board.Entries)
	}
	if board.UserRank != 2 {
		t.Fatalf("caller rank=%d", board.UserRank)
	}
}

func TestSubmitBlockedByPreference(t *testing.T) {
	db := newTestDB(t)
	svc := &LeaderboardService{db: db}
	userID := seedUser(t, db, "private")

	if err := svc.SetPreference(userID, false); err != nil {
		t.Fatalf("set preference: %v", err)
	}

	_, err := svc.SubmitDaily(userID, dto.SubmitDailyScoreRequest{
		Game:  shared.GameTandem,
		Date:  "2025-06-01",
		Score: 100,
	})
	wantAppError(t, err, http.StatusForbidden)

	// Re-enabling restores submission.
	if err := svc.SetPreference(userID, true); err != nil {
		t.Fatalf("re-enable: %v", err)
	}
	if _, err := svc.SubmitDaily(userID, dto.SubmitDailyScoreRequest{
		Game:  shared.GameTandem,
		Date:  "2025-06-01",
		Score: 100,
	}); err != nil {
		t.Fatalf("submit after re-enable: %v", err)
	}
}

func TestBoardsAreIndependent(t *testing.T) {
	db := newTestDB(t)
	svc := &LeaderboardService{db: db}
	userID := seedUser(t, db, "both")

	if _, err := svc.SubmitDaily(userID, dto.SubmitDailyScoreRequest{
		Game:  shared.GameTandem,
		Date:  "2025-06-01",
		Score: 100,
	}); err != nil {
		t.Fatalf("daily: %v", err)
	}
	if _, err := svc.SubmitStreak(userID, dto.SubmitStreakRequest{Game: shared.GameTandem, Streak: 4}); err != nil {
		t.Fatalf("streak: %v", err)
	}

	daily, err := svc.GetBoard(shared.GameTandem, shared.BoardDailySpeed, "2025-06-01", 50, "")
	if err != nil {
		t.Fatalf("daily board: %v", err)
	}
	streak, err := svc.GetBoard(shared.GameTandem, shared.BoardBestStreak, "", 50, "")
	if err != nil {
		t.Fatalf("streak board: %v", err)
	}
	if len(daily.Entries) != 1 || len(streak.Entries) != 1 {
		t.Fatalf("daily=%d streak=%d", len(daily.Entries), len(streak.Entries))
	}
	if daily.Entries[0].Score != 100 || streak.Entries[0].Score != 4 {
		t.Fatalf("scores: %d %d", daily.Entries[0].Score, streak.Entries[0].Score)
	}
}
