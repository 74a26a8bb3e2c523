package services

import (
	"net/http"
	"testing"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/shared"
)

func TestApplyCompletionStreaks(t *testing.T) {
	rec := func(taken int) dto.CompletionRecord {
		return dto.CompletionRecord{CompletedAt: "2025-06-01T12:00:00Z", TimeTaken: taken}
	}

	stats := ApplyCompletion(dto.StatsPayload{}, "2025-06-01", rec(100))
	if stats.CurrentStreak != 1 || stats.TotalCompleted != 1 {
		t.Fatalf("first completion: streak=%d total=%d", stats.CurrentStreak, stats.TotalCompleted)
	}

	stats = ApplyCompletion(stats, "2025-06-02", rec(80))
	if stats.CurrentStreak != 2 || stats.LongestStreak != 2 {
		t.Fatalf("consecutive day: streak=%d longest=%d", stats.CurrentStreak, stats.LongestStreak)
	}

	// A gap resets the run but the longest streak survives.
	stats = ApplyCompletion(stats, "2025-06-05", rec(120))
	if stats.CurrentStreak != 1 {
		t.Fatalf("after gap: streak=%d", stats.CurrentStreak)
	}
	if stats.LongestStreak != 2 {
		t.Fatalf("after gap: longest=%d", stats.LongestStreak)
	}
	if stats.LastPlayedDate != "2025-06-05" {
		t.Fatalf("after gap: lastPlayed=%s", stats.LastPlayedDate)
	}
}

func TestApplyCompletionBackfill(t *testing.T) {
	stats := ApplyCompletion(dto.StatsPayload{}, "2025-06-10", dto.CompletionRecord{TimeTaken: 90})
	stats = ApplyCompletion(stats, "2025-06-11", dto.CompletionRecord{TimeTaken: 90})

	// Completing an older archive puzzle counts toward totals but must not
	// move the streak or last_played.
	stats = ApplyCompletion(stats, "2025-06-03", dto.CompletionRecord{TimeTaken: 60})
	if stats.CurrentStreak != 2 {
		t.Fatalf("backfill changed streak: %d", stats.CurrentStreak)
	}
	if stats.LastPlayedDate != "2025-06-11" {
		t.Fatalf("backfill moved lastPlayed: %s", stats.LastPlayedDate)
	}
	if stats.TotalCompleted != 3 {
		t.Fatalf("backfill total: %d", stats.TotalCompleted)
	}
}

func TestApplyCompletionReplay(t *testing.T) {
	stats := ApplyCompletion(dto.StatsPayload{}, "2025-06-10", dto.CompletionRecord{TimeTaken: 90})
	stats = ApplyCompletion(stats, "2025-06-10", dto.CompletionRecord{TimeTaken: 50})

	if stats.TotalCompleted != 1 {
		t.Fatalf("replay incremented total: %d", stats.TotalCompleted)
	}
	if stats.CurrentStreak != 1 {
		t.Fatalf("replay changed streak: %d", stats.CurrentStreak)
	}
	if stats.BestTime != 50 {
		t.Fatalf("replay best time: %d", stats.BestTime)
	}
}

func TestApplyCompletionTimes(t *testing.T) {
	stats := ApplyCompletion(dto.StatsPayload{}, "2025-06-01", dto.CompletionRecord{TimeTaken: 100})
	stats = ApplyCompletion(stats, "2025-06-02", dto.CompletionRecord{TimeTaken: 50})

	if stats.BestTime != 50 {
		t.Fatalf("best=%d", stats.BestTime)
	}
	if stats.AverageTime != 75 {
		t.Fatalf("average=%f", stats.AverageTime)
	}
}

func TestMergeStatsPayload(t *testing.T) {
	server := dto.StatsPayload{
		TotalCompleted: 10,
		CurrentStreak:  2,
		LongestStreak:  8,
		LastPlayedDate: "2025-06-10",
		CompletedPuzzles: map[string]dto.CompletionRecord{
			"2025-06-09": {CompletedAt: "2025-06-09T10:00:00Z", TimeTaken: 100},
			"2025-06-10": {CompletedAt: "2025-06-10T10:00:00Z", TimeTaken: 90},
		},
	}
	incoming := dto.StatsPayload{
		TotalCompleted: 4,
		CurrentStreak:  3,
		LongestStreak:  3,
		LastPlayedDate: "2025-06-12",
		CompletedPuzzles: map[string]dto.CompletionRecord{
			"2025-06-10": {CompletedAt: "2025-06-10T22:00:00Z", TimeTaken: 40},
			"2025-06-11": {CompletedAt: "2025-06-11T10:00:00Z", TimeTaken: 70},
			"2025-06-12": {CompletedAt: "2025-06-12T10:00:00Z", TimeTaken: 60},
		},
	}

	merged := MergeStatsPayload(server, incoming)

	if merged.TotalCompleted != 10 {
		t.Fatalf("total=%d", merged.TotalCompleted)
	}
	if merged.LongestStreak != 8 {
		t.Fatalf("longest=%d", merged.LongestStreak)
	}
	if len(merged.CompletedPuzzles) != 4 {
		t.Fatalf("map size=%d", len(merged.CompletedPuzzles))
	}
	// Later completedAt wins on overlap.
	if merged.CompletedPuzzles["2025-06-10"].TimeTaken != 40 {
		t.Fatalf("overlap record: %+v", merged.CompletedPuzzles["2025-06-10"])
	}
	// The device played more recently, so its streak carries.
	if merged.CurrentStreak != 3 || merged.LastPlayedDate != "2025-06-12" {
		t.Fatalf("streak=%d lastPlayed=%s", merged.CurrentStreak, merged.LastPlayedDate)
	}
}

func TestMergeStatsPayloadTieGoesToIncoming(t *testing.T) {
	server := dto.StatsPayload{CurrentStreak: 5, LastPlayedDate: "2025-06-10"}
	incoming := dto.StatsPayload{CurrentStreak: 2, LastPlayedDate: "2025-06-10"}

	merged := MergeStatsPayload(server, incoming)
	if merged.CurrentStreak != 2 {
		t.Fatalf("tie streak=%d", merged.CurrentStreak)
	}
}

func TestMergeStatsPayloadRaisesLongest(t *testing.T) {
	server := dto.StatsPayload{LongestStreak: 3, LastPlayedDate: "2025-06-01"}
	incoming := dto.StatsPayload{CurrentStreak: 7, LastPlayedDate: "2025-06-10"}

	merged := MergeStatsPayload(server, incoming)
	if merged.LongestStreak != 7 {
		t.Fatalf("longest=%d", merged.LongestStreak)
	}
}

func TestCompletePuzzle(t *testing.T) {
	db := newTestDB(t)
	svc := &ProgressService{db: db}
	userID := seedUser(t, db, "solver")
	seedPuzzle(t, db, shared.GameTandem, "2025-06-01", []byte(`{}`))

	resp, err := svc.CompletePuzzle(userID, dto.CompletePuzzleRequest{
		Game:       shared.GameTandem,
		PuzzleDate: "2025-06-01",
		TimeTaken:  120,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.AlreadyCompleted || resp.CurrentStreak != 1 || resp.TotalCompleted != 1 {
		t.Fatalf("first completion: %+v", resp)
	}
	if !resp.Perfect {
		t.Fatalf("no mistakes or hints should be perfect")
	}

	// Replaying the same date is acknowledged without regressing anything.
	resp, err = svc.CompletePuzzle(userID, dto.CompletePuzzleRequest{
		Game:       shared.GameTandem,
		PuzzleDate: "2025-06-01",
		TimeTaken:  60,
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !resp.AlreadyCompleted {
		t.Fatalf("replay not flagged: %+v", resp)
	}
	if resp.TotalCompleted != 1 || resp.CurrentStreak != 1 {
		t.Fatalf("replay regressed stats: %+v", resp)
	}
}

func TestCompletePuzzleUnknownDate(t *testing.T) {
	db := newTestDB(t)
	svc := &ProgressService{db: db}
	userID := seedUser(t, db, "solver")

	_, err := svc.CompletePuzzle(userID, dto.CompletePuzzleRequest{
		Game:       shared.GameTandem,
		PuzzleDate: "2030-01-01",
		TimeTaken:  120,
	})
	wantAppError(t, err, http.StatusBadRequest)
}

func TestMergeStatsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := &ProgressService{db: db}
	userID := seedUser(t, db, "merger")

	device := dto.StatsPayload{
		TotalCompleted: 3,
		CurrentStreak:  3,
		LongestStreak:  3,
		LastPlayedDate: "2025-06-03",
		CompletedPuzzles: map[string]dto.CompletionRecord{
			"2025-06-01": {CompletedAt: "2025-06-01T10:00:00Z", TimeTaken: 100},
			"2025-06-02": {CompletedAt: "2025-06-02T10:00:00Z", TimeTaken: 80},
			"2025-06-03": {CompletedAt: "2025-06-03T10:00:00Z", TimeTaken: 90},
		},
	}

	first, err := svc.MergeStats(userID, shared.GameTandem, device)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	second, err := svc.MergeStats(userID, shared.GameTandem, device)
	if err != nil {
		t.Fatalf("replay merge: %v", err)
	}

	if first.TotalCompleted != second.TotalCompleted ||
		first.CurrentStreak != second.CurrentStreak ||
		len(first.CompletedPuzzles) != len(second.CompletedPuzzles) {
		t.Fatalf("merge not idempotent: %+v vs %+v", first, second)
	}
}
