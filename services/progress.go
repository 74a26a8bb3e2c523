package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/model"
	"github.com/tandemdaily/api/shared"
)

// ProgressService records per-puzzle results and maintains the per-game
// aggregate stats, including the cross-device merge performed on sign-in.
type ProgressService struct {
	context.DefaultService

	db *gorm.DB
}

const PROGRESS_SVC = "progress_svc"

func (svc ProgressService) Id() string {
	return PROGRESS_SVC
}

func (svc *ProgressService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *ProgressService) Start() error {
	svc.db = dbOf(svc.Service(POSTGRES_SVC), svc.Service(SQLITE_SVC))
	return nil
}

// ==================== COMPLETION ====================

func (svc *ProgressService) CompletePuzzle(userID string, req dto.CompletePuzzleRequest) (*dto.CompletePuzzleResponse, error) {
	var puzzleCount int64
	svc.db.Model(&model.Puzzle{}).Where("game = ? AND date = ?", req.Game, req.PuzzleDate).Count(&puzzleCount)
	if puzzleCount == 0 {
		return nil, shared.ErrValidation("No puzzle exists for this date")
	}

	var existing model.PuzzleResult
	err := svc.db.Where("user_id = ? AND game = ? AND date = ?", userID, req.Game, req.PuzzleDate).
		First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err == nil && existing.Completed {
		stats, statsErr := svc.GetStats(userID, req.Game)
		if statsErr != nil {
			return nil, statsErr
		}
		return &dto.CompletePuzzleResponse{
			AlreadyCompleted: true,
			CurrentStreak:    stats.CurrentStreak,
			LongestStreak:    stats.LongestStreak,
			TotalCompleted:   stats.TotalCompleted,
			Perfect:          existing.Mistakes == 0 && existing.HintsUsed == 0,
		}, nil
	}

	now := time.Now()
	result := existing
	if errors.Is(err, gorm.ErrRecordNotFound) {
		id, _ := uuid.NewV7()
		result = model.PuzzleResult{
			ID:        id.String(),
			UserID:    userID,
			Game:      req.Game,
			Date:      req.PuzzleDate,
			CreatedAt: now,
		}
	}
	result.Completed = true
	result.TimeTaken = req.TimeTaken
	result.Mistakes = req.Mistakes
	result.HintsUsed = req.HintsUsed
	result.Metadata = req.Metadata
	result.CompletedAt = now
	result.UpdatedAt = now

	if err := svc.db.Save(&result).Error; err != nil {
		return nil, err
	}

	stats, err := svc.recordCompletion(userID, req.Game, req.PuzzleDate, dto.CompletionRecord{
		CompletedAt: now.UTC().Format(time.RFC3339),
		TimeTaken:   req.TimeTaken,
		Mistakes:    req.Mistakes,
		HintsUsed:   req.HintsUsed,
	})
	if err != nil {
		return nil, err
	}

	RecordPuzzleCompletion(req.Game)

	return &dto.CompletePuzzleResponse{
		AlreadyCompleted: false,
		CurrentStreak:    stats.CurrentStreak,
		LongestStreak:    stats.LongestStreak,
		TotalCompleted:   stats.TotalCompleted,
		Perfect:          req.Mistakes == 0 && req.HintsUsed == 0,
	}, nil
}

func (svc *ProgressService) recordCompletion(userID, game, date string, rec dto.CompletionRecord) (*dto.StatsPayload, error) {
	row, err := svc.loadStatsRow(userID, game)
	if err != nil {
		return nil, err
	}

	stats := statsFromRow(row)
	updated := ApplyCompletion(stats, date, rec)

	if err := svc.saveStatsRow(row, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ==================== STATS ====================

func (svc *ProgressService) GetStats(userID, game string) (*dto.StatsPayload, error) {
	row, err := svc.loadStatsRow(userID, game)
	if err != nil {
		return nil, err
	}
	stats := statsFromRow(row)
	return &stats, nil
}

// MergeStats folds a device's local stats into the server copy and returns
// the merged document. The merge is idempotent: replaying the same device
// payload is a no-op.
func (svc *ProgressService) MergeStats(userID, game string, incoming dto.StatsPayload) (*dto.StatsPayload, error) {
	row, err := svc.loadStatsRow(userID, game)
	if err != nil {
		return nil, err
	}

	server := statsFromRow(row)
	merged := MergeStatsPayload(server, incoming)

	if err := svc.saveStatsRow(row, merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

func (svc *ProgressService) loadStatsRow(userID, game string) (*model.UserGameStats, error) {
	var row model.UserGameStats
	err := svc.db.Where("user_id = ? AND game = ?", userID, game).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		id, _ := uuid.NewV7()
		row = model.UserGameStats{
			ID:               id.String(),
			UserID:           userID,
			Game:             game,
			CompletedPuzzles: json.RawMessage("{}"),
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		}
		return &row, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (svc *ProgressService) saveStatsRow(row *model.UserGameStats, stats dto.StatsPayload) error {
	completed, err := json.Marshal(stats.CompletedPuzzles)
	if err != nil {
		return err
	}

	row.TotalCompleted = stats.TotalCompleted
	row.CurrentStreak = stats.CurrentStreak
	row.LongestStreak = stats.LongestStreak
	row.AverageTime = stats.AverageTime
	row.BestTime = stats.BestTime
	row.LastPlayedDate = stats.LastPlayedDate
	row.CompletedPuzzles = completed
	row.UpdatedAt = time.Now()

	return svc.db.Save(row).Error
}

func statsFromRow(row *model.UserGameStats) dto.StatsPayload {
	stats := dto.StatsPayload{
		TotalCompleted:   row.TotalCompleted,
		CurrentStreak:    row.CurrentStreak,
		LongestStreak:    row.LongestStreak,
		AverageTime:      row.AverageTime,
		BestTime:         row.BestTime,
		LastPlayedDate:   row.LastPlayedDate,
		CompletedPuzzles: map[string]dto.CompletionRecord{},
	}
	if len(row.CompletedPuzzles) > 0 {
		if err := json.Unmarshal(row.CompletedPuzzles, &stats.CompletedPuzzles); err != nil {
			log.WithError(err).WithField("user_id", row.UserID).Warn("Corrupt completion map, resetting")
			stats.CompletedPuzzles = map[string]dto.CompletionRecord{}
		}
	}
	return stats
}

// ==================== PURE STREAK / MERGE LOGIC ====================

// ApplyCompletion folds one completion into the aggregate stats.
// Streak rules: a date exactly one day after last_played extends the run;
// a later date resets it to 1; a date at or before last_played is a backfill
// and leaves the streak untouched. last_played only moves forward.
func ApplyCompletion(stats dto.StatsPayload, date string, rec dto.CompletionRecord) dto.StatsPayload {
	if stats.CompletedPuzzles == nil {
		stats.CompletedPuzzles = map[string]dto.CompletionRecord{}
	}

	if _, replay := stats.CompletedPuzzles[date]; !replay {
		stats.TotalCompleted++
	}
	stats.CompletedPuzzles[date] = rec

	switch {
	case stats.LastPlayedDate == "":
		stats.CurrentStreak = 1
		stats.LastPlayedDate = date
	case date == nextDay(stats.LastPlayedDate):
		stats.CurrentStreak++
		stats.LastPlayedDate = date
	case date > stats.LastPlayedDate:
		stats.CurrentStreak = 1
		stats.LastPlayedDate = date
	}
	// date <= last_played: historical backfill, streak untouched.

	if stats.CurrentStreak > stats.LongestStreak {
		stats.LongestStreak = stats.CurrentStreak
	}

	recomputeTimes(&stats)
	return stats
}

// MergeStatsPayload implements the sign-in reconciliation: totals and longest
// streak take the max, completion maps union (later completedAt wins), and
// the current streak follows whichever side played more recently, ties going
// to the incoming device.
func MergeStatsPayload(server, incoming dto.StatsPayload) dto.StatsPayload {
	merged := dto.StatsPayload{
		TotalCompleted:   maxInt(server.TotalCompleted, incoming.TotalCompleted),
		LongestStreak:    maxInt(server.LongestStreak, incoming.LongestStreak),
		CompletedPuzzles: map[string]dto.CompletionRecord{},
	}

	for date, rec := range server.CompletedPuzzles {
		merged.CompletedPuzzles[date] = rec
	}
	for date, rec := range incoming.CompletedPuzzles {
		if prior, ok := merged.CompletedPuzzles[date]; !ok || rec.CompletedAt > prior.CompletedAt {
			merged.CompletedPuzzles[date] = rec
		}
	}

	if incoming.LastPlayedDate >= server.LastPlayedDate {
		merged.CurrentStreak = incoming.CurrentStreak
		merged.LastPlayedDate = incoming.LastPlayedDate
	} else {
		merged.CurrentStreak = server.CurrentStreak
		merged.LastPlayedDate = server.LastPlayedDate
	}

	if merged.CurrentStreak > merged.LongestStreak {
		merged.LongestStreak = merged.CurrentStreak
	}

	recomputeTimes(&merged)
	return merged
}

func recomputeTimes(stats *dto.StatsPayload) {
	if len(stats.CompletedPuzzles) == 0 {
		stats.AverageTime = 0
		stats.BestTime = 0
		return
	}

	total, count, best := 0, 0, 0
	for _, rec := range stats.CompletedPuzzles {
		if rec.TimeTaken <= 0 {
			continue
		}
		total += rec.TimeTaken
		count++
		if best == 0 || rec.TimeTaken < best {
			best = rec.TimeTaken
		}
	}

	if count > 0 {
		stats.AverageTime = float64(total) / float64(count)
	} else {
		stats.AverageTime = 0
	}
	stats.BestTime = best
}

func nextDay(date string) string {
	day, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return ""
	}
	return day.AddDate(0, 0, 1).Format(dateLayout)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
