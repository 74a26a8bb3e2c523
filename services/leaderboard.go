package services

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/model"
	"github.com/tandemdaily/api/shared"
)

// LeaderboardService keeps one best entry per (game, board, date, user).
// Improvement is decided by the datastore's conditional update, so two racing
// improvers resolve to "last improver wins", the user's real new best.
type LeaderboardService struct {
	context.DefaultService

	db *gorm.DB
}

const LEADERBOARD_SVC = "leaderboard_svc"

func (svc LeaderboardService) Id() string {
	return LEADERBOARD_SVC
}

func (svc *LeaderboardService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *LeaderboardService) Start() error {
	svc.db = dbOf(svc.Service(POSTGRES_SVC), svc.Service(SQLITE_SVC))
	return nil
}

// ==================== SUBMISSION ====================

func (svc *LeaderboardService) SubmitDaily(userID string, req dto.SubmitDailyScoreRequest) (*dto.SubmitScoreResponse, error) {
	if err := svc.checkPreference(userID); err != nil {
		return nil, err
	}
	return svc.submit(userID, req.Game, shared.BoardDailySpeed, req.Date, req.Score, req.Metadata)
}

func (svc *LeaderboardService) SubmitStreak(userID string, req dto.SubmitStreakRequest) (*dto.SubmitScoreResponse, error) {
	if err := svc.checkPreference(userID); err != nil {
		return nil, err
	}
	return svc.submit(userID, req.Game, shared.BoardBestStreak, "", req.Streak, req.Metadata)
}

func (svc *LeaderboardService) checkPreference(userID string) error {
	var pref model.LeaderboardPreference
	err := svc.db.Where("user_id = ?", userID).First(&pref).Error
	if err == nil && !pref.Enabled {
		return shared.ErrForbidden("Leaderboard participation is disabled for this account")
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func (svc *LeaderboardService) submit(userID, game, board, date string, score int, metadata json.RawMessage) (*dto.SubmitScoreResponse, error) {
	now := time.Now()

	// Conditional update is the atomic primitive: only a strictly better
	// score replaces the stored one.
	guard := "score > ?" // daily_speed: lower time wins
	if board == shared.BoardBestStreak {
		guard = "score < ?"
	}

	res := svc.db.Model(&model.LeaderboardEntry{}).
		Where("user_id = ? AND game = ? AND board = ? AND date = ? AND "+guard, userID, game, board, date, score).
		Updates(map[string]interface{}{
			"score":      score,
			"metadata":   metadata,
			"created_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		var existing model.LeaderboardEntry
		err := svc.db.Where("user_id = ? AND game = ? AND board = ? AND date = ?", userID, game, board, date).
			First(&existing).Error
		if err == nil {
			RecordLeaderboardSubmission(board, "not_improved")
			return &dto.SubmitScoreResponse{EntryID: nil, Message: "Score not improved"}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		id, _ := uuid.NewV7()
		entry := model.LeaderboardEntry{
			ID:        id.String(),
			Game:      game,
			Board:     board,
			Date:      date,
			UserID:    userID,
			Score:     score,
			Metadata:  metadata,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := svc.db.Create(&entry).Error; err != nil {
			// Raced with another first submission for the same key: fall back
			// to the conditional update and report accordingly.
			if !isUniqueViolation(err) {
				return nil, err
			}
			retry := svc.db.Model(&model.LeaderboardEntry{}).
				Where("user_id = ? AND game = ? AND board = ? AND date = ? AND "+guard, userID, game, board, date, score).
				Updates(map[string]interface{}{"score": score, "metadata": metadata, "created_at": now, "updated_at": now})
			if retry.Error != nil {
				return nil, retry.Error
			}
			if retry.RowsAffected == 0 {
				RecordLeaderboardSubmission(board, "not_improved")
				return &dto.SubmitScoreResponse{EntryID: nil, Message: "Score not improved"}, nil
			}
			if err := svc.db.Where("user_id = ? AND game = ? AND board = ? AND date = ?", userID, game, board, date).
				First(&entry).Error; err != nil {
				return nil, err
			}
		}

		rank, err := svc.Rank(game, board, date, score)
		if err != nil {
			return nil, err
		}
		RecordLeaderboardSubmission(board, "accepted")
		return &dto.SubmitScoreResponse{EntryID: &entry.ID, Rank: rank}, nil
	}

	var entry model.LeaderboardEntry
	if err := svc.db.Where("user_id = ? AND game = ? AND board = ? AND date = ?", userID, game, board, date).
		First(&entry).Error; err != nil {
		return nil, err
	}

	rank, err := svc.Rank(game, board, date, score)
	if err != nil {
		return nil, err
	}
	RecordLeaderboardSubmission(board, "accepted")
	return &dto.SubmitScoreResponse{EntryID: &entry.ID, Rank: rank}, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

// ==================== READS ====================

// Rank is 1 plus the number of strictly better scores on the board.
func (svc *LeaderboardService) Rank(game, board, date string, score int) (int, error) {
	cmp := "score < ?"
	if board == shared.BoardBestStreak {
		cmp = "score > ?"
	}

	var better int64
	err := svc.db.Model(&model.LeaderboardEntry{}).
		Where("game = ? AND board = ? AND date = ? AND "+cmp, game, board, date, score).
		Count(&better).Error
	if err != nil {
		return 0, err
	}
	return int(better) + 1, nil
}

func (svc *LeaderboardService) GetBoard(game, board, date string, limit int, callerID string) (*dto.LeaderboardResponse, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}

	order := "leaderboard_entries.score ASC"
	if board == shared.BoardBestStreak {
		order = "leaderboard_entries.score DESC"
	}

	// Avatar paths come only from the canonical avatars join.
	var rows []struct {
		UserID      string
		Username    string
		AvatarPath  string
		CountryFlag string
		Score       int
	}
	err := svc.db.Table("leaderboard_entries").
		Select("leaderboard_entries.user_id, users.username, users.country_flag, leaderboard_entries.score, avatars.image_path AS avatar_path").
		Joins("JOIN users ON users.id = leaderboard_entries.user_id").
		Joins("LEFT JOIN avatars ON avatars.id = users.avatar_id").
		Where("leaderboard_entries.game = ? AND leaderboard_entries.board = ? AND leaderboard_entries.date = ?", game, board, date).
		Order(order).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	resp := &dto.LeaderboardResponse{
		Game:    game,
		Board:   board,
		Date:    date,
		Entries: make([]dto.LeaderboardRow, 0, len(rows)),
	}

	for i, row := range rows {
		resp.Entries = append(resp.Entries, dto.LeaderboardRow{
			Rank:        i + 1,
			UserID:      row.UserID,
			Username:    row.Username,
			AvatarPath:  row.AvatarPath,
			CountryFlag: row.CountryFlag,
			Score:       row.Score,
		})
	}

	if callerID != "" {
		var own model.LeaderboardEntry
		err := svc.db.Where("user_id = ? AND game = ? AND board = ? AND date = ?", callerID, game, board, date).
			First(&own).Error
		if err == nil {
			rank, rankErr := svc.Rank(game, board, date, own.Score)
			if rankErr != nil {
				return nil, rankErr
			}
			resp.UserRank = rank
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return resp, nil
}

// ==================== PREFERENCES ====================

func (svc *LeaderboardService) SetPreference(userID string, enabled bool) error {
	var pref model.LeaderboardPreference
	err := svc.db.Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pref = model.LeaderboardPreference{
			UserID:    userID,
			Enabled:   enabled,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		return svc.db.Create(&pref).Error
	}
	if err != nil {
		return err
	}

	pref.Enabled = enabled
	pref.UpdatedAt = time.Now()
	return svc.db.Save(&pref).Error
}
