package services

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/model"
	"github.com/tandemdaily/api/shared"
)

// DeliveryService resolves the puzzle of record for a caller's local date.
// The client's date is authoritative (puzzles roll at each player's local
// midnight); the server only falls back to the Eastern civil day and refuses
// dates beyond it.
type DeliveryService struct {
	context.DefaultService

	db     *gorm.DB
	epochs map[string]time.Time
	etZone *time.Location
}

const DELIVERY_SVC = "delivery_svc"

const dateLayout = "2006-01-02"

// Authoritative epochs per game; puzzle #1 is the epoch day itself.
var defaultEpochs = map[string]string{
	shared.GameTandem:  "2024-01-31",
	shared.GameCryptic: "2025-01-01",
	shared.GameMini:    "2025-03-01",
	shared.GameReel:    "2025-05-01",
	shared.GameSoup:    "2025-06-01",
}

func (svc DeliveryService) Id() string {
	return DELIVERY_SVC
}

func (svc *DeliveryService) Configure(ctx *context.Context) error {
	svc.epochs = make(map[string]time.Time, len(defaultEpochs))
	for game, fallback := range defaultEpochs {
		raw := os.Getenv(strings.ToUpper(game) + "_EPOCH")
		if raw == "" {
			raw = fallback
		}
		epoch, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid epoch for %s: %w", game, err)
		}
		svc.epochs[game] = epoch
	}

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return err
	}
	svc.etZone = loc

	return svc.DefaultService.Configure(ctx)
}

func (svc *DeliveryService) Start() error {
	svc.db = dbOf(svc.Service(POSTGRES_SVC), svc.Service(SQLITE_SVC))
	return nil
}

// ==================== PUZZLE NUMBERS ====================

// PuzzleNumber is a pure function of the calendar date:
// days since the game's epoch, plus one.
func (svc *DeliveryService) PuzzleNumber(game, date string) (int, error) {
	day, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return 0, shared.ErrValidation("Invalid date")
	}

	epoch, ok := svc.epochs[game]
	if !ok {
		return 0, shared.ErrValidation("Unknown game type")
	}

	return int(day.Sub(epoch).Hours()/24) + 1, nil
}

// TodayET returns the current civil day in the legacy authoritative zone.
func (svc *DeliveryService) TodayET() string {
	return time.Now().In(svc.etZone).Format(dateLayout)
}

// ==================== DAILY DELIVERY ====================

func (svc *DeliveryService) GetDaily(game, date string) (*dto.DailyPuzzleResponse, error) {
	if date == "" {
		date = svc.TodayET()
	}

	day, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return nil, shared.ErrValidation("Invalid date")
	}

	// No look-ahead: anything past the current ET day does not exist yet.
	if date > svc.TodayET() {
		return nil, shared.ErrNotFound("Puzzle not available yet")
	}

	number, err := svc.PuzzleNumber(game, date)
	if err != nil {
		return nil, err
	}

	var puzzle model.Puzzle
	findErr := svc.db.Where("game = ? AND date = ?", game, date).First(&puzzle).Error

	resp := &dto.DailyPuzzleResponse{
		Date:         date,
		PuzzleNumber: number,
		DisplayDate:  day.Format("January 2, 2006"),
	}

	if findErr == gorm.ErrRecordNotFound {
		// Tandem legacy clients expect 200 with a null puzzle; the newer
		// games return 404.
		if game == shared.GameTandem {
			return resp, nil
		}
		return nil, shared.ErrNotFound("No puzzle for this date")
	}
	if findErr != nil {
		return nil, findErr
	}

	resp.Puzzle = svc.presentPayload(&puzzle)
	RecordPuzzleServed(game)
	return resp, nil
}

// presentPayload returns the wire form of a stored payload, upgrading legacy
// tandem shapes on the fly.
func (svc *DeliveryService) presentPayload(p *model.Puzzle) interface{} {
	if p.Game == shared.GameTandem {
		if upgraded, ok := UpgradeLegacyTandem(p.Payload); ok {
			return upgraded
		}
	}
	return json.RawMessage(p.Payload)
}

// UpgradeLegacyTandem transforms the pre-migration tandem shape
// {emojiPairs, words|correctAnswers} into the current {puzzles[]} document.
// Returns ok=false when the payload is already in the new shape.
func UpgradeLegacyTandem(raw json.RawMessage) (*dto.TandemPayload, bool) {
	var probe struct {
		Puzzles    []dto.TandemPair `json:"puzzles"`
		EmojiPairs []string         `json:"emojiPairs"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, false
	}
	if len(probe.Puzzles) > 0 || len(probe.EmojiPairs) == 0 {
		return nil, false
	}

	var legacy dto.LegacyTandemPayload
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, false
	}

	answers := legacy.Words
	if len(answers) == 0 {
		answers = legacy.CorrectAnswers
	}
	if len(answers) != len(legacy.EmojiPairs) {
		return nil, false
	}

	payload := &dto.TandemPayload{Theme: legacy.Theme}
	for i, emoji := range legacy.EmojiPairs {
		payload.Puzzles = append(payload.Puzzles, dto.TandemPair{
			Emoji:  emoji,
			Answer: strings.ToUpper(answers[i]),
		})
	}
	return payload, true
}

// ==================== ARCHIVE ====================

func (svc *DeliveryService) GetArchivePage(game string, page, limit int, sort string) (*dto.ArchivePage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if sort != "asc" {
		sort = "desc"
	}

	today := svc.TodayET()

	var count int64
	if err := svc.db.Model(&model.Puzzle{}).
		Where("game = ? AND date <= ?", game, today).
		Count(&count).Error; err != nil {
		return nil, err
	}

	var puzzles []model.Puzzle
	if err := svc.db.Where("game = ? AND date <= ?", game, today).
		Order("date " + sort).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&puzzles).Error; err != nil {
		return nil, err
	}

	responses := make([]dto.PuzzleResponse, 0, len(puzzles))
	for i := range puzzles {
		p := &puzzles[i]
		payload := p.Payload
		if p.Game == shared.GameTandem {
			if upgraded, ok := UpgradeLegacyTandem(p.Payload); ok {
				payload, _ = json.Marshal(upgraded)
			}
		}
		responses = append(responses, dto.PuzzleResponse{
			ID:         p.ID,
			Game:       p.Game,
			Date:       p.Date,
			Payload:    payload,
			Difficulty: p.Difficulty,
			Theme:      p.Theme,
		})
	}

	etag := fmt.Sprintf(`"%x"`, sha1.Sum([]byte(fmt.Sprintf("%s:%d:%d:%s:%d", game, page, limit, sort, count))))

	return &dto.ArchivePage{
		Response: &dto.PaginatedPuzzlesResponse{
			Puzzles:    responses,
			Page:       page,
			Limit:      limit,
			TotalCount: count,
			HasMore:    int64(page*limit) < count,
		},
		ETag: etag,
	}, nil
}

// ==================== BATCH ====================

func (svc *DeliveryService) GetBatch(game string, dates []string) (map[string]*dto.DailyPuzzleResponse, error) {
	if len(dates) > 100 {
		return nil, shared.ErrValidation("At most 100 dates per batch")
	}

	today := svc.TodayET()
	allowed := make([]string, 0, len(dates))
	for _, d := range dates {
		if d <= today {
			allowed = append(allowed, d)
		}
	}

	var puzzles []model.Puzzle
	if err := svc.db.Where("game = ? AND date IN ?", game, allowed).Find(&puzzles).Error; err != nil {
		return nil, err
	}

	byDate := make(map[string]*model.Puzzle, len(puzzles))
	for i := range puzzles {
		byDate[puzzles[i].Date] = &puzzles[i]
	}

	result := make(map[string]*dto.DailyPuzzleResponse, len(allowed))
	for _, d := range allowed {
		number, err := svc.PuzzleNumber(game, d)
		if err != nil {
			log.WithError(err).WithField("date", d).Warn("Skipping batch date")
			continue
		}
		day, _ := time.ParseInLocation(dateLayout, d, time.UTC)
		entry := &dto.DailyPuzzleResponse{
			Date:         d,
			PuzzleNumber: number,
			DisplayDate:  day.Format("January 2, 2006"),
		}
		if p, ok := byDate[d]; ok {
			entry.Puzzle = svc.presentPayload(p)
		}
		result[d] = entry
	}

	return result, nil
}
