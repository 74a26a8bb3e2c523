package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/model"
	"github.com/tandemdaily/api/shared"
)

// ContentService owns the puzzle catalog: admin CRUD per game, payload
// validation and normalization, and user-generated submissions.
type ContentService struct {
	context.DefaultService

	db *gorm.DB
}

const CONTENT_SVC = "content_svc"

func (svc ContentService) Id() string {
	return CONTENT_SVC
}

func (svc *ContentService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *ContentService) Start() error {
	svc.db = dbOf(svc.Service(POSTGRES_SVC), svc.Service(SQLITE_SVC))
	return nil
}

// ==================== CATALOG CRUD ====================

func (svc *ContentService) CreatePuzzle(createdBy string, req dto.CreatePuzzleRequest) (*dto.PuzzleResponse, error) {
	payload, theme, err := svc.NormalizePayload(req.Game, req.Payload)
	if err != nil {
		return nil, err
	}
	if req.Theme != "" {
		theme = req.Theme
	}

	var count int64
	svc.db.Model(&model.Puzzle{}).Where("game = ? AND date = ?", req.Game, req.Date).Count(&count)
	if count > 0 {
		return nil, shared.ErrConflict(fmt.Sprintf("A %s puzzle already exists for %s", req.Game, req.Date))
	}

	id, _ := uuid.NewV7()
	puzzle := &model.Puzzle{
		ID:         id.String(),
		Game:       req.Game,
		Date:       req.Date,
		Payload:    payload,
		Difficulty: req.Difficulty,
		Theme:      theme,
		CreatedBy:  createdBy,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := svc.db.Create(puzzle).Error; err != nil {
		return nil, err
	}

	return svc.MapPuzzleToResponse(puzzle), nil
}

func (svc *ContentService) UpdatePuzzle(id string, req dto.UpdatePuzzleRequest) (*dto.PuzzleResponse, error) {
	var puzzle model.Puzzle
	err := svc.db.Where("id = ?", id).First(&puzzle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound("Puzzle not found")
	}
	if err != nil {
		return nil, err
	}

	if req.Date != nil && *req.Date != puzzle.Date {
		var count int64
		svc.db.Model(&model.Puzzle{}).Where("game = ? AND date = ? AND id <> ?", puzzle.Game, *req.Date, id).Count(&count)
		if count > 0 {
			return nil, shared.ErrConflict(fmt.Sprintf("A %s puzzle already exists for %s", puzzle.Game, *req.Date))
		}
		puzzle.Date = *req.Date
	}

	if len(req.Payload) > 0 {
		// Full-payload replace keeps child rewrites (e.g. reel groups) atomic
		// and normalizes any legacy shape on the way in.
		payload, theme, err := svc.NormalizePayload(puzzle.Game, req.Payload)
		if err != nil {
			return nil, err
		}
		puzzle.Payload = payload
		if theme != "" {
			puzzle.Theme = theme
		}
	}

	if req.Difficulty != nil {
		puzzle.Difficulty = *req.Difficulty
	}
	if req.Theme != nil {
		puzzle.Theme = *req.Theme
	}
	puzzle.UpdatedAt = time.Now()

	if err := svc.db.Save(&puzzle).Error; err != nil {
		return nil, err
	}

	return svc.MapPuzzleToResponse(&puzzle), nil
}

func (svc *ContentService) DeletePuzzle(id string) error {
	result := svc.db.Where("id = ?", id).Delete(&model.Puzzle{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound("Puzzle not found")
	}
	return nil
}

func (svc *ContentService) GetPuzzleByDate(game, date string) (*model.Puzzle, error) {
	var puzzle model.Puzzle
	err := svc.db.Where("game = ? AND date = ?", game, date).First(&puzzle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &puzzle, nil
}

func (svc *ContentService) ListPuzzles(game string, req dto.ListPuzzlesRequest) ([]dto.PuzzleResponse, error) {
	limit := req.Limit
	if limit == 0 {
		limit = 100
	}

	q := svc.db.Where("game = ?", game)
	if req.From != "" {
		q = q.Where("date >= ?", req.From)
	}
	if req.To != "" {
		q = q.Where("date <= ?", req.To)
	}

	var puzzles []model.Puzzle
	if err := q.Order("date DESC").Limit(limit).Find(&puzzles).Error; err != nil {
		return nil, err
	}

	responses := make([]dto.PuzzleResponse, 0, len(puzzles))
	for i := range puzzles {
		responses = append(responses, *svc.MapPuzzleToResponse(&puzzles[i]))
	}
	return responses, nil
}

func (svc *ContentService) MapPuzzleToResponse(p *model.Puzzle) *dto.PuzzleResponse {
	return &dto.PuzzleResponse{
		ID:         p.ID,
		Game:       p.Game,
		Date:       p.Date,
		Payload:    p.Payload,
		Difficulty: p.Difficulty,
		Theme:      p.Theme,
	}
}

// ==================== PAYLOAD VALIDATION ====================

// NormalizePayload validates a game payload and returns its canonical stored
// form plus the theme it carries, if any.
func (svc *ContentService) NormalizePayload(game string, raw json.RawMessage) (json.RawMessage, string, error) {
	switch game {
	case shared.GameTandem:
		return svc.normalizeTandem(raw)
	case shared.GameCryptic:
		return svc.normalizeCryptic(raw)
	case shared.GameMini:
		return svc.normalizeMini(raw)
	case shared.GameReel:
		return svc.normalizeReel(raw)
	case shared.GameSoup:
		return svc.normalizeSoup(raw)
	}
	return nil, "", shared.ErrValidation("Unknown game type")
}

func (svc *ContentService) normalizeTandem(raw json.RawMessage) (json.RawMessage, string, error) {
	var payload dto.TandemPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, "", shared.ErrValidation("Invalid tandem payload")
	}
	if err := dto.GetValidator().Struct(payload); err != nil {
		return nil, "", shared.ErrValidation(validationMessage(err))
	}

	for i := range payload.Puzzles {
		answer := strings.ToUpper(strings.TrimSpace(payload.Puzzles[i].Answer))
		if !isUpperASCII(answer) {
			return nil, "", shared.ErrValidation(fmt.Sprintf("Answer %q must be uppercase ASCII letters", payload.Puzzles[i].Answer))
		}
		payload.Puzzles[i].Answer = answer
	}

	out, err := json.Marshal(payload)
	return out, payload.Theme, err
}

func (svc *ContentService) normalizeCryptic(raw json.RawMessage) (json.RawMessage, string, error) {
	var payload dto.CrypticPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, "", shared.ErrValidation("Invalid cryptic payload")
	}
	if err := dto.GetValidator().Struct(payload); err != nil {
		return nil, "", shared.ErrValidation(validationMessage(err))
	}

	answer := strings.ToUpper(strings.ReplaceAll(payload.Answer, " ", ""))
	if !isUpperASCII(answer) {
		return nil, "", shared.ErrValidation("Answer must contain letters only")
	}
	payload.Answer = answer

	if payload.Length != len(answer) {
		return nil, "", shared.ErrValidation("Length does not match answer letter count")
	}

	sum := 0
	for _, n := range payload.WordPattern {
		if n < 1 {
			return nil, "", shared.ErrValidation("Word pattern entries must be positive")
		}
		sum += n
	}
	if sum != len(answer) {
		return nil, "", shared.ErrValidation("Word pattern does not match answer letter count")
	}

	out, err := json.Marshal(payload)
	return out, "", err
}

func (svc *ContentService) normalizeMini(raw json.RawMessage) (json.RawMessage, string, error) {
	var payload dto.MiniPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, "", shared.ErrValidation("Invalid mini payload")
	}
	if err := dto.GetValidator().Struct(payload); err != nil {
		return nil, "", shared.ErrValidation(validationMessage(err))
	}

	for r, row := range payload.Grid {
		if len(row) != 5 {
			return nil, "", shared.ErrValidation("Grid must be 5x5")
		}
		for c, cell := range row {
			upper := strings.ToUpper(cell)
			if upper != shared.BlockCell && !(len(upper) == 1 && upper[0] >= 'A' && upper[0] <= 'Z') {
				return nil, "", shared.ErrValidation(fmt.Sprintf("Grid cell (%d,%d) must be A-Z or %s", r, c, shared.BlockCell))
			}
			payload.Grid[r][c] = upper
		}
	}

	for i := range payload.Across {
		payload.Across[i].Answer = strings.ToUpper(payload.Across[i].Answer)
		if err := checkMiniClue(payload.Grid, payload.Across[i], true); err != nil {
			return nil, "", err
		}
	}
	for i := range payload.Down {
		payload.Down[i].Answer = strings.ToUpper(payload.Down[i].Answer)
		if err := checkMiniClue(payload.Grid, payload.Down[i], false); err != nil {
			return nil, "", err
		}
	}

	out, err := json.Marshal(payload)
	return out, "", err
}

// checkMiniClue walks a clue through the grid: every traversed cell must be a
// letter spelling the answer, and the run must terminate at a block or edge
// on both sides.
func checkMiniClue(grid [][]string, clue dto.MiniClue, across bool) error {
	if clue.Length != len(clue.Answer) {
		return shared.ErrValidation(fmt.Sprintf("Clue %d: length does not match answer", clue.Number))
	}

	dr, dc := 0, 1
	if !across {
		dr, dc = 1, 0
	}

	endRow := clue.Row + dr*(clue.Length-1)
	endCol := clue.Col + dc*(clue.Length-1)
	if endRow > 4 || endCol > 4 {
		return shared.ErrValidation(fmt.Sprintf("Clue %d: runs off the grid", clue.Number))
	}

	for i := 0; i < clue.Length; i++ {
		cell := grid[clue.Row+dr*i][clue.Col+dc*i]
		if cell == shared.BlockCell {
			return shared.ErrValidation(fmt.Sprintf("Clue %d: block inside the word", clue.Number))
		}
		if cell != string(clue.Answer[i]) {
			return shared.ErrValidation(fmt.Sprintf("Clue %d: grid does not spell %q", clue.Number, clue.Answer))
		}
	}

	// Must terminate: cell before the start and after the end is a block or
	// the grid edge.
	beforeRow, beforeCol := clue.Row-dr, clue.Col-dc
	if beforeRow >= 0 && beforeCol >= 0 && grid[beforeRow][beforeCol] != shared.BlockCell {
		return shared.ErrValidation(fmt.Sprintf("Clue %d: word does not start at a block or edge", clue.Number))
	}
	afterRow, afterCol := endRow+dr, endCol+dc
	if afterRow <= 4 && afterCol <= 4 && grid[afterRow][afterCol] != shared.BlockCell {
		return shared.ErrValidation(fmt.Sprintf("Clue %d: word does not end at a block or edge", clue.Number))
	}

	return nil
}

func (svc *ContentService) normalizeReel(raw json.RawMessage) (json.RawMessage, string, error) {
	var payload dto.ReelPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, "", shared.ErrValidation("Invalid reel payload")
	}
	if err := dto.GetValidator().Struct(payload); err != nil {
		return nil, "", shared.ErrValidation(validationMessage(err))
	}

	if err := checkReelGroups(payload.Groups); err != nil {
		return nil, "", err
	}

	out, err := json.Marshal(payload)
	return out, "", err
}

func checkReelGroups(groups []dto.ReelGroup) error {
	if len(groups) != 4 {
		return shared.ErrValidation("Exactly 4 groups are required")
	}

	seenGroup := map[int]bool{}
	for _, g := range groups {
		if seenGroup[g.Order] {
			return shared.ErrValidation("Group order values must be unique")
		}
		seenGroup[g.Order] = true

		if len(g.Movies) != 4 {
			return shared.ErrValidation("Each group needs exactly 4 movies")
		}
		seenMovie := map[int]bool{}
		for _, m := range g.Movies {
			if seenMovie[m.Order] {
				return shared.ErrValidation("Movie order values must be unique within a group")
			}
			seenMovie[m.Order] = true
		}
	}

	return nil
}

func (svc *ContentService) normalizeSoup(raw json.RawMessage) (json.RawMessage, string, error) {
	var payload dto.SoupPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, "", shared.ErrValidation("Invalid soup payload")
	}
	if err := dto.GetValidator().Struct(payload); err != nil {
		return nil, "", shared.ErrValidation(validationMessage(err))
	}

	out, err := json.Marshal(payload)
	return out, "", err
}

func isUpperASCII(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

func validationMessage(err error) string {
	errs := dto.FormatValidationErrors(err)
	if len(errs) == 0 {
		return "Validation failed"
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, "; ")
}

// ==================== USER SUBMISSIONS ====================

func (svc *ContentService) CreateSubmission(userID string, req dto.SubmitPuzzleRequest) (*dto.SubmissionResponse, error) {
	if err := checkReelGroups(req.Groups); err != nil {
		return nil, err
	}

	groups, err := json.Marshal(req.Groups)
	if err != nil {
		return nil, err
	}

	id, _ := uuid.NewV7()
	submission := &model.PuzzleSubmission{
		ID:          id.String(),
		UserID:      userID,
		DisplayName: req.DisplayName,
		Anonymous:   req.Anonymous,
		Groups:      groups,
		Status:      shared.SubmissionPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := svc.db.Create(submission).Error; err != nil {
		return nil, err
	}

	return &dto.SubmissionResponse{
		ID:        submission.ID,
		Status:    submission.Status,
		CreatedAt: submission.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (svc *ContentService) ListSubmissions(status string) ([]model.PuzzleSubmission, error) {
	q := svc.db.Order("created_at ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var submissions []model.PuzzleSubmission
	if err := q.Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

// ReviewSubmission approves or rejects a pending submission; an approved
// submission with a date is promoted into the reel catalog.
func (svc *ContentService) ReviewSubmission(id, admin string, req dto.ReviewSubmissionRequest) error {
	var submission model.PuzzleSubmission
	err := svc.db.Where("id = ?", id).First(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound("Submission not found")
	}
	if err != nil {
		return err
	}

	if submission.Status != shared.SubmissionPending {
		return shared.ErrConflict("Submission already reviewed")
	}

	submission.Status = req.Status
	submission.ReviewedBy = admin
	submission.UpdatedAt = time.Now()

	if err := svc.db.Save(&submission).Error; err != nil {
		return err
	}

	if req.Status == shared.SubmissionApproved && req.Date != "" {
		payload, _ := json.Marshal(dto.ReelPayload{Groups: mustUnmarshalGroups(submission.Groups)})
		_, err := svc.CreatePuzzle(admin, dto.CreatePuzzleRequest{
			Game:    shared.GameReel,
			Date:    req.Date,
			Payload: payload,
		})
		if err != nil {
			log.WithError(err).WithField("submission", id).Warn("Failed to promote submission")
			return err
		}
	}

	return nil
}

func mustUnmarshalGroups(raw json.RawMessage) []dto.ReelGroup {
	var groups []dto.ReelGroup
	_ = json.Unmarshal(raw, &groups)
	return groups
}

func (svc *ContentService) CountSubmissionsToday(userID string, now time.Time) (int64, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var count int64
	err := svc.db.Model(&model.PuzzleSubmission{}).
		Where("user_id = ? AND created_at >= ?", userID, dayStart).
		Count(&count).Error
	return count, err
}
