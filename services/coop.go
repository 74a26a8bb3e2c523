package services

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/model"
	"github.com/tandemdaily/api/shared"
)

// CoopService runs two-player Element Soup sessions. The join is an atomic
// claim: a guarded UPDATE on status=waiting decides the winner between racing
// joiners without any table lock.
type CoopService struct {
	context.DefaultService

	db *gorm.DB
}

const COOP_SVC = "coop_svc"

const inviteAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var starterBank = json.RawMessage(`["water","fire","earth","air"]`)

func (svc CoopService) Id() string {
	return COOP_SVC
}

func (svc *CoopService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *CoopService) Start() error {
	svc.db = dbOf(svc.Service(POSTGRES_SVC), svc.Service(SQLITE_SVC))

	go svc.startCleanupJob()

	return nil
}

// ==================== SESSIONS ====================

func (svc *CoopService) CreateSession(hostID string, req dto.CreateCoopSessionRequest) (*dto.CoopSessionResponse, error) {
	now := time.Now()

	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateInviteCode()
		if err != nil {
			return nil, err
		}

		id, _ := uuid.NewV7()
		session := model.CoopSession{
			ID:                     id.String(),
			InviteCode:             code,
			HostUserID:             hostID,
			Status:                 shared.CoopWaiting,
			Mode:                   req.Mode,
			ElementBank:            starterBank,
			FirstDiscoveryElements: json.RawMessage("[]"),
			LastActivityAt:         now,
			CreatedAt:              now,
			UpdatedAt:              now,
		}

		err = svc.db.Create(&session).Error
		if err == nil {
			return mapSession(&session), nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		// Invite code collision; roll a new one.
	}

	return nil, errors.New("failed to allocate invite code")
}

// JoinSession claims a waiting session. The predicate on status and the null
// partner column guarantees exactly one of two racing joiners wins; the loser
// sees zero rows updated and gets a 409.
func (svc *CoopService) JoinSession(userID, inviteCode string) (*dto.CoopSessionResponse, error) {
	now := time.Now()

	res := svc.db.Model(&model.CoopSession{}).
		Where("invite_code = ? AND status = ? AND partner_user_id IS NULL AND host_user_id <> ?",
			inviteCode, shared.CoopWaiting, userID).
		Updates(map[string]interface{}{
			"partner_user_id":  userID,
			"status":           shared.CoopActive,
			"started_at":       now,
			"last_activity_at": now,
			"updated_at":       now,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		var session model.CoopSession
		err := svc.db.Where("invite_code = ?", inviteCode).First(&session).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound("Invalid invite code")
		}
		if err != nil {
			return nil, err
		}
		if session.HostUserID == userID {
			return nil, shared.ErrValidation("You cannot join your own session")
		}
		return nil, shared.ErrConflict("Session already claimed")
	}

	var session model.CoopSession
	if err := svc.db.Where("invite_code = ?", inviteCode).First(&session).Error; err != nil {
		return nil, err
	}

	return mapSession(&session), nil
}

func (svc *CoopService) GetSession(userID, sessionID string) (*dto.CoopSessionResponse, error) {
	session, err := svc.loadParticipantSession(userID, sessionID)
	if err != nil {
		return nil, err
	}
	return mapSession(session), nil
}

// ApplyMove replaces the authoritative element bank and counters and appends
// any new first discoveries.
func (svc *CoopService) ApplyMove(userID string, req dto.CoopMoveRequest) (*dto.CoopSessionResponse, error) {
	session, err := svc.loadParticipantSession(userID, req.SessionID)
	if err != nil {
		return nil, err
	}

	if session.Status != shared.CoopActive {
		return nil, shared.ErrConflict("Session is not active")
	}

	session.ElementBank = req.ElementBank
	session.TotalMoves += req.Moves

	if len(req.Discoveries) > 0 {
		var firsts []string
		_ = json.Unmarshal(session.FirstDiscoveryElements, &firsts)
		known := make(map[string]bool, len(firsts))
		for _, f := range firsts {
			known[f] = true
		}
		for _, d := range req.Discoveries {
			if !known[d] {
				firsts = append(firsts, d)
				known[d] = true
				session.TotalDiscoveries++
			}
		}
		session.FirstDiscoveryElements, _ = json.Marshal(firsts)
	}

	session.LastActivityAt = time.Now()
	session.UpdatedAt = session.LastActivityAt

	if err := svc.db.Save(session).Error; err != nil {
		return nil, err
	}

	return mapSession(session), nil
}

func (svc *CoopService) CompleteSession(userID, sessionID string) (*dto.CoopSessionResponse, error) {
	return svc.transition(userID, sessionID, shared.CoopCompleted)
}

func (svc *CoopService) AbandonSession(userID, sessionID string) (*dto.CoopSessionResponse, error) {
	return svc.transition(userID, sessionID, shared.CoopAbandoned)
}

func (svc *CoopService) transition(userID, sessionID, status string) (*dto.CoopSessionResponse, error) {
	session, err := svc.loadParticipantSession(userID, sessionID)
	if err != nil {
		return nil, err
	}

	session.Status = status
	session.LastActivityAt = time.Now()
	session.UpdatedAt = session.LastActivityAt

	if err := svc.db.Save(session).Error; err != nil {
		return nil, err
	}
	return mapSession(session), nil
}

// loadParticipantSession enforces participation: only the host or the claimed
// partner may touch a session.
func (svc *CoopService) loadParticipantSession(userID, sessionID string) (*model.CoopSession, error) {
	var session model.CoopSession
	err := svc.db.Where("id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound("Session not found")
	}
	if err != nil {
		return nil, err
	}

	if session.HostUserID != userID &&
		(session.PartnerUserID == nil || *session.PartnerUserID != userID) {
		return nil, shared.ErrForbidden("Not a participant in this session")
	}

	return &session, nil
}

// ==================== CREATIVE SAVES ====================

// SaveSlot writes a participant's private save without touching the live
// session row.
func (svc *CoopService) SaveSlot(userID string, slot int, req dto.CoopSaveRequest) error {
	if slot < 1 || slot > 5 {
		return shared.ErrValidation("Slot must be between 1 and 5")
	}

	var save model.CoopSave
	err := svc.db.Where("user_id = ? AND slot = ?", userID, slot).First(&save).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		id, _ := uuid.NewV7()
		save = model.CoopSave{
			ID:          id.String(),
			UserID:      userID,
			Slot:        slot,
			ElementBank: req.ElementBank,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		return svc.db.Create(&save).Error
	}
	if err != nil {
		return err
	}

	save.ElementBank = req.ElementBank
	save.UpdatedAt = time.Now()
	return svc.db.Save(&save).Error
}

// ==================== HELPERS ====================

func generateInviteCode() (string, error) {
	code := make([]byte, 6)
	for i := range code {
		// rand.Int keeps the draw uniform; a plain byte mod 36 would skew
		// toward the start of the alphabet.
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(inviteAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = inviteAlphabet[n.Int64()]
	}
	return string(code), nil
}

func mapSession(s *model.CoopSession) *dto.CoopSessionResponse {
	resp := &dto.CoopSessionResponse{
		ID:                     s.ID,
		InviteCode:             s.InviteCode,
		HostUserID:             s.HostUserID,
		PartnerUserID:          s.PartnerUserID,
		Status:                 s.Status,
		Mode:                   s.Mode,
		ElementBank:            s.ElementBank,
		TotalMoves:             s.TotalMoves,
		TotalDiscoveries:       s.TotalDiscoveries,
		FirstDiscoveryElements: s.FirstDiscoveryElements,
		LastActivityAt:         s.LastActivityAt.UTC().Format(time.RFC3339),
	}
	if !s.StartedAt.IsZero() {
		resp.StartedAt = s.StartedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// ==================== BACKGROUND JOBS ====================

func (svc *CoopService) CleanupStaleSessions() error {
	stale := time.Now().Add(-24 * time.Hour)
	err := svc.db.Model(&model.CoopSession{}).
		Where("status IN ? AND last_activity_at < ?", []string{shared.CoopWaiting, shared.CoopActive}, stale).
		Updates(map[string]interface{}{"status": shared.CoopAbandoned, "updated_at": time.Now()}).Error
	if err != nil {
		return err
	}

	ancient := time.Now().Add(-7 * 24 * time.Hour)
	return svc.db.Where("status IN ? AND last_activity_at < ?",
		[]string{shared.CoopCompleted, shared.CoopAbandoned}, ancient).
		Delete(&model.CoopSession{}).Error
}

func (svc *CoopService) startCleanupJob() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := svc.CleanupStaleSessions(); err != nil {
			log.Printf("Coop session cleanup error: %v", err)
		}
	}
}
