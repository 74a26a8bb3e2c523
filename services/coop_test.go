package services

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/model"
	"github.com/tandemdaily/api/shared"
)

func TestCreateAndJoinSession(t *testing.T) {
	db := newTestDB(t)
	svc := &CoopService{db: db}
	host := seedUser(t, db, "host")
	partner := seedUser(t, db, "partner")
	third := seedUser(t, db, "third")

	session, err := svc.CreateSession(host, dto.CreateCoopSessionRequest{Mode: "classic"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if session.Status != shared.CoopWaiting {
		t.Fatalf("status=%s", session.Status)
	}
	if len(session.InviteCode) != 6 {
		t.Fatalf("invite code %q", session.InviteCode)
	}
	for _, r := range session.InviteCode {
		if !strings.ContainsRune(inviteAlphabet, r) {
			t.Fatalf("invite code %q outside alphabet", session.InviteCode)
		}
	}

	// The host cannot claim their own session.
	_, err = svc.JoinSession(host, session.InviteCode)
	wantAppError(t, err, http.StatusBadRequest)

	joined, err := svc.JoinSession(partner, session.InviteCode)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.Status != shared.CoopActive {
		t.Fatalf("status after join=%s", joined.Status)
	}
	if joined.PartnerUserID == nil || *joined.PartnerUserID != partner {
		t.Fatalf("partner=%v", joined.PartnerUserID)
	}
	if joined.StartedAt == "" {
		t.Fatal("started_at not set")
	}

	// The claim is exclusive: a second joiner conflicts.
	_, err = svc.JoinSession(third, session.InviteCode)
	wantAppError(t, err, http.StatusConflict)
}

func TestJoinSessionInvalidCode(t *testing.T) {
	db := newTestDB(t)
	svc := &CoopService{db: db}
	userID := seedUser(t, db, "joiner")

	_, err := svc.JoinSession(userID, "ZZZZZZ")
	wantAppError(t, err, http.StatusNotFound)
}

func TestApplyMove(t *testing.T) {
	db := newTestDB(t)
	svc := &CoopService{db: db}
	host := seedUser(t, db, "host")
	partner := seedUser(t, db, "partner")

	session, err := svc.CreateSession(host, dto.CreateCoopSessionRequest{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Moves require an active session.
	_, err = svc.ApplyMove(host, dto.CoopMoveRequest{
		SessionID:   session.ID,
		ElementBank: json.RawMessage(`["water"]`),
	})
	wantAppError(t, err, http.StatusConflict)

	if _, err := svc.JoinSession(partner, session.InviteCode); err != nil {
		t.Fatalf("join: %v", err)
	}

	updated, err := svc.ApplyMove(partner, dto.CoopMoveRequest{
		SessionID:   session.ID,
		ElementBank: json.RawMessage(`["water","fire","earth","air","steam"]`),
		Moves:       3,
		Discoveries: []string{"steam"},
	})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if updated.TotalMoves != 3 || updated.TotalDiscoveries != 1 {
		t.Fatalf("moves=%d discoveries=%d", updated.TotalMoves, updated.TotalDiscoveries)
	}

	// Rediscovering an element does not count again.
	updated, err = svc.ApplyMove(host, dto.CoopMoveRequest{
		SessionID:   session.ID,
		ElementBank: json.RawMessage(`["water","fire","earth","air","steam","mud"]`),
		Moves:       2,
		Discoveries: []string{"steam", "mud"},
	})
	if err != nil {
		t.Fatalf("second move: %v", err)
	}
	if updated.TotalMoves != 5 || updated.TotalDiscoveries != 2 {
		t.Fatalf("moves=%d discoveries=%d", updated.TotalMoves, updated.TotalDiscoveries)
	}

	var firsts []string
	if err := json.Unmarshal(updated.FirstDiscoveryElements, &firsts); err != nil {
		t.Fatalf("unmarshal firsts: %v", err)
	}
	if len(firsts) != 2 || firsts[0] != "steam" || firsts[1] != "mud" {
		t.Fatalf("firsts=%v", firsts)
	}
}

func TestSessionParticipationRequired(t *testing.T) {
	db := newTestDB(t)
	svc := &CoopService{db: db}
	host := seedUser(t, db, "host")
	outsider := seedUser(t, db, "outsider")

	session, err := svc.CreateSession(host, dto.CreateCoopSessionRequest{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.GetSession(outsider, session.ID)
	wantAppError(t, err, http.StatusForbidden)

	_, err = svc.GetSession(host, "no-such-session")
	wantAppError(t, err, http.StatusNotFound)
}

func TestCompleteAndAbandonSession(t *testing.T) {
	db := newTestDB(t)
	svc := &CoopService{db: db}
	host := seedUser(t, db, "host")

	session, err := svc.CreateSession(host, dto.CreateCoopSessionRequest{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	done, err := svc.CompleteSession(host, session.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != shared.CoopCompleted {
		t.Fatalf("status=%s", done.Status)
	}

	other, err := svc.CreateSession(host, dto.CreateCoopSessionRequest{})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	gone, err := svc.AbandonSession(host, other.ID)
	if err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if gone.Status != shared.CoopAbandoned {
		t.Fatalf("status=%s", gone.Status)
	}
}

func TestSaveSlot(t *testing.T) {
	db := newTestDB(t)
	svc := &CoopService{db: db}
	userID := seedUser(t, db, "saver")

	wantAppError(t, svc.SaveSlot(userID, 0, dto.CoopSaveRequest{ElementBank: json.RawMessage(`[]`)}), http.StatusBadRequest)
	wantAppError(t, svc.SaveSlot(userID, 6, dto.CoopSaveRequest{ElementBank: json.RawMessage(`[]`)}), http.StatusBadRequest)

	if err := svc.SaveSlot(userID, 2, dto.CoopSaveRequest{ElementBank: json.RawMessage(`["water"]`)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := svc.SaveSlot(userID, 2, dto.CoopSaveRequest{ElementBank: json.RawMessage(`["water","lava"]`)}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	var saves []model.CoopSave
	if err := db.Where("user_id = ?", userID).Find(&saves).Error; err != nil {
		t.Fatalf("find saves: %v", err)
	}
	if len(saves) != 1 {
		t.Fatalf("saves=%d", len(saves))
	}
	if string(saves[0].ElementBank) != `["water","lava"]` {
		t.Fatalf("bank=%s", saves[0].ElementBank)
	}
}

func TestCleanupStaleSessions(t *testing.T) {
	db := newTestDB(t)
	svc := &CoopService{db: db}
	host := seedUser(t, db, "host")

	fresh, err := svc.CreateSession(host, dto.CreateCoopSessionRequest{})
	if err != nil {
		t.Fatalf("create fresh: %v", err)
	}

	stale, err := svc.CreateSession(host, dto.CreateCoopSessionRequest{})
	if err != nil {
		t.Fatalf("create stale: %v", err)
	}
	db.Model(&model.CoopSession{}).Where("id = ?", stale.ID).
		Update("last_activity_at", time.Now().Add(-25*time.Hour))

	ancient, err := svc.CreateSession(host, dto.CreateCoopSessionRequest{})
	if err != nil {
		t.Fatalf("create ancient: %v", err)
	}
	db.Model(&model.CoopSession{}).Where("id = ?", ancient.ID).
		Updates(map[string]interface{}{
			"status":           shared.CoopCompleted,
			"last_activity_at": time.Now().Add(-8 * 24 * time.Hour),
		})

	if err := svc.CleanupStaleSessions(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	var session model.CoopSession
	if err := db.Where("id = ?", fresh.ID).First(&session).Error; err != nil {
		t.Fatalf("fresh session: %v", err)
	}
	if session.Status != shared.CoopWaiting {
		t.Fatalf("fresh status=%s", session.Status)
	}

	session = model.CoopSession{}
	if err := db.Where("id = ?", stale.ID).First(&session).Error; err != nil {
		t.Fatalf("stale session: %v", err)
	}
	if session.Status != shared.CoopAbandoned {
		t.Fatalf("stale status=%s", session.Status)
	}

	var count int64
	db.Model(&model.CoopSession{}).Where("id = ?", ancient.ID).Count(&count)
	if count != 0 {
		t.Fatal("ancient session not deleted")
	}
}

func TestGenerateInviteCodeAlphabet(t *testing.T) {
	seen := map[byte]bool{}
	for i := 0; i < 300; i++ {
		code, err := generateInviteCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q length %d", code, len(code))
		}
		for j := 0; j < len(code); j++ {
			if !strings.ContainsRune(inviteAlphabet, rune(code[j])) {
				t.Fatalf("code %q outside alphabet", code)
			}
			seen[code[j]] = true
		}
	}

	// 1800 uniform draws over 36 characters leave each character absent with
	// vanishing probability, so full coverage is a stable assertion.
	if len(seen) != len(inviteAlphabet) {
		t.Fatalf("only %d of %d characters drawn", len(seen), len(inviteAlphabet))
	}
}
