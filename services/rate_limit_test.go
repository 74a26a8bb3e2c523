package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tandemdaily/api/model"
	"github.com/tandemdaily/api/services/handlers"
	"github.com/tandemdaily/api/shared"
)

func newTestRateLimitService(t *testing.T) *RateLimitService {
	t.Helper()

	svc := &RateLimitService{db: newTestDB(t)}
	svc.initDefaultConfigs()
	return svc
}

func TestIsAllowedWindowExhaustion(t *testing.T) {
	svc := newTestRateLimitService(t)

	// The auth bucket allows 10 requests per window.
	for i := 0; i < 10; i++ {
		allowed, info, err := svc.IsAllowed("caller-1", "auth")
		if err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
		if !allowed {
			t.Fatalf("request %d denied", i+1)
		}
		if info.Remaining != 10-(i+1) {
			t.Fatalf("request %d: remaining=%d", i+1, info.Remaining)
		}
	}

	allowed, info, err := svc.IsAllowed("caller-1", "auth")
	if err != nil {
		t.Fatalf("over limit: %v", err)
	}
	if allowed {
		t.Fatal("11th request allowed")
	}
	if info.BlockedUntil == nil {
		t.Fatal("block window not set")
	}

	// Still denied while the block holds.
	allowed, _, err = svc.IsAllowed("caller-1", "auth")
	if err != nil {
		t.Fatalf("during block: %v", err)
	}
	if allowed {
		t.Fatal("request allowed during block")
	}

	// Other callers are unaffected.
	allowed, _, err = svc.IsAllowed("caller-2", "auth")
	if err != nil {
		t.Fatalf("other caller: %v", err)
	}
	if !allowed {
		t.Fatal("other caller denied")
	}
}

func TestIsAllowedUnknownEndpointType(t *testing.T) {
	svc := newTestRateLimitService(t)

	allowed, info, err := svc.IsAllowed("caller-1", "nonsense")
	if err != nil {
		t.Fatalf("unknown type: %v", err)
	}
	if !allowed || info.Remaining != -1 {
		t.Fatalf("allowed=%v remaining=%d", allowed, info.Remaining)
	}
}

func TestIsAllowedWindowRollover(t *testing.T) {
	svc := newTestRateLimitService(t)

	// Exhaust the bucket, then age the window past its size; the counter
	// must restart instead of blocking.
	for i := 0; i < 2; i++ {
		if allowed, _, err := svc.IsAllowed("caller-1", "puzzle_submission"); err != nil || !allowed {
			t.Fatalf("request %d: allowed=%v err=%v", i+1, allowed, err)
		}
	}

	err := svc.db.Model(&model.RateLimit{}).
		Where("identifier = ? AND endpoint_type = ?", "caller-1", "puzzle_submission").
		Update("window_start", time.Now().Add(-25*time.Hour)).Error
	if err != nil {
		t.Fatalf("age window: %v", err)
	}

	allowed, info, err := svc.IsAllowed("caller-1", "puzzle_submission")
	if err != nil {
		t.Fatalf("after rollover: %v", err)
	}
	if !allowed || info.Remaining != 1 {
		t.Fatalf("allowed=%v remaining=%d", allowed, info.Remaining)
	}
}

func TestCleanupOldRecords(t *testing.T) {
	svc := newTestRateLimitService(t)

	oldID, _ := uuid.NewV7()
	old := model.RateLimit{
		ID:           oldID.String(),
		Identifier:   "stale",
		EndpointType: "general",
		RequestCount: 5,
		WindowStart:  time.Now().Add(-72 * time.Hour),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := svc.db.Create(&old).Error; err != nil {
		t.Fatalf("seed old: %v", err)
	}

	freshID, _ := uuid.NewV7()
	fresh := model.RateLimit{
		ID:           freshID.String(),
		Identifier:   "fresh",
		EndpointType: "general",
		RequestCount: 1,
		WindowStart:  time.Now(),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := svc.db.Create(&fresh).Error; err != nil {
		t.Fatalf("seed fresh: %v", err)
	}

	// An old record with an active block is retained.
	blockedUntil := time.Now().Add(time.Hour)
	blockedID, _ := uuid.NewV7()
	blocked := model.RateLimit{
		ID:           blockedID.String(),
		Identifier:   "blocked",
		EndpointType: "auth",
		RequestCount: 10,
		WindowStart:  time.Now().Add(-72 * time.Hour),
		BlockedUntil: &blockedUntil,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := svc.db.Create(&blocked).Error; err != nil {
		t.Fatalf("seed blocked: %v", err)
	}

	if err := svc.CleanupOldRecords(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	var identifiers []string
	if err := svc.db.Model(&model.RateLimit{}).Pluck("identifier", &identifiers).Error; err != nil {
		t.Fatalf("pluck: %v", err)
	}
	if len(identifiers) != 2 {
		t.Fatalf("remaining=%v", identifiers)
	}
	for _, id := range identifiers {
		if id == "stale" {
			t.Fatal("stale record survived cleanup")
		}
	}
}

func TestHashIPStable(t *testing.T) {
	a := hashIP("203.0.113.9")
	b := hashIP("203.0.113.9")
	if a != b {
		t.Fatalf("hash unstable: %q vs %q", a, b)
	}
	if a == hashIP("203.0.113.10") {
		t.Fatal("distinct IPs collide")
	}
}

func TestLeaderboardCooldownGate(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, db, "speedster")

	rlSvc := &RateLimitService{lbCooldown: 50 * time.Millisecond}
	lbHandler := handlers.NewLeaderboardHandler(&LeaderboardService{db: db})

	app := fiber.New()
	app.Post("/leaderboard/daily", func(c *fiber.Ctx) error {
		c.Locals(shared.UserID, userID)
		return c.Next()
	}, rlSvc.LeaderboardCooldown(), lbHandler.SubmitDaily)

	submit := func(score int) *http.Response {
		t.Helper()
		body := fmt.Sprintf(`{"game":"tandem","date":"2025-06-01","score":%d}`, score)
		req := httptest.NewRequest(http.MethodPost, "/leaderboard/daily", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		return resp
	}

	if resp := submit(120); resp.StatusCode != http.StatusOK {
		t.Fatalf("first submit status = %d", resp.StatusCode)
	}

	resp := submit(90)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second submit status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Fatal("429 missing Retry-After header")
	}

	var entry model.LeaderboardEntry
	if err := db.Where("user_id = ?", userID).First(&entry).Error; err != nil {
		t.Fatalf("load entry: %v", err)
	}
	if entry.Score != 120 {
		t.Fatalf("score after rejected submit = %d, want 120", entry.Score)
	}

	time.Sleep(60 * time.Millisecond)

	if resp := submit(90); resp.StatusCode != http.StatusOK {
		t.Fatalf("post-cooldown submit status = %d", resp.StatusCode)
	}
	if err := db.Where("user_id = ?", userID).First(&entry).Error; err != nil {
		t.Fatalf("load entry: %v", err)
	}
	if entry.Score != 90 {
		t.Fatalf("score after improvement = %d, want 90", entry.Score)
	}

	time.Sleep(60 * time.Millisecond)

	// A slower time after the cooldown is accepted by the gate but does not
	// overwrite the standing best.
	if resp := submit(100); resp.StatusCode != http.StatusOK {
		t.Fatalf("non-improving submit status = %d", resp.StatusCode)
	}
	if err := db.Where("user_id = ?", userID).First(&entry).Error; err != nil {
		t.Fatalf("load entry: %v", err)
	}
	if entry.Score != 90 {
		t.Fatalf("score after non-improving submit = %d, want 90", entry.Score)
	}
}

func TestLeaderboardCooldownSkipsAnonymous(t *testing.T) {
	rlSvc := &RateLimitService{lbCooldown: time.Hour}

	app := fiber.New()
	app.Post("/submit", rlSvc.LeaderboardCooldown(), func(c *fiber.Ctx) error {
		return shared.ResponseOK(c, nil)
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, resp.StatusCode)
		}
	}
}
