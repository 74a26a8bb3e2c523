package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tandemdaily/api/model"
	"github.com/tandemdaily/api/shared"
)

// newTestDB opens a throwaway in-memory database migrated with the full
// schema. A single pooled connection is required: a second one would see a
// different empty in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) string {
	t.Helper()

	id, _ := uuid.NewV7()
	user := model.User{
		ID:        id.String(),
		Email:     username + "@example.com",
		Username:  username,
		Role:      "member",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user.ID
}

func seedPuzzle(t *testing.T, db *gorm.DB, game, date string, payload []byte) string {
	t.Helper()

	id, _ := uuid.NewV7()
	puzzle := model.Puzzle{
		ID:        id.String(),
		Game:      game,
		Date:      date,
		Payload:   payload,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(&puzzle).Error; err != nil {
		t.Fatalf("seed puzzle %s/%s: %v", game, date, err)
	}
	return puzzle.ID
}

func wantAppError(t *testing.T, err error, status int) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected status %d error, got nil", status)
	}
	appErr, ok := shared.GetAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.StatusCode != status {
		t.Fatalf("expected status %d, got %d (%s)", status, appErr.StatusCode, appErr.Message)
	}
}
