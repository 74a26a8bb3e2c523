// scripts/migrate/main.go
//
// One-shot migration of the legacy Redis puzzle store into postgres. Legacy
// keys look like `puzzle:YYYY-MM-DD` and hold the pre-migration tandem
// document. Runs in bounded batches so a large keyspace never holds a single
// long transaction.
//
// Exit codes: 0 full success, 1 precondition failure, 2 partial success
// (an error report is printed as JSON).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tandemdaily/api/model"
	"github.com/tandemdaily/api/shared"
)

const legacyKeyPrefix = "puzzle:"

type migrationError struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

type report struct {
	Scanned  int              `json:"scanned"`
	Migrated int              `json:"migrated"`
	Skipped  int              `json:"skipped"`
	Errors   []migrationError `json:"errors"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var (
		batchSize = flag.Int("batch", 100, "Keys migrated per batch")
		dryRun    = flag.Bool("dry-run", false, "Scan and validate without writing")
	)
	flag.Parse()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		log.Println("REDIS_ADDR is not set")
		os.Exit(1)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Println("DATABASE_URL is not set")
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Cannot reach redis: %v", err)
		os.Exit(1)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Printf("Cannot connect to postgres: %v", err)
		os.Exit(1)
	}

	rep := run(ctx, rdb, db, *batchSize, *dryRun)

	log.Printf("Scanned %d, migrated %d, skipped %d, errors %d",
		rep.Scanned, rep.Migrated, rep.Skipped, len(rep.Errors))

	if len(rep.Errors) > 0 {
		out, _ := json.MarshalIndent(rep, "", "  ")
		fmt.Println(string(out))
		os.Exit(2)
	}
}

func run(ctx context.Context, rdb *redis.Client, db *gorm.DB, batchSize int, dryRun bool) *report {
	rep := &report{}

	var cursor uint64
	for {
		keys, next, err := rdb.Scan(ctx, cursor, legacyKeyPrefix+"*", int64(batchSize)).Result()
		if err != nil {
			rep.Errors = append(rep.Errors, migrationError{Key: "(scan)", Reason: err.Error()})
			return rep
		}

		for _, key := range keys {
			rep.Scanned++
			if err := migrateKey(ctx, rdb, db, key, dryRun); err != nil {
				if err == errAlreadyPresent {
					rep.Skipped++
					continue
				}
				rep.Errors = append(rep.Errors, migrationError{Key: key, Reason: err.Error()})
				continue
			}
			rep.Migrated++
		}

		cursor = next
		if cursor == 0 {
			return rep
		}
	}
}

var errAlreadyPresent = fmt.Errorf("already present")

func migrateKey(ctx context.Context, rdb *redis.Client, db *gorm.DB, key string, dryRun bool) error {
	date := strings.TrimPrefix(key, legacyKeyPrefix)
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("key does not encode a date: %w", err)
	}

	raw, err := rdb.Get(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	if !json.Valid([]byte(raw)) {
		return fmt.Errorf("value is not valid JSON")
	}

	var count int64
	if err := db.Model(&model.Puzzle{}).
		Where("game = ? AND date = ?", shared.GameTandem, date).
		Count(&count).Error; err != nil {
		return fmt.Errorf("existence check: %w", err)
	}
	if count > 0 {
		return errAlreadyPresent
	}

	if dryRun {
		return nil
	}

	id, _ := uuid.NewV7()
	now := time.Now()
	puzzle := model.Puzzle{
		ID:        id.String(),
		Game:      shared.GameTandem,
		Date:      date,
		Payload:   json.RawMessage(raw),
		CreatedBy: "legacy-migration",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := db.Create(&puzzle).Error; err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}
