package services

import (
	"bytes"
	stdctx "context"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/model"
	"github.com/tandemdaily/api/shared"
)

// AccountService handles account deletion: purging the user's rows, revoking
// their Apple Sign-In token when one exists, and pinging the audit webhook.
type AccountService struct {
	context.DefaultService

	db     *gorm.DB
	client *http.Client

	appleTeamID   string
	appleClientID string
	appleKeyID    string
	appleKey      string
	webhookURL    string
}

const ACCOUNT_SVC = "account_svc"

const appleRevokeURL = "https://appleid.apple.com/auth/revoke"

func (svc AccountService) Id() string {
	return ACCOUNT_SVC
}

func (svc *AccountService) Configure(ctx *context.Context) error {
	svc.appleTeamID = os.Getenv("APPLE_TEAM_ID")
	svc.appleClientID = os.Getenv("APPLE_CLIENT_ID")
	svc.appleKeyID = os.Getenv("APPLE_KEY_ID")
	svc.appleKey = os.Getenv("APPLE_PRIVATE_KEY_B64")
	svc.webhookURL = os.Getenv("DISCORD_WEBHOOK_URL")
	svc.client = &http.Client{Timeout: 15 * time.Second}

	return svc.DefaultService.Configure(ctx)
}

func (svc *AccountService) Start() error {
	svc.db = dbOf(svc.Service(POSTGRES_SVC), svc.Service(SQLITE_SVC))
	return nil
}

// DeleteAccount removes every row owned by the user. Leaderboard entries go
// too; only anonymized aggregates survive, as reported in the retention map.
func (svc *AccountService) DeleteAccount(ctx stdctx.Context, userID string) (*dto.DeleteAccountResponse, error) {
	var user model.User
	err := svc.db.Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound("User not found")
	}
	if err != nil {
		return nil, err
	}

	// Revocation happens before the purge so a failed delete never strands a
	// revoked token we can no longer retry.
	if user.AppleRefreshToken != "" {
		if err := svc.revokeAppleToken(ctx, user.AppleRefreshToken); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("Apple token revocation failed")
		}
	}

	err = svc.db.Transaction(func(tx *gorm.DB) error {
		for _, del := range []error{
			tx.Where("user_id = ?", userID).Delete(&model.PuzzleResult{}).Error,
			tx.Where("user_id = ?", userID).Delete(&model.UserGameStats{}).Error,
			tx.Where("user_id = ?", userID).Delete(&model.LeaderboardEntry{}).Error,
			tx.Where("user_id = ?", userID).Delete(&model.LeaderboardPreference{}).Error,
			tx.Where("user_id = ?", userID).Delete(&model.CoopSave{}).Error,
			tx.Where("user_id = ?", userID).Delete(&model.Subscription{}).Error,
			tx.Where("user_id = ?", userID).Delete(&model.PuzzleSubmission{}).Error,
			tx.Where("host_user_id = ? OR partner_user_id = ?", userID, userID).Delete(&model.CoopSession{}).Error,
			tx.Where("identifier = ?", userID).Delete(&model.RateLimit{}).Error,
			tx.Where("id = ?", userID).Delete(&model.User{}).Error,
		} {
			if del != nil {
				return del
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	svc.notifyDeletion(user.Username)

	return &dto.DeleteAccountResponse{
		Deleted: true,
		DataRetention: map[string]string{
			"profile":       "deleted",
			"puzzleResults": "deleted",
			"statistics":    "deleted",
			"leaderboards":  "deleted",
			"coopSessions":  "deleted",
			"subscriptions": "deleted",
			"aggregates":    "retained_anonymized",
		},
	}, nil
}

// ==================== SUBSCRIPTION OVERRIDES ====================

// GrantSubscription writes or extends a subscription row outside the IAP
// flow. One row per user; a repeat grant replaces tier and period.
func (svc *AccountService) GrantSubscription(req dto.GrantSubscriptionRequest) (*model.Subscription, error) {
	var user model.User
	err := svc.db.Where("id = ?", req.UserID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound("User not found")
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	end := now.AddDate(0, 0, req.DurationDays)

	var sub model.Subscription
	err = svc.db.Where("user_id = ?", req.UserID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		id, _ := uuid.NewV7()
		sub = model.Subscription{
			ID:     id.String(),
			UserID: req.UserID,
		}
	} else if err != nil {
		return nil, err
	}

	sub.Tier = req.Tier
	sub.Status = "active"
	sub.PeriodStart = now
	sub.PeriodEnd = end
	sub.CancelAtPeriodEnd = false

	if err := svc.db.Save(&sub).Error; err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": req.UserID,
		"tier":    req.Tier,
		"until":   end.Format(time.RFC3339),
	}).Info("Subscription granted")

	return &sub, nil
}

// RevokeSubscription cancels a user's subscription immediately.
func (svc *AccountService) RevokeSubscription(userID string) error {
	res := svc.db.Model(&model.Subscription{}).
		Where("user_id = ? AND status = ?", userID, "active").
		Updates(map[string]interface{}{"status": "canceled", "period_end": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound("No active subscription")
	}
	return nil
}

// ==================== APPLE ====================

func (svc *AccountService) appleConfigured() bool {
	return svc.appleTeamID != "" && svc.appleClientID != "" && svc.appleKeyID != "" && svc.appleKey != ""
}

func (svc *AccountService) revokeAppleToken(ctx stdctx.Context, refreshToken string) error {
	if !svc.appleConfigured() {
		return errors.New("apple credentials not configured")
	}

	secret, err := svc.appleClientSecret()
	if err != nil {
		return err
	}

	form := url.Values{
		"client_id":       {svc.appleClientID},
		"client_secret":   {secret},
		"token":           {refreshToken},
		"token_type_hint": {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, appleRevokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := svc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("apple revoke returned %d", resp.StatusCode)
	}
	return nil
}

// appleClientSecret builds the short-lived ES256 client-secret JWT Apple
// requires in place of a static secret.
func (svc *AccountService) appleClientSecret() (string, error) {
	raw, err := base64.StdEncoding.DecodeString(svc.appleKey)
	if err != nil {
		return "", fmt.Errorf("decode apple private key: %w", err)
	}

	key, err := x509.ParsePKCS8PrivateKey(raw)
	if err != nil {
		return "", fmt.Errorf("parse apple private key: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": svc.appleTeamID,
		"sub": svc.appleClientID,
		"aud": "https://appleid.apple.com",
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
	})
	token.Header["kid"] = svc.appleKeyID

	return token.SignedString(key)
}

// ==================== AUDIT ====================

func (svc *AccountService) notifyDeletion(username string) {
	if svc.webhookURL == "" {
		return
	}

	go func() {
		body, _ := sonic.Marshal(map[string]string{
			"content": fmt.Sprintf("Account deleted: %s", username),
		})
		resp, err := svc.client.Post(svc.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			log.WithError(err).Warn("Deletion webhook failed")
			return
		}
		resp.Body.Close()
	}()
}
