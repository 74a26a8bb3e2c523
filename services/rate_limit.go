package services

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/model"
	"github.com/tandemdaily/api/shared"
)

type RateLimitService struct {
	context.DefaultService

	configs map[string]*RateLimitConfig
	mutex   sync.RWMutex

	db       *gorm.DB
	redisSvc *RedisService

	// lbCooldown overrides the submit gap; zero means the default.
	lbCooldown time.Duration
}

type RateLimitConfig struct {
	EndpointType string
	MaxRequests  int
	WindowSize   time.Duration
	BlockTime    time.Duration
	Description  string
}

const RATE_LIMIT_SVC = "rate_limit_svc"

// Per-user gap between leaderboard submissions.
const leaderboardCooldown = 5 * time.Second

func (svc *RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *context.Context) error {
	svc.configs = make(map[string]*RateLimitConfig)
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.db = dbOf(svc.Service(POSTGRES_SVC), svc.Service(SQLITE_SVC))
	if r, ok := svc.Service(REDIS_SVC).(*RedisService); ok {
		svc.redisSvc = r
	}
	svc.initDefaultConfigs()

	go svc.startCleanupJob()

	return nil
}

// ==================== CONFIGURATION ====================

func (svc *RateLimitService) initDefaultConfigs() {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	svc.configs = map[string]*RateLimitConfig{
		"ai_generation": {
			EndpointType: "ai_generation",
			MaxRequests:  30,
			WindowSize:   time.Hour,
			BlockTime:    time.Hour,
			Description:  "AI-assisted generation rate limit",
		},
		"write": {
			EndpointType: "write",
			MaxRequests:  60,
			WindowSize:   time.Minute,
			BlockTime:    5 * time.Minute,
			Description:  "Progress and content write rate limit",
		},
		"general": {
			EndpointType: "general",
			MaxRequests:  1000,
			WindowSize:   time.Hour,
			BlockTime:    time.Hour,
			Description:  "General API rate limit per caller",
		},
		"auth": {
			EndpointType: "auth",
			MaxRequests:  10,
			WindowSize:   15 * time.Minute,
			BlockTime:    30 * time.Minute,
			Description:  "Login and registration rate limit",
		},
		"puzzle_submission": {
			EndpointType: "puzzle_submission",
			MaxRequests:  2,
			WindowSize:   24 * time.Hour,
			BlockTime:    24 * time.Hour,
			Description:  "User-generated puzzle submission limit",
		},
	}
}

// ==================== CORE LOGIC ====================

func (svc *RateLimitService) IsAllowed(identifier, endpointType string) (bool, *dto.RateLimitInfo, error) {
	svc.mutex.RLock()
	config, exists := svc.configs[endpointType]
	svc.mutex.RUnlock()

	if !exists {
		return true, &dto.RateLimitInfo{Allowed: true, Remaining: -1}, nil
	}

	now := time.Now()
	windowStart := now.Add(-config.WindowSize)

	rateLimit, err := svc.getRateLimit(identifier, endpointType)
	if err != nil {
		return false, nil, err
	}

	if rateLimit != nil && rateLimit.BlockedUntil != nil && now.Before(*rateLimit.BlockedUntil) {
		return false, &dto.RateLimitInfo{
			Allowed:      false,
			Limit:        config.MaxRequests,
			Remaining:    0,
			ResetTime:    rateLimit.BlockedUntil,
			BlockedUntil: rateLimit.BlockedUntil,
		}, nil
	}

	if rateLimit == nil || rateLimit.WindowStart.Before(windowStart) {
		id, _ := uuid.NewV7()
		rateLimit = &model.RateLimit{
			ID:           id.String(),
			Identifier:   identifier,
			EndpointType: endpointType,
			RequestCount: 1,
			WindowStart:  now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := svc.db.Save(rateLimit).Error; err != nil {
			return false, nil, err
		}

		resetTime := now.Add(config.WindowSize)
		return true, &dto.RateLimitInfo{
			Allowed:   true,
			Limit:     config.MaxRequests,
			Remaining: config.MaxRequests - 1,
			ResetTime: &resetTime,
		}, nil
	}

	if rateLimit.RequestCount >= config.MaxRequests {
		blockedUntil := now.Add(config.BlockTime)
		rateLimit.BlockedUntil = &blockedUntil
		rateLimit.UpdatedAt = now

		if err := svc.db.Save(rateLimit).Error; err != nil {
			return false, nil, err
		}

		return false, &dto.RateLimitInfo{
			Allowed:      false,
			Limit:        config.MaxRequests,
			Remaining:    0,
			ResetTime:    &blockedUntil,
			BlockedUntil: &blockedUntil,
		}, nil
	}

	rateLimit.RequestCount++
	rateLimit.UpdatedAt = now

	if err := svc.db.Save(rateLimit).Error; err != nil {
		return false, nil, err
	}

	resetTime := rateLimit.WindowStart.Add(config.WindowSize)
	return true, &dto.RateLimitInfo{
		Allowed:   true,
		Limit:     config.MaxRequests,
		Remaining: config.MaxRequests - rateLimit.RequestCount,
		ResetTime: &resetTime,
	}, nil
}

func (svc *RateLimitService) getRateLimit(identifier, endpointType string) (*model.RateLimit, error) {
	var rl model.RateLimit
	err := svc.db.Where("identifier = ? AND endpoint_type = ?", identifier, endpointType).First(&rl).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rl, nil
}

// ==================== MIDDLEWARE ====================

// RateLimit applies an endpoint-class bucket keyed by the caller's stable
// identifier: user id when authenticated, else a hash of the forwarded IP.
func (svc *RateLimitService) RateLimit(endpointType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := svc.getIdentifier(c)

		allowed, info, err := svc.IsAllowed(identifier, endpointType)
		if err != nil {
			log.Printf("Rate limit check error for %s (%s): %v", endpointType, identifier, err)
			// Continue with request on error to avoid blocking users due to system issues
			return c.Next()
		}

		svc.addRateLimitHeaders(c, info)

		if !allowed {
			return svc.handleRateLimitExceeded(c, endpointType, info)
		}

		return c.Next()
	}
}

// LeaderboardCooldown enforces the per-user submit gap via redis when
// available, falling back to a process-local map.
func (svc *RateLimitService) LeaderboardCooldown() fiber.Handler {
	local := struct {
		sync.Mutex
		last map[string]time.Time
	}{last: map[string]time.Time{}}

	cooldown := svc.lbCooldown
	if cooldown == 0 {
		cooldown = leaderboardCooldown
	}

	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals(shared.UserID).(string)
		if userID == "" {
			return c.Next()
		}

		if svc.redisSvc != nil && svc.redisSvc.Available() {
			key := "lb_cooldown:" + userID
			ok, err := svc.redisSvc.SetNX(c.Context(), key, "1", cooldown)
			if err == nil {
				if !ok {
					c.Set("Retry-After", strconv.Itoa(int(cooldown.Seconds())))
					return shared.ResponseJSON(c, http.StatusTooManyRequests,
						"Please wait before submitting another score", nil)
				}
				return c.Next()
			}
			log.Printf("Leaderboard cooldown redis error: %v", err)
		}

		now := time.Now()
		local.Lock()
		last, seen := local.last[userID]
		if !seen || now.Sub(last) >= cooldown {
			local.last[userID] = now
			local.Unlock()
			return c.Next()
		}
		local.Unlock()

		c.Set("Retry-After", strconv.Itoa(int((cooldown-now.Sub(last)).Seconds())+1))
		return shared.ResponseJSON(c, http.StatusTooManyRequests,
			"Please wait before submitting another score", nil)
	}
}

// ==================== HELPERS ====================

func (svc *RateLimitService) getIdentifier(c *fiber.Ctx) string {
	if userID, ok := c.Locals(shared.UserID).(string); ok && userID != "" {
		return userID
	}
	return hashIP(getClientIP(c))
}

func getClientIP(c *fiber.Ctx) string {
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(ips[0]); ip != "" {
			return ip
		}
	}

	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	return c.IP()
}

func hashIP(ip string) string {
	h := fnv.New64a()
	h.Write([]byte(ip))
	return fmt.Sprintf("ip_%x", h.Sum64())
}

func (svc *RateLimitService) addRateLimitHeaders(c *fiber.Ctx, info *dto.RateLimitInfo) {
	if info == nil {
		return
	}

	if info.Limit > 0 {
		c.Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	}

	if info.Remaining >= 0 {
		c.Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	}

	if info.ResetTime != nil {
		c.Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}

	if info.BlockedUntil != nil {
		retryAfter := int(time.Until(*info.BlockedUntil).Seconds())
		if retryAfter > 0 {
			c.Set("Retry-After", strconv.Itoa(retryAfter))
		}
	}
}

func (svc *RateLimitService) handleRateLimitExceeded(c *fiber.Ctx, endpointType string, info *dto.RateLimitInfo) error {
	RecordRateLimitRejection(endpointType)
	message := svc.getRateLimitMessage(endpointType)

	response := map[string]interface{}{
		"error":   "Rate limit exceeded",
		"message": message,
	}

	if info.BlockedUntil != nil {
		response["retry_after"] = int(time.Until(*info.BlockedUntil).Seconds())
	}

	return shared.ResponseJSON(c, http.StatusTooManyRequests, message, response)
}

func (svc *RateLimitService) getRateLimitMessage(endpointType string) string {
	messages := map[string]string{
		"ai_generation":     "AI generation limit reached. Please try again later.",
		"write":             "Too many submissions. Please slow down.",
		"general":           "Too many requests. Please slow down.",
		"auth":              "Too many login attempts. Please try again later.",
		"puzzle_submission": "Daily puzzle submission limit reached.",
	}

	if message, exists := messages[endpointType]; exists {
		return message
	}

	return "Too many requests. Please try again later."
}

// ==================== BACKGROUND JOBS ====================

func (svc *RateLimitService) CleanupOldRecords() error {
	cutoff := time.Now().Add(-48 * time.Hour)
	return svc.db.Where("window_start < ? AND (blocked_until IS NULL OR blocked_until < ?)", cutoff, time.Now()).
		Delete(&model.RateLimit{}).Error
}

func (svc *RateLimitService) startCleanupJob() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := svc.CleanupOldRecords(); err != nil {
			log.Printf("Rate limit cleanup error: %v", err)
		}
	}
}
