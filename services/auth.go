package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"os"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/model"
	"github.com/tandemdaily/api/shared"
)

// AuthService owns caller identity: first-party user accounts, admin JWT
// verification, and the CSRF double-submit check on admin mutations.
type AuthService struct {
	context.DefaultService

	db     *gorm.DB
	jwtSvc *JWTService

	production bool
}

const AUTH_SVC = "auth_svc"

const csrfHeader = "x-csrf-token"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *context.Context) error {
	svc.production = os.Getenv("ENVIRONMENT") == "production"
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	svc.db = dbOf(svc.Service(POSTGRES_SVC), svc.Service(SQLITE_SVC))
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	return nil
}

// ==================== ACCOUNTS ====================

func (svc *AuthService) Register(req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	var count int64
	svc.db.Model(&model.User{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		return nil, shared.ErrConflict("Username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	id, _ := uuid.NewV7()
	user := &model.User{
		ID:        id.String(),
		Email:     req.Email,
		Username:  req.Username,
		Password:  string(hash),
		Role:      shared.RoleMember,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := svc.db.Create(user).Error; err != nil {
		return nil, err
	}

	return &dto.RegisterResponse{UserID: user.ID, Username: user.Username}, nil
}

func (svc *AuthService) Login(req dto.LoginRequest) (*dto.LoginResponse, error) {
	var user model.User
	err := svc.db.Where("username = ?", req.Username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrUnauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, shared.ErrUnauthorized("Invalid credentials")
	}

	pair, err := svc.jwtSvc.GenerateTokenPair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	svc.db.Model(&user).Update("last_login", time.Now())

	return &dto.LoginResponse{
		UserID:      user.ID,
		Username:    user.Username,
		Role:        user.Role,
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
	}, nil
}

func (svc *AuthService) AdminLogin(req dto.AdminLoginRequest) (*dto.LoginResponse, string, error) {
	var user model.User
	err := svc.db.Where("username = ? AND role = ?", req.Username, shared.RoleAdmin).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", shared.ErrUnauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, "", shared.ErrUnauthorized("Invalid credentials")
	}

	token, err := svc.jwtSvc.ToAdminJWT(user.Username)
	if err != nil {
		return nil, "", err
	}

	csrf, err := GenerateCSRFToken()
	if err != nil {
		return nil, "", err
	}

	return &dto.LoginResponse{
		UserID:      user.ID,
		Username:    user.Username,
		Role:        shared.RoleAdmin,
		AccessToken: token,
		ExpiresIn:   int64(svc.jwtSvc.AdminTokenDuration.Seconds()),
	}, csrf, nil
}

// ==================== MIDDLEWARE ====================

func (svc *AuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get("Authorization"))
		if err != nil {
			return shared.ResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}

		userID, role, err := svc.jwtSvc.VerifyJWTToken(token)
		if err != nil {
			return shared.ResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid JWT token")
		}

		c.Locals(shared.UserID, userID)
		c.Locals(shared.UserRole, role)
		return c.Next()
	}
}

// OptionalAuth resolves identity when a bearer is present and falls through
// to anonymous otherwise. It never fails the request.
func (svc *AuthService) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if authHeader := c.Get("Authorization"); authHeader != "" {
			if token, err := svc.jwtSvc.ExtractTokenFromHeader(authHeader); err == nil {
				if userID, role, err := svc.jwtSvc.VerifyJWTToken(token); err == nil {
					c.Locals(shared.UserID, userID)
					c.Locals(shared.UserRole, role)
				}
			}
		}
		return c.Next()
	}
}

// RequireAdmin verifies the admin bearer and, on mutations, the CSRF
// double-submit cookie.
func (svc *AuthService) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get("Authorization"))
		if err != nil {
			return shared.ResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}

		name, err := svc.jwtSvc.VerifyAdminToken(token)
		if err != nil {
			return shared.ResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid admin token")
		}

		if err := svc.checkCSRF(c); err != nil {
			log.WithFields(log.Fields{"admin": name, "path": c.Path()}).Warn("CSRF check failed")
			return shared.ResponseJSON(c, fiber.StatusForbidden, "Forbidden", "CSRF token mismatch")
		}

		c.Locals(shared.AdminName, name)
		c.Locals(shared.UserRole, shared.RoleAdmin)
		return c.Next()
	}
}

// RequireSubscription gates subscriber features; chain after RequiredAuth.
func (svc *AuthService) RequireSubscription() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals(shared.UserID).(string)
		if userID == "" {
			return shared.ResponseUnauthorized(c)
		}

		var sub model.Subscription
		err := svc.db.Where("user_id = ?", userID).First(&sub).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !sub.Active(time.Now())) {
			return shared.ResponseJSON(c, fiber.StatusForbidden, "Forbidden", "Active subscription required")
		}
		if err != nil {
			return err
		}

		return c.Next()
	}
}

// ==================== CSRF ====================

func GenerateCSRFToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (svc *AuthService) CSRFCookieName() string {
	name := os.Getenv("CSRF_COOKIE_NAME")
	if name == "" {
		name = "csrf_token"
	}
	if svc.production {
		return "__Host-" + name
	}
	return name
}

// SetCSRFCookie writes the double-submit cookie on the admin login response.
func (svc *AuthService) SetCSRFCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     svc.CSRFCookieName(),
		Value:    token,
		Path:     "/",
		MaxAge:   int(svc.jwtSvc.AdminTokenDuration.Seconds()),
		HTTPOnly: true,
		Secure:   svc.production,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (svc *AuthService) checkCSRF(c *fiber.Ctx) error {
	switch c.Method() {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return nil
	}

	cookie := c.Cookies(svc.CSRFCookieName())
	if cookie == "" {
		return errors.New("missing CSRF cookie")
	}

	presented := c.Get(csrfHeader)
	if presented == "" {
		var body struct {
			CSRFToken string `json:"csrfToken"`
		}
		if len(c.Body()) > 0 {
			_ = c.BodyParser(&body)
		}
		presented = body.CSRFToken
	}

	if presented == "" || subtle.ConstantTimeCompare([]byte(cookie), []byte(presented)) != 1 {
		return errors.New("CSRF token mismatch")
	}

	return nil
}
