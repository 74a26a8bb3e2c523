package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/shared"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	return &AuthService{db: newTestDB(t), jwtSvc: newTestJWTService()}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuthService(t)

	reg, err := svc.Register(dto.RegisterRequest{
		Username: "player1",
		Email:    "player1@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.UserID == "" || reg.Username != "player1" {
		t.Fatalf("register response: %+v", reg)
	}

	resp, err := svc.Login(dto.LoginRequest{Username: "player1", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.Role != shared.RoleMember {
		t.Fatalf("login response: %+v", resp)
	}

	userID, role, err := svc.jwtSvc.VerifyJWTToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if userID != reg.UserID || role != shared.RoleMember {
		t.Fatalf("token claims: %q %q", userID, role)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newTestAuthService(t)

	if _, err := svc.Register(dto.RegisterRequest{Username: "player1", Password: "password123"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Register(dto.RegisterRequest{Username: "player1", Password: "password456"})
	wantAppError(t, err, http.StatusConflict)
}

func TestLoginBadCredentials(t *testing.T) {
	svc := newTestAuthService(t)

	if _, err := svc.Register(dto.RegisterRequest{Username: "player1", Password: "password123"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Login(dto.LoginRequest{Username: "player1", Password: "wrong"})
	wantAppError(t, err, http.StatusUnauthorized)

	_, err = svc.Login(dto.LoginRequest{Username: "ghost", Password: "password123"})
	wantAppError(t, err, http.StatusUnauthorized)
}

func TestAdminLoginRequiresAdminRole(t *testing.T) {
	svc := newTestAuthService(t)

	if _, err := svc.Register(dto.RegisterRequest{Username: "player1", Password: "password123"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Members cannot use the admin door even with valid credentials.
	_, _, err := svc.AdminLogin(dto.AdminLoginRequest{Username: "player1", Password: "password123"})
	wantAppError(t, err, http.StatusUnauthorized)

	reg, err := svc.Register(dto.RegisterRequest{Username: "boss", Password: "password123"})
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	if err := svc.db.Table("users").Where("id = ?", reg.UserID).
		Update("role", shared.RoleAdmin).Error; err != nil {
		t.Fatalf("promote: %v", err)
	}

	resp, csrf, err := svc.AdminLogin(dto.AdminLoginRequest{Username: "boss", Password: "password123"})
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if resp.Role != shared.RoleAdmin || csrf == "" {
		t.Fatalf("admin login: role=%q csrf=%q", resp.Role, csrf)
	}

	name, err := svc.jwtSvc.VerifyAdminToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("verify admin token: %v", err)
	}
	if name != "boss" {
		t.Fatalf("admin name=%q", name)
	}
}

func TestCSRFCookieName(t *testing.T) {
	svc := &AuthService{}
	if got := svc.CSRFCookieName(); got != "csrf_token" {
		t.Fatalf("dev cookie name=%q", got)
	}

	svc.production = true
	if got := svc.CSRFCookieName(); got != "__Host-csrf_token" {
		t.Fatalf("production cookie name=%q", got)
	}
}

func TestGenerateCSRFTokenUnique(t *testing.T) {
	a, err := GenerateCSRFToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := GenerateCSRFToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(a) != 64 || a == b {
		t.Fatalf("tokens: %q %q", a, b)
	}
}

func TestRequireAdminCSRF(t *testing.T) {
	svc := newTestAuthService(t)

	app := fiber.New()
	guarded := func(c *fiber.Ctx) error { return shared.ResponseOK(c, nil) }
	app.Get("/guarded", svc.RequireAdmin(), guarded)
	app.Post("/guarded", svc.RequireAdmin(), guarded)

	token, err := svc.jwtSvc.ToAdminJWT("boss")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	csrf, err := GenerateCSRFToken()
	if err != nil {
		t.Fatalf("csrf: %v", err)
	}

	tests := []struct {
		name   string
		method string
		cookie string
		header string
		want   int
	}{
		{"get needs no token", http.MethodGet, "", "", http.StatusOK},
		{"post with matching header", http.MethodPost, csrf, csrf, http.StatusOK},
		{"post without header", http.MethodPost, csrf, "", http.StatusForbidden},
		{"post with mismatched header", http.MethodPost, csrf, "not-the-token", http.StatusForbidden},
		{"post without cookie", http.MethodPost, "", csrf, http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/guarded", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: svc.CSRFCookieName(), Value: tc.cookie})
			}
			if tc.header != "" {
				req.Header.Set("x-csrf-token", tc.header)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}

	t.Run("post with body token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/guarded", strings.NewReader(`{"csrfToken":"`+csrf+`"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(&http.Cookie{Name: svc.CSRFCookieName(), Value: csrf})

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	})

	t.Run("post without bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/guarded", nil)
		req.AddCookie(&http.Cookie{Name: svc.CSRFCookieName(), Value: csrf})
		req.Header.Set("x-csrf-token", csrf)

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	})
}
