package services

import (
	"testing"
	"time"

	"github.com/tandemdaily/api/shared"
)

func newTestJWTService() *JWTService {
	return &JWTService{
		AccessTokenDuration: time.Hour,
		AdminTokenDuration:  time.Hour,
		jwtSecretKey:        "test-secret",
		adminSecretKey:      "test-admin-secret",
	}
}

func TestUserTokenRoundTrip(t *testing.T) {
	svc := newTestJWTService()

	token, err := svc.ToJWT("user-123", shared.RoleMember)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	userID, role, err := svc.VerifyJWTToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-123" || role != shared.RoleMember {
		t.Fatalf("userID=%q role=%q", userID, role)
	}
}

func TestUserTokenRoleDefaultsToMember(t *testing.T) {
	svc := newTestJWTService()

	token, err := svc.ToJWT("user-123", "")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, role, err := svc.VerifyJWTToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if role != shared.RoleMember {
		t.Fatalf("role=%q", role)
	}
}

func TestUserTokenRejectsGarbage(t *testing.T) {
	svc := newTestJWTService()

	if _, _, err := svc.VerifyJWTToken("not-a-token"); err == nil {
		t.Fatal("garbage token accepted")
	}

	// A token signed with a different secret must not verify.
	other := &JWTService{AccessTokenDuration: time.Hour, jwtSecretKey: "other-secret"}
	token, err := other.ToJWT("user-123", shared.RoleMember)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, _, err := svc.VerifyJWTToken(token); err == nil {
		t.Fatal("foreign token accepted")
	}
}

func TestAdminTokenSeparation(t *testing.T) {
	svc := newTestJWTService()

	adminToken, err := svc.ToAdminJWT("ops")
	if err != nil {
		t.Fatalf("sign admin: %v", err)
	}

	name, err := svc.VerifyAdminToken(adminToken)
	if err != nil {
		t.Fatalf("verify admin: %v", err)
	}
	if name != "ops" {
		t.Fatalf("name=%q", name)
	}

	// User tokens and admin tokens are signed with different secrets; one
	// never passes for the other.
	userToken, err := svc.ToJWT("user-123", shared.RoleMember)
	if err != nil {
		t.Fatalf("sign user: %v", err)
	}
	if _, err := svc.VerifyAdminToken(userToken); err == nil {
		t.Fatal("user token accepted as admin")
	}
	if _, _, err := svc.VerifyJWTToken(adminToken); err == nil {
		t.Fatal("admin token accepted as user")
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	svc := newTestJWTService()

	cases := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"standard", "Bearer abc.def.ghi", "abc.def.ghi", false},
		{"lowercase scheme", "bearer abc", "abc", false},
		{"uppercase scheme", "BEARER abc", "abc", false},
		{"missing header", "", "", true},
		{"wrong scheme", "Token abc", "", true},
		{"scheme only", "Bearer", "", true},
		{"no scheme", "abc.def.ghi", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.ExtractTokenFromHeader(tc.header)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
