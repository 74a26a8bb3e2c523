package services

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alphabatem/common/context"
	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/shared"
)

type JWTService struct {
	context.DefaultService

	AccessTokenDuration time.Duration
	AdminTokenDuration  time.Duration
	jwtSecretKey        string
	adminSecretKey      string
}

type CustomClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type AdminClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

const JWT_SVC = "jwt_svc"

// Case-insensitive per the header grammar; an empty token must not match.
var bearerRegex = regexp.MustCompile(`(?i)^Bearer\s+(.+)$`)

func (svc JWTService) Id() string {
	return JWT_SVC
}

func (svc *JWTService) Configure(ctx *context.Context) error {
	svc.AccessTokenDuration = 24 * time.Hour
	svc.AdminTokenDuration = 7 * 24 * time.Hour
	svc.jwtSecretKey = os.Getenv("JWT_SECRET")
	svc.adminSecretKey = os.Getenv("JWT_ADMIN_SECRET")
	return svc.DefaultService.Configure(ctx)
}

func (svc *JWTService) Start() error {
	if svc.jwtSecretKey == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if svc.adminSecretKey == "" {
		return errors.New("JWT_ADMIN_SECRET is not set")
	}
	return nil
}

// ==================== USER TOKENS ====================

func (svc *JWTService) ToJWT(userID, role string) (string, error) {
	expTime := time.Now().Add(svc.AccessTokenDuration)

	claims := &CustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "tandem-daily",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(svc.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}

	return tokenString, nil
}

func (svc *JWTService) GenerateTokenPair(userID, role string) (*dto.TokenPair, error) {
	accessToken, err := svc.ToJWT(userID, role)
	if err != nil {
		return nil, err
	}

	return &dto.TokenPair{
		AccessToken: accessToken,
		ExpiresIn:   int64(svc.AccessTokenDuration.Seconds()),
	}, nil
}

// VerifyJWTToken returns the user id and role carried by a valid user token.
func (svc *JWTService) VerifyJWTToken(jwtToken string) (string, string, error) {
	token, err := jwt.ParseWithClaims(jwtToken, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(svc.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return "", "", errors.New("unsupported JWT format")
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || claims.UserID == "" {
		return "", "", errors.New("invalid user ID in token")
	}

	role := claims.Role
	if role == "" {
		role = shared.RoleMember
	}

	return claims.UserID, role, nil
}

// ==================== ADMIN TOKENS ====================

func (svc *JWTService) ToAdminJWT(name string) (string, error) {
	expTime := time.Now().Add(svc.AdminTokenDuration)

	claims := &AdminClaims{
		Name: name,
		Role: shared.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "tandem-daily-admin",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(svc.adminSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign admin token: %v", err)
	}

	return tokenString, nil
}

func (svc *JWTService) VerifyAdminToken(jwtToken string) (string, error) {
	token, err := jwt.ParseWithClaims(jwtToken, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(svc.adminSecretKey), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid admin token")
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || claims.Role != shared.RoleAdmin {
		return "", errors.New("token is not an admin token")
	}

	return claims.Name, nil
}

// ==================== HEADER EXTRACTION ====================

func (svc *JWTService) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	m := bearerRegex.FindStringSubmatch(authHeader)
	if m == nil || m[1] == "" {
		return "", errors.New("invalid authorization header format")
	}

	return m[1], nil
}
