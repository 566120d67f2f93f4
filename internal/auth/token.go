package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Token purposes for one-shot mail links.
const (
	PurposeAccess        = "access"
	PurposeVerifyEmail   = "verify_email"
	PurposePasswordReset = "password_reset"
)

// TokenManager issues and validates the service's JWTs.
type TokenManager struct {
	secret    []byte
	accessTTL time.Duration
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret string, accessTTL time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL}
}

type claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// IssueAccess returns a bearer token for the user.
func (m *TokenManager) IssueAccess(userID int) (string, error) {
	return m.issue(userID, PurposeAccess, m.accessTTL)
}

// IssuePurpose returns a scoped token for mail flows.
func (m *TokenManager) IssuePurpose(userID int, purpose string, ttl time.Duration) (string, error) {
	return m.issue(userID, purpose, ttl)
}

func (m *TokenManager) issue(userID int, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(m.secret)
}

// ValidateAccess verifies a bearer token and returns the user id it carries.
func (m *TokenManager) ValidateAccess(tokenString string) (int, error) {
	return m.Validate(tokenString, PurposeAccess)
}

// Validate verifies a token against the expected purpose.
func (m *TokenManager) Validate(tokenString, purpose string) (int, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	if c.Purpose != purpose {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.Atoi(c.Subject)
	if err != nil || userID == 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
