package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

var (
	// ErrInvalidToken covers bad signatures, malformed structure and unknown
	// signing keys. The message text is part of the API contract.
	ErrInvalidToken = errors.New("Invalid token. Please log in again.")
	// ErrExpiredToken means the signature checked out but the token is past
	// its expiry.
	ErrExpiredToken = errors.New("Signature expired. Please log in again.")
)

type Claims struct {
	TokenType string `json:"typ"`
	JTI       string `json:"jti"`
	jwt.RegisteredClaims
}

// TokenPair is what login and refresh hand back: a short-lived access token
// and a long-lived refresh token, issued together.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Manager encodes and decodes the self-contained bearer tokens. Tokens are
// stateless: validity is signature + expiry, nothing is looked up server-side.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(secret string, accessTTL time.Duration, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (m *Manager) ttl(t TokenType) time.Duration {
	if t == TokenRefresh {
		return m.refreshTTL
	}
	return m.accessTTL
}

// Encode builds a signed token for the given subject. Expiry is now + the
// TTL configured for the token type; a negative TTL yields a token that is
// already expired.
func (m *Manager) Encode(userID int64, tokenType TokenType) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		TokenType: string(tokenType),
		JTI:       uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl(tokenType))),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(m.secret)
}

// Decode verifies the signature first, then expiry, and returns the subject
// id with the token type. Expiry past due maps to ErrExpiredToken; every
// other failure maps to ErrInvalidToken.
func (m *Manager) Decode(tokenStr string) (int64, TokenType, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256; reject alg substitution

		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, "", ErrExpiredToken
		}
		return 0, "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid {
		return 0, "", ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)

	if err != nil {
		return 0, "", ErrInvalidToken
	}

	switch TokenType(claims.TokenType) {
	case TokenAccess, TokenRefresh:
		return userID, TokenType(claims.TokenType), nil
	default:
		return 0, "", ErrInvalidToken
	}
}

// Pair issues the access+refresh token pair for a subject.
func (m *Manager) Pair(userID int64) (TokenPair, error) {
	access, err := m.Encode(userID, TokenAccess)

	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := m.Encode(userID, TokenRefresh)

	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
