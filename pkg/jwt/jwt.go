package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/debranko/obedio-yacht-crew-management-sub004/config"
)

const (
	issuer          = "obedio"
	tokenTypeAccess = "access"
	// crew watches and tablets drift; accept tokens this far either side of now
	clockLeeway = 30 * time.Second
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims identity carried by an access token.
type Claims struct {
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
	CrewMemberID string `json:"crew_member_id,omitempty"` // empty for accounts without a crew profile
	TokenType    string `json:"token_type"`
	jwtv5.RegisteredClaims
}

// IsAccess reports whether the token was issued for API access.
func (c *Claims) IsAccess() bool { return c.TokenType == tokenTypeAccess }

// Manager signs and verifies HS256 access tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	parser *jwtv5.Parser
}

// NewManager creates a Manager.
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.AccessTokenTTL,
		parser: jwtv5.NewParser(
			jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
			jwtv5.WithIssuer(issuer),
			jwtv5.WithExpirationRequired(),
			jwtv5.WithLeeway(clockLeeway),
		),
	}
}

// AccessTokenTTL lifetime of issued tokens
func (m *Manager) AccessTokenTTL() time.Duration { return m.ttl }

// GenerateAccessToken signs a token for the given account. crewMemberID may be empty.
func (m *Manager) GenerateAccessToken(userID, role, crewMemberID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:       userID,
		Role:         role,
		CrewMemberID: crewMemberID,
		TokenType:    tokenTypeAccess,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies signature, issuer and expiry.
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := m.parser.ParseWithClaims(tokenString, claims, func(*jwtv5.Token) (interface{}, error) {
		return m.secret, nil
	})
	switch {
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil, !token.Valid:
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
