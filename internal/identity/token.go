package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smileworks/clinic-core/pkg/config"
	"github.com/smileworks/clinic-core/pkg/types"
)

// TokenManager mints and verifies session tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenManager creates a token manager from session config
func NewTokenManager(cfg config.SessionConfig) *TokenManager {
	return &TokenManager{
		secret: []byte(cfg.SecretKey),
		ttl:    time.Duration(cfg.TokenTTL) * time.Second,
		issuer: cfg.Issuer,
	}
}

// Mint issues a signed token for an authenticated user
func (tm *TokenManager) Mint(user *types.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"name":  user.Name,
		"iss":   tm.issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(tm.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns the embedded claims
func (tm *TokenManager) Verify(tokenString string) (*types.UserClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, types.NewPermissionError(types.ErrCodeAuthFailed, "invalid session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, types.NewPermissionError(types.ErrCodeAuthFailed, "invalid token claims")
	}

	out := &types.UserClaims{}
	if sub, ok := claims["sub"].(string); ok {
		out.UserID = sub
	}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = types.Role(role)
	}
	if name, ok := claims["name"].(string); ok {
		out.Name = name
	}
	if out.UserID == "" || !out.Role.IsValid() {
		return nil, types.NewPermissionError(types.ErrCodeAuthFailed, "invalid token claims")
	}
	return out, nil
}
