// Package auth validates bearer tokens for the authenticated API surface.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"resumelens/internal/config"
	apperrors "resumelens/internal/errors"
)

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// Claims are the JWT claims this service issues and accepts.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTService signs and verifies HS256 bearer tokens.
type JWTService struct {
	secret []byte
	issuer string
	leeway time.Duration
}

func NewJWTService(cfg *config.AuthConfig) (*JWTService, error) {
	secret := cfg.JWTSecret
	if secret == "" && cfg.JWTSecretFile != "" {
		data, err := os.ReadFile(cfg.JWTSecretFile)
		if err != nil {
			return nil, apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig,
				fmt.Sprintf("failed to read JWT secret file %s", cfg.JWTSecretFile), err)
		}
		secret = strings.TrimSpace(string(data))
	}
	if secret == "" {
		return nil, apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig, "JWT secret is not configured", nil)
	}
	return &JWTService{
		secret: []byte(secret),
		issuer: cfg.Issuer,
		leeway: cfg.Leeway,
	}, nil
}

// GenerateToken issues a signed token for the given identity, valid for ttl.
func (s *JWTService) GenerateToken(identity Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: identity.UserID,
		Email:  identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   identity.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies the token signature and registered claims and
// returns the caller identity.
func (s *JWTService) ValidateToken(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, apperrors.NewUnauthenticated("missing bearer token")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, apperrors.NewUnauthenticated("token expired")
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, apperrors.NewUnauthenticated("malformed token")
		default:
			return nil, apperrors.NewUnauthenticated("invalid token")
		}
	}
	if !token.Valid {
		return nil, apperrors.NewUnauthenticated("invalid token")
	}
	if claims.UserID == uuid.Nil {
		return nil, apperrors.NewUnauthenticated("token has no user identity")
	}

	return &Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", apperrors.NewUnauthenticated("missing Authorization header")
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", apperrors.NewUnauthenticated("Authorization header must use the Bearer scheme")
	}
	return strings.TrimSpace(header[len(prefix):]), nil
}
