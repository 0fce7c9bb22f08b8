// Package token mints and validates the access/refresh token pairs
// used to authenticate API requests. Access tokens are short-lived and
// verified purely by signature and expiry; refresh tokens are
// long-lived, individually revocable through a denylist, and
// single-use: refreshing revokes the old token and issues a new pair.
package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token use tags embedded as a claim. A token presented for the wrong
// use is invalid even when its signature checks out.
const (
	UseAccess  = "access"
	UseRefresh = "refresh"
)

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures, and
	// use-tag mismatches.
	ErrTokenInvalid = errors.New("token is invalid")

	// ErrTokenExpired is returned for a well-formed, correctly signed
	// token past its expiry.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenRevoked is returned for a refresh token whose identifier
	// is in the denylist.
	ErrTokenRevoked = errors.New("token has been revoked")
)

// Claims is the signed claim bundle carried by both token kinds.
type Claims struct {
	UserID   int    `json:"uid"`
	TokenUse string `json:"use"`
	jwt.RegisteredClaims
}

// Denylist tracks revoked refresh-token identifiers. Revoke must be
// idempotent, and a revocation must be visible to every IsRevoked call
// that starts after Revoke returns.
type Denylist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Pair is an access/refresh token pair for one user.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service issues, verifies, revokes, and rotates token pairs.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	denylist   Denylist
}

func NewService(secret string, accessTTL, refreshTTL time.Duration, denylist Denylist) *Service {
	return &Service{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		denylist:   denylist,
	}
}

// Issue mints a fresh token pair for the given user id.
func (s *Service) Issue(userID int) (Pair, error) {
	now := time.Now()

	access, err := s.sign(userID, UseAccess, now, s.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.sign(userID, UseRefresh, now, s.refreshTTL)
	if err != nil {
		return Pair{}, err
	}

	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify parses and validates a token of the expected use. It returns
// ErrTokenInvalid for forged, malformed, or mistagged tokens,
// ErrTokenExpired for genuinely expired ones, and ErrTokenRevoked for
// denylisted refresh tokens.
func (s *Service) Verify(ctx context.Context, tokenString, use string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, s.keyFunc)
	if err != nil {
		// The parser verifies the signature before validating claims,
		// so a forged token is never reported as a routine expiry.
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenMalformed) {
			return Claims{}, ErrTokenInvalid
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}

	if err := validateClaims(claims, use); err != nil {
		return Claims{}, err
	}

	if use == UseRefresh {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return Claims{}, err
		}
		if revoked {
			return Claims{}, ErrTokenRevoked
		}
	}

	return claims, nil
}

// Revoke adds a refresh token's identifier to the denylist. The token
// must be well-formed and correctly signed, but may already be expired
// or revoked; revoking twice is not an error.
func (s *Service) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := s.parseSkippingExpiry(refreshToken)
	if err != nil {
		return err
	}
	return s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Rotate exchanges a live refresh token for a fresh pair, revoking the
// old token so it can never be used again.
func (s *Service) Rotate(ctx context.Context, refreshToken string) (Pair, error) {
	claims, err := s.Verify(ctx, refreshToken, UseRefresh)
	if err != nil {
		return Pair{}, err
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return Pair{}, err
	}
	return s.Issue(claims.UserID)
}

func (s *Service) sign(userID int, use string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:   userID,
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Service) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, jwt.ErrSignatureInvalid
	}
	return s.secret, nil
}

// parseSkippingExpiry checks structure and signature but tolerates
// expiry, so an expired refresh token can still be revoked.
func (s *Service) parseSkippingExpiry(tokenString string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	_, err := parser.ParseWithClaims(tokenString, &claims, s.keyFunc)
	if err != nil {
		return Claims{}, ErrTokenInvalid
	}
	if err := validateClaims(claims, UseRefresh); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func validateClaims(claims Claims, use string) error {
	if claims.TokenUse != use || claims.UserID < 1 || claims.ID == "" || claims.ExpiresAt == nil {
		return ErrTokenInvalid
	}
	return nil
}
