package services

import (
	"context"
	"errors"
	"strings"

	"github.com/inkpress/apiserver/internal/store"
	"github.com/inkpress/apiserver/internal/token"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any login failure. Unknown
// email and wrong password are deliberately indistinguishable so the
// API cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthService orchestrates password authentication and the token
// lifecycle.
type AuthService struct {
	users  UserRepository
	tokens *token.Service
}

func NewAuthService(users UserRepository, tokens *token.Service) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Login verifies the email/password pair and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (token.Pair, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return token.Pair{}, ErrInvalidCredentials
		}
		return token.Pair{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return token.Pair{}, ErrInvalidCredentials
	}

	return s.tokens.Issue(user.ID)
}

// Logout revokes the presented refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, refreshToken)
}

// Refresh rotates a refresh token: the old token is revoked and a
// fresh pair is issued for the same user. The user must still exist.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (token.Pair, error) {
	claims, err := s.tokens.Verify(ctx, refreshToken, token.UseRefresh)
	if err != nil {
		return token.Pair{}, err
	}

	if _, err := s.users.GetByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return token.Pair{}, token.ErrTokenInvalid
		}
		return token.Pair{}, err
	}

	return s.tokens.Rotate(ctx, refreshToken)
}
