package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/inkpress/apiserver/internal/storage"
	"github.com/inkpress/apiserver/internal/store"
	"github.com/inkpress/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	SetPhoto(ctx context.Context, id int, photo string) (string, error)
	Delete(ctx context.Context, id int) error
}

// UserService encapsulates user use-cases shared by the auth flow, the
// author profile flow, and the createadmin command.
type UserService struct {
	repo   UserRepository
	photos *storage.PhotoStore
}

func NewUserService(repo UserRepository, photos *storage.PhotoStore) *UserService {
	return &UserService{repo: repo, photos: photos}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// CreateAdmin creates a user with the admin role. Only the createadmin
// command reaches this; no API path can mint an admin.
func (s *UserService) CreateAdmin(ctx context.Context, email, name, password string) (types.User, error) {
	fields := FieldErrors{}
	validateUserFields(fields, email, name, password, true)
	if len(fields) > 0 {
		return types.User{}, newValidationError(fields)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.repo.Create(ctx, types.User{
		Email:        strings.TrimSpace(email),
		Name:         strings.TrimSpace(name),
		Role:         types.RoleAdmin,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, newValidationError(FieldErrors{
				"email": {"A user with this email already exists."},
			})
		}
		return types.User{}, err
	}
	return user, nil
}

// CleanupPhoto deletes the user's stored photo object, if any. It is
// the post-delete hook every User deletion path must invoke. The row
// is already gone when this runs, so failures are logged rather than
// returned.
func (s *UserService) CleanupPhoto(ctx context.Context, user types.User) {
	if user.Photo == "" || s.photos == nil {
		return
	}
	if err := s.photos.Delete(ctx, user.Photo); err != nil {
		log.Printf("failed to delete photo %q for user %d: %v", user.Photo, user.ID, err)
	}
}

// HashPassword hashes a raw password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func validateUserFields(fields FieldErrors, email, name, password string, passwordRequired bool) {
	email = strings.TrimSpace(email)
	if email == "" {
		fields.Add("email", "Email is required.")
	} else if !strings.Contains(email, "@") {
		fields.Add("email", "Enter a valid email address.")
	}
	if strings.TrimSpace(name) == "" {
		fields.Add("name", "Name is required.")
	}
	if password == "" {
		if passwordRequired {
			fields.Add("password", "Password is required.")
		}
	} else if len(password) < minPasswordLength {
		fields.Add("password", "Password must be at least 8 characters.")
	}
}
