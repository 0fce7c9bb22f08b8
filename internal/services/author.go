package services

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/inkpress/apiserver/internal/events"
	"github.com/inkpress/apiserver/internal/storage"
	"github.com/inkpress/apiserver/internal/store"
	"github.com/inkpress/apiserver/types"
)

// AuthorRepository defines persistence operations for authors.
type AuthorRepository interface {
	List(ctx context.Context) ([]types.Author, error)
	Get(ctx context.Context, id int) (types.Author, error)
	Create(ctx context.Context, author types.Author) (types.Author, error)
	Update(ctx context.Context, author types.Author) (types.Author, error)
	Delete(ctx context.Context, id int) (types.User, error)
}

// AuthorUserInput is the nested user payload on author writes. Role is
// accepted but ignored: author-creation paths always force the author
// role server-side, so a caller cannot self-elevate.
type AuthorUserInput struct {
	Email    string     `json:"email"`
	Name     string     `json:"name"`
	Password string     `json:"password"`
	Role     types.Role `json:"role"`
}

// AuthorInput is the author create/update payload.
type AuthorInput struct {
	User AuthorUserInput `json:"user"`
	Bio  *string         `json:"bio"`
}

// AuthorService encapsulates author use-cases, including the
// author-driven cascade onto the owned user account.
type AuthorService struct {
	repo      AuthorRepository
	users     *UserService
	userRepo  UserRepository
	photos    *storage.PhotoStore
	publisher *events.Publisher
}

func NewAuthorService(
	repo AuthorRepository,
	users *UserService,
	userRepo UserRepository,
	photos *storage.PhotoStore,
	publisher *events.Publisher,
) *AuthorService {
	return &AuthorService{
		repo:      repo,
		users:     users,
		userRepo:  userRepo,
		photos:    photos,
		publisher: publisher,
	}
}

func (s *AuthorService) List(ctx context.Context) ([]types.Author, error) {
	return s.repo.List(ctx)
}

func (s *AuthorService) Get(ctx context.Context, id int) (types.Author, error) {
	return s.repo.Get(ctx, id)
}

// Create makes an author with its nested user account. The account's
// role is always forced to author regardless of the payload.
func (s *AuthorService) Create(ctx context.Context, input AuthorInput) (types.Author, error) {
	fields := FieldErrors{}
	validateUserFields(fields, input.User.Email, input.User.Name, input.User.Password, true)
	if len(fields) > 0 {
		return types.Author{}, newValidationError(fields)
	}

	hash, err := HashPassword(input.User.Password)
	if err != nil {
		return types.Author{}, err
	}

	bio := ""
	if input.Bio != nil {
		bio = *input.Bio
	}

	author, err := s.repo.Create(ctx, types.Author{
		User: types.User{
			Email:        strings.TrimSpace(input.User.Email),
			Name:         strings.TrimSpace(input.User.Name),
			Role:         types.RoleAuthor,
			PasswordHash: hash,
		},
		Bio: bio,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Author{}, newValidationError(FieldErrors{
				"email": {"A user with this email already exists."},
			})
		}
		return types.Author{}, err
	}
	return author, nil
}

// Update modifies an author and its user. For partial updates, fields
// absent from the payload keep their stored values; otherwise email
// and name are required. A new password is re-hashed; an empty one
// keeps the existing hash. Role is never updatable.
func (s *AuthorService) Update(ctx context.Context, id int, input AuthorInput, partial bool) (types.Author, error) {
	author, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Author{}, err
	}

	fields := FieldErrors{}
	if partial {
		if strings.TrimSpace(input.User.Email) != "" {
			author.User.Email = strings.TrimSpace(input.User.Email)
		}
		if strings.TrimSpace(input.User.Name) != "" {
			author.User.Name = strings.TrimSpace(input.User.Name)
		}
	} else {
		validateUserFields(fields, input.User.Email, input.User.Name, input.User.Password, false)
		author.User.Email = strings.TrimSpace(input.User.Email)
		author.User.Name = strings.TrimSpace(input.User.Name)
	}
	if input.Bio != nil {
		author.Bio = *input.Bio
	} else if !partial {
		author.Bio = ""
	}
	if input.User.Password != "" {
		if len(input.User.Password) < minPasswordLength {
			fields.Add("password", "Password must be at least 8 characters.")
		} else {
			hash, err := HashPassword(input.User.Password)
			if err != nil {
				return types.Author{}, err
			}
			author.User.PasswordHash = hash
		}
	}
	if len(fields) > 0 {
		return types.Author{}, newValidationError(fields)
	}

	updated, err := s.repo.Update(ctx, author)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Author{}, newValidationError(FieldErrors{
				"email": {"A user with this email already exists."},
			})
		}
		return types.Author{}, err
	}
	return updated, nil
}

// Delete removes the author and its owned user atomically, then runs
// the photo cleanup hook and publishes the deletion event.
func (s *AuthorService) Delete(ctx context.Context, id int) error {
	user, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.users.CleanupPhoto(ctx, user)

	if err := s.publisher.Publish(ctx, events.ChannelAuthors, events.AuthorDeleted, map[string]int{"id": id}); err != nil {
		log.Printf("failed to publish author deleted event: %v", err)
	}
	return nil
}

// UploadPhoto validates and stores a profile photo for the author's
// user, replacing and deleting any previous photo object.
func (s *AuthorService) UploadPhoto(ctx context.Context, id int, filename string, r io.Reader, size int64) (types.Author, error) {
	if s.photos == nil {
		return types.Author{}, errors.New("photo storage is not configured")
	}

	author, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Author{}, err
	}

	contentType, ok := storage.PhotoContentType(filename)
	if !ok {
		return types.Author{}, newValidationError(FieldErrors{
			"photo": {"Only jpg, jpeg, png, and webp files are allowed."},
		})
	}

	key := storage.PhotoKey(filename)
	if err := s.photos.Put(ctx, key, r, size, contentType); err != nil {
		return types.Author{}, err
	}

	previous, err := s.userRepo.SetPhoto(ctx, author.User.ID, key)
	if err != nil {
		return types.Author{}, err
	}
	if previous != "" && previous != key {
		if err := s.photos.Delete(ctx, previous); err != nil {
			log.Printf("failed to delete replaced photo %q: %v", previous, err)
		}
	}

	author.User.Photo = key
	return author, nil
}
