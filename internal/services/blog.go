package services

import (
	"context"
	"strings"

	"github.com/inkpress/apiserver/types"
)

// BlogRepository defines persistence operations for blogs.
type BlogRepository interface {
	List(ctx context.Context) ([]types.Blog, error)
	Get(ctx context.Context, id int) (types.Blog, error)
	Create(ctx context.Context, blog types.Blog) (types.Blog, error)
	Update(ctx context.Context, blog types.Blog) (types.Blog, error)
	Delete(ctx context.Context, id int) error
}

// BlogInput is the blog create/update payload. Pointer fields
// distinguish "absent" from "empty" on partial updates.
type BlogInput struct {
	Name    *string `json:"name"`
	Tagline *string `json:"tagline"`
}

// BlogService encapsulates blog use-cases.
type BlogService struct {
	repo BlogRepository
}

func NewBlogService(repo BlogRepository) *BlogService {
	return &BlogService{repo: repo}
}

func (s *BlogService) List(ctx context.Context) ([]types.Blog, error) {
	return s.repo.List(ctx)
}

func (s *BlogService) Get(ctx context.Context, id int) (types.Blog, error) {
	return s.repo.Get(ctx, id)
}

func (s *BlogService) Create(ctx context.Context, input BlogInput) (types.Blog, error) {
	var blog types.Blog
	if input.Name != nil {
		blog.Name = strings.TrimSpace(*input.Name)
	}
	if input.Tagline != nil {
		blog.Tagline = *input.Tagline
	}
	if blog.Name == "" {
		return types.Blog{}, newValidationError(FieldErrors{"name": {"Name is required."}})
	}
	return s.repo.Create(ctx, blog)
}

func (s *BlogService) Patch(ctx context.Context, id int, input BlogInput) (types.Blog, error) {
	blog, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Blog{}, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return types.Blog{}, newValidationError(FieldErrors{"name": {"Name is required."}})
		}
		blog.Name = name
	}
	if input.Tagline != nil {
		blog.Tagline = *input.Tagline
	}
	return s.repo.Update(ctx, blog)
}

func (s *BlogService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
