package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/inkpress/apiserver/internal/events"
	"github.com/inkpress/apiserver/internal/store"
	"github.com/inkpress/apiserver/types"
)

// Rating validation messages, reported as field-level errors.
const (
	msgRatingTooHigh = "Rating cannot be above 10"
	msgRatingTooLow  = "Rating cannot be below 0"
)

// EntryRepository defines persistence operations for entries.
type EntryRepository interface {
	List(ctx context.Context) ([]types.Entry, error)
	Get(ctx context.Context, id int) (types.Entry, error)
	Create(ctx context.Context, entry types.Entry) (types.Entry, error)
	Update(ctx context.Context, entry types.Entry, replaceAuthors bool) (types.Entry, error)
	Delete(ctx context.Context, id int) error
}

// EntryInput is the entry create/update payload. Pointer fields
// distinguish "absent" from "zero" on partial updates.
type EntryInput struct {
	Blog             *int    `json:"blog"`
	Headline         *string `json:"headline"`
	BodyText         *string `json:"body_text"`
	Authors          []int   `json:"authors"`
	NumberOfComments *int    `json:"number_of_comments"`
	Rating           *int    `json:"rating"`
}

// EntryService encapsulates entry use-cases.
type EntryService struct {
	repo      EntryRepository
	blogs     BlogRepository
	authors   AuthorRepository
	publisher *events.Publisher
}

func NewEntryService(
	repo EntryRepository,
	blogs BlogRepository,
	authors AuthorRepository,
	publisher *events.Publisher,
) *EntryService {
	return &EntryService{repo: repo, blogs: blogs, authors: authors, publisher: publisher}
}

func (s *EntryService) List(ctx context.Context) ([]types.Entry, error) {
	return s.repo.List(ctx)
}

func (s *EntryService) Get(ctx context.Context, id int) (types.Entry, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and inserts a new entry. The publish date is set
// here, once; it never changes afterwards.
func (s *EntryService) Create(ctx context.Context, input EntryInput) (types.Entry, error) {
	fields := FieldErrors{}

	var entry types.Entry
	if input.Headline == nil || strings.TrimSpace(*input.Headline) == "" {
		fields.Add("headline", "Headline is required.")
	} else {
		entry.Headline = strings.TrimSpace(*input.Headline)
	}
	if input.BodyText != nil {
		entry.BodyText = *input.BodyText
	}
	if input.NumberOfComments != nil {
		entry.NumberOfComments = *input.NumberOfComments
	}
	if input.Rating != nil {
		validateRating(fields, *input.Rating)
		entry.Rating = *input.Rating
	}

	if input.Blog == nil {
		fields.Add("blog", "Blog is required.")
	} else {
		blog, err := s.blogs.Get(ctx, *input.Blog)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fields.Add("blog", "Blog not found.")
			} else {
				return types.Entry{}, err
			}
		} else {
			entry.Blog = blog
		}
	}

	authors, err := s.resolveAuthors(ctx, input.Authors, fields)
	if err != nil {
		return types.Entry{}, err
	}
	entry.Authors = authors

	if len(fields) > 0 {
		return types.Entry{}, newValidationError(fields)
	}

	today := types.Today()
	entry.PubDate = today
	entry.ModDate = today

	created, err := s.repo.Create(ctx, entry)
	if err != nil {
		return types.Entry{}, err
	}

	s.publish(ctx, events.EntryCreated, created.ID)
	return created, nil
}

// Patch partially updates an entry. Every write refreshes the
// modification date.
func (s *EntryService) Patch(ctx context.Context, id int, input EntryInput) (types.Entry, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Entry{}, err
	}

	fields := FieldErrors{}
	if input.Headline != nil {
		headline := strings.TrimSpace(*input.Headline)
		if headline == "" {
			fields.Add("headline", "Headline is required.")
		}
		entry.Headline = headline
	}
	if input.BodyText != nil {
		entry.BodyText = *input.BodyText
	}
	if input.NumberOfComments != nil {
		entry.NumberOfComments = *input.NumberOfComments
	}
	if input.Rating != nil {
		validateRating(fields, *input.Rating)
		entry.Rating = *input.Rating
	}
	if input.Blog != nil {
		blog, err := s.blogs.Get(ctx, *input.Blog)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fields.Add("blog", "Blog not found.")
			} else {
				return types.Entry{}, err
			}
		} else {
			entry.Blog = blog
		}
	}

	replaceAuthors := input.Authors != nil
	if replaceAuthors {
		authors, err := s.resolveAuthors(ctx, input.Authors, fields)
		if err != nil {
			return types.Entry{}, err
		}
		entry.Authors = authors
	}

	if len(fields) > 0 {
		return types.Entry{}, newValidationError(fields)
	}

	entry.ModDate = types.Today()

	updated, err := s.repo.Update(ctx, entry, replaceAuthors)
	if err != nil {
		return types.Entry{}, err
	}

	s.publish(ctx, events.EntryUpdated, updated.ID)
	return updated, nil
}

func (s *EntryService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.EntryDeleted, id)
	return nil
}

func (s *EntryService) resolveAuthors(ctx context.Context, ids []int, fields FieldErrors) ([]types.Author, error) {
	authors := make([]types.Author, 0, len(ids))
	for _, id := range ids {
		author, err := s.authors.Get(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fields.Add("authors", "Author not found.")
				continue
			}
			return nil, err
		}
		authors = append(authors, author)
	}
	return authors, nil
}

func (s *EntryService) publish(ctx context.Context, event string, id int) {
	if err := s.publisher.Publish(ctx, events.ChannelEntries, event, map[string]int{"id": id}); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
	}
}

func validateRating(fields FieldErrors, rating int) {
	if rating > types.MaxRating {
		fields.Add("rating", msgRatingTooHigh)
	}
	if rating < types.MinRating {
		fields.Add("rating", msgRatingTooLow)
	}
}
