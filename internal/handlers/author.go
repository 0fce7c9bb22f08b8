package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/inkpress/apiserver/internal/policy"
	"github.com/inkpress/apiserver/internal/services"
	"github.com/inkpress/apiserver/internal/store"
	"github.com/inkpress/apiserver/types"
)

const maxPhotoBytes = 8 << 20

// AuthorHandler provides HTTP handlers for authors.
type AuthorHandler struct {
	authorService *services.AuthorService
}

func NewAuthorHandler(authorService *services.AuthorService) *AuthorHandler {
	return &AuthorHandler{authorService: authorService}
}

// AuthorRouter registers author routes on the given router. Reads and
// creation are public (creation forces the author role); mutation of
// an existing author requires its owner or an admin.
func AuthorRouter(r chi.Router, authorService *services.AuthorService) {
	handler := NewAuthorHandler(authorService)

	r.Get("/", handler.ListAuthors)
	r.Post("/", handler.CreateAuthor)
	r.Route("/{authorID}", func(r chi.Router) {
		r.Get("/", handler.GetAuthor)
		r.With(Require(policy.IsAuthenticated)).Put("/", handler.UpdateAuthor)
		r.With(Require(policy.IsAuthenticated)).Patch("/", handler.PatchAuthor)
		r.With(Require(policy.IsAuthenticated)).Delete("/", handler.DeleteAuthor)
		r.With(Require(policy.IsAuthenticated)).Put("/photo", handler.UploadPhoto)
	})
}

func (h *AuthorHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.authorService.List(r.Context())
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	writeResult(w, http.StatusOK, "Authors successfully fetched.", authors)
}

func (h *AuthorHandler) GetAuthor(w http.ResponseWriter, r *http.Request) {
	author, ok := h.loadAuthor(w, r)
	if !ok {
		return
	}
	writeResult(w, http.StatusOK, "Author successfully fetched.", author)
}

func (h *AuthorHandler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	var input services.AuthorInput
	if err := decodeBody(r, &input); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	author, err := h.authorService.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, err, "Given data is invalid for Author")
		return
	}
	writeResult(w, http.StatusCreated, "Author successfully created.", author)
}

func (h *AuthorHandler) UpdateAuthor(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false, "Author successfully updated via PUT method.")
}

func (h *AuthorHandler) PatchAuthor(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true, "Author successfully updated via PATCH method.")
}

func (h *AuthorHandler) update(w http.ResponseWriter, r *http.Request, partial bool, message string) {
	author, ok := h.loadAuthor(w, r)
	if !ok {
		return
	}
	if !h.allowMutation(w, r, author) {
		return
	}

	var input services.AuthorInput
	if err := decodeBody(r, &input); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	updated, err := h.authorService.Update(r.Context(), author.ID, input, partial)
	if err != nil {
		writeServiceError(w, err, "Given data is invalid for Author")
		return
	}
	writeResult(w, http.StatusOK, message, updated)
}

// DeleteAuthor removes the author together with its owned user account
// and any stored photo.
func (h *AuthorHandler) DeleteAuthor(w http.ResponseWriter, r *http.Request) {
	author, ok := h.loadAuthor(w, r)
	if !ok {
		return
	}
	if !h.allowMutation(w, r, author) {
		return
	}

	if err := h.authorService.Delete(r.Context(), author.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "Author not found.")
			return
		}
		writeFailure(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	writeNoContent(w)
}

// UploadPhoto stores a profile photo for the author's user account.
func (h *AuthorHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	author, ok := h.loadAuthor(w, r)
	if !ok {
		return
	}
	if !h.allowMutation(w, r, author) {
		return
	}

	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid multipart form.")
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Photo file is required.")
		return
	}
	defer file.Close()

	updated, err := h.authorService.UploadPhoto(r.Context(), author.ID, header.Filename, file, header.Size)
	if err != nil {
		writeServiceError(w, err, "Given data is invalid for photo upload")
		return
	}
	writeResult(w, http.StatusOK, "Photo successfully uploaded.", updated)
}

func (h *AuthorHandler) loadAuthor(w http.ResponseWriter, r *http.Request) (types.Author, bool) {
	id, err := parseIDParam(r, "authorID")
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid author id.")
		return types.Author{}, false
	}

	author, err := h.authorService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "Author not found.")
			return types.Author{}, false
		}
		writeFailure(w, http.StatusInternalServerError, "A server error occurred.")
		return types.Author{}, false
	}
	return author, true
}

// allowMutation enforces owner-or-admin semantics on author mutation.
// The route already requires authentication, so a denial here is 403.
func (h *AuthorHandler) allowMutation(w http.ResponseWriter, r *http.Request, author types.Author) bool {
	identity := identityFromContext(r.Context())
	if identity == nil {
		writeFailure(w, http.StatusUnauthorized, "Authentication required.")
		return false
	}
	if identity.Role == types.RoleAdmin || identity.ID == author.User.ID {
		return true
	}
	writeFailure(w, http.StatusForbidden, "Permission denied.")
	return false
}
