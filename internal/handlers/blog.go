package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/inkpress/apiserver/internal/policy"
	"github.com/inkpress/apiserver/internal/services"
	"github.com/inkpress/apiserver/internal/store"
)

// BlogHandler provides HTTP handlers for blogs.
type BlogHandler struct {
	blogService *services.BlogService
}

func NewBlogHandler(blogService *services.BlogService) *BlogHandler {
	return &BlogHandler{blogService: blogService}
}

// BlogRouter registers blog routes on the given router. Reads are
// public; all mutation requires the admin role.
func BlogRouter(r chi.Router, blogService *services.BlogService) {
	handler := NewBlogHandler(blogService)

	r.Get("/", handler.ListBlogs)
	r.With(Require(policy.IsAdmin)).Post("/", handler.CreateBlog)
	r.Route("/{blogID}", func(r chi.Router) {
		r.Get("/", handler.GetBlog)
		r.With(Require(policy.IsAdmin)).Patch("/", handler.PatchBlog)
		r.With(Require(policy.IsAdmin)).Delete("/", handler.DeleteBlog)
	})
}

func (h *BlogHandler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.blogService.List(r.Context())
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	writeResult(w, http.StatusOK, "Blogs successfully fetched.", blogs)
}

func (h *BlogHandler) GetBlog(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "blogID")
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid blog id.")
		return
	}

	blog, err := h.blogService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "Blog not found.")
			return
		}
		writeFailure(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	writeResult(w, http.StatusOK, "Blog successfully fetched.", blog)
}

func (h *BlogHandler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	var input services.BlogInput
	if err := decodeBody(r, &input); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	blog, err := h.blogService.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, err, "Given data is invalid for Blog")
		return
	}
	writeResult(w, http.StatusCreated, "Blog successfully created.", blog)
}

func (h *BlogHandler) PatchBlog(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "blogID")
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid blog id.")
		return
	}

	var input services.BlogInput
	if err := decodeBody(r, &input); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	blog, err := h.blogService.Patch(r.Context(), id, input)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "Blog not found.")
			return
		}
		writeServiceError(w, err, "Given data is invalid for Blog")
		return
	}
	writeResult(w, http.StatusOK, "Blog successfully updated.", blog)
}

func (h *BlogHandler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "blogID")
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid blog id.")
		return
	}

	if err := h.blogService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "Blog not found.")
			return
		}
		writeFailure(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	writeNoContent(w)
}
