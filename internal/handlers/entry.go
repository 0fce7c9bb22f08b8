package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/inkpress/apiserver/internal/policy"
	"github.com/inkpress/apiserver/internal/services"
	"github.com/inkpress/apiserver/internal/store"
)

// EntryHandler provides HTTP handlers for entries.
type EntryHandler struct {
	entryService *services.EntryService
}

func NewEntryHandler(entryService *services.EntryService) *EntryHandler {
	return &EntryHandler{entryService: entryService}
}

// EntryRouter registers entry routes on the given router. Every entry
// operation requires an authenticated caller.
func EntryRouter(r chi.Router, entryService *services.EntryService) {
	handler := NewEntryHandler(entryService)

	r.Use(Require(policy.IsAuthenticated))
	r.Get("/", handler.ListEntries)
	r.Post("/", handler.CreateEntry)
	r.Route("/{entryID}", func(r chi.Router) {
		r.Get("/", handler.GetEntry)
		r.Patch("/", handler.PatchEntry)
		r.Delete("/", handler.DeleteEntry)
	})
}

func (h *EntryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entryService.List(r.Context())
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	writeResult(w, http.StatusOK, "Entries successfully fetched.", entries)
}

func (h *EntryHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "entryID")
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid entry id.")
		return
	}

	entry, err := h.entryService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "Entry not found.")
			return
		}
		writeFailure(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	writeResult(w, http.StatusOK, "Entry successfully fetched.", entry)
}

func (h *EntryHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var input services.EntryInput
	if err := decodeBody(r, &input); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	entry, err := h.entryService.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, err, "Given data is invalid for Entry")
		return
	}
	writeResult(w, http.StatusCreated, "Entry successfully created.", entry)
}

func (h *EntryHandler) PatchEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "entryID")
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid entry id.")
		return
	}

	var input services.EntryInput
	if err := decodeBody(r, &input); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	entry, err := h.entryService.Patch(r.Context(), id, input)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "Entry not found.")
			return
		}
		writeServiceError(w, err, "Given data is invalid for Entry")
		return
	}
	writeResult(w, http.StatusOK, "Entry successfully updated.", entry)
}

func (h *EntryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "entryID")
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid entry id.")
		return
	}

	if err := h.entryService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "Entry not found.")
			return
		}
		writeFailure(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	writeNoContent(w)
}
