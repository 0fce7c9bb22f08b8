package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/inkpress/apiserver/internal/services"
	"github.com/inkpress/apiserver/types"
	"github.com/stretchr/testify/require"
)

func TestCreateAuthorIsPublicAndForcesRole(t *testing.T) {
	env := newTestEnv(t)

	bio := "Writes about compilers."
	rec := env.do(t, http.MethodPost, "/api/authors/", services.AuthorInput{
		User: services.AuthorUserInput{
			Email:    "ada@example.com",
			Name:     "Ada",
			Password: "correct horse",
			Role:     types.RoleAdmin,
		},
		Bio: &bio,
	}, "")
	checkStatus(t, rec, http.StatusCreated)

	body := decodeEnvelope(t, rec)
	require.Equal(t, "Author successfully created.", body.Message)

	var created types.Author
	require.NoError(t, json.Unmarshal(body.Result, &created))
	require.Equal(t, types.RoleAuthor, created.User.Role)
	require.Equal(t, bio, created.Bio)
}

func TestCreateAuthorValidationFailure(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/authors/", services.AuthorInput{
		User: services.AuthorUserInput{Email: "bad", Password: "short"},
	}, "")
	checkStatus(t, rec, http.StatusUnprocessableEntity)

	body := decodeEnvelope(t, rec)
	require.False(t, body.Success)
	require.Equal(t, "Given data is invalid for Author", body.Message)
	require.Contains(t, body.Errors, "email")
	require.Contains(t, body.Errors, "name")
	require.Contains(t, body.Errors, "password")
}

func TestAuthorMutationIsOwnerOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedAuthor(t, "owner@example.com", "correct horse")
	other := env.seedAuthor(t, "other@example.com", "correct horse")
	admin := env.seedUser(t, "root@example.com", types.RoleAdmin, "correct horse")

	path := fmt.Sprintf("/api/authors/%d/", owner.ID)
	patch := services.AuthorInput{User: services.AuthorUserInput{Name: "Renamed"}}

	// Anonymous callers are turned away before the ownership check.
	rec := env.do(t, http.MethodPatch, path, patch, "")
	checkStatus(t, rec, http.StatusUnauthorized)

	// Another author is recognized but not allowed.
	rec = env.do(t, http.MethodPatch, path, patch, env.accessToken(t, other.User.ID))
	checkStatus(t, rec, http.StatusForbidden)
	require.Equal(t, "Permission denied.", decodeEnvelope(t, rec).Message)

	// The owner may mutate their own profile.
	rec = env.do(t, http.MethodPatch, path, patch, env.accessToken(t, owner.User.ID))
	checkStatus(t, rec, http.StatusOK)
	require.Equal(t, "Author successfully updated via PATCH method.", decodeEnvelope(t, rec).Message)

	// So may an admin.
	patch.User.Name = "Renamed again"
	rec = env.do(t, http.MethodPatch, path, patch, env.accessToken(t, admin.ID))
	checkStatus(t, rec, http.StatusOK)
}

func TestDeleteAuthorRemovesOwnedUser(t *testing.T) {
	env := newTestEnv(t)
	author := env.seedAuthor(t, "ada@example.com", "correct horse")

	path := fmt.Sprintf("/api/authors/%d/", author.ID)
	rec := env.do(t, http.MethodDelete, path, nil, env.accessToken(t, author.User.ID))
	checkStatus(t, rec, http.StatusNoContent)

	rec = env.do(t, http.MethodGet, path, nil, "")
	checkStatus(t, rec, http.StatusNotFound)

	// The owned user account is gone with it, so logging in fails.
	rec = env.do(t, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    "ada@example.com",
		Password: "correct horse",
	}, "")
	checkStatus(t, rec, http.StatusUnauthorized)
}

func TestGetAuthorNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/authors/999/", nil, "")
	checkStatus(t, rec, http.StatusNotFound)
	require.Equal(t, "Author not found.", decodeEnvelope(t, rec).Message)

	rec = env.do(t, http.MethodGet, "/api/authors/abc/", nil, "")
	checkStatus(t, rec, http.StatusBadRequest)
}

func TestListAuthors(t *testing.T) {
	env := newTestEnv(t)
	env.seedAuthor(t, "ada@example.com", "correct horse")
	env.seedAuthor(t, "bob@example.com", "correct horse")

	rec := env.do(t, http.MethodGet, "/api/authors/", nil, "")
	checkStatus(t, rec, http.StatusOK)

	body := decodeEnvelope(t, rec)
	require.Equal(t, "Authors successfully fetched.", body.Message)

	var authors []types.Author
	require.NoError(t, json.Unmarshal(body.Result, &authors))
	require.Len(t, authors, 2)
	// Password hashes never leak into responses.
	require.NotContains(t, rec.Body.String(), "password_hash")
}
