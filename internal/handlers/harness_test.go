package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/inkpress/apiserver/internal/services"
	"github.com/inkpress/apiserver/internal/store"
	"github.com/inkpress/apiserver/internal/token"
	"github.com/inkpress/apiserver/types"
	"github.com/stretchr/testify/require"
)

// testEnv wires the full /api router against in-memory fakes, matching
// the production route layout.
type testEnv struct {
	router  *chi.Mux
	tokens  *token.Service
	users   *fakeUserRepo
	authors *fakeAuthorRepo
	blogs   *fakeBlogRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newFakeUserRepo()
	authors := newFakeAuthorRepo(users)
	blogs := newFakeBlogRepo()
	entries := newFakeEntryRepo()
	tokens := token.NewService("test-secret", 15*time.Minute, 24*time.Hour, newMemoryDenylist())

	userService := services.NewUserService(users, nil)
	authService := services.NewAuthService(users, tokens)
	authorService := services.NewAuthorService(authors, userService, users, nil, nil)
	blogService := services.NewBlogService(blogs)
	entryService := services.NewEntryService(entries, blogs, authors, nil)

	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(userService, tokens))
		r.Route("/auth", func(r chi.Router) {
			AuthRouter(r, authService)
		})
		r.Route("/authors", func(r chi.Router) {
			AuthorRouter(r, authorService)
		})
		r.Route("/blogs", func(r chi.Router) {
			BlogRouter(r, blogService)
		})
		r.Route("/entries", func(r chi.Router) {
			EntryRouter(r, entryService)
		})
	})

	return &testEnv{router: router, tokens: tokens, users: users, authors: authors, blogs: blogs}
}

func (e *testEnv) seedUser(t *testing.T, email string, role types.Role, password string) types.User {
	t.Helper()
	hash, err := services.HashPassword(password)
	require.NoError(t, err)
	user, err := e.users.Create(context.Background(), types.User{
		Email:        email,
		Name:         "Test User",
		Role:         role,
		PasswordHash: hash,
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) seedAuthor(t *testing.T, email, password string) types.Author {
	t.Helper()
	hash, err := services.HashPassword(password)
	require.NoError(t, err)
	author, err := e.authors.Create(context.Background(), types.Author{
		User: types.User{
			Email:        email,
			Name:         "Test Author",
			Role:         types.RoleAuthor,
			PasswordHash: hash,
		},
	})
	require.NoError(t, err)
	return author
}

// accessToken mints a valid bearer credential for the given user.
func (e *testEnv) accessToken(t *testing.T, userID int) string {
	t.Helper()
	pair, err := e.tokens.Issue(userID)
	require.NoError(t, err)
	return pair.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// doWithHeader sends a request with a raw Authorization header value.
func (e *testEnv) doWithHeader(t *testing.T, method, path, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", authorization)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type responseEnvelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Result  json.RawMessage     `json:"result"`
	Errors  map[string][]string `json:"errors"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

type fakeUserRepo struct {
	nextID int
	users  map[int]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]types.User)}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return types.User{}, store.ErrConflict
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = types.Today()
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) SetPhoto(ctx context.Context, id int, photo string) (string, error) {
	user, ok := r.users[id]
	if !ok {
		return "", store.ErrNotFound
	}
	previous := user.Photo
	user.Photo = photo
	r.users[id] = user
	return previous, nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeAuthorRepo struct {
	nextID  int
	authors map[int]types.Author
	users   *fakeUserRepo
}

func newFakeAuthorRepo(users *fakeUserRepo) *fakeAuthorRepo {
	return &fakeAuthorRepo{authors: make(map[int]types.Author), users: users}
}

func (r *fakeAuthorRepo) List(ctx context.Context) ([]types.Author, error) {
	authors := make([]types.Author, 0, len(r.authors))
	for _, author := range r.authors {
		authors = append(authors, author)
	}
	return authors, nil
}

func (r *fakeAuthorRepo) Get(ctx context.Context, id int) (types.Author, error) {
	author, ok := r.authors[id]
	if !ok {
		return types.Author{}, store.ErrNotFound
	}
	return author, nil
}

func (r *fakeAuthorRepo) Create(ctx context.Context, author types.Author) (types.Author, error) {
	user, err := r.users.Create(ctx, author.User)
	if err != nil {
		return types.Author{}, err
	}
	author.User = user
	r.nextID++
	author.ID = r.nextID
	r.authors[author.ID] = author
	return author, nil
}

func (r *fakeAuthorRepo) Update(ctx context.Context, author types.Author) (types.Author, error) {
	if _, err := r.users.Update(ctx, author.User); err != nil {
		return types.Author{}, err
	}
	if _, ok := r.authors[author.ID]; !ok {
		return types.Author{}, store.ErrNotFound
	}
	r.authors[author.ID] = author
	return author, nil
}

func (r *fakeAuthorRepo) Delete(ctx context.Context, id int) (types.User, error) {
	author, ok := r.authors[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	delete(r.authors, id)

	user, err := r.users.GetByID(ctx, author.User.ID)
	if err != nil {
		return types.User{}, err
	}
	if err := r.users.Delete(ctx, user.ID); err != nil {
		return types.User{}, err
	}
	return user, nil
}

type fakeBlogRepo struct {
	nextID int
	blogs  map[int]types.Blog
}

func newFakeBlogRepo() *fakeBlogRepo {
	return &fakeBlogRepo{blogs: make(map[int]types.Blog)}
}

func (r *fakeBlogRepo) List(ctx context.Context) ([]types.Blog, error) {
	blogs := make([]types.Blog, 0, len(r.blogs))
	for _, blog := range r.blogs {
		blogs = append(blogs, blog)
	}
	return blogs, nil
}

func (r *fakeBlogRepo) Get(ctx context.Context, id int) (types.Blog, error) {
	blog, ok := r.blogs[id]
	if !ok {
		return types.Blog{}, store.ErrNotFound
	}
	return blog, nil
}

func (r *fakeBlogRepo) Create(ctx context.Context, blog types.Blog) (types.Blog, error) {
	r.nextID++
	blog.ID = r.nextID
	r.blogs[blog.ID] = blog
	return blog, nil
}

func (r *fakeBlogRepo) Update(ctx context.Context, blog types.Blog) (types.Blog, error) {
	if _, ok := r.blogs[blog.ID]; !ok {
		return types.Blog{}, store.ErrNotFound
	}
	r.blogs[blog.ID] = blog
	return blog, nil
}

func (r *fakeBlogRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.blogs[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.blogs, id)
	return nil
}

type fakeEntryRepo struct {
	nextID  int
	entries map[int]types.Entry
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[int]types.Entry)}
}

func (r *fakeEntryRepo) List(ctx context.Context) ([]types.Entry, error) {
	entries := make([]types.Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *fakeEntryRepo) Get(ctx context.Context, id int) (types.Entry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return types.Entry{}, store.ErrNotFound
	}
	return entry, nil
}

func (r *fakeEntryRepo) Create(ctx context.Context, entry types.Entry) (types.Entry, error) {
	r.nextID++
	entry.ID = r.nextID
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *fakeEntryRepo) Update(ctx context.Context, entry types.Entry, replaceAuthors bool) (types.Entry, error) {
	stored, ok := r.entries[entry.ID]
	if !ok {
		return types.Entry{}, store.ErrNotFound
	}
	if !replaceAuthors {
		entry.Authors = stored.Authors
	}
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *fakeEntryRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.entries[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

type memoryDenylist struct {
	revoked map[string]time.Time
}

func newMemoryDenylist() *memoryDenylist {
	return &memoryDenylist{revoked: make(map[string]time.Time)}
}

func (d *memoryDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	d.revoked[jti] = expiresAt
	return nil
}

func (d *memoryDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, ok := d.revoked[jti]
	return ok, nil
}

func checkStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "unexpected status, body: %s", rec.Body.String())
}
