package services

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/inkpress/apiserver/internal/store"
	"github.com/inkpress/apiserver/types"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]types.User)}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) SetPhoto(ctx context.Context, id int, photo string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeAuthorRepo struct {
	mu      sync.Mutex
	nextID  int
	authors map[int]types.Author
	users   *fakeUserRepo
}

func newFakeAuthorRepo(users *fakeUserRepo) *fakeAuthorRepo {
	return &fakeAuthorRepo{authors: make(map[int]types.Author), users: users}
}

func (r *fakeAuthorRepo) List(ctx context.Context) ([]types.Author, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	authors := make([]types.Author, 0, len(r.authors))
	for _, author := range r.authors {
		authors = append(authors, author)
	}
	return authors, nil
}

func (r *fakeAuthorRepo) Get(ctx context.Context, id int) (types.Author, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	author.ID = r.nextID
	r.authors[author.ID] = author
	return author, nil
}

func (r *fakeAuthorRepo) Update(ctx context.Context, author types.Author) (types.Author, error) {
	if _, err := r.users.Update(ctx, author.User); err != nil {
		return types.Author{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.authors[author.ID]; !ok {
		return types.Author{}, store.ErrNotFound
	}
	r.authors[author.ID] = author
	return author, nil
}

func (r *fakeAuthorRepo) Delete(ctx context.Context, id int) (types.User, error) {
	r.mu.Lock()
	author, ok := r.authors[id]
	if !ok {
		r.mu.Unlock()
		return types.User{}, store.ErrNotFound
	}
	delete(r.authors, id)
	r.mu.Unlock()

	user, err := r.users.GetByID(context.Background(), author.User.ID)
	if err != nil {
		return types.User{}, err
	}
	if err := r.users.Delete(context.Background(), user.ID); err != nil {
		return types.User{}, err
	}
	return user, nil
}

type fakeBlogRepo struct {
	mu     sync.Mutex
	nextID int
	blogs  map[int]types.Blog
}

func newFakeBlogRepo() *fakeBlogRepo {
	return &fakeBlogRepo{blogs: make(map[int]types.Blog)}
}

func (r *fakeBlogRepo) List(ctx context.Context) ([]types.Blog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	blogs := make([]types.Blog, 0, len(r.blogs))
	for _, blog := range r.blogs {
		blogs = append(blogs, blog)
	}
	return blogs, nil
}

func (r *fakeBlogRepo) Get(ctx context.Context, id int) (types.Blog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	blog, ok := r.blogs[id]
	if !ok {
		return types.Blog{}, store.ErrNotFound
	}
	return blog, nil
}

func (r *fakeBlogRepo) Create(ctx context.Context, blog types.Blog) (types.Blog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	blog.ID = r.nextID
	r.blogs[blog.ID] = blog
	return blog, nil
}

func (r *fakeBlogRepo) Update(ctx context.Context, blog types.Blog) (types.Blog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blogs[blog.ID]; !ok {
		return types.Blog{}, store.ErrNotFound
	}
	r.blogs[blog.ID] = blog
	return blog, nil
}

func (r *fakeBlogRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blogs[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.blogs, id)
	return nil
}

type fakeEntryRepo struct {
	mu      sync.Mutex
	nextID  int
	entries map[int]types.Entry
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[int]types.Entry)}
}

func (r *fakeEntryRepo) List(ctx context.Context) ([]types.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]types.Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *fakeEntryRepo) Get(ctx context.Context, id int) (types.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return types.Entry{}, store.ErrNotFound
	}
	return entry, nil
}

func (r *fakeEntryRepo) Create(ctx context.Context, entry types.Entry) (types.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entry.ID = r.nextID
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *fakeEntryRepo) Update(ctx context.Context, entry types.Entry, replaceAuthors bool) (types.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

type fakeObjectStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{objects: make(map[string][]byte)}
}

func (s *fakeObjectStorage) EnsureBucket(ctx context.Context) error { return nil }

func (s *fakeObjectStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *fakeObjectStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeObjectStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeObjectStorage) Bucket() string { return "test-bucket" }

func (s *fakeObjectStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

type publishedMessage struct {
	Channel string
	Data    []byte
	Attrs   map[string]string
}

type fakeEventBackend struct {
	mu       sync.Mutex
	messages []publishedMessage
}

func (b *fakeEventBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, publishedMessage{Channel: channel, Data: data, Attrs: attrs})
	return "msg-1", nil
}

func (b *fakeEventBackend) Close() error { return nil }

func (b *fakeEventBackend) published() []publishedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]publishedMessage(nil), b.messages...)
}

type memoryDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newMemoryDenylist() *memoryDenylist {
	return &memoryDenylist{revoked: make(map[string]time.Time)}
}

func (d *memoryDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[jti] = expiresAt
	return nil
}

func (d *memoryDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.revoked[jti]
	return ok, nil
}
