package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/inkpress/apiserver/types"
	"github.com/lib/pq"
)

// EntryRepository handles persistence for entries, including the
// entry_authors join table for the co-author set.
type EntryRepository struct {
	db *sql.DB
}

func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

const entryColumns = `
	e.id, e.headline, e.body_text, e.pub_date, e.mod_date,
	e.number_of_comments, e.rating,
	b.id, b.name, b.tagline`

// List returns all entries ordered by publish date, with the owning
// blog and co-author set populated.
func (r *EntryRepository) List(ctx context.Context) ([]types.Entry, error) {
	const query = `
		SELECT` + entryColumns + `
		FROM entries e
		JOIN blogs b ON b.id = e.blog_id
		ORDER BY e.pub_date, e.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]types.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachAuthors(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *EntryRepository) Get(ctx context.Context, id int) (types.Entry, error) {
	const query = `
		SELECT` + entryColumns + `
		FROM entries e
		JOIN blogs b ON b.id = e.blog_id
		WHERE e.id = $1`
	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Entry{}, ErrNotFound
		}
		return types.Entry{}, err
	}

	entries := []types.Entry{entry}
	if err := r.attachAuthors(ctx, entries); err != nil {
		return types.Entry{}, err
	}
	return entries[0], nil
}

// Create inserts the entry and its co-author links in one transaction.
func (r *EntryRepository) Create(ctx context.Context, entry types.Entry) (types.Entry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Entry{}, err
	}
	defer tx.Rollback()

	const insertEntry = `
		INSERT INTO entries (blog_id, headline, body_text, pub_date, mod_date, number_of_comments, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err = tx.QueryRowContext(
		ctx,
		insertEntry,
		entry.Blog.ID,
		entry.Headline,
		entry.BodyText,
		entry.PubDate,
		entry.ModDate,
		entry.NumberOfComments,
		entry.Rating,
	).Scan(&entry.ID)
	if err != nil {
		return types.Entry{}, err
	}

	if err := replaceEntryAuthors(ctx, tx, entry.ID, entry.Authors); err != nil {
		return types.Entry{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Entry{}, err
	}
	return entry, nil
}

// Update writes the entry row and, when replaceAuthors is set,
// replaces the co-author links, in one transaction.
func (r *EntryRepository) Update(ctx context.Context, entry types.Entry, replaceAuthors bool) (types.Entry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Entry{}, err
	}
	defer tx.Rollback()

	const updateEntry = `
		UPDATE entries
		SET blog_id = $1,
			headline = $2,
			body_text = $3,
			mod_date = $4,
			number_of_comments = $5,
			rating = $6
		WHERE id = $7`
	result, err := tx.ExecContext(
		ctx,
		updateEntry,
		entry.Blog.ID,
		entry.Headline,
		entry.BodyText,
		entry.ModDate,
		entry.NumberOfComments,
		entry.Rating,
		entry.ID,
	)
	if err != nil {
		return types.Entry{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Entry{}, err
	}
	if affected == 0 {
		return types.Entry{}, ErrNotFound
	}

	if replaceAuthors {
		const clear = `DELETE FROM entry_authors WHERE entry_id = $1`
		if _, err := tx.ExecContext(ctx, clear, entry.ID); err != nil {
			return types.Entry{}, err
		}
		if err := replaceEntryAuthors(ctx, tx, entry.ID, entry.Authors); err != nil {
			return types.Entry{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return types.Entry{}, err
	}
	return entry, nil
}

func (r *EntryRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM entries WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func replaceEntryAuthors(ctx context.Context, tx *sql.Tx, entryID int, authors []types.Author) error {
	const insert = `INSERT INTO entry_authors (entry_id, author_id) VALUES ($1, $2)`
	for _, author := range authors {
		if _, err := tx.ExecContext(ctx, insert, entryID, author.ID); err != nil {
			return err
		}
	}
	return nil
}

// attachAuthors loads the co-author sets for the given entries with a
// single query over the join table.
func (r *EntryRepository) attachAuthors(ctx context.Context, entries []types.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(entries))
	index := make(map[int]int, len(entries))
	for i := range entries {
		entries[i].Authors = make([]types.Author, 0)
		ids = append(ids, int64(entries[i].ID))
		index[entries[i].ID] = i
	}

	const query = `
		SELECT ea.entry_id,
			a.id, a.bio,
			u.id, u.email, u.name, u.role, u.password_hash, u.photo, u.created_at
		FROM entry_authors ea
		JOIN authors a ON a.id = ea.author_id
		JOIN users u ON u.id = a.user_id
		WHERE ea.entry_id = ANY($1)
		ORDER BY ea.entry_id, a.id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var entryID int
		var author types.Author
		if err := rows.Scan(
			&entryID,
			&author.ID,
			&author.Bio,
			&author.User.ID,
			&author.User.Email,
			&author.User.Name,
			&author.User.Role,
			&author.User.PasswordHash,
			&author.User.Photo,
			&author.User.CreatedAt,
		); err != nil {
			return err
		}
		if i, ok := index[entryID]; ok {
			entries[i].Authors = append(entries[i].Authors, author)
		}
	}
	return rows.Err()
}

func scanEntry(row rowScanner) (types.Entry, error) {
	var entry types.Entry
	err := row.Scan(
		&entry.ID,
		&entry.Headline,
		&entry.BodyText,
		&entry.PubDate,
		&entry.ModDate,
		&entry.NumberOfComments,
		&entry.Rating,
		&entry.Blog.ID,
		&entry.Blog.Name,
		&entry.Blog.Tagline,
	)
	return entry, err
}
