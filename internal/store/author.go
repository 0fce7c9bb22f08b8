package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/inkpress/apiserver/types"
)

// AuthorRepository handles persistence for authors and their owned
// user accounts. Author writes that touch the user run in a single
// transaction so the pair never ends up half-created or half-deleted.
type AuthorRepository struct {
	db *sql.DB
}

func NewAuthorRepository(db *sql.DB) *AuthorRepository {
	return &AuthorRepository{db: db}
}

const authorColumns = `
	a.id, a.bio,
	u.id, u.email, u.name, u.role, u.password_hash, u.photo, u.created_at`

func (r *AuthorRepository) List(ctx context.Context) ([]types.Author, error) {
	const query = `
		SELECT` + authorColumns + `
		FROM authors a
		JOIN users u ON u.id = a.user_id
		ORDER BY a.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	authors := make([]types.Author, 0)
	for rows.Next() {
		author, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		authors = append(authors, author)
	}
	return authors, rows.Err()
}

func (r *AuthorRepository) Get(ctx context.Context, id int) (types.Author, error) {
	const query = `
		SELECT` + authorColumns + `
		FROM authors a
		JOIN users u ON u.id = a.user_id
		WHERE a.id = $1`
	author, err := scanAuthor(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Author{}, ErrNotFound
		}
		return types.Author{}, err
	}
	return author, nil
}

// Create inserts the owned user and the author row in one transaction.
func (r *AuthorRepository) Create(ctx context.Context, author types.Author) (types.Author, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Author{}, err
	}
	defer tx.Rollback()

	author.User.CreatedAt = types.Today()

	const insertUser = `
		INSERT INTO users (email, name, role, password_hash, photo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err = tx.QueryRowContext(
		ctx,
		insertUser,
		author.User.Email,
		author.User.Name,
		author.User.Role,
		author.User.PasswordHash,
		author.User.Photo,
		author.User.CreatedAt,
	).Scan(&author.User.ID)
	if err != nil {
		return types.Author{}, mapConstraintError(err)
	}

	const insertAuthor = `
		INSERT INTO authors (user_id, bio)
		VALUES ($1, $2)
		RETURNING id`
	if err := tx.QueryRowContext(ctx, insertAuthor, author.User.ID, author.Bio).Scan(&author.ID); err != nil {
		return types.Author{}, mapConstraintError(err)
	}

	if err := tx.Commit(); err != nil {
		return types.Author{}, err
	}
	return author, nil
}

// Update writes the author row and its user row in one transaction.
func (r *AuthorRepository) Update(ctx context.Context, author types.Author) (types.Author, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Author{}, err
	}
	defer tx.Rollback()

	const updateAuthor = `UPDATE authors SET bio = $1 WHERE id = $2`
	result, err := tx.ExecContext(ctx, updateAuthor, author.Bio, author.ID)
	if err != nil {
		return types.Author{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Author{}, err
	}
	if affected == 0 {
		return types.Author{}, ErrNotFound
	}

	const updateUser = `
		UPDATE users
		SET email = $1,
			name = $2,
			password_hash = $3
		WHERE id = $4`
	if _, err := tx.ExecContext(
		ctx,
		updateUser,
		author.User.Email,
		author.User.Name,
		author.User.PasswordHash,
		author.User.ID,
	); err != nil {
		return types.Author{}, mapConstraintError(err)
	}

	if err := tx.Commit(); err != nil {
		return types.Author{}, err
	}
	return author, nil
}

// Delete removes the author and its owned user atomically and returns
// the deleted user so callers can run post-delete cleanup (photo
// objects). The cascade is author-driven: the author owns the user.
func (r *AuthorRepository) Delete(ctx context.Context, id int) (types.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.User{}, err
	}
	defer tx.Rollback()

	const deleteAuthor = `DELETE FROM authors WHERE id = $1 RETURNING user_id`
	var userID int
	if err := tx.QueryRowContext(ctx, deleteAuthor, id).Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}

	const deleteUser = `
		DELETE FROM users WHERE id = $1
		RETURNING id, email, name, role, password_hash, photo, created_at`
	var user types.User
	err = tx.QueryRowContext(ctx, deleteUser, userID).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.PasswordHash,
		&user.Photo,
		&user.CreatedAt,
	)
	if err != nil {
		return types.User{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.User{}, err
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuthor(row rowScanner) (types.Author, error) {
	var author types.Author
	err := row.Scan(
		&author.ID,
		&author.Bio,
		&author.User.ID,
		&author.User.Email,
		&author.User.Name,
		&author.User.Role,
		&author.User.PasswordHash,
		&author.User.Photo,
		&author.User.CreatedAt,
	)
	return author, err
}
