package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/inkpress/apiserver/types"
)

// BlogRepository handles persistence for blogs.
type BlogRepository struct {
	db *sql.DB
}

func NewBlogRepository(db *sql.DB) *BlogRepository {
	return &BlogRepository{db: db}
}

func (r *BlogRepository) List(ctx context.Context) ([]types.Blog, error) {
	const query = `SELECT id, name, tagline FROM blogs ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := make([]types.Blog, 0)
	for rows.Next() {
		var blog types.Blog
		if err := rows.Scan(&blog.ID, &blog.Name, &blog.Tagline); err != nil {
			return nil, err
		}
		blogs = append(blogs, blog)
	}
	return blogs, rows.Err()
}

func (r *BlogRepository) Get(ctx context.Context, id int) (types.Blog, error) {
	const query = `SELECT id, name, tagline FROM blogs WHERE id = $1`
	var blog types.Blog
	err := r.db.QueryRowContext(ctx, query, id).Scan(&blog.ID, &blog.Name, &blog.Tagline)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Blog{}, ErrNotFound
		}
		return types.Blog{}, err
	}
	return blog, nil
}

func (r *BlogRepository) Create(ctx context.Context, blog types.Blog) (types.Blog, error) {
	const query = `
		INSERT INTO blogs (name, tagline)
		VALUES ($1, $2)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, blog.Name, blog.Tagline).Scan(&blog.ID); err != nil {
		return types.Blog{}, err
	}
	return blog, nil
}

func (r *BlogRepository) Update(ctx context.Context, blog types.Blog) (types.Blog, error) {
	const query = `UPDATE blogs SET name = $1, tagline = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, blog.Name, blog.Tagline, blog.ID)
	if err != nil {
		return types.Blog{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Blog{}, err
	}
	if affected == 0 {
		return types.Blog{}, ErrNotFound
	}
	return blog, nil
}

func (r *BlogRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM blogs WHERE id = $1`
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
