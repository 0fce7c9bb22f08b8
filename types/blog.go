package types

// Blog is a publication entries are posted to.
type Blog struct {
	// ID is the unique identifier of the blog.
	ID int `json:"id" db:"id"`

	// Name is the blog's display name.
	Name string `json:"name" db:"name"`

	// Tagline is a short description shown with the blog.
	Tagline string `json:"tagline" db:"tagline"`
}
