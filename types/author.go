package types

// Author is a writer profile. Every author owns exactly one user
// account, and the account's lifecycle follows the author's: deleting
// an author deletes its user as well.
type Author struct {
	// ID is the unique identifier of the author.
	ID int `json:"id" db:"id"`

	// User is the account owned by this author.
	User User `json:"user"`

	// Bio is the author's biography text.
	Bio string `json:"bio" db:"bio"`
}
