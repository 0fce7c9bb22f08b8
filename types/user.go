package types

// Role classifies a user for authorization purposes. The set is
// closed: accounts are either admins or authors, and unauthenticated
// callers are treated as guests without a role.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAuthor Role = "author"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAuthor
}

// User represents an account in the system. Email is the natural key
// used for login; there is no separate username.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the user's email address, unique case-insensitively.
	Email string `json:"email" db:"email"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Role indicates the user's authorization level within the system.
	Role Role `json:"role" db:"role"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Photo is the object-storage key of the user's profile photo.
	// Empty when no photo has been uploaded.
	Photo string `json:"photo,omitempty" db:"photo"`

	// CreatedAt is the date the account was created.
	CreatedAt Date `json:"created_at" db:"created_at"`
}
