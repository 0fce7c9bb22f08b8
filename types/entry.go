package types

// Entry rating bounds. Ratings outside this range are rejected with a
// field-level validation error.
const (
	MinRating = 0
	MaxRating = 10
)

// Entry is a post belonging to a blog, co-authored by one or more
// authors. Read responses embed the full blog and author records.
type Entry struct {
	// ID is the unique identifier of the entry.
	ID int `json:"id" db:"id"`

	// Blog is the publication the entry belongs to.
	Blog Blog `json:"blog"`

	// Headline is the entry's title.
	Headline string `json:"headline" db:"headline"`

	// BodyText is the entry's content.
	BodyText string `json:"body_text" db:"body_text"`

	// PubDate is the publish date, set once at creation.
	PubDate Date `json:"pub_date" db:"pub_date"`

	// ModDate is the last-modified date, updated on every write.
	ModDate Date `json:"mod_date" db:"mod_date"`

	// Authors is the entry's co-author set.
	Authors []Author `json:"authors"`

	// NumberOfComments counts comments on the entry.
	NumberOfComments int `json:"number_of_comments" db:"number_of_comments"`

	// Rating is an integer score in [MinRating, MaxRating].
	Rating int `json:"rating" db:"rating"`
}
