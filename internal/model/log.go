package model

// Log is a generic append-only record reused to model several relationship
// kinds (follow edges, post favorites, role-level definitions) by tagging
// Logtype and serializing the payload into Content.
type Log struct {
	ID        string `db:"id" json:"id"`
	Logtype   string `db:"logtype" json:"logtype"`
	Timestamp int64  `db:"timestamp" json:"timestamp"`
	Content   string `db:"content" json:"content"`
}

const (
	LogtypeFollow       = "follow"
	LogtypeLevel        = "level"
	LogtypePostFavorite = "post_favorite"
)

// UserFollow is a directed edge: User follows IsFollowing. Field order
// matters; the serialized form is what follow lookups pattern-match against.
type UserFollow struct {
	User        string `json:"user"`
	IsFollowing string `json:"is_following"`
}

// PostFavorite marks User having favorited post ID.
type PostFavorite struct {
	User string `json:"user"`
	ID   string `json:"id"`
}
