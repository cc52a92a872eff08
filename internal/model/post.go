package model

// ActivityPost is a row of the gup_posts table. Reply is the parent post id,
// or the empty string for a top-level post. ContentHTML is rendered once at
// creation time and persisted.
type ActivityPost struct {
	ID          string `db:"id" json:"id"`
	Author      string `db:"author" json:"author"`
	Content     string `db:"content" json:"content"`
	ContentHTML string `db:"content_html" json:"content_html"`
	Reply       string `db:"reply" json:"reply"`
	Timestamp   int64  `db:"timestamp" json:"timestamp"`
}

// PCreatePost is the CreateActivityPost argument set. Author is filled in by
// the caller from the authenticated user, never from the request body.
type PCreatePost struct {
	Content string `json:"content"`
	Author  string `json:"author"`
	Reply   string `json:"reply"`
}

// FullPost is a feed entry: a top-level post joined with its replies and the
// favorite count.
type FullPost struct {
	Post      ActivityPost   `json:"post"`
	Replies   []ActivityPost `json:"replies"`
	Favorites int            `json:"favorites"`
}
