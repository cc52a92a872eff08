package model

// Board is a generic named container. Mail streams reuse it: the metadata
// About field carries a serialized MailStreamMarker.
type Board struct {
	Name      string `db:"name" json:"name"`
	Timestamp int64  `db:"timestamp" json:"timestamp"`
	Metadata  string `db:"metadata" json:"metadata"`
}

// BoardMetadata is the structured form of Board.Metadata.
type BoardMetadata struct {
	About            string  `json:"about"`
	Owner            string  `json:"owner"`
	IsPrivate        *string `json:"is_private"`         // yes/no
	AllowOpenPosting *string `json:"allow_open_posting"` // yes/no
}

// MailStreamMarker identifies a board as a private two-party mail channel.
// The relation is conceptually symmetric but stored directionally; existence
// checks must try both orderings.
type MailStreamMarker struct {
	IsUserMailStream bool   `json:"_is_user_mail_stream"`
	User1            string `json:"user1"`
	User2            string `json:"user2"`
}

// UserMailStream is a listing entry: the board name plus the participant that
// is not the queried user.
type UserMailStream struct {
	Name string `json:"name"`
	User string `json:"user"`
}
