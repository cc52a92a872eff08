package model

// RoleBanned is a sentinel role, not a permission level. Accounts carrying it
// are invisible to every lookup path.
const (
	RoleMember = "member"
	RoleBanned = "banned"
)

// UserState is a row of the Users table. Metadata is the raw serialized
// UserMetadata blob; the unhashed account secret is never stored anywhere,
// only its one-way hash (IDHashed).
type UserState struct {
	Username  string `db:"username" json:"username"`
	IDHashed  string `db:"id_hashed" json:"id_hashed"`
	Role      string `db:"role" json:"role"`
	Timestamp int64  `db:"timestamp" json:"timestamp"`
	Metadata  string `db:"metadata" json:"metadata"`
}

// UserMetadata is the structured form of UserState.Metadata.
type UserMetadata struct {
	About          string  `json:"about"`
	AvatarURL      *string `json:"avatar_url"`
	SecondaryToken *string `json:"secondary_token"` // stored hashed, like the primary secret
	AllowMail      *string `json:"allow_mail"`      // yes/no
	Nickname       *string `json:"nickname"`
	PageTemplate   *string `json:"page_template"`
}

// RoleLevel is a named permission bundle. Elevation 0 is the baseline
// "member"; destructive actions (ban) refuse elevation-0 targets.
type RoleLevel struct {
	Elevation   int      `json:"elevation"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// Can reports whether the level grants the given capability string.
func (l RoleLevel) Can(permission string) bool {
	for _, p := range l.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// RoleLevelLog pairs a RoleLevel with the id of the "level" log it was read
// from. ID is empty for the hard-coded member fallback.
type RoleLevelLog struct {
	ID    string    `json:"id"`
	Level RoleLevel `json:"level"`
}

// FullUser is a UserState joined with its resolved RoleLevel.
type FullUser struct {
	User  UserState `json:"user"`
	Level RoleLevel `json:"level"`
}

// UserCredentials is returned by CreateUser. UnhashedSecret is the only
// credential that authenticates the account and is never persisted; losing it
// is unrecoverable without an admin reset.
type UserCredentials struct {
	UnhashedSecret string `json:"unhashed_secret"`
	HashedID       string `json:"hashed_id"`
}
