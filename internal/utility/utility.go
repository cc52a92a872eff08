package utility

import (
	"encoding/hex"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// Hash is the one-way digest applied to account secrets and secondary tokens
// before they are stored or compared. Deterministic on purpose: lookups match
// by hashed value.
func Hash(input string) string {
	sum := sha3.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// UUID returns a fresh random uuid string. Used for account secrets and
// secondary tokens.
func UUID() string {
	return uuid.NewString()
}

// RandomID returns a short random identifier for logs, posts and boards.
func RandomID() string {
	id, _ := uuid.NewRandom()
	return base58.Encode(id[:])
}

// UnixEpochTimestamp returns the current time in milliseconds since the unix
// epoch.
func UnixEpochTimestamp() int64 {
	return time.Now().UTC().UnixMilli()
}
