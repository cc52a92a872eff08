package guppydb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stellularorg/guppy/internal/model"
)

// followWindow is the page size of every paginated follow listing.
const followWindow = 50

// GetFollowByUser looks up the follow edge (user -> isFollowing) by exact
// pattern match on the serialized edge.
func (g *GuppyDB) GetFollowByUser(user string, isFollowing string) model.DefaultReturn[*model.Log] {
	var log model.Log
	query := g.db.Rebind(`SELECT * FROM "Logs" WHERE "content" LIKE ? ESCAPE '\' AND "logtype" = 'follow'`)
	needle := contains(jsonPairs(model.UserFollow{User: user, IsFollowing: isFollowing}))

	if err := g.db.Get(&log, query, needle); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Fail[*model.Log]("Follow does not exist")
		}
		return model.Fail[*model.Log](err.Error())
	}

	return model.Okay("Follow exists", &log)
}

// GetUserFollowers lists the follow edges pointing at user, newest first, 50
// per page. Entries with identical timestamps have no defined relative order.
func (g *GuppyDB) GetUserFollowers(user string, offset int) model.DefaultReturn[[]model.Log] {
	return g.listFollows(jsonField("is_following", user), offset, "Failed to fetch followers", "Followers exist")
}

// GetUserFollowing lists the follow edges originating from user.
func (g *GuppyDB) GetUserFollowing(user string, offset int) model.DefaultReturn[[]model.Log] {
	return g.listFollows(jsonField("user", user), offset, "Failed to fetch following", "Following exists")
}

func (g *GuppyDB) listFollows(needle string, offset int, failMessage string, okMessage string) model.DefaultReturn[[]model.Log] {
	if offset < 0 {
		offset = 0
	}

	logs := []model.Log{}
	query := g.db.Rebind(fmt.Sprintf(`SELECT * FROM "Logs" WHERE "content" LIKE ? ESCAPE '\' AND "logtype" = 'follow'
		ORDER BY "timestamp" DESC LIMIT %d OFFSET ?`, followWindow))

	if err := g.db.Select(&logs, query, contains(needle), offset); err != nil {
		return model.Fail[[]model.Log](failMessage + ": " + err.Error())
	}

	return model.Okay(okMessage, logs)
}

// GetUserFollowCount counts the accounts following user. Full scan of the
// ledger; fine at this system's scale.
func (g *GuppyDB) GetUserFollowCount(user string) model.DefaultReturn[int] {
	return g.countFollows(jsonField("is_following", user), "Failed to fetch followers")
}

// GetUserFollowingCount counts the accounts user is following.
func (g *GuppyDB) GetUserFollowingCount(user string) model.DefaultReturn[int] {
	return g.countFollows(jsonField("user", user), "Failed to fetch following")
}

func (g *GuppyDB) countFollows(needle string, failMessage string) model.DefaultReturn[int] {
	var count int
	query := g.db.Rebind(`SELECT COUNT(*) FROM "Logs" WHERE "content" LIKE ? ESCAPE '\' AND "logtype" = 'follow'`)

	if err := g.db.Get(&count, query, contains(needle)); err != nil {
		return model.Fail[int](failMessage + ": " + err.Error())
	}

	return model.Okay("Follow count", count)
}

// ToggleUserFollow flips the follow state of props.User on props.IsFollowing.
// There is no separate follow/unfollow entry point; a second toggle restores
// the original state. The payload is the affected log id.
func (g *GuppyDB) ToggleUserFollow(props model.UserFollow) model.DefaultReturn[string] {
	if props.User == props.IsFollowing {
		return model.Fail[string]("Cannot follow yourself!")
	}

	if existing := g.GetUserByUsername(props.User); !existing.Success {
		return model.Fail[string]("User does not exist!")
	}
	if existing := g.GetUserByUsername(props.IsFollowing); !existing.Success {
		return model.Fail[string]("User (2) does not exist!")
	}

	existing := g.GetFollowByUser(props.User, props.IsFollowing)
	if existing.Success {
		return g.DeleteLog(existing.Payload.ID)
	}

	encoded, err := json.Marshal(props)
	if err != nil {
		return model.Fail[string](err.Error())
	}

	return g.CreateLog(model.LogtypeFollow, string(encoded))
}
