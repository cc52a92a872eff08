package guppydb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"

	"github.com/stellularorg/guppy/internal/model"
	"github.com/stellularorg/guppy/internal/utility"
)

var usernameRegex = regexp.MustCompile(`^[\w\.\-\!]+$`)

// GetUserByHashed fetches a user by their hashed ID. Banned accounts resolve
// as a failure everywhere; the row still exists but no lookup returns it.
func (g *GuppyDB) GetUserByHashed(hashed string) model.DefaultReturn[*model.FullUser] {
	var state model.UserState
	query := g.db.Rebind(`SELECT * FROM "Users" WHERE "id_hashed" = ?`)

	if err := g.db.Get(&state, query, hashed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Fail[*model.FullUser]("User does not exist")
		}
		return model.Fail[*model.FullUser](err.Error())
	}

	return g.fullUser(state, "User exists")
}

// GetUserByUnhashed hashes the primary account secret and looks it up. This
// path is strict: a secondary token does not resolve here. Callers that want
// the convenience cascade use GetUserByAnyToken.
func (g *GuppyDB) GetUserByUnhashed(unhashed string) model.DefaultReturn[*model.FullUser] {
	return g.GetUserByHashed(utility.Hash(unhashed))
}

// GetUserBySecondaryToken hashes the token and pattern-matches it inside the
// serialized metadata blob.
func (g *GuppyDB) GetUserBySecondaryToken(unhashed string) model.DefaultReturn[*model.FullUser] {
	var state model.UserState
	query := g.db.Rebind(`SELECT * FROM "Users" WHERE "metadata" LIKE ? ESCAPE '\'`)
	needle := contains(jsonField("secondary_token", utility.Hash(unhashed)))

	if err := g.db.Get(&state, query, needle); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Fail[*model.FullUser]("User does not exist")
		}
		return model.Fail[*model.FullUser](err.Error())
	}

	return g.fullUser(state, "User exists")
}

// GetUserByAnyToken resolves a bearer secret by the primary path first, then
// retries it as a secondary token. The cascade is opt-in; the two underlying
// lookups stay independently callable.
func (g *GuppyDB) GetUserByAnyToken(unhashed string) model.DefaultReturn[*model.FullUser] {
	res := g.GetUserByUnhashed(unhashed)
	if !res.Success {
		return g.GetUserBySecondaryToken(unhashed)
	}
	return res
}

// GetUserByUsername is cache-first: a hit skips the relational store, a miss
// populates the cache shadow copy.
func (g *GuppyDB) GetUserByUsername(username string) model.DefaultReturn[*model.FullUser] {
	if cached, ok := g.cache.Get("user:" + username); ok {
		var state model.UserState
		if err := json.Unmarshal([]byte(cached), &state); err != nil {
			return model.Fail[*model.FullUser]("corrupt cached user record: " + err.Error())
		}
		return g.fullUser(state, "User exists (cache)")
	}

	var state model.UserState
	query := g.db.Rebind(`SELECT * FROM "Users" WHERE "username" = ?`)

	if err := g.db.Get(&state, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Fail[*model.FullUser]("User does not exist")
		}
		return model.Fail[*model.FullUser](err.Error())
	}

	res := g.fullUser(state, "User exists (new)")
	if res.Success {
		if encoded, err := json.Marshal(state); err == nil {
			// best-effort; a failed populate only costs a refetch
			g.cache.Set("user:"+username, string(encoded))
		}
	}
	return res
}

// fullUser applies banned-account suppression and joins the role level.
func (g *GuppyDB) fullUser(state model.UserState, message string) model.DefaultReturn[*model.FullUser] {
	if state.Role == model.RoleBanned {
		// act like the account simply does not exist
		return model.Fail[*model.FullUser]("User is banned")
	}

	level := g.GetLevelByRole(state.Role)
	if !level.Success {
		return model.Fail[*model.FullUser](level.Message)
	}

	return model.Okay(message, &model.FullUser{User: state, Level: level.Payload.Level})
}

// GetLevelByRole resolves a role name to its permission bundle, cached under
// "level:<name>". An undefined role falls back to the member level at
// elevation 0 with no permissions.
func (g *GuppyDB) GetLevelByRole(name string) model.DefaultReturn[model.RoleLevelLog] {
	if cached, ok := g.cache.Get("level:" + name); ok {
		var level model.RoleLevelLog
		if err := json.Unmarshal([]byte(cached), &level); err != nil {
			return model.Fail[model.RoleLevelLog]("corrupt cached level record: " + err.Error())
		}
		return model.Okay("Level exists (cache)", level)
	}

	var row model.Log
	query := g.db.Rebind(`SELECT * FROM "Logs" WHERE "logtype" = 'level' AND "content" LIKE ? ESCAPE '\'`)

	err := g.db.Get(&row, query, contains(jsonField("name", name)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Okay("Level does not exist, using default", model.RoleLevelLog{
				Level: model.RoleLevel{Name: model.RoleMember, Elevation: 0},
			})
		}
		return model.Fail[model.RoleLevelLog](err.Error())
	}

	var level model.RoleLevel
	if err := json.Unmarshal([]byte(row.Content), &level); err != nil {
		return model.Fail[model.RoleLevelLog]("corrupt level record: " + err.Error())
	}

	log := model.RoleLevelLog{ID: row.ID, Level: level}
	if encoded, err := json.Marshal(log); err == nil {
		g.cache.Set("level:"+name, string(encoded))
	}

	return model.Okay("Level exists (new)", log)
}

// CreateUser registers an account. The payload carries both the fresh
// unhashed secret (returned exactly once, never persisted) and its hash.
func (g *GuppyDB) CreateUser(username string) model.DefaultReturn[*model.UserCredentials] {
	existing := g.GetUserByUsername(username)
	if existing.Success {
		return model.Fail[*model.UserCredentials]("User already exists!")
	}

	if !usernameRegex.MatchString(username) {
		return model.Fail[*model.UserCredentials]("Username is invalid")
	}
	if len(username) < 2 || len(username) > 500 {
		return model.Fail[*model.UserCredentials]("Username is invalid")
	}

	unhashed := utility.UUID()
	hashed := utility.Hash(unhashed)
	nickname := username
	allowMail := "yes"

	metadata, err := json.Marshal(model.UserMetadata{
		AllowMail: &allowMail,
		Nickname:  &nickname,
	})
	if err != nil {
		return model.Fail[*model.UserCredentials](err.Error())
	}

	query := g.db.Rebind(`INSERT INTO "Users" VALUES (?, ?, ?, ?, ?)`)
	_, err = g.db.Exec(query, username, hashed, model.RoleMember, utility.UnixEpochTimestamp(), string(metadata))
	if err != nil {
		if isUniqueViolation(err) {
			// a concurrent registration won the race
			return model.Fail[*model.UserCredentials]("User already exists!")
		}
		return model.Fail[*model.UserCredentials](err.Error())
	}

	return model.Okay("User created!", &model.UserCredentials{
		UnhashedSecret: unhashed,
		HashedID:       hashed,
	})
}

// EditUserMetadata writes the new metadata through to the store, then patches
// the cached shadow in place so readers do not need a refetch. A concurrent
// reader can still observe the store post-write and the cache pre-patch for a
// bounded window; profile data tolerates that.
func (g *GuppyDB) EditUserMetadata(name string, metadata model.UserMetadata) model.DefaultReturn[string] {
	existing := g.GetUserByUsername(name)
	if !existing.Success {
		return model.Fail[string]("User does not exist!")
	}

	encoded, err := json.Marshal(metadata)
	if err != nil {
		return model.Fail[string](err.Error())
	}

	query := g.db.Rebind(`UPDATE "Users" SET "metadata" = ? WHERE "username" = ?`)
	if _, err := g.db.Exec(query, string(encoded), name); err != nil {
		return model.Fail[string](err.Error())
	}

	g.patchCachedUser(name, func(state *model.UserState) {
		state.Metadata = string(encoded)
	})

	return model.Okay("User updated!", name)
}

// BanUser forces the role to "banned". Elevation-0 accounts are refused: the
// ban floor targets only elevated or flagged accounts, never ordinary
// members. There is no unban.
func (g *GuppyDB) BanUser(name string) model.DefaultReturn[string] {
	existing := g.GetUserByUsername(name)
	if !existing.Success {
		return model.Fail[string]("User does not exist!")
	}

	if existing.Payload.Level.Elevation == 0 {
		return model.Fail[string]("Cannot ban a user of level elevation 0")
	}

	query := g.db.Rebind(`UPDATE "Users" SET "role" = ? WHERE "username" = ?`)
	if _, err := g.db.Exec(query, model.RoleBanned, name); err != nil {
		return model.Fail[string](err.Error())
	}

	g.patchCachedUser(name, func(state *model.UserState) {
		state.Role = model.RoleBanned
	})

	return model.Okay("User banned!", name)
}

// patchCachedUser applies a partial update to the cached shadow copy, if one
// exists. A shadow that no longer parses is dropped instead of patched.
func (g *GuppyDB) patchCachedUser(name string, patch func(*model.UserState)) {
	cached, ok := g.cache.Get("user:" + name)
	if !ok {
		return
	}

	var state model.UserState
	if err := json.Unmarshal([]byte(cached), &state); err != nil {
		g.cache.Remove("user:" + name)
		return
	}

	patch(&state)
	if encoded, err := json.Marshal(state); err == nil {
		g.cache.Update("user:"+name, string(encoded))
	}
}
