// Package handlers is the thin HTTP dispatch layer. Handlers parse request
// input, resolve the caller through the session cookie, invoke one store
// operation and serialize its tagged result.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/stellularorg/guppy/internal/model"
)

// Database is what handlers need from the data-access core.
type Database interface {
	CreateUser(username string) model.DefaultReturn[*model.UserCredentials]
	GetUserByUsername(username string) model.DefaultReturn[*model.FullUser]
	GetUserByUnhashed(unhashed string) model.DefaultReturn[*model.FullUser]
	GetUserBySecondaryToken(unhashed string) model.DefaultReturn[*model.FullUser]
	GetUserByAnyToken(unhashed string) model.DefaultReturn[*model.FullUser]
	EditUserMetadata(name string, metadata model.UserMetadata) model.DefaultReturn[string]
	BanUser(name string) model.DefaultReturn[string]

	GetFollowByUser(user string, isFollowing string) model.DefaultReturn[*model.Log]
	ToggleUserFollow(props model.UserFollow) model.DefaultReturn[string]
	GetUserFollowers(user string, offset int) model.DefaultReturn[[]model.Log]
	GetUserFollowing(user string, offset int) model.DefaultReturn[[]model.Log]
	GetUserFollowCount(user string) model.DefaultReturn[int]
	GetUserFollowingCount(user string) model.DefaultReturn[int]

	CreateActivityPost(props model.PCreatePost) model.DefaultReturn[*model.ActivityPost]
	DeleteActivityPost(id string, asUser string) model.DefaultReturn[string]
	ToggleUserPostFavorite(user string, postID string) model.DefaultReturn[string]
	GetPostByID(id string) model.DefaultReturn[*model.ActivityPost]
	GetPostReplies(id string, verifyExists bool) model.DefaultReturn[[]model.ActivityPost]
	GetPostFavorites(postID string) model.DefaultReturn[int]
	GetUserActivity(username string, offset int) model.DefaultReturn[[]model.FullPost]

	CreateMailStream(user1 string, user2 string) model.DefaultReturn[*model.Board]
	GetUserMailStreams(user string, offset int) model.DefaultReturn[[]model.UserMailStream]
}

// offsetParam reads the optional ?offset= query value, defaulting to 0.
func offsetParam(c echo.Context) int {
	raw := c.QueryParam("offset")
	if raw == "" {
		return 0
	}
	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// currentUser resolves the caller from the session cookie. Returns nil when
// unauthenticated.
func currentUser(c echo.Context, session *Session, db Database) *model.FullUser {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}

	secret, err := session.Parse(cookie.Value)
	if err != nil {
		return nil
	}

	res := db.GetUserByAnyToken(secret)
	if !res.Success {
		return nil
	}
	return res.Payload
}

func requireAccount(c echo.Context) error {
	return c.String(http.StatusNotAcceptable, "An account is required to do this")
}
