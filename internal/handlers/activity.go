package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stellularorg/guppy/internal/model"
)

type createPostInfo struct {
	Content string `json:"content"`
	Reply   string `json:"reply"`
}

// CreatePost publishes a post (or reply) authored by the caller.
func CreatePost(db Database, session *Session) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller := currentUser(c, session, db)
		if caller == nil {
			return requireAccount(c)
		}

		info := &createPostInfo{}
		if err := c.Bind(info); err != nil {
			return err
		}

		res := db.CreateActivityPost(model.PCreatePost{
			Author:  caller.User.Username,
			Content: info.Content,
			Reply:   info.Reply,
		})
		return c.JSON(http.StatusOK, res)
	}
}

// DeletePost removes a post; permission is resolved against the caller
// inside the store (author or a manager level).
func DeletePost(db Database, session *Session) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller := currentUser(c, session, db)
		if caller == nil {
			return requireAccount(c)
		}

		res := db.DeleteActivityPost(c.Param("id"), caller.User.Username)
		return c.JSON(http.StatusOK, res)
	}
}

// Favorite toggles the caller's favorite on a post.
func Favorite(db Database, session *Session) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller := currentUser(c, session, db)
		if caller == nil {
			return requireAccount(c)
		}

		res := db.ToggleUserPostFavorite(caller.User.Username, c.Param("id"))
		return c.JSON(http.StatusOK, res)
	}
}

func PostReplies(db Database) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, db.GetPostReplies(c.Param("id"), true))
	}
}

func PostFavorites(db Database) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, db.GetPostFavorites(c.Param("id")))
	}
}

func UserActivity(db Database) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, db.GetUserActivity(c.Param("name"), offsetParam(c)))
	}
}
