package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type createMailStreamInfo struct {
	User string `json:"user"`
}

// CreateMailStream opens (or returns) the mail stream between the caller
// and another user.
func CreateMailStream(db Database, session *Session) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller := currentUser(c, session, db)
		if caller == nil {
			return requireAccount(c)
		}

		info := &createMailStreamInfo{}
		if err := c.Bind(info); err != nil {
			return err
		}

		res := db.CreateMailStream(caller.User.Username, info.User)
		return c.JSON(http.StatusOK, res)
	}
}

// MailStreams lists the caller's mail streams.
func MailStreams(db Database, session *Session) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller := currentUser(c, session, db)
		if caller == nil {
			return requireAccount(c)
		}

		res := db.GetUserMailStreams(caller.User.Username, offsetParam(c))
		return c.JSON(http.StatusOK, res)
	}
}
