package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stellularorg/guppy/internal/boot"
	"github.com/stellularorg/guppy/internal/model"
)

type registerInfo struct {
	Username   string `json:"username"`
	InviteCode string `json:"invite_code"`
}

type loginInfo struct {
	UID string `json:"uid"`
}

// Register creates an account and signs the caller in. The unhashed secret
// rides back in the payload; it is never shown again.
func Register(db Database, session *Session, config *boot.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		if config.RegistrationDisabled {
			return c.String(http.StatusNotAcceptable, "This server has registration disabled.")
		}

		info := &registerInfo{}
		if err := c.Bind(info); err != nil {
			return err
		}

		if !config.InviteCodeValid(info.InviteCode) {
			return c.String(http.StatusNotAcceptable, "Invalid invite code.")
		}

		res := db.CreateUser(strings.TrimSpace(info.Username))
		if res.Success {
			if err := session.setSessionCookie(c, res.Payload.UnhashedSecret); err != nil {
				return err
			}
		}

		return c.JSON(http.StatusOK, res)
	}
}

// Login authenticates by the primary account secret.
func Login(db Database, session *Session) echo.HandlerFunc {
	return func(c echo.Context) error {
		info := &loginInfo{}
		if err := c.Bind(info); err != nil {
			return err
		}

		uid := strings.TrimSpace(info.UID)
		res := db.GetUserByUnhashed(uid)
		if !res.Success {
			return c.JSON(http.StatusNotAcceptable, res)
		}

		if err := session.setSessionCookie(c, uid); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, model.Okay("Logged in!", res.Payload.User.Username))
	}
}

// LoginSecondaryToken authenticates by a secondary token. Independent of the
// primary path on purpose.
func LoginSecondaryToken(db Database, session *Session) echo.HandlerFunc {
	return func(c echo.Context) error {
		info := &loginInfo{}
		if err := c.Bind(info); err != nil {
			return err
		}

		uid := strings.TrimSpace(info.UID)
		res := db.GetUserBySecondaryToken(uid)
		if !res.Success {
			return c.JSON(http.StatusNotAcceptable, res)
		}

		if err := session.setSessionCookie(c, uid); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, model.Okay("Logged in!", res.Payload.User.Username))
	}
}

func Logout(db Database, session *Session) echo.HandlerFunc {
	return func(c echo.Context) error {
		if user := currentUser(c, session, db); user == nil {
			return c.String(http.StatusNotAcceptable, "Invalid token")
		}

		clearSessionCookie(c)
		return c.String(http.StatusOK, "You have been signed out. You can now close this tab.")
	}
}

// Whoami returns the caller's username, or an empty body when signed out.
func Whoami(db Database, session *Session) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := currentUser(c, session, db)
		if user == nil {
			return c.String(http.StatusOK, "")
		}
		return c.String(http.StatusOK, user.User.Username)
	}
}
