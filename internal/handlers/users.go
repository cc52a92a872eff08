package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stellularorg/guppy/internal/model"
	"github.com/stellularorg/guppy/internal/utility"
)

type updateAboutInfo struct {
	About string `json:"about"`
}

// canManageProfile: the caller edits their own profile, or holds
// "ManageUsers".
func canManageProfile(caller *model.FullUser, profile *model.FullUser) bool {
	return caller.User.Username == profile.User.Username || caller.Level.Can("ManageUsers")
}

// EditAbout updates only the about text of a profile's metadata.
func EditAbout(db Database, session *Session) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("name")

		caller := currentUser(c, session, db)
		if caller == nil {
			return requireAccount(c)
		}

		profile := db.GetUserByUsername(name)
		if !profile.Success {
			return c.JSON(http.StatusNotFound, model.Fail[string]("Profile does not exist!"))
		}

		if !canManageProfile(caller, profile.Payload) {
			return c.String(http.StatusNotFound, "You do not have permission to manage this user's contents.")
		}

		info := &updateAboutInfo{}
		if err := c.Bind(info); err != nil {
			return err
		}
		if len(info.About) < 2 || len(info.About) > 200_000 {
			return c.JSON(http.StatusOK, model.Fail[string]("Content is invalid"))
		}

		var metadata model.UserMetadata
		if err := json.Unmarshal([]byte(profile.Payload.User.Metadata), &metadata); err != nil {
			return c.JSON(http.StatusOK, model.Fail[string]("corrupt user metadata record: "+err.Error()))
		}
		metadata.About = info.About

		return c.JSON(http.StatusOK, db.EditUserMetadata(name, metadata))
	}
}

// UpdateMetadata replaces the profile's full metadata blob.
func UpdateMetadata(db Database, session *Session) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("name")

		caller := currentUser(c, session, db)
		if caller == nil {
			return requireAccount(c)
		}

		profile := db.GetUserByUsername(name)
		if !profile.Success {
			return c.JSON(http.StatusNotFound, model.Fail[string]("Profile does not exist!"))
		}

		if !canManageProfile(caller, profile.Payload) {
			return c.String(http.StatusNotFound, "You do not have permission to manage this user's contents.")
		}

		metadata := &model.UserMetadata{}
		if err := c.Bind(metadata); err != nil {
			return err
		}

		return c.JSON(http.StatusOK, db.EditUserMetadata(name, *metadata))
	}
}

// RefreshSecondaryToken mints a new secondary token, stores its hash in the
// profile metadata and returns the unhashed token once.
func RefreshSecondaryToken(db Database, session *Session) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("name")

		caller := currentUser(c, session, db)
		if caller == nil {
			return requireAccount(c)
		}

		profile := db.GetUserByUsername(name)
		if !profile.Success {
			return c.JSON(http.StatusNotFound, model.Fail[string]("Profile does not exist!"))
		}

		if !canManageProfile(caller, profile.Payload) {
			return c.String(http.StatusNotFound, "You do not have permission to manage this user's contents.")
		}

		var metadata model.UserMetadata
		if err := json.Unmarshal([]byte(profile.Payload.User.Metadata), &metadata); err != nil {
			return c.JSON(http.StatusOK, model.Fail[string]("corrupt user metadata record: "+err.Error()))
		}

		token := utility.UUID()
		hashed := utility.Hash(token)
		metadata.SecondaryToken = &hashed

		res := db.EditUserMetadata(name, metadata)
		return c.JSON(http.StatusOK, model.DefaultReturn[string]{
			Success: res.Success,
			Message: res.Message,
			Payload: token,
		})
	}
}

// Follow toggles the caller's follow on the named user.
func Follow(db Database, session *Session) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller := currentUser(c, session, db)
		if caller == nil {
			return requireAccount(c)
		}

		res := db.ToggleUserFollow(model.UserFollow{
			User:        caller.User.Username,
			IsFollowing: c.Param("name"),
		})
		return c.JSON(http.StatusOK, res)
	}
}

func Followers(db Database) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, db.GetUserFollowers(c.Param("name"), offsetParam(c)))
	}
}

func Following(db Database) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, db.GetUserFollowing(c.Param("name"), offsetParam(c)))
	}
}

// Ban is staff-only: the caller must hold "ManageUsers".
func Ban(db Database, session *Session) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller := currentUser(c, session, db)
		if caller == nil {
			return requireAccount(c)
		}

		if !caller.Level.Can("ManageUsers") {
			return c.String(http.StatusNotAcceptable, "Only staff can do this")
		}

		return c.JSON(http.StatusOK, db.BanUser(c.Param("name")))
	}
}

// Level returns the named user's resolved role level, or an anonymous
// sentinel level when the user does not resolve.
func Level(db Database) echo.HandlerFunc {
	return func(c echo.Context) error {
		res := db.GetUserByUsername(c.Param("name"))
		if !res.Success {
			return c.JSON(http.StatusOK, model.RoleLevel{
				Elevation: -1000,
				Name:      "anonymous",
			})
		}
		return c.JSON(http.StatusOK, res.Payload.Level)
	}
}
