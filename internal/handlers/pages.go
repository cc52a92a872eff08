package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stellularorg/guppy/internal/model"
)

// Renderer turns raw post/about text into sanitized HTML.
type Renderer func(string) string

type profilePage struct {
	Profile     *model.FullUser
	Nickname    string
	AboutHTML   template.HTML
	Followers   int
	Following   int
	IsFollowing bool
	Feed        []model.FullPost
	Viewer      *model.FullUser
	CanManage   bool
}

// ProfileView renders a user's profile with counts, rendered about text and
// the first feed page.
func ProfileView(db Database, session *Session, render Renderer) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("name")

		res := db.GetUserByUsername(name)
		if !res.Success {
			return c.String(http.StatusNotFound, res.Message)
		}
		profile := res.Payload

		var metadata model.UserMetadata
		if err := json.Unmarshal([]byte(profile.User.Metadata), &metadata); err != nil {
			return c.String(http.StatusInternalServerError, "corrupt user metadata record")
		}

		nickname := profile.User.Username
		if metadata.Nickname != nil && *metadata.Nickname != "" {
			nickname = *metadata.Nickname
		}

		page := profilePage{
			Profile:   profile,
			Nickname:  nickname,
			AboutHTML: template.HTML(render(metadata.About)),
		}

		if count := db.GetUserFollowCount(name); count.Success {
			page.Followers = count.Payload
		}
		if count := db.GetUserFollowingCount(name); count.Success {
			page.Following = count.Payload
		}
		if feed := db.GetUserActivity(name, offsetParam(c)); feed.Success {
			page.Feed = feed.Payload
		}

		if viewer := currentUser(c, session, db); viewer != nil {
			page.Viewer = viewer
			page.CanManage = canManageProfile(viewer, profile)
			follow := db.GetFollowByUser(viewer.User.Username, name)
			page.IsFollowing = follow.Success
		}

		return c.Render(http.StatusOK, "profile.html", page)
	}
}

type postPage struct {
	Post      *model.ActivityPost
	HTML      template.HTML
	Replies   []model.ActivityPost
	Favorites int
	Viewer    *model.FullUser
}

// PostView renders a single post with its replies and favorite count.
func PostView(db Database, session *Session) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")

		res := db.GetPostByID(id)
		if !res.Success {
			return c.String(http.StatusNotFound, res.Message)
		}

		page := postPage{
			Post: res.Payload,
			HTML: template.HTML(res.Payload.ContentHTML),
		}

		if replies := db.GetPostReplies(id, false); replies.Success {
			page.Replies = replies.Payload
		}
		if favorites := db.GetPostFavorites(id); favorites.Success {
			page.Favorites = favorites.Payload
		}
		page.Viewer = currentUser(c, session, db)

		return c.Render(http.StatusOK, "post.html", page)
	}
}

type followListPage struct {
	Profile *model.FullUser
	Title   string
	Edges   []model.UserFollow
	Offset  int
}

// FollowersView renders the page listing who follows a user.
func FollowersView(db Database) echo.HandlerFunc {
	return followListView(db, "Followers", func(db Database, name string, offset int) model.DefaultReturn[[]model.Log] {
		return db.GetUserFollowers(name, offset)
	})
}

// FollowingView renders the page listing who a user follows.
func FollowingView(db Database) echo.HandlerFunc {
	return followListView(db, "Following", func(db Database, name string, offset int) model.DefaultReturn[[]model.Log] {
		return db.GetUserFollowing(name, offset)
	})
}

func followListView(db Database, title string, list func(Database, string, int) model.DefaultReturn[[]model.Log]) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("name")

		res := db.GetUserByUsername(name)
		if !res.Success {
			return c.String(http.StatusNotFound, res.Message)
		}

		offset := offsetParam(c)
		page := followListPage{
			Profile: res.Payload,
			Title:   title,
			Offset:  offset,
		}

		logs := list(db, name, offset)
		if logs.Success {
			for _, entry := range logs.Payload {
				var edge model.UserFollow
				if err := json.Unmarshal([]byte(entry.Content), &edge); err != nil {
					continue
				}
				page.Edges = append(page.Edges, edge)
			}
		}

		return c.Render(http.StatusOK, "follows.html", page)
	}
}

// HomeView renders the landing page.
func HomeView(db Database, session *Session) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Render(http.StatusOK, "home.html", map[string]any{
			"Viewer": currentUser(c, session, db),
		})
	}
}
