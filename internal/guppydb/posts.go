package guppydb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/stellularorg/guppy/internal/model"
	"github.com/stellularorg/guppy/internal/utility"
)

const (
	// feedWindow is the page size of a user's top-level feed.
	feedWindow = 50
	// replyCap bounds a post's reply listing.
	replyCap = 100
)

func feedCacheKey(username string, offset int) string {
	return fmt.Sprintf("user-posts:%s:offset%d", username, offset)
}

// GetPostByID fetches a post, cache-first under "post:<id>".
func (g *GuppyDB) GetPostByID(id string) model.DefaultReturn[*model.ActivityPost] {
	if cached, ok := g.cache.Get("post:" + id); ok {
		var post model.ActivityPost
		if err := json.Unmarshal([]byte(cached), &post); err != nil {
			return model.Fail[*model.ActivityPost]("corrupt cached post record: " + err.Error())
		}
		return model.Okay("Post exists (cache)", &post)
	}

	var post model.ActivityPost
	query := g.db.Rebind(`SELECT * FROM "gup_posts" WHERE "id" = ?`)

	if err := g.db.Get(&post, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Fail[*model.ActivityPost]("Post does not exist")
		}
		return model.Fail[*model.ActivityPost](err.Error())
	}

	if encoded, err := json.Marshal(post); err == nil {
		g.cache.Set("post:"+id, string(encoded))
	}

	return model.Okay("Post exists (new)", &post)
}

// GetPostReplies lists a post's replies, newest first, capped at 100 and
// cached under "post-replies:<id>". verifyExists adds a parent existence
// check before the listing.
func (g *GuppyDB) GetPostReplies(id string, verifyExists bool) model.DefaultReturn[[]model.ActivityPost] {
	if verifyExists {
		if existing := g.GetPostByID(id); !existing.Success {
			return model.Fail[[]model.ActivityPost]("Post does not exist")
		}
	}

	if cached, ok := g.cache.Get("post-replies:" + id); ok {
		var replies []model.ActivityPost
		if err := json.Unmarshal([]byte(cached), &replies); err != nil {
			return model.Fail[[]model.ActivityPost]("corrupt cached reply list: " + err.Error())
		}
		return model.Okay("Replies exist (cache)", replies)
	}

	replies := []model.ActivityPost{}
	query := g.db.Rebind(fmt.Sprintf(`SELECT * FROM "gup_posts" WHERE "reply" = ? ORDER BY "timestamp" DESC LIMIT %d`, replyCap))

	if err := g.db.Select(&replies, query, id); err != nil {
		return model.Fail[[]model.ActivityPost](err.Error())
	}

	if encoded, err := json.Marshal(replies); err == nil {
		g.cache.Set("post-replies:"+id, string(encoded))
	}

	return model.Okay("Replies exist (new)", replies)
}

// GetUserActivity returns up to 50 of a user's top-level posts, newest first,
// each joined with its reply list and favorite count. The post page is cached
// per offset; the joined sub-fetches carry their own cache entries.
func (g *GuppyDB) GetUserActivity(username string, offset int) model.DefaultReturn[[]model.FullPost] {
	if offset < 0 {
		offset = 0
	}

	posts, ok := g.cachedFeedPage(username, offset)
	if !ok {
		posts = []model.ActivityPost{}
		query := g.db.Rebind(fmt.Sprintf(`SELECT * FROM "gup_posts" WHERE "author" = ? AND "reply" = ''
			ORDER BY "timestamp" DESC LIMIT %d OFFSET ?`, feedWindow))

		if err := g.db.Select(&posts, query, username, offset); err != nil {
			return model.Fail[[]model.FullPost](err.Error())
		}

		if encoded, err := json.Marshal(posts); err == nil {
			g.cache.Set(feedCacheKey(username, offset), string(encoded))
		}
	}

	feed := make([]model.FullPost, 0, len(posts))
	for _, post := range posts {
		replies := g.GetPostReplies(post.ID, false)
		favorites := g.GetPostFavorites(post.ID)
		feed = append(feed, model.FullPost{
			Post:      post,
			Replies:   replies.Payload,
			Favorites: favorites.Payload,
		})
	}

	return model.Okay("Posts exist", feed)
}

func (g *GuppyDB) cachedFeedPage(username string, offset int) ([]model.ActivityPost, bool) {
	cached, ok := g.cache.Get(feedCacheKey(username, offset))
	if !ok {
		return nil, false
	}

	var posts []model.ActivityPost
	if err := json.Unmarshal([]byte(cached), &posts); err != nil {
		g.cache.Remove(feedCacheKey(username, offset))
		return nil, false
	}
	return posts, true
}

// CreateActivityPost validates and inserts a post. ContentHTML is rendered
// once, here, and persisted. A root post invalidates the author's cached feed
// pages; a reply invalidates the parent's cached reply list.
func (g *GuppyDB) CreateActivityPost(props model.PCreatePost) model.DefaultReturn[*model.ActivityPost] {
	if len(props.Content) < 2 || len(props.Content) > 500 {
		return model.Fail[*model.ActivityPost]("Content is invalid")
	}

	if existing := g.GetUserByUsername(props.Author); !existing.Success {
		return model.Fail[*model.ActivityPost]("User does not exist!")
	}

	if props.Reply != "" {
		if parent := g.GetPostByID(props.Reply); !parent.Success {
			return model.Fail[*model.ActivityPost]("Post does not exist")
		}
	}

	post := model.ActivityPost{
		ID:          utility.RandomID(),
		Author:      props.Author,
		Content:     props.Content,
		ContentHTML: g.render(props.Content),
		Reply:       props.Reply,
		Timestamp:   utility.UnixEpochTimestamp(),
	}

	query := g.db.Rebind(`INSERT INTO "gup_posts" VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := g.db.Exec(query, post.ID, post.Author, post.Content, post.ContentHTML, post.Reply, post.Timestamp)
	if err != nil {
		return model.Fail[*model.ActivityPost](err.Error())
	}

	if post.Reply == "" {
		g.cache.RemovePrefix("user-posts:" + post.Author + ":")
	} else {
		g.cache.Remove("post-replies:" + post.Reply)
	}

	return model.Okay("Post created!", &post)
}

// DeleteActivityPost hard-deletes a post. Permitted for the author or a
// holder of "ManagePosts". Invalidation picks the author feed or the parent
// reply list based on the deleted post's own reply field, never both.
func (g *GuppyDB) DeleteActivityPost(id string, asUser string) model.DefaultReturn[string] {
	existing := g.GetPostByID(id)
	if !existing.Success {
		return model.Fail[string]("Post does not exist")
	}
	post := existing.Payload

	caller := g.GetUserByUsername(asUser)
	if !caller.Success {
		return model.Fail[string]("User does not exist!")
	}

	if post.Author != asUser && !caller.Payload.Level.Can("ManagePosts") {
		return model.Fail[string]("You do not have permission to manage this post")
	}

	query := g.db.Rebind(`DELETE FROM "gup_posts" WHERE "id" = ?`)
	if _, err := g.db.Exec(query, id); err != nil {
		return model.Fail[string](err.Error())
	}

	g.cache.Remove("post:" + id)
	if post.Reply == "" {
		g.cache.RemovePrefix("user-posts:" + post.Author + ":")
	} else {
		g.cache.Remove("post-replies:" + post.Reply)
	}

	return model.Okay("Post deleted!", id)
}

// ToggleUserPostFavorite flips user's favorite on the post. Authors cannot
// favorite their own posts. After the ledger write the cache counter is set
// to a fresh ledger recount, so the counter cannot drift away from the
// ledger across toggles.
func (g *GuppyDB) ToggleUserPostFavorite(user string, postID string) model.DefaultReturn[string] {
	existing := g.GetPostByID(postID)
	if !existing.Success {
		return model.Fail[string]("Post does not exist")
	}

	if existing.Payload.Author == user {
		return model.Fail[string]("You cannot favorite your own post!")
	}

	needle := contains(jsonPairs(model.PostFavorite{User: user, ID: postID}))
	query := g.db.Rebind(`SELECT * FROM "Logs" WHERE "content" LIKE ? ESCAPE '\' AND "logtype" = 'post_favorite'`)

	var favorite model.Log
	err := g.db.Get(&favorite, query, needle)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.Fail[string](err.Error())
	}

	var res model.DefaultReturn[string]
	if err == nil {
		res = g.DeleteLog(favorite.ID)
	} else {
		encoded, merr := json.Marshal(model.PostFavorite{User: user, ID: postID})
		if merr != nil {
			return model.Fail[string](merr.Error())
		}
		res = g.CreateLog(model.LogtypePostFavorite, string(encoded))
	}

	if res.Success {
		g.refreshFavoriteCounter(postID)
	}
	return res
}

// GetPostFavorites reads the cached favorite counter, recounting from the
// ledger on a miss.
func (g *GuppyDB) GetPostFavorites(postID string) model.DefaultReturn[int] {
	if cached, ok := g.cache.Get("social:post-favorites:" + postID); ok {
		count, err := strconv.Atoi(cached)
		if err == nil {
			return model.Okay("Favorite count (cache)", count)
		}
		g.cache.Remove("social:post-favorites:" + postID)
	}

	count, err := g.countPostFavorites(postID)
	if err != nil {
		return model.Fail[int](err.Error())
	}

	g.cache.Set("social:post-favorites:"+postID, strconv.Itoa(count))
	return model.Okay("Favorite count (new)", count)
}

func (g *GuppyDB) countPostFavorites(postID string) (int, error) {
	var count int
	query := g.db.Rebind(`SELECT COUNT(*) FROM "Logs" WHERE "content" LIKE ? ESCAPE '\' AND "logtype" = 'post_favorite'`)

	if err := g.db.Get(&count, query, contains(jsonField("id", postID))); err != nil {
		return 0, fmt.Errorf("counting favorites: %w", err)
	}
	return count, nil
}

func (g *GuppyDB) refreshFavoriteCounter(postID string) {
	count, err := g.countPostFavorites(postID)
	if err != nil {
		// stale counter self-heals on the next cache-miss read
		g.cache.Remove("social:post-favorites:" + postID)
		return
	}
	g.cache.Set("social:post-favorites:"+postID, strconv.Itoa(count))
}
