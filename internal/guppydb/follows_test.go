package guppydb

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stellularorg/guppy/internal/model"
)

func TestToggleUserFollow(t *testing.T) {
	assert := assert.New(t)
	g := newTestDB(t, "togglefollow")

	g.CreateUser("alice")
	g.CreateUser("bob")

	t.Run("Self follow refused", func(t *testing.T) {
		res := g.ToggleUserFollow(model.UserFollow{User: "alice", IsFollowing: "alice"})
		assert.False(res.Success)
		assert.Equal("Cannot follow yourself!", res.Message)
	})

	t.Run("Both sides must exist", func(t *testing.T) {
		res := g.ToggleUserFollow(model.UserFollow{User: "nobody", IsFollowing: "bob"})
		assert.False(res.Success)
		assert.Equal("User does not exist!", res.Message)

		res = g.ToggleUserFollow(model.UserFollow{User: "alice", IsFollowing: "nobody"})
		assert.False(res.Success)
		assert.Equal("User (2) does not exist!", res.Message)
	})

	t.Run("Follow", func(t *testing.T) {
		res := g.ToggleUserFollow(model.UserFollow{User: "alice", IsFollowing: "bob"})
		assert.True(res.Success)

		edge := g.GetFollowByUser("alice", "bob")
		assert.True(edge.Success)
		assert.Equal("Follow exists", edge.Message)

		// directional: the reverse edge does not exist
		reverse := g.GetFollowByUser("bob", "alice")
		assert.False(reverse.Success)
	})

	t.Run("Counts", func(t *testing.T) {
		followers := g.GetUserFollowCount("bob")
		assert.True(followers.Success)
		assert.Equal(1, followers.Payload)

		following := g.GetUserFollowingCount("alice")
		assert.True(following.Success)
		assert.Equal(1, following.Payload)

		assert.Equal(0, g.GetUserFollowCount("alice").Payload)
		assert.Equal(0, g.GetUserFollowingCount("bob").Payload)
	})

	t.Run("Unfollow", func(t *testing.T) {
		res := g.ToggleUserFollow(model.UserFollow{User: "alice", IsFollowing: "bob"})
		assert.True(res.Success)

		edge := g.GetFollowByUser("alice", "bob")
		assert.False(edge.Success)
		assert.Equal("Follow does not exist", edge.Message)

		assert.Equal(0, g.GetUserFollowCount("bob").Payload)
	})

	t.Run("Toggle restores", func(t *testing.T) {
		res := g.ToggleUserFollow(model.UserFollow{User: "alice", IsFollowing: "bob"})
		assert.True(res.Success)
		assert.Equal(1, g.GetUserFollowCount("bob").Payload)
	})
}

func TestFollowPagination(t *testing.T) {
	assert := assert.New(t)
	g := newTestDB(t, "followpages")

	g.CreateUser("magnet")
	for i := 0; i < 60; i++ {
		name := fmt.Sprintf("fan%02d", i)
		created := g.CreateUser(name)
		assert.True(created.Success, name)
		res := g.ToggleUserFollow(model.UserFollow{User: name, IsFollowing: "magnet"})
		assert.True(res.Success, name)
	}

	t.Run("Count sees every edge", func(t *testing.T) {
		res := g.GetUserFollowCount("magnet")
		assert.True(res.Success)
		assert.Equal(60, res.Payload)
	})

	t.Run("First page is windowed", func(t *testing.T) {
		res := g.GetUserFollowers("magnet", 0)
		assert.True(res.Success)
		assert.Len(res.Payload, 50)
	})

	t.Run("Second page holds the rest", func(t *testing.T) {
		res := g.GetUserFollowers("magnet", 50)
		assert.True(res.Success)
		assert.Len(res.Payload, 10)
	})

	t.Run("Past the end is empty", func(t *testing.T) {
		res := g.GetUserFollowers("magnet", 100)
		assert.True(res.Success)
		assert.Empty(res.Payload)
	})
}
