package guppydb

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stellularorg/guppy/internal/model"
)

func TestCreateMailStream(t *testing.T) {
	assert := assert.New(t)
	g := newTestDB(t, "mailstream")

	g.CreateUser("sender")
	g.CreateUser("recipient")

	var name string

	t.Run("Unknown recipient", func(t *testing.T) {
		res := g.CreateMailStream("sender", "nobody")
		assert.False(res.Success)
		assert.Equal("User does not exist!", res.Message)
	})

	t.Run("Create", func(t *testing.T) {
		res := g.CreateMailStream("sender", "recipient")
		assert.True(res.Success)
		assert.Equal("Mail stream created!", res.Message)
		assert.True(strings.HasPrefix(res.Payload.Name, "inbox-"))
		name = res.Payload.Name
	})

	t.Run("Idempotent", func(t *testing.T) {
		res := g.CreateMailStream("sender", "recipient")
		assert.True(res.Success)
		assert.Equal("Mail stream exists", res.Message)
		assert.Equal(name, res.Payload.Name)
	})

	t.Run("Order insensitive", func(t *testing.T) {
		res := g.CreateMailStream("recipient", "sender")
		assert.True(res.Success)
		assert.Equal("Mail stream exists", res.Message)
		assert.Equal(name, res.Payload.Name)
	})

	t.Run("Listing names the other participant", func(t *testing.T) {
		res := g.GetUserMailStreams("sender", 0)
		assert.True(res.Success)
		assert.Len(res.Payload, 1)
		assert.Equal(name, res.Payload[0].Name)
		assert.Equal("recipient", res.Payload[0].User)

		res = g.GetUserMailStreams("recipient", 0)
		assert.True(res.Success)
		assert.Len(res.Payload, 1)
		assert.Equal("sender", res.Payload[0].User)
	})

	t.Run("Outsider sees nothing", func(t *testing.T) {
		g.CreateUser("outsider")
		res := g.GetUserMailStreams("outsider", 0)
		assert.True(res.Success)
		assert.Empty(res.Payload)
	})
}

func TestMailStreamAllowMail(t *testing.T) {
	assert := assert.New(t)
	g := newTestDB(t, "allowmail")

	g.CreateUser("sender")
	g.CreateUser("hermit")

	no := "no"
	res := g.EditUserMetadata("hermit", model.UserMetadata{AllowMail: &no})
	assert.True(res.Success)

	t.Run("Refused recipient", func(t *testing.T) {
		res := g.CreateMailStream("sender", "hermit")
		assert.False(res.Success)
		assert.Equal("User does not allow mail!", res.Message)
	})

	t.Run("The refuser can still initiate", func(t *testing.T) {
		res := g.CreateMailStream("hermit", "sender")
		assert.True(res.Success)
		assert.Equal("Mail stream created!", res.Message)
	})
}
