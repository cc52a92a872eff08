package utility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	assert := assert.New(t)

	t.Run("Deterministic", func(t *testing.T) {
		assert.Equal(Hash("secret"), Hash("secret"))
	})

	t.Run("Distinct inputs", func(t *testing.T) {
		assert.NotEqual(Hash("secret"), Hash("secret2"))
	})

	t.Run("Hex digest", func(t *testing.T) {
		assert.Len(Hash("anything"), 64)
		assert.Regexp("^[0-9a-f]+$", Hash("anything"))
	})
}

func TestRandomID(t *testing.T) {
	assert := assert.New(t)

	a := RandomID()
	b := RandomID()
	assert.NotEmpty(a)
	assert.NotEqual(a, b)
}

func TestUnixEpochTimestamp(t *testing.T) {
	assert := assert.New(t)

	before := time.Now().UTC().UnixMilli()
	got := UnixEpochTimestamp()
	after := time.Now().UTC().UnixMilli()

	assert.GreaterOrEqual(got, before)
	assert.LessOrEqual(got, after)
}
