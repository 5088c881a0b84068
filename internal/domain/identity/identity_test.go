package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	g := Guest("tok")
	assert.True(t, g.IsGuest())
	assert.False(t, g.IsUser())
	assert.Equal(t, "tok", g.GuestToken())
	require.NoError(t, g.Validate())

	u := User(9)
	assert.True(t, u.IsUser())
	assert.Equal(t, uint(9), u.UserID())
	assert.Equal(t, "user:9", u.String())
	require.NoError(t, u.Validate())

	assert.ErrorIs(t, Identity{}.Validate(), ErrNoIdentity)
	assert.ErrorIs(t, Guest("").Validate(), ErrNoIdentity)
	assert.ErrorIs(t, User(0).Validate(), ErrNoIdentity)
}

func TestNewGuestToken(t *testing.T) {
	a, b := NewGuestToken(), NewGuestToken()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}
