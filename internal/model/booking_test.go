package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	all := []BookingStatus{StatusPending, StatusConfirmed, StatusCancelled}
	legal := map[[2]BookingStatus]bool{
		{StatusPending, StatusConfirmed}:   true,
		{StatusPending, StatusCancelled}:   true,
		{StatusConfirmed, StatusCancelled}: true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, legal[[2]BookingStatus{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestSourcesFor(t *testing.T) {
	assert.Equal(t, []BookingStatus{StatusPending, StatusConfirmed}, SourcesFor(StatusCancelled))
	assert.Equal(t, []BookingStatus{StatusPending}, SourcesFor(StatusConfirmed))
	assert.Empty(t, SourcesFor(StatusPending))
}

func TestParseBookingStatus(t *testing.T) {
	st, err := ParseBookingStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, st)

	_, err = ParseBookingStatus("CONFIRMED")
	assert.Error(t, err)
	_, err = ParseBookingStatus("")
	assert.Error(t, err)
}

func TestIsActive(t *testing.T) {
	assert.True(t, StatusPending.IsActive())
	assert.True(t, StatusConfirmed.IsActive())
	assert.False(t, StatusCancelled.IsActive())
}

func TestIdentityCan(t *testing.T) {
	admin := Identity{ID: 1, Role: RoleAdmin}
	user := Identity{ID: 2, Role: RoleUser}

	assert.True(t, admin.Can(RoleAdmin))
	assert.True(t, user.Can(RoleUser, RoleAdmin))
	assert.False(t, user.Can(RoleAdmin))
	assert.False(t, user.Can())
	assert.False(t, Identity{}.Can(""))
}

func TestUserPublicOmitsHash(t *testing.T) {
	u := User{ID: 7, Name: "Ana", Email: "ana@x.io", PasswordHash: "secret", Role: RoleUser}
	p := u.Public()
	assert.Equal(t, PublicUser{ID: 7, Name: "Ana", Email: "ana@x.io", Role: RoleUser}, p)
}

func TestNormalizeTime(t *testing.T) {
	cases := map[string]string{
		"19:00":    "19:00",
		"7:00 PM":  "19:00",
		"7:00PM":   "19:00",
		"12:30 am": "00:30",
		" 09:15 ":  "09:15",
	}
	for in, want := range cases {
		got, ok := NormalizeTime(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"25:00", "19:60", "7 PM", "", "noon"} {
		_, ok := NormalizeTime(bad)
		assert.False(t, ok, bad)
	}
}
