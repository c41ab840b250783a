package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avatar-chat/internal/domain"
	"avatar-chat/internal/models"
)

type staticLister struct {
	avatars []models.Avatar
	err     error
}

func (l staticLister) ListAvatars() ([]models.Avatar, error) {
	return l.avatars, l.err
}

// sequence returns the given draws in order and fails the test if exhausted
func sequence(t *testing.T, draws ...float64) func() float64 {
	return func() float64 {
		if len(draws) == 0 {
			t.Fatal("unexpected extra draw")
		}
		d := draws[0]
		draws = draws[1:]
		return d
	}
}

var roster = staticLister{avatars: []models.Avatar{
	{ID: "a", Name: "NoPortrait"},
	{ID: "b", Name: "Bea", PortraitRef: "file:///b.jpg"},
	{ID: "c", Name: "Cal", PortraitRef: "file:///c.jpg"},
}}

func TestRandomMatcher_SkipsAvatarsWithoutPortrait(t *testing.T) {
	m := NewRandomMatcher(roster, WithSource(sequence(t, 0.1)))

	got, err := m.Match(context.Background(), "file:///capture.jpg")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "b", got.ID)
}

func TestRandomMatcher_IndependentDrawsInListOrder(t *testing.T) {
	m := NewRandomMatcher(roster, WithSource(sequence(t, 0.9, 0.2)))

	got, err := m.Match(context.Background(), "file:///capture.jpg")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "c", got.ID)
}

func TestRandomMatcher_NoMatch(t *testing.T) {
	m := NewRandomMatcher(roster, WithSource(sequence(t, 0.7, 0.7)))

	got, err := m.Match(context.Background(), "file:///capture.jpg")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRandomMatcher_RateBounds(t *testing.T) {
	always := NewRandomMatcher(roster, WithRate(2))
	got, err := always.Match(context.Background(), "file:///capture.jpg")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "b", got.ID)

	never := NewRandomMatcher(roster, WithRate(-1))
	got, err = never.Match(context.Background(), "file:///capture.jpg")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRandomMatcher_SeedIsReproducible(t *testing.T) {
	var first, second []string
	for range 20 {
		a, _ := NewRandomMatcher(roster, WithSeed(42)).Match(context.Background(), "x")
		b, _ := NewRandomMatcher(roster, WithSeed(42)).Match(context.Background(), "x")
		first = append(first, idOf(a))
		second = append(second, idOf(b))
	}
	assert.Equal(t, first, second)
}

func TestRandomMatcher_EmptyImageRef(t *testing.T) {
	m := NewRandomMatcher(roster)

	_, err := m.Match(context.Background(), " ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRandomMatcher_ListerError(t *testing.T) {
	m := NewRandomMatcher(staticLister{err: errors.New("boom")})

	_, err := m.Match(context.Background(), "file:///capture.jpg")
	assert.EqualError(t, err, "boom")
}

func TestNoMatch(t *testing.T) {
	got, err := NoMatch{}.Match(context.Background(), "file:///capture.jpg")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func idOf(a *models.Avatar) string {
	if a == nil {
		return ""
	}
	return a.ID
}
