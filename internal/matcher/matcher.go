// Package matcher decides whether a captured image shows a known avatar.
package matcher

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"avatar-chat/internal/domain"
	"avatar-chat/internal/models"
)

// DefaultRate is the chance that a single portrait is reported as a match
const DefaultRate = 0.5

// PersonMatcher maps a captured image to an existing avatar. A nil avatar with
// a nil error means no match, and the caller should offer to create one.
type PersonMatcher interface {
	Match(ctx context.Context, imageRef string) (*models.Avatar, error)
}

// AvatarLister is the read-only view of the store a matcher needs
type AvatarLister interface {
	ListAvatars() ([]models.Avatar, error)
}

// NoMatch never recognizes anyone
type NoMatch struct{}

// Match always reports no match
func (NoMatch) Match(ctx context.Context, imageRef string) (*models.Avatar, error) {
	return nil, ctx.Err()
}

// RandomMatcher stands in for face recognition. It walks the avatars that have
// a portrait in list order and returns the first one whose draw succeeds.
type RandomMatcher struct {
	avatars AvatarLister
	rate    float64

	mu   sync.Mutex
	draw func() float64

	log zerolog.Logger
}

// Option configures a RandomMatcher
type Option func(*RandomMatcher)

// WithRate sets the per-portrait match probability, clamped to [0, 1]
func WithRate(rate float64) Option {
	return func(m *RandomMatcher) {
		m.rate = min(max(rate, 0), 1)
	}
}

// WithSeed makes the draws reproducible. Zero keeps a time-based seed.
func WithSeed(seed uint64) Option {
	return func(m *RandomMatcher) {
		if seed != 0 {
			m.draw = rand.New(rand.NewPCG(seed, seed)).Float64
		}
	}
}

// WithSource replaces the random source. draw must return values in [0, 1).
func WithSource(draw func() float64) Option {
	return func(m *RandomMatcher) {
		m.draw = draw
	}
}

// NewRandomMatcher creates a random matcher over the avatars lister returns
func NewRandomMatcher(avatars AvatarLister, opts ...Option) *RandomMatcher {
	seed := uint64(time.Now().UnixNano())
	m := &RandomMatcher{
		avatars: avatars,
		rate:    DefaultRate,
		draw:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)).Float64,
		log:     log.Logger.With().Str("component", "matcher").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match draws once per avatar with a portrait until one succeeds
func (m *RandomMatcher) Match(ctx context.Context, imageRef string) (*models.Avatar, error) {
	if strings.TrimSpace(imageRef) == "" {
		return nil, domain.NewValidationError("image reference is required", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	avatars, err := m.avatars.ListAvatars()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	candidates := 0
	for i := range avatars {
		if !avatars[i].HasPortrait() {
			continue
		}
		candidates++
		if m.draw() < m.rate {
			m.log.Debug().Str("image_ref", imageRef).Str("avatar_id", avatars[i].ID).Msg("matched")
			return &avatars[i], nil
		}
	}

	m.log.Debug().Str("image_ref", imageRef).Int("candidates", candidates).Msg("no match")
	return nil, nil
}
