package store

import (
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"avatar-chat/internal/domain"
	"avatar-chat/internal/models"
)

// Memory is the map-backed Store. A single writer lock serializes mutations;
// reads share a read lock and hand out copies.
type Memory struct {
	mu      sync.RWMutex
	order   []string
	avatars map[string]*models.Avatar
	threads map[string][]models.Message
	opts    Options
	log     zerolog.Logger
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store
func NewMemory(opts ...Option) *Memory {
	o := ApplyOptions(opts...)
	return &Memory{
		avatars: make(map[string]*models.Avatar),
		threads: make(map[string][]models.Message),
		opts:    o,
		log:     o.Logger.With().Str("component", "store").Str("backend", "memory").Logger(),
	}
}

// WithLock executes fn with exclusive write access
func (m *Memory) WithLock(fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn()
}

// withLockResult executes fn with exclusive write access and returns its result
func withLockResult[T any](m *Memory, fn func() (T, error)) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn()
}

// withReadLock executes fn with shared read access
func withReadLock[T any](m *Memory, fn func() (T, error)) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn()
}

// CreateAvatar adds a new avatar together with its empty thread
func (m *Memory) CreateAvatar(name, description, portraitRef string) (*models.Avatar, error) {
	avatar, err := m.opts.NewAvatar(name, description, portraitRef)
	if err != nil {
		m.log.Debug().Err(err).Str("op", "CreateAvatar").Msg("rejected")
		return nil, err
	}

	return withLockResult(m, func() (*models.Avatar, error) {
		stored := avatar.Clone()
		m.avatars[avatar.ID] = &stored
		m.threads[avatar.ID] = []models.Message{}
		m.order = append(m.order, avatar.ID)

		m.log.Debug().Str("op", "CreateAvatar").Str("avatar_id", avatar.ID).Str("name", avatar.Name).Msg("completed")
		return &avatar, nil
	})
}

// DeleteAvatar removes an avatar, its files and its thread. Unknown IDs are a no-op.
func (m *Memory) DeleteAvatar(id string) error {
	return m.WithLock(func() error {
		if _, ok := m.avatars[id]; !ok {
			m.log.Debug().Str("op", "DeleteAvatar").Str("avatar_id", id).Msg("no such avatar, nothing to delete")
			return nil
		}

		delete(m.avatars, id)
		delete(m.threads, id)
		if i := slices.Index(m.order, id); i >= 0 {
			m.order = slices.Delete(m.order, i, i+1)
		}

		m.log.Debug().Str("op", "DeleteAvatar").Str("avatar_id", id).Msg("completed")
		return nil
	})
}

// AttachFiles ingests a picked batch into the avatar's documents and images
func (m *Memory) AttachFiles(avatarID string, files []models.FileDescriptor) (*AttachResult, error) {
	documents, images, err := m.opts.NewFileRefs(files)
	if err != nil {
		return nil, err
	}

	return withLockResult(m, func() (*AttachResult, error) {
		avatar, ok := m.avatars[avatarID]
		if !ok {
			return nil, domain.AvatarNotFound(avatarID)
		}

		avatar.Documents = append(avatar.Documents, documents...)
		avatar.Images = append(avatar.Images, images...)

		updated := avatar.Clone()
		m.log.Debug().Str("op", "AttachFiles").Str("avatar_id", avatarID).
			Int("documents", len(documents)).Int("images", len(images)).Msg("completed")

		return &AttachResult{
			Documents: documents,
			Images:    images,
			Avatar:    &updated,
		}, nil
	})
}

// AppendMessage adds msg to the end of the avatar's thread
func (m *Memory) AppendMessage(avatarID string, msg models.Message) ([]models.Message, error) {
	msg, err := m.opts.NewMessage(msg)
	if err != nil {
		return nil, err
	}

	return withLockResult(m, func() ([]models.Message, error) {
		thread, ok := m.threads[avatarID]
		if !ok {
			return nil, domain.AvatarNotFound(avatarID)
		}

		thread = append(thread, msg)
		m.threads[avatarID] = thread

		m.log.Debug().Str("op", "AppendMessage").Str("avatar_id", avatarID).
			Str("message_id", msg.ID).Str("sender", string(msg.Sender)).Int("length", len(thread)).Msg("completed")
		return slices.Clone(thread), nil
	})
}

// GetAvatar retrieves an avatar by ID
func (m *Memory) GetAvatar(id string) (*models.Avatar, error) {
	return withReadLock(m, func() (*models.Avatar, error) {
		avatar, ok := m.avatars[id]
		if !ok {
			return nil, domain.AvatarNotFound(id)
		}
		clone := avatar.Clone()
		return &clone, nil
	})
}

// ListAvatars retrieves all avatars in creation order
func (m *Memory) ListAvatars() ([]models.Avatar, error) {
	return withReadLock(m, func() ([]models.Avatar, error) {
		avatars := make([]models.Avatar, 0, len(m.order))
		for _, id := range m.order {
			avatars = append(avatars, m.avatars[id].Clone())
		}
		return avatars, nil
	})
}

// GetThread retrieves the avatar's messages in insertion order
func (m *Memory) GetThread(avatarID string) ([]models.Message, error) {
	return withReadLock(m, func() ([]models.Message, error) {
		thread, ok := m.threads[avatarID]
		if !ok {
			return nil, domain.AvatarNotFound(avatarID)
		}
		return slices.Clone(thread), nil
	})
}

// Stats counts avatars and threads
func (m *Memory) Stats() (Stats, error) {
	return withReadLock(m, func() (Stats, error) {
		return Stats{Avatars: len(m.avatars), Threads: len(m.threads)}, nil
	})
}
