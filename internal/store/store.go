// Package store holds avatars, their attached files and one message thread per
// avatar. Every backend guarantees that a thread exists exactly for the live
// avatars, and that a failed operation leaves the previous state untouched.
package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"avatar-chat/internal/models"
)

// Store is the single source of truth for avatars, attachments and threads.
// Mutations are serialized; reads return snapshots the caller may modify.
type Store interface {
	CreateAvatar(name, description, portraitRef string) (*models.Avatar, error)
	DeleteAvatar(id string) error
	AttachFiles(avatarID string, files []models.FileDescriptor) (*AttachResult, error)
	AppendMessage(avatarID string, msg models.Message) ([]models.Message, error)
	GetAvatar(id string) (*models.Avatar, error)
	ListAvatars() ([]models.Avatar, error)
	GetThread(avatarID string) ([]models.Message, error)
	Stats() (Stats, error)
}

// AttachResult is the outcome of a single AttachFiles batch
type AttachResult struct {
	// Documents and Images hold the ingested batch, partitioned, in input order
	Documents []models.FileRef
	Images    []models.FileRef

	// Avatar is the avatar after the batch was appended
	Avatar *models.Avatar
}

// Files returns the batch in partition order, documents first
func (r *AttachResult) Files() []models.FileRef {
	files := make([]models.FileRef, 0, len(r.Documents)+len(r.Images))
	files = append(files, r.Documents...)
	return append(files, r.Images...)
}

// Stats counts the records a store holds
type Stats struct {
	Avatars int `json:"avatars"`
	Threads int `json:"threads"`
}

// Options carries the collaborators shared by every backend
type Options struct {
	Now    func() time.Time
	NewID  func() string
	Logger zerolog.Logger
}

// Option configures a store backend
type Option func(*Options)

// WithClock sets the time source for CreatedAt, UploadedAt and message timestamps
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}

// WithIDGenerator replaces the UUID allocator. The generator must never repeat.
func WithIDGenerator(newID func() string) Option {
	return func(o *Options) {
		o.NewID = newID
	}
}

// WithLogger sets the logger used for operation logs
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// ApplyOptions resolves opts over the defaults
func ApplyOptions(opts ...Option) Options {
	o := Options{
		Now:    func() time.Time { return time.Now().UTC() },
		NewID:  uuid.NewString,
		Logger: log.Logger,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
