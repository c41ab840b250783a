package models

import (
	"strings"
	"time"
)

// Avatar represents a named persona with attached files and its own chat thread
type Avatar struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	PortraitRef string    `json:"portrait_ref,omitempty" yaml:"portrait_ref,omitempty"`
	Documents   []FileRef `json:"documents" yaml:"documents"`
	Images      []FileRef `json:"images" yaml:"images"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Clone returns a deep copy so callers can't alias the attachment slices
func (a Avatar) Clone() Avatar {
	a.Documents = append([]FileRef{}, a.Documents...)
	a.Images = append([]FileRef{}, a.Images...)
	return a
}

// HasPortrait reports whether the avatar was created from a captured image
func (a Avatar) HasPortrait() bool {
	return a.PortraitRef != ""
}

// FileRef is the metadata of an uploaded file, classified as document or image
type FileRef struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	MimeType   string    `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
	SizeBytes  int64     `json:"size_bytes" yaml:"size_bytes"`
	ContentRef string    `json:"content_ref" yaml:"content_ref"`
	UploadedAt time.Time `json:"uploaded_at" yaml:"uploaded_at"`
}

// FileDescriptor is a picked file that has not been ingested yet
type FileDescriptor struct {
	Name       string
	MimeType   string
	SizeBytes  int64
	ContentRef string
}

// IsImage classifies a MIME type. Missing or unknown types are documents.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// SenderType defines who sent the message
type SenderType string

const (
	SenderTypeUser   SenderType = "user"
	SenderTypeAvatar SenderType = "avatar"
	SenderTypeSystem SenderType = "system"
)

// Valid reports whether s is one of the known sender types
func (s SenderType) Valid() bool {
	switch s {
	case SenderTypeUser, SenderTypeAvatar, SenderTypeSystem:
		return true
	}
	return false
}

// VoiceMessageContent is the placeholder text of a recorded voice message
const VoiceMessageContent = "[Voice Message]"

// Message represents a single message in an avatar's thread
type Message struct {
	ID        string     `json:"id" yaml:"id"`
	Content   string     `json:"content" yaml:"content"`
	Sender    SenderType `json:"sender" yaml:"sender"`
	Timestamp time.Time  `json:"timestamp" yaml:"timestamp"`
	IsVoice   bool       `json:"is_voice,omitempty" yaml:"is_voice,omitempty"`
	AudioRef  string     `json:"audio_ref,omitempty" yaml:"audio_ref,omitempty"`
}
