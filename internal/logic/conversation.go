package logic

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"avatar-chat/internal/domain"
	"avatar-chat/internal/models"
	"avatar-chat/internal/store"
)

// MessagePublisher receives every message the conversation appends
type MessagePublisher interface {
	BroadcastMessage(avatarID string, message any)
}

// Conversation applies the chat policy on top of a store: every user message
// gets exactly one avatar reply, every upload batch one system notice.
type Conversation struct {
	store     store.Store
	responder Responder
	publisher MessagePublisher
	log       zerolog.Logger
}

// NewConversation creates a conversation service. publisher may be nil.
func NewConversation(st store.Store, responder Responder, publisher MessagePublisher) *Conversation {
	if responder == nil {
		responder = NewTemplateResponder()
	}
	return &Conversation{
		store:     st,
		responder: responder,
		publisher: publisher,
		log:       log.Logger.With().Str("component", "conversation").Logger(),
	}
}

// SendMessage appends a typed user message and the avatar's reply, returning
// the updated thread
func (c *Conversation) SendMessage(ctx context.Context, avatarID, text string) ([]models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.NewValidationError("message must not be empty", nil)
	}

	return c.exchange(ctx, avatarID, models.Message{
		Content: text,
		Sender:  models.SenderTypeUser,
	})
}

// SendVoiceMessage appends a recorded clip as a voice message and the avatar's
// reply, returning the updated thread
func (c *Conversation) SendVoiceMessage(ctx context.Context, avatarID, audioRef string) ([]models.Message, error) {
	if strings.TrimSpace(audioRef) == "" {
		return nil, domain.NewValidationError("voice message requires an audio reference", nil)
	}

	return c.exchange(ctx, avatarID, models.Message{
		Content:  models.VoiceMessageContent,
		Sender:   models.SenderTypeUser,
		IsVoice:  true,
		AudioRef: audioRef,
	})
}

// exchange appends the user message, then one reply generated from the
// avatar's state after the append
func (c *Conversation) exchange(ctx context.Context, avatarID string, userMessage models.Message) ([]models.Message, error) {
	c.log.Debug().Str("op", "SendMessage").Str("avatar_id", avatarID).Bool("voice", userMessage.IsVoice).Msg("started")

	thread, err := c.store.AppendMessage(avatarID, userMessage)
	if err != nil {
		return nil, err
	}
	userMessage = thread[len(thread)-1]
	c.publish(avatarID, userMessage)

	avatar, err := c.store.GetAvatar(avatarID)
	if err != nil {
		return nil, err
	}

	reply, err := c.responder.GenerateReply(ctx, *avatar, userMessage)
	if err != nil {
		c.log.Error().Err(err).Str("op", "SendMessage").Str("avatar_id", avatarID).Msg("reply generation failed")
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}
	reply.Sender = models.SenderTypeAvatar

	thread, err = c.store.AppendMessage(avatarID, reply)
	if err != nil {
		return nil, err
	}
	c.publish(avatarID, thread[len(thread)-1])

	c.log.Debug().Str("op", "SendMessage").Str("avatar_id", avatarID).Int("length", len(thread)).Msg("completed")
	return thread, nil
}

// UploadFiles attaches a picked batch and appends one system message naming
// the files. An empty batch changes nothing.
func (c *Conversation) UploadFiles(ctx context.Context, avatarID string, files []models.FileDescriptor) (*store.AttachResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(files) == 0 {
		avatar, err := c.store.GetAvatar(avatarID)
		if err != nil {
			return nil, err
		}
		return &store.AttachResult{Documents: []models.FileRef{}, Images: []models.FileRef{}, Avatar: avatar}, nil
	}

	c.log.Debug().Str("op", "UploadFiles").Str("avatar_id", avatarID).Int("count", len(files)).Msg("started")

	result, err := c.store.AttachFiles(avatarID, files)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}

	thread, err := c.store.AppendMessage(avatarID, models.Message{
		Content: FormatUploadSummary(names),
		Sender:  models.SenderTypeSystem,
	})
	if err != nil {
		return nil, err
	}
	c.publish(avatarID, thread[len(thread)-1])

	c.log.Debug().Str("op", "UploadFiles").Str("avatar_id", avatarID).
		Int("documents", len(result.Documents)).Int("images", len(result.Images)).Msg("completed")
	return result, nil
}

func (c *Conversation) publish(avatarID string, msg models.Message) {
	if c.publisher != nil {
		c.publisher.BroadcastMessage(avatarID, msg)
	}
}
