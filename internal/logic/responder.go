package logic

import (
	"context"

	"avatar-chat/internal/models"
)

// Responder synthesizes the avatar's reply to a user message
type Responder interface {
	GenerateReply(ctx context.Context, avatar models.Avatar, userMessage models.Message) (models.Message, error)
}

// TemplateResponder answers with a fixed template. The reply depends only on the
// avatar's current state and the message, so it is deterministic.
type TemplateResponder struct{}

// NewTemplateResponder creates the default responder
func NewTemplateResponder() *TemplateResponder {
	return &TemplateResponder{}
}

// GenerateReply builds an avatar message embedding the avatar name and the live
// document and image counts
func (r *TemplateResponder) GenerateReply(ctx context.Context, avatar models.Avatar, userMessage models.Message) (models.Message, error) {
	if err := ctx.Err(); err != nil {
		return models.Message{}, err
	}

	var content string
	if userMessage.IsVoice {
		content = FormatVoiceReply(avatar.Name, len(avatar.Documents), len(avatar.Images))
	} else {
		content = FormatTextReply(avatar.Name, userMessage.Content, len(avatar.Documents), len(avatar.Images))
	}

	return models.Message{
		Content: content,
		Sender:  models.SenderTypeAvatar,
	}, nil
}
