package logic

import (
	"context"
	"strings"
	"testing"

	"avatar-chat/internal/models"
)

func TestTemplateResponder_TextReply(t *testing.T) {
	avatar := models.Avatar{
		Name:      "Ada",
		Documents: []models.FileRef{{ID: "d1"}},
		Images:    []models.FileRef{{ID: "i1"}, {ID: "i2"}},
	}
	msg := models.Message{Content: "hi", Sender: models.SenderTypeUser}

	reply, err := NewTemplateResponder().GenerateReply(context.Background(), avatar, msg)
	if err != nil {
		t.Fatalf("GenerateReply failed: %v", err)
	}

	if reply.Sender != models.SenderTypeAvatar {
		t.Errorf("Expected sender %q, got %q", models.SenderTypeAvatar, reply.Sender)
	}
	for _, want := range []string{"Ada", `"hi"`, "1 documents", "2 images"} {
		if !strings.Contains(reply.Content, want) {
			t.Errorf("Expected reply to contain %q, got %q", want, reply.Content)
		}
	}
	if reply.IsVoice {
		t.Error("Reply should not be a voice message")
	}
}

func TestTemplateResponder_VoiceReply(t *testing.T) {
	avatar := models.Avatar{Name: "Ada"}
	msg := models.Message{
		Content: models.VoiceMessageContent,
		Sender:  models.SenderTypeUser,
		IsVoice: true,
	}

	reply, err := NewTemplateResponder().GenerateReply(context.Background(), avatar, msg)
	if err != nil {
		t.Fatalf("GenerateReply failed: %v", err)
	}

	expected := FormatVoiceReply("Ada", 0, 0)
	if reply.Content != expected {
		t.Errorf("Expected %q, got %q", expected, reply.Content)
	}
}

func TestTemplateResponder_TracksLiveCounts(t *testing.T) {
	responder := NewTemplateResponder()
	msg := models.Message{Content: "again", Sender: models.SenderTypeUser}

	avatar := models.Avatar{Name: "Ada"}
	before, _ := responder.GenerateReply(context.Background(), avatar, msg)

	avatar.Documents = append(avatar.Documents, models.FileRef{ID: "d1"})
	after, _ := responder.GenerateReply(context.Background(), avatar, msg)

	if before.Content == after.Content {
		t.Errorf("Expected reply to change with attachment counts, got %q twice", before.Content)
	}
}

func TestTemplateResponder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTemplateResponder().GenerateReply(ctx, models.Avatar{Name: "Ada"}, models.Message{Content: "hi"})
	if err == nil {
		t.Error("Expected error for cancelled context")
	}
}
