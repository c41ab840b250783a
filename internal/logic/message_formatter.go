package logic

import (
	"fmt"
	"strings"
)

// FormatTextReply formats the templated reply to a typed user message.
// The counts are the avatar's attachments at the time of the reply.
func FormatTextReply(avatarName, content string, documents, images int) string {
	return fmt.Sprintf(
		"Hello! I'm %s. I received your message: %q. I have access to %d documents and %d images to help answer your questions.",
		avatarName, content, documents, images,
	)
}

// FormatVoiceReply formats the templated reply to a voice message
func FormatVoiceReply(avatarName string, documents, images int) string {
	return fmt.Sprintf(
		"I received your voice message! As %s, I would process your audio and respond accordingly. I have %d documents and %d images in my knowledge base.",
		avatarName, documents, images,
	)
}

// FormatUploadSummary formats the system notice appended after an upload batch
// Format:
//
//	Uploaded {count} file(s): {name1}, {name2}
func FormatUploadSummary(fileNames []string) string {
	return fmt.Sprintf("Uploaded %d file(s): %s", len(fileNames), strings.Join(fileNames, ", "))
}
