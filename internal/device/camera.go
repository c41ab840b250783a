package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"avatar-chat/internal/domain"
	"avatar-chat/internal/models"
)

// PromptCamera stands in for a camera by asking for an existing image file
type PromptCamera struct {
	prompter Prompter
}

// NewPromptCamera creates a camera backed by prompter
func NewPromptCamera(prompter Prompter) *PromptCamera {
	return &PromptCamera{prompter: prompter}
}

// CapturePhoto returns a file:// reference to the chosen image. An empty answer
// cancels the capture.
func (c *PromptCamera) CapturePhoto(ctx context.Context) (string, error) {
	answer, err := c.prompter.Prompt(ctx, "image path (empty to cancel): ")
	if errors.Is(err, io.EOF) {
		return "", &domain.CancelledError{Op: "capture"}
	}
	if err != nil {
		return "", deviceError(DeviceCamera, "capture", err)
	}

	path := strings.TrimSpace(answer)
	if path == "" {
		return "", &domain.CancelledError{Op: "capture"}
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", deviceError(DeviceCamera, "capture", err)
	}
	if info.IsDir() {
		return "", deviceError(DeviceCamera, "capture", fmt.Errorf("%s is a directory", path))
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", deviceError(DeviceCamera, "capture", err)
	}
	if !models.IsImage(mtype.String()) {
		return "", deviceError(DeviceCamera, "capture", fmt.Errorf("%s is not an image (%s)", path, mtype.String()))
	}

	uri, err := FileURI(path)
	if err != nil {
		return "", deviceError(DeviceCamera, "capture", err)
	}
	return uri, nil
}
