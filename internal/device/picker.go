package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/kballard/go-shellquote"

	"avatar-chat/internal/domain"
	"avatar-chat/internal/models"
)

// PathPicker turns local paths into file descriptors, sniffing each file's type
// from its content
type PathPicker struct{}

// Resolve describes every path. One unreadable path fails the whole batch.
func (PathPicker) Resolve(paths []string) ([]models.FileDescriptor, error) {
	files := make([]models.FileDescriptor, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, deviceError(DevicePicker, "pick", err)
		}
		if info.IsDir() {
			return nil, deviceError(DevicePicker, "pick", fmt.Errorf("%s is a directory", path))
		}

		mtype, err := mimetype.DetectFile(path)
		if err != nil {
			return nil, deviceError(DevicePicker, "pick", err)
		}

		uri, err := FileURI(path)
		if err != nil {
			return nil, deviceError(DevicePicker, "pick", err)
		}

		files = append(files, models.FileDescriptor{
			Name:       filepath.Base(path),
			MimeType:   baseMediaType(mtype.String()),
			SizeBytes:  info.Size(),
			ContentRef: uri,
		})
	}
	return files, nil
}

// baseMediaType drops parameters such as "; charset=utf-8"
func baseMediaType(s string) string {
	base, _, _ := strings.Cut(s, ";")
	return strings.TrimSpace(base)
}

// PromptPicker asks for a line of paths. Paths are split like a shell would,
// so quoted names with spaces work. An empty line cancels.
type PromptPicker struct {
	prompter Prompter
	paths    PathPicker
}

// NewPromptPicker creates a picker backed by prompter
func NewPromptPicker(prompter Prompter) *PromptPicker {
	return &PromptPicker{prompter: prompter}
}

// PickFiles returns the chosen files or a CancelledError
func (p *PromptPicker) PickFiles(ctx context.Context) ([]models.FileDescriptor, error) {
	answer, err := p.prompter.Prompt(ctx, "files (empty to cancel): ")
	if errors.Is(err, io.EOF) {
		return nil, &domain.CancelledError{Op: "file picker"}
	}
	if err != nil {
		return nil, deviceError(DevicePicker, "pick", err)
	}

	paths, err := shellquote.Split(answer)
	if err != nil {
		return nil, deviceError(DevicePicker, "pick", err)
	}
	if len(paths) == 0 {
		return nil, &domain.CancelledError{Op: "file picker"}
	}

	return p.paths.Resolve(paths)
}
