package device

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avatar-chat/internal/domain"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func prompter(input string) *LinePrompter {
	return NewLinePrompter(bufio.NewReader(strings.NewReader(input)), io.Discard)
}

func TestLinePrompter(t *testing.T) {
	p := prompter("first\r\nsecond")

	got, err := p.Prompt(context.Background(), "> ")
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	got, err = p.Prompt(context.Background(), "> ")
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	_, err = p.Prompt(context.Background(), "> ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestPathPicker_Resolve(t *testing.T) {
	dir := t.TempDir()
	img := writeFile(t, dir, "p.png", pngHeader)
	doc := writeFile(t, dir, "d.pdf", []byte("%PDF-1.4\n"))
	txt := writeFile(t, dir, "notes.txt", []byte("hello"))

	files, err := PathPicker{}.Resolve([]string{img, doc, txt})
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "p.png", files[0].Name)
	assert.Equal(t, "image/png", files[0].MimeType)
	assert.Equal(t, int64(len(pngHeader)), files[0].SizeBytes)
	assert.True(t, strings.HasPrefix(files[0].ContentRef, "file://"))

	assert.Equal(t, "application/pdf", files[1].MimeType)
	assert.Equal(t, "text/plain", files[2].MimeType)
}

func TestPathPicker_MissingFile(t *testing.T) {
	_, err := PathPicker{}.Resolve([]string{filepath.Join(t.TempDir(), "missing.txt")})
	assert.ErrorIs(t, err, domain.ErrDevice)
}

func TestPromptPicker_QuotedPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "my notes.txt", []byte("hello"))
	writeFile(t, dir, "p.png", pngHeader)

	line := "'" + filepath.Join(dir, "my notes.txt") + "' " + filepath.Join(dir, "p.png") + "\n"
	files, err := NewPromptPicker(prompter(line)).PickFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "my notes.txt", files[0].Name)
	assert.Equal(t, "p.png", files[1].Name)
}

func TestPromptPicker_Cancel(t *testing.T) {
	for name, input := range map[string]string{"empty line": "\n", "blank line": "   \n", "eof": ""} {
		t.Run(name, func(t *testing.T) {
			_, err := NewPromptPicker(prompter(input)).PickFiles(context.Background())
			assert.True(t, domain.IsCancelled(err), "expected cancellation, got %v", err)
		})
	}
}

func TestPromptCamera(t *testing.T) {
	dir := t.TempDir()
	img := writeFile(t, dir, "face.png", pngHeader)
	txt := writeFile(t, dir, "face.txt", []byte("not an image"))

	uri, err := NewPromptCamera(prompter(img + "\n")).CapturePhoto(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(uri, "/face.png"), uri)

	_, err = NewPromptCamera(prompter(txt + "\n")).CapturePhoto(context.Background())
	assert.ErrorIs(t, err, domain.ErrDevice)

	_, err = NewPromptCamera(prompter("\n")).CapturePhoto(context.Background())
	assert.True(t, domain.IsCancelled(err))
}

func TestTempRecorder(t *testing.T) {
	rec := NewTempRecorder(t.TempDir())
	ctx := context.Background()

	_, err := rec.StopRecording(ctx)
	assert.ErrorIs(t, err, domain.ErrDevice, "stop without start")

	require.NoError(t, rec.StartRecording(ctx))
	assert.True(t, rec.Recording())
	assert.ErrorIs(t, rec.StartRecording(ctx), domain.ErrDevice, "overlapping start")

	first, err := rec.StopRecording(ctx)
	require.NoError(t, err)
	assert.False(t, rec.Recording())

	require.NoError(t, rec.StartRecording(ctx))
	second, err := rec.StopRecording(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestStaticPermissions(t *testing.T) {
	status, err := StaticPermissions{Camera: PermissionGranted}.RequestCameraPermission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, status)

	status, err = StaticPermissions{}.RequestCameraPermission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PermissionDenied, status)
}

func TestParsePermissionStatus(t *testing.T) {
	got, err := ParsePermissionStatus(" Granted ")
	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, got)

	_, err = ParsePermissionStatus("maybe")
	assert.Error(t, err)
}
