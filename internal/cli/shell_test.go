package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func runCLI(t *testing.T, input string, args ...string) string {
	t.Helper()

	t.Setenv("RECORDINGS_DIR", t.TempDir())
	cmd := NewRootCmd("test")
	cmd.SetArgs(append([]string{"--settings", t.TempDir()}, args...))
	cmd.SetIn(strings.NewReader(input))
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)

	require.NoError(t, cmd.Execute())
	return stdout.String()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out := runCLI(t, "", "version")
	assert.Equal(t, "avatarchat test\n", out)
}

func TestShell_ConversationLifecycle(t *testing.T) {
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			script := strings.Join([]string{
				`/new Ada "A mathematician"`,
				`hi`,
				`/list`,
				`/export`,
				`/stats`,
				`/delete`,
				`/stats`,
				`/quit`,
			}, "\n") + "\n"

			out := runCLI(t, script, "shell", "--backend", backend)

			assert.Contains(t, out, "Created Ada")
			assert.Contains(t, out, `I received your message: "hi"`)
			assert.Contains(t, out, "A mathematician")
			assert.Contains(t, out, "name: Ada")
			assert.Contains(t, out, "sender: avatar")
			assert.Contains(t, out, "1 avatars, 1 threads")
			assert.Contains(t, out, "Conversation closed")
			assert.Contains(t, out, "0 avatars, 0 threads")
		})
	}
}

func TestShell_DefaultCommandIsShell(t *testing.T) {
	out := runCLI(t, "/stats\n")
	assert.Contains(t, out, "0 avatars, 0 threads")
}

func TestShell_SendWithoutOpenAvatar(t *testing.T) {
	out := runCLI(t, "hello\n/thread\n")
	assert.Contains(t, out, "error: no avatar is open")
}

func TestShell_UnknownCommand(t *testing.T) {
	out := runCLI(t, "/dance\n")
	assert.Contains(t, out, "unknown command /dance")
}

func TestShell_Upload(t *testing.T) {
	dir := t.TempDir()
	img := writeFile(t, dir, "p.png", pngHeader)
	doc := writeFile(t, dir, "d.pdf", []byte("%PDF-1.4\n"))

	script := "/new Ada\n/upload\n" + img + " " + doc + "\n/upload\n\n/list\n"
	out := runCLI(t, script)

	assert.Contains(t, out, "Uploaded 2 file(s): p.png, d.pdf")
	assert.Contains(t, out, "Upload cancelled")
}

func TestShell_OpenByPosition(t *testing.T) {
	out := runCLI(t, "/new Ada\n/new Bob\n/open 1\nhello\n/open 9\n")

	assert.Contains(t, out, "Ada (0 messages)")
	assert.Contains(t, out, "Hello! I'm Ada.")
	assert.Contains(t, out, "no avatar at position 9")
}

func TestShell_Recording(t *testing.T) {
	out := runCLI(t, "/new Ada\n/record\n/record\n/stop\n")

	assert.Contains(t, out, "Recording...")
	assert.Contains(t, out, "Already recording")
	assert.Contains(t, out, "[Voice Message]")
	assert.Contains(t, out, "I received your voice message! As Ada")
}

func TestShell_CaptureDenied(t *testing.T) {
	t.Setenv("CAMERA_PERMISSION", "denied")

	out := runCLI(t, "/capture\n/new Ada\nstill here\n")

	assert.Contains(t, out, "camera capture failed: permission denied")
	assert.Contains(t, out, `I received your message: "still here"`)
}

func TestShell_CaptureCreatesThenRecognizes(t *testing.T) {
	t.Setenv("CAMERA_PERMISSION", "granted")
	t.Setenv("MATCH_RATE", "1")
	img := writeFile(t, t.TempDir(), "face.png", pngHeader)

	script := "/capture\n" + img + "\nBea\n/close\n/capture\n" + img + "\n"
	out := runCLI(t, script)

	assert.Contains(t, out, "Created Bea from photo")
	assert.Contains(t, out, "Recognized Bea")
}
