package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"avatar-chat/internal/models"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	nameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	avatarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135"))
)

func renderAvatars(w io.Writer, avatars []models.Avatar, activeID string) {
	if len(avatars) == 0 {
		fmt.Fprintln(w, noticeStyle.Render("No avatars yet. Create one with /new <name>."))
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Avatars (%d)", len(avatars))))
	for i, a := range avatars {
		marker := " "
		if a.ID == activeID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %2d. %s %s  %s docs  %s images\n",
			marker,
			i+1,
			nameStyle.Render(a.Name),
			idStyle.Render(a.ID),
			countStyle.Render(fmt.Sprint(len(a.Documents))),
			countStyle.Render(fmt.Sprint(len(a.Images))),
		)
		if a.Description != "" {
			fmt.Fprintf(w, "      %s\n", a.Description)
		}
	}
}

func renderMessage(w io.Writer, avatarName string, msg models.Message) {
	ts := msg.Timestamp.Local().Format("15:04")
	switch msg.Sender {
	case models.SenderTypeUser:
		content := msg.Content
		if msg.IsVoice && msg.AudioRef != "" {
			content = fmt.Sprintf("%s %s", content, idStyle.Render(msg.AudioRef))
		}
		fmt.Fprintf(w, "[%s] %s %s\n", ts, userStyle.Render("you:"), content)
	case models.SenderTypeAvatar:
		fmt.Fprintf(w, "[%s] %s %s\n", ts, avatarStyle.Render(avatarName+":"), msg.Content)
	default:
		fmt.Fprintf(w, "[%s] %s\n", ts, systemStyle.Render(msg.Content))
	}
}

func renderThread(w io.Writer, avatar *models.Avatar, thread []models.Message) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s (%d messages)", avatar.Name, len(thread))))
	if len(thread) == 0 {
		fmt.Fprintln(w, noticeStyle.Render("No messages yet. Type to say hello."))
		return
	}
	for _, msg := range thread {
		renderMessage(w, avatar.Name, msg)
	}
}

func renderError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("error: "+err.Error()))
}

func renderNotice(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, noticeStyle.Render(fmt.Sprintf(format, args...)))
}

const helpText = `Commands:
  /list                     list avatars
  /new <name> [description] create an avatar and open it
  /open <number|id>         open an avatar
  /close                    close the open avatar
  /delete [number|id]       delete an avatar (the open one by default)
  /thread                   show the open avatar's thread
  /upload                   attach files to the open avatar
  /record                   start a voice message
  /stop                     stop recording and send the voice message
  /capture                  take a photo and look for a matching avatar
  /export                   print the open avatar and thread as YAML
  /stats                    show store counts
  /help                     show this help
  /quit                     leave the shell
Anything else is sent as a message to the open avatar.`

func renderHelp(w io.Writer) {
	fmt.Fprintln(w, strings.TrimSpace(helpText))
}
