package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"

	"avatar-chat/internal/app"
	"avatar-chat/internal/device"
	"avatar-chat/internal/domain"
	"avatar-chat/internal/events"
	"avatar-chat/internal/models"
)

// Shell is the interactive view over an App. Lines starting with "/" are
// commands, anything else is a message to the open avatar.
type Shell struct {
	app      *app.App
	prompter device.Prompter
	out      io.Writer

	// subscription to the open avatar's topic, drained after every command
	subID string
	sub   <-chan events.Event
	unsub func()
}

// NewShell creates a shell. prompter must read from the same input as any
// device prompting the user.
func NewShell(a *app.App, prompter device.Prompter, out io.Writer) *Shell {
	return &Shell{app: a, prompter: prompter, out: out}
}

// Run reads lines until /quit or end of input
func (s *Shell) Run(ctx context.Context) error {
	defer s.follow("")

	renderNotice(s.out, "Type /help for commands.")
	for {
		line, err := s.prompter.Prompt(ctx, s.promptLabel())
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		quit, err := s.handle(ctx, line)
		if err != nil {
			renderError(s.out, err)
		}
		s.drain()
		s.follow(s.app.ActiveID())

		if quit {
			return nil
		}
	}
}

func (s *Shell) promptLabel() string {
	active, err := s.app.Active()
	if err != nil || active == nil {
		return "> "
	}
	return active.Name + "> "
}

func (s *Shell) handle(ctx context.Context, line string) (bool, error) {
	if !strings.HasPrefix(line, "/") {
		_, err := s.app.Send(ctx, line)
		return false, err
	}

	args, err := shellquote.Split(line[1:])
	if err != nil {
		return false, domain.NewValidationError("could not parse command", err)
	}
	if len(args) == 0 {
		renderHelp(s.out)
		return false, nil
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "help", "h":
		renderHelp(s.out)
	case "quit", "exit", "q":
		return true, nil
	case "list", "ls":
		return false, s.list()
	case "new":
		return false, s.create(rest)
	case "open":
		return false, s.open(rest)
	case "close":
		s.app.Close()
	case "delete", "rm":
		return false, s.delete(rest)
	case "thread":
		return false, s.thread()
	case "upload":
		return false, s.upload(ctx)
	case "record":
		return false, s.record(ctx)
	case "stop":
		_, err := s.app.StopRecording(ctx)
		return false, err
	case "capture":
		return false, s.capture(ctx)
	case "export":
		return false, s.export()
	case "stats":
		return false, s.stats()
	default:
		return false, domain.NewValidationError(fmt.Sprintf("unknown command /%s, try /help", cmd), nil)
	}
	return false, nil
}

func (s *Shell) list() error {
	avatars, err := s.app.Avatars()
	if err != nil {
		return err
	}
	renderAvatars(s.out, avatars, s.app.ActiveID())
	return nil
}

func (s *Shell) create(args []string) error {
	if len(args) == 0 {
		return domain.NewValidationError("usage: /new <name> [description]", nil)
	}
	avatar, err := s.app.CreateAvatar(args[0], strings.Join(args[1:], " "), "")
	if err != nil {
		return err
	}
	renderNotice(s.out, "Created %s (%s)", avatar.Name, avatar.ID)
	return nil
}

func (s *Shell) open(args []string) error {
	if len(args) != 1 {
		return domain.NewValidationError("usage: /open <number|id>", nil)
	}
	id, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	if _, err := s.app.Open(id); err != nil {
		return err
	}
	return s.thread()
}

func (s *Shell) delete(args []string) error {
	id := s.app.ActiveID()
	if len(args) > 0 {
		resolved, err := s.resolve(args[0])
		if err != nil {
			return err
		}
		id = resolved
	}
	if id == "" {
		return domain.NewValidationError("usage: /delete <number|id>", nil)
	}
	if err := s.app.DeleteAvatar(id); err != nil {
		return err
	}
	renderNotice(s.out, "Deleted %s", id)
	return nil
}

// resolve accepts a 1-based list position or an avatar ID
func (s *Shell) resolve(ref string) (string, error) {
	n, err := strconv.Atoi(ref)
	if err != nil {
		return ref, nil
	}

	avatars, err := s.app.Avatars()
	if err != nil {
		return "", err
	}
	if n < 1 || n > len(avatars) {
		return "", domain.NewValidationError(fmt.Sprintf("no avatar at position %d", n), nil)
	}
	return avatars[n-1].ID, nil
}

func (s *Shell) thread() error {
	active, err := s.app.Active()
	if err != nil {
		return err
	}
	if active == nil {
		return domain.NewValidationError("no avatar is open", nil)
	}
	thread, err := s.app.Thread()
	if err != nil {
		return err
	}
	renderThread(s.out, active, thread)
	return nil
}

func (s *Shell) upload(ctx context.Context) error {
	result, err := s.app.Upload(ctx)
	if err != nil {
		return err
	}
	if result == nil {
		renderNotice(s.out, "Upload cancelled")
	}
	return nil
}

func (s *Shell) record(ctx context.Context) error {
	if s.app.Recording() {
		renderNotice(s.out, "Already recording, /stop to send")
		return nil
	}
	if err := s.app.StartRecording(ctx); err != nil {
		return err
	}
	renderNotice(s.out, "Recording... /stop to send")
	return nil
}

func (s *Shell) capture(ctx context.Context) error {
	detection, err := s.app.Capture(ctx)
	if err != nil {
		return err
	}
	if detection == nil {
		renderNotice(s.out, "Capture cancelled")
		return nil
	}

	if detection.Match != nil {
		renderNotice(s.out, "Recognized %s", detection.Match.Name)
		return s.thread()
	}

	name, err := s.prompter.Prompt(ctx, "No match found. Name for a new avatar (empty to skip): ")
	if errors.Is(err, io.EOF) || strings.TrimSpace(name) == "" {
		return nil
	}
	if err != nil {
		return err
	}

	avatar, err := s.app.CreateAvatar(name, "", detection.ImageRef)
	if err != nil {
		return err
	}
	renderNotice(s.out, "Created %s from photo", avatar.Name)
	return nil
}

// exportDocument is the YAML layout written by /export
type exportDocument struct {
	Avatar models.Avatar    `yaml:"avatar"`
	Thread []models.Message `yaml:"thread"`
}

func (s *Shell) export() error {
	active, err := s.app.Active()
	if err != nil {
		return err
	}
	if active == nil {
		return domain.NewValidationError("no avatar is open", nil)
	}
	thread, err := s.app.Thread()
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(s.out)
	enc.SetIndent(2)
	if err := enc.Encode(exportDocument{Avatar: *active, Thread: thread}); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return enc.Close()
}

func (s *Shell) stats() error {
	stats, err := s.app.Stats()
	if err != nil {
		return err
	}
	renderNotice(s.out, "%d avatars, %d threads", stats.Avatars, stats.Threads)
	return nil
}

// follow moves the subscription to avatarID's topic
func (s *Shell) follow(avatarID string) {
	if s.subID == avatarID && s.sub != nil {
		return
	}
	if s.unsub != nil {
		s.unsub()
	}
	s.subID, s.sub, s.unsub = "", nil, nil
	if avatarID == "" {
		return
	}
	s.subID = avatarID
	s.sub, s.unsub = s.app.Events(avatarID)
}

// drain renders the events published by the last command
func (s *Shell) drain() {
	if s.sub == nil {
		return
	}

	name := ""
	if active, err := s.app.Active(); err == nil && active != nil && active.ID == s.subID {
		name = active.Name
	}

	for {
		select {
		case ev, ok := <-s.sub:
			if !ok {
				s.sub = nil
				return
			}
			switch ev.Type {
			case events.TypeMessage:
				if msg, ok := ev.Data.(models.Message); ok {
					renderMessage(s.out, name, msg)
				}
			case events.TypeAvatarDeleted:
				renderNotice(s.out, "Conversation closed")
			}
		default:
			return
		}
	}
}
