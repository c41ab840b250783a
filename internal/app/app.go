// Package app holds the UI-layer state on top of the store: which avatar is
// open, whether a recording or capture is in flight, and the camera permission.
package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"avatar-chat/internal/device"
	"avatar-chat/internal/domain"
	"avatar-chat/internal/events"
	"avatar-chat/internal/logic"
	"avatar-chat/internal/matcher"
	"avatar-chat/internal/models"
	"avatar-chat/internal/store"
)

// Deps are the collaborators an App is built from. Store is required; every
// other field falls back to a stub.
type Deps struct {
	Store       store.Store
	Responder   logic.Responder
	Matcher     matcher.PersonMatcher
	Camera      device.Camera
	Picker      device.FilePicker
	Recorder    device.AudioRecorder
	Permissions device.Permissions
	Events      *events.Broadcaster
}

// Detection is the result of a capture. Match is nil when nobody was
// recognized; the caller should then offer to create an avatar from ImageRef.
type Detection struct {
	ImageRef string
	Match    *models.Avatar
}

// App is the controller the shell drives
type App struct {
	store        store.Store
	conversation *logic.Conversation
	matcher      matcher.PersonMatcher
	camera       device.Camera
	picker       device.FilePicker
	recorder     device.AudioRecorder
	permissions  device.Permissions
	events       *events.Broadcaster

	mu        sync.Mutex
	active    string
	recording bool
	capturing bool
	cameraOK  device.PermissionStatus

	log zerolog.Logger
}

// New creates an App
func New(deps Deps) *App {
	if deps.Events == nil {
		deps.Events = events.NewBroadcaster()
	}
	if deps.Matcher == nil {
		deps.Matcher = matcher.NoMatch{}
	}
	if deps.Permissions == nil {
		deps.Permissions = device.StaticPermissions{Camera: device.PermissionDenied}
	}

	return &App{
		store:        deps.Store,
		conversation: logic.NewConversation(deps.Store, deps.Responder, deps.Events),
		matcher:      deps.Matcher,
		camera:       deps.Camera,
		picker:       deps.Picker,
		recorder:     deps.Recorder,
		permissions:  deps.Permissions,
		events:       deps.Events,
		cameraOK:     device.PermissionDenied,
		log:          log.Logger.With().Str("component", "app").Logger(),
	}
}

// Init requests the camera permission once. A denial or a failed request only
// disables capture.
func (a *App) Init(ctx context.Context) {
	status, err := a.permissions.RequestCameraPermission(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("camera permission request failed, capture disabled")
		status = device.PermissionDenied
	}

	a.mu.Lock()
	a.cameraOK = status
	a.mu.Unlock()

	a.log.Info().Str("camera", string(status)).Msg("initialized")
}

// CameraPermission returns the status recorded by Init
func (a *App) CameraPermission() device.PermissionStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cameraOK
}

// CreateAvatar creates an avatar and opens it
func (a *App) CreateAvatar(name, description, portraitRef string) (*models.Avatar, error) {
	avatar, err := a.store.CreateAvatar(name, description, portraitRef)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.active = avatar.ID
	a.mu.Unlock()

	return avatar, nil
}

// DeleteAvatar deletes an avatar, closes its event topic and clears the active
// pointer when it referenced the deleted avatar. Unknown IDs are a no-op.
func (a *App) DeleteAvatar(id string) error {
	if err := a.store.DeleteAvatar(id); err != nil {
		return err
	}

	a.mu.Lock()
	if a.active == id {
		a.active = ""
	}
	a.mu.Unlock()

	a.events.CloseTopic(id)
	return nil
}

// Open makes id the active avatar
func (a *App) Open(id string) (*models.Avatar, error) {
	avatar, err := a.store.GetAvatar(id)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.active = avatar.ID
	a.mu.Unlock()

	return avatar, nil
}

// Close clears the active avatar
func (a *App) Close() {
	a.mu.Lock()
	a.active = ""
	a.mu.Unlock()
}

// ActiveID returns the active avatar ID, or "" when none is open
func (a *App) ActiveID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Active returns the active avatar, or nil when none is open
func (a *App) Active() (*models.Avatar, error) {
	id := a.ActiveID()
	if id == "" {
		return nil, nil
	}

	avatar, err := a.store.GetAvatar(id)
	if errors.Is(err, domain.ErrNotFound) {
		a.mu.Lock()
		if a.active == id {
			a.active = ""
		}
		a.mu.Unlock()
		return nil, nil
	}
	return avatar, err
}

// Avatars lists every avatar in creation order
func (a *App) Avatars() ([]models.Avatar, error) {
	return a.store.ListAvatars()
}

// Thread returns the active avatar's messages
func (a *App) Thread() ([]models.Message, error) {
	id, err := a.requireActive()
	if err != nil {
		return nil, err
	}
	return a.store.GetThread(id)
}

// Send sends a text message to the active avatar and returns the thread
func (a *App) Send(ctx context.Context, text string) ([]models.Message, error) {
	id, err := a.requireActive()
	if err != nil {
		return nil, err
	}
	return a.conversation.SendMessage(ctx, id, text)
}

// Recording reports whether a voice recording is in flight
func (a *App) Recording() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recording
}

// StartRecording starts a voice message. Starting while already recording is
// a no-op.
func (a *App) StartRecording(ctx context.Context) error {
	if _, err := a.requireActive(); err != nil {
		return err
	}
	if a.recorder == nil {
		return &domain.DeviceError{Device: device.DeviceMicrophone, Op: "start", Err: errors.New("no recorder available")}
	}

	a.mu.Lock()
	if a.recording {
		a.mu.Unlock()
		a.log.Debug().Msg("already recording, ignoring start")
		return nil
	}
	a.recording = true
	a.mu.Unlock()

	if err := a.recorder.StartRecording(ctx); err != nil {
		a.mu.Lock()
		a.recording = false
		a.mu.Unlock()
		return err
	}
	return nil
}

// StopRecording stops the recording and sends the clip as a voice message to
// the active avatar. Without a recording in flight it does nothing.
func (a *App) StopRecording(ctx context.Context) ([]models.Message, error) {
	a.mu.Lock()
	if !a.recording {
		a.mu.Unlock()
		return nil, nil
	}
	a.recording = false
	a.mu.Unlock()

	audioRef, err := a.recorder.StopRecording(ctx)
	if err != nil {
		return nil, err
	}

	id, err := a.requireActive()
	if err != nil {
		return nil, err
	}
	return a.conversation.SendVoiceMessage(ctx, id, audioRef)
}

// Upload lets the user pick files for the active avatar. A cancelled picker
// returns nil with no error and leaves the store untouched.
func (a *App) Upload(ctx context.Context) (*store.AttachResult, error) {
	id, err := a.requireActive()
	if err != nil {
		return nil, err
	}
	if a.picker == nil {
		return nil, &domain.DeviceError{Device: device.DevicePicker, Op: "pick", Err: errors.New("no file picker available")}
	}

	files, err := a.picker.PickFiles(ctx)
	if domain.IsCancelled(err) {
		a.log.Debug().Str("avatar_id", id).Msg("upload cancelled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return a.conversation.UploadFiles(ctx, id, files)
}

// Capture takes a photo and asks the matcher who it shows. A recognized avatar
// is opened. A capture in flight or a cancelled capture returns nil.
func (a *App) Capture(ctx context.Context) (*Detection, error) {
	a.mu.Lock()
	if a.cameraOK != device.PermissionGranted {
		a.mu.Unlock()
		return nil, &domain.DeviceError{Device: device.DeviceCamera, Op: "capture", Err: errors.New("permission denied")}
	}
	if a.camera == nil {
		a.mu.Unlock()
		return nil, &domain.DeviceError{Device: device.DeviceCamera, Op: "capture", Err: errors.New("no camera available")}
	}
	if a.capturing {
		a.mu.Unlock()
		return nil, nil
	}
	a.capturing = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.capturing = false
		a.mu.Unlock()
	}()

	imageRef, err := a.camera.CapturePhoto(ctx)
	if domain.IsCancelled(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	match, err := a.matcher.Match(ctx, imageRef)
	if err != nil {
		return nil, err
	}

	if match != nil {
		a.mu.Lock()
		a.active = match.ID
		a.mu.Unlock()
	}

	return &Detection{ImageRef: imageRef, Match: match}, nil
}

// Events subscribes to an avatar's messages. The returned function
// unsubscribes.
func (a *App) Events(avatarID string) (<-chan events.Event, func()) {
	ch := a.events.Subscribe(avatarID)
	return ch, func() { a.events.Unsubscribe(avatarID, ch) }
}

// Stats reports store counts
func (a *App) Stats() (store.Stats, error) {
	return a.store.Stats()
}

func (a *App) requireActive() (string, error) {
	id := a.ActiveID()
	if id == "" {
		return "", domain.NewValidationError("no avatar is open", nil)
	}
	return id, nil
}
