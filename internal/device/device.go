// Package device provides the capture, picker, audio and permission
// collaborators. They resolve user input into references the store can keep
// and know nothing about avatars themselves.
package device

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"avatar-chat/internal/domain"
	"avatar-chat/internal/models"
)

// Device names used in DeviceError
const (
	DeviceCamera     = "camera"
	DeviceMicrophone = "microphone"
	DevicePicker     = "file picker"
)

// Camera captures a photo and returns a reference to the image
type Camera interface {
	CapturePhoto(ctx context.Context) (string, error)
}

// FilePicker lets the user choose files. Backing out returns a CancelledError.
type FilePicker interface {
	PickFiles(ctx context.Context) ([]models.FileDescriptor, error)
}

// AudioRecorder records one clip at a time
type AudioRecorder interface {
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) (string, error)
}

// Permissions grants or denies access to the camera
type Permissions interface {
	RequestCameraPermission(ctx context.Context) (PermissionStatus, error)
}

// PermissionStatus is the outcome of a permission request
type PermissionStatus string

const (
	PermissionGranted PermissionStatus = "granted"
	PermissionDenied  PermissionStatus = "denied"
)

// ParsePermissionStatus reads a configured status
func ParsePermissionStatus(s string) (PermissionStatus, error) {
	switch PermissionStatus(strings.ToLower(strings.TrimSpace(s))) {
	case PermissionGranted:
		return PermissionGranted, nil
	case PermissionDenied:
		return PermissionDenied, nil
	}
	return "", fmt.Errorf("invalid permission status %q", s)
}

// FileURI turns a local path into an absolute file:// reference
func FileURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

func deviceError(device, op string, err error) error {
	return &domain.DeviceError{Device: device, Op: op, Err: err}
}
