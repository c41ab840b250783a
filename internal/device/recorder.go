package device

import (
	"context"
	"errors"
	"os"
	"sync"
)

// TempRecorder simulates a microphone: each recording is a new clip file in a
// directory, returned as a file:// reference when the recording stops
type TempRecorder struct {
	dir string

	mu   sync.Mutex
	clip *os.File
}

// NewTempRecorder creates a recorder writing clips into dir, or the system
// temp directory when dir is empty
func NewTempRecorder(dir string) *TempRecorder {
	return &TempRecorder{dir: dir}
}

// StartRecording allocates the clip file
func (r *TempRecorder) StartRecording(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clip != nil {
		return deviceError(DeviceMicrophone, "start", errors.New("already recording"))
	}

	clip, err := os.CreateTemp(r.dir, "voice-*.m4a")
	if err != nil {
		return deviceError(DeviceMicrophone, "start", err)
	}
	r.clip = clip
	return nil
}

// StopRecording finishes the clip and returns its reference
func (r *TempRecorder) StopRecording(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clip == nil {
		return "", deviceError(DeviceMicrophone, "stop", errors.New("not recording"))
	}

	clip := r.clip
	r.clip = nil
	if err := clip.Close(); err != nil {
		return "", deviceError(DeviceMicrophone, "stop", err)
	}

	uri, err := FileURI(clip.Name())
	if err != nil {
		return "", deviceError(DeviceMicrophone, "stop", err)
	}
	return uri, nil
}

// Recording reports whether a clip is in flight
func (r *TempRecorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clip != nil
}
