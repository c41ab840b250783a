package device

import "context"

// StaticPermissions answers permission requests from configuration
type StaticPermissions struct {
	Camera PermissionStatus
}

// RequestCameraPermission returns the configured camera status. Anything other
// than granted is treated as denied.
func (p StaticPermissions) RequestCameraPermission(ctx context.Context) (PermissionStatus, error) {
	if err := ctx.Err(); err != nil {
		return PermissionDenied, err
	}
	if p.Camera == PermissionGranted {
		return PermissionGranted, nil
	}
	return PermissionDenied, nil
}
