package videos

import "errors"

var (
	// ErrStorageUnavailable indicates the object store is not configured.
	ErrStorageUnavailable = errors.New("storage service not configured")
	// ErrNoStoredFile indicates the video row has no backing object.
	ErrNoStoredFile = errors.New("video file not found in storage")
	// ErrSignedURL indicates the object store could not issue an access URL.
	ErrSignedURL = errors.New("failed to generate signed url")
)

// ValidationError describes why an upload request was rejected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(reason string) error {
	return &ValidationError{Reason: reason}
}
