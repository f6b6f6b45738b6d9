package recorder

import "errors"

var (
	// ErrNotSupported: the runtime has no capture facility at all.
	ErrNotSupported = errors.New("audio capture is not supported")

	// ErrNoEncoding: the runtime exists but cannot produce any known encoding.
	ErrNoEncoding = errors.New("no usable audio encoding")

	// ErrInvalidState: the requested operation is not valid from the current
	// session state. Always a no-op on the session's resources.
	ErrInvalidState = errors.New("operation not valid in current state")

	// ErrCanceled: the session was canceled while stream acquisition was
	// still pending; the acquired stream has been released.
	ErrCanceled = errors.New("recording canceled")

	// ErrClosed: the session was torn down and accepts no further operations.
	ErrClosed = errors.New("session closed")
)
