package wire

import "errors"

var (
	// ErrShortBuffer is returned when a buffer is too small to hold a
	// header, a body, or the frame length claims.
	ErrShortBuffer = errors.New("wire: buffer too short")
	// ErrBadLength is returned when a frame's declared length does not
	// fit the supplied buffer, or (by the TCP transport) when it is
	// shorter than a header.
	ErrBadLength = errors.New("wire: bad frame length")
	// ErrUnknownType is returned when a frame's type byte does not match
	// any known message kind.
	ErrUnknownType = errors.New("wire: unknown message type")
	// ErrAuthentication is returned when a frame fails HMAC verification
	// under a configured key.
	ErrAuthentication = errors.New("wire: message authentication failed")
)
