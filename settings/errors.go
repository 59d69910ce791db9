package settings

import "errors"

var (
	// ErrType matches every *TypeError.
	ErrType = errors.New("settings: type mismatch")
	// ErrUnsupportedFormat indicates a file extension no loader understands.
	ErrUnsupportedFormat = errors.New("settings: unsupported file format")
	// ErrInvalidDocument indicates a decoded file whose top level is not a mapping.
	ErrInvalidDocument = errors.New("settings: document root must be a mapping")
)
