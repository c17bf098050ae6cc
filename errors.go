package gumdrop

import "errors"

// Data model errors.
var (
	// ErrOutOfBounds is returned when a coordinate lies outside the canvas.
	ErrOutOfBounds = errors.New("gumdrop: coordinate out of bounds")

	// ErrInvalidIndex is returned when a layer or history reference is no
	// longer valid.
	ErrInvalidIndex = errors.New("gumdrop: invalid index")

	// ErrInvalidValue is returned for out-of-range property values.
	ErrInvalidValue = errors.New("gumdrop: invalid value")

	// ErrEmptyHistory is returned by undo/redo when there is nothing to act on.
	// It is informational: callers typically disable the action.
	ErrEmptyHistory = errors.New("gumdrop: empty history")

	// ErrGroupOpen is returned when an operation that requires a closed
	// history group is attempted while a stroke group is open.
	ErrGroupOpen = errors.New("gumdrop: history group open")
)

// Export errors.
var (
	// ErrEncodingFailure is returned when pixel data cannot be encoded.
	ErrEncodingFailure = errors.New("gumdrop: encoding failure")

	// ErrUnsupportedAlpha is returned when a format without an alpha channel
	// is asked to encode translucent pixels and no background was given.
	ErrUnsupportedAlpha = errors.New("gumdrop: unsupported alpha")

	// ErrUnsupportedDimensions is returned for zero or negative canvas sizes.
	ErrUnsupportedDimensions = errors.New("gumdrop: unsupported dimensions")

	// ErrUnsupportedFormat is returned for unknown export format names.
	ErrUnsupportedFormat = errors.New("gumdrop: unsupported format")
)

// Collaborator errors.
var (
	// ErrIOFailure wraps failures reported by the external persistence layer.
	// The core never produces it on its own.
	ErrIOFailure = errors.New("gumdrop: i/o failure")

	// ErrUnknownCommand is returned by the dispatcher for unrecognised names.
	ErrUnknownCommand = errors.New("gumdrop: unknown command")
)
