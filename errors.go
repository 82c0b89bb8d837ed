package fmtconv

import "errors"

var (
	// ErrUnsupported is returned by Resolve when no kernel exists for the requested sample format pair.
	ErrUnsupported = errors.New("unsupported conversion")
	// ErrInvalidFormat is returned when a Format fails validation or the channel counts disagree.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrShape is returned when the number of blocks does not match the layout of a Format.
	ErrShape = errors.New("buffer shape mismatch")
	// ErrShortBuffer is returned when a block cannot hold the requested number of samples.
	ErrShortBuffer = errors.New("buffer too small")
	// ErrNotMapped is returned when an fd backed Data block is used before it was mapped.
	ErrNotMapped = errors.New("data not mapped")
)
