package domain

import "errors"

var (
	// ErrSaltNotFound is returned when no salt is stored for a commitment.
	ErrSaltNotFound = errors.New("salt not found")

	// ErrInvalidSalt is returned when an imported salt is not a 0x-prefixed
	// 32-byte hex string.
	ErrInvalidSalt = errors.New("salt must be a 0x-prefixed 32-byte hex string")

	// ErrPoolFinalized wraps contract rejections that make a reveal pointless:
	// already revealed, canceled, drawn or past the hard deadline.
	ErrPoolFinalized = errors.New("pool finalized")
)
