package slot

import "errors"

// Errors returned by registry operations.
var (
	// ErrInvalidTarget indicates a mark of a target with no usable
	// locator, or one on a disallowed internal scheme.
	ErrInvalidTarget = errors.New("target cannot be pinned")

	// ErrEmptySlot indicates a jump on an unoccupied slot.
	ErrEmptySlot = errors.New("slot is empty")

	// ErrTargetUnavailable indicates jump resolution exhausted every
	// fallback with recreation disabled.
	ErrTargetUnavailable = errors.New("target unavailable")

	// ErrInvalidSlotIndex indicates a slot index outside the
	// configured range.
	ErrInvalidSlotIndex = errors.New("slot index out of range")
)
