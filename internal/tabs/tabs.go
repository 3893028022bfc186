// Package tabs defines the directory of live browser tabs.
//
// The Directory interface is the daemon's view of the browser: the
// bridge implements it against a mirrored tab snapshot, and MemDirectory
// implements it in memory for tests and offline use.
package tabs

import (
	"context"
	"errors"
)

// Directory errors.
var (
	// ErrNotFound indicates no live target has the requested handle.
	ErrNotFound = errors.New("target not found")

	// ErrNoCurrent indicates no target is currently active.
	ErrNoCurrent = errors.New("no current target")
)

// Handle is the transient runtime identifier of a tab. Handles are
// reassigned when a tab is closed and reopened.
type Handle string

// Container is the transient identifier of the window holding a tab.
type Container string

// Target describes one live tab.
type Target struct {
	Handle    Handle
	Container Container

	// Locator is the tab's URL: the durable identity used to re-find
	// or recreate the tab across handle churn.
	Locator string

	Title string
	Icon  string
}

// Directory is the daemon's access to live browser tabs.
type Directory interface {
	// List returns all live targets.
	List(ctx context.Context) ([]Target, error)

	// Get returns the target with the given handle, or ErrNotFound.
	Get(ctx context.Context, h Handle) (Target, error)

	// Current returns the focused target, or ErrNoCurrent.
	Current(ctx context.Context) (Target, error)

	// Activate brings a target to the foreground, focusing its
	// window as well when the container is known.
	Activate(ctx context.Context, h Handle, c Container) error

	// Create opens a new tab at the locator and returns it.
	Create(ctx context.Context, locator string) (Target, error)

	// Close closes the target. Closing an unknown handle is not an
	// error.
	Close(ctx context.Context, h Handle) error
}
