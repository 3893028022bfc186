package input

import (
	"sync"
	"time"

	"github.com/dshills/tabstorm/internal/action"
	"github.com/dshills/tabstorm/internal/input/key"
	"github.com/dshills/tabstorm/internal/input/keymap"
)

// Event is one key press as reported by the extension.
type Event struct {
	// Token is the normalized key name.
	Token key.Token

	// Editable is true when the focused element accepts text input.
	// The matcher never intercepts keys in editable contexts.
	Editable bool
}

// Config configures the matcher.
type Config struct {
	// SequenceTimeout is how long to wait for the next key of a
	// multi-key sequence. Default: 1000ms.
	SequenceTimeout time.Duration

	// ActionBuffer is the capacity of the action channel.
	ActionBuffer int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SequenceTimeout: 1000 * time.Millisecond,
		ActionBuffer:    16,
	}
}

// Matcher is the leader-sequence state machine. It owns the pending
// sequence buffer and emits at most one action per completed sequence.
type Matcher struct {
	mu sync.Mutex

	config Config

	// table is the current binding snapshot. Each keystroke classifies
	// against the snapshot read at that keystroke, so a hot swap never
	// changes the semantics of a classification in flight.
	table *keymap.Table

	pending    *key.Sequence
	seqTimer   *time.Timer
	actionChan chan action.Action
	closed     bool

	// seqGen invalidates a timeout that fired before the mutex was
	// acquired but after a keystroke refreshed the sequence.
	seqGen uint64
}

// NewMatcher creates a matcher over the given binding table.
func NewMatcher(config Config, table *keymap.Table) *Matcher {
	if config.SequenceTimeout <= 0 {
		config.SequenceTimeout = DefaultConfig().SequenceTimeout
	}
	if config.ActionBuffer <= 0 {
		config.ActionBuffer = DefaultConfig().ActionBuffer
	}
	return &Matcher{
		config:     config,
		table:      table,
		pending:    key.NewSequence(),
		actionChan: make(chan action.Action, config.ActionBuffer),
	}
}

// HandleKey processes one key event. It returns true if the event was
// consumed and the browser should suppress its default handling.
func (m *Matcher) HandleKey(ev Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}

	// Editable focus disables the whole mechanism; an in-progress
	// sequence is abandoned rather than resumed after the field blurs.
	if ev.Editable {
		m.clearSequence()
		return false
	}

	table := m.table

	// While idle, only the leader starts a sequence. Everything else
	// propagates as ordinary typing.
	if m.pending.IsEmpty() && ev.Token != table.Leader() {
		return false
	}

	m.pending.Add(ev.Token)

	switch match := table.Classify(m.pending); match.Kind {
	case keymap.MatchExact:
		m.clearSequence()
		m.emit(match.Action)
		return true
	case keymap.MatchPartial:
		m.resetSequenceTimeout()
		return true
	default:
		// Dead end: the key falls through as ordinary input.
		m.clearSequence()
		return false
	}
}

// SwapTable replaces the binding table. Subsequent keystrokes classify
// against the new table; the pending buffer is left alone.
func (m *Matcher) SwapTable(table *keymap.Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table = table
}

// Actions returns the channel of emitted actions.
func (m *Matcher) Actions() <-chan action.Action {
	return m.actionChan
}

// Pending returns the in-progress sequence as a string, for display.
func (m *Matcher) Pending() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending.String()
}

// Close stops the matcher and closes the action channel.
func (m *Matcher) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	m.clearSequence()
	close(m.actionChan)
}

// emit sends an action without blocking. If the channel is full the
// oldest queued action is dropped to make room.
func (m *Matcher) emit(a action.Action) {
	select {
	case m.actionChan <- a:
	default:
		select {
		case <-m.actionChan:
		default:
		}
		select {
		case m.actionChan <- a:
		default:
		}
	}
}

// clearSequence empties the pending buffer and stops the timer.
func (m *Matcher) clearSequence() {
	m.pending.Clear()
	m.stopSequenceTimeout()
}

// resetSequenceTimeout re-arms the sequence timeout.
func (m *Matcher) resetSequenceTimeout() {
	m.stopSequenceTimeout()
	m.seqGen++
	gen := m.seqGen
	m.seqTimer = time.AfterFunc(m.config.SequenceTimeout, func() {
		m.handleSequenceTimeout(gen)
	})
}

// stopSequenceTimeout cancels any armed timeout.
func (m *Matcher) stopSequenceTimeout() {
	if m.seqTimer != nil {
		m.seqTimer.Stop()
		m.seqTimer = nil
	}
}

// handleSequenceTimeout fires when a sequence stalls. The buffer resets
// silently; no action is emitted for a partial sequence. A stale
// generation means a keystroke re-armed the timer first; that firing
// is a no-op.
func (m *Matcher) handleSequenceTimeout(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || gen != m.seqGen {
		return
	}
	m.clearSequence()
}
