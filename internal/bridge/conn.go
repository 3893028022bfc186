package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
)

// Transport errors.
var (
	// ErrClosed indicates the transport has shut down.
	ErrClosed = errors.New("transport closed")

	// ErrNotConnected indicates no extension client is attached.
	ErrNotConnected = errors.New("extension not connected")
)

// Conn is one framed message stream to the extension.
type Conn interface {
	ReadMessage() (Message, error)
	WriteMessage(Message) error
	Close() error
}

// EventHandler receives inbound events and requests. For requests
// (msg.ID non-zero) the handler's return value is sent back as the
// reply payload; a nil result with nil error acknowledges silently.
type EventHandler func(ctx context.Context, msg Message) (any, error)

// Transport multiplexes requests, replies and events over a Conn.
type Transport struct {
	conn    Conn
	handler EventHandler

	mu      sync.Mutex
	nextID  atomic.Int64
	pending map[int64]chan Message

	closed atomic.Bool
	done   chan struct{}
}

// NewTransport wraps a connection. Call Run to start the read loop.
func NewTransport(conn Conn, handler EventHandler) *Transport {
	return &Transport{
		conn:    conn,
		handler: handler,
		pending: make(map[int64]chan Message),
		done:    make(chan struct{}),
	}
}

// Run reads messages until the connection fails or the context ends.
// It always returns a non-nil error describing why it stopped.
func (t *Transport) Run(ctx context.Context) error {
	defer t.Close()

	msgs := make(chan Message)
	errs := make(chan error, 1)
	go func() {
		for {
			msg, err := t.conn.ReadMessage()
			if err != nil {
				errs <- err
				return
			}
			select {
			case msgs <- msg:
			case <-t.done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.done:
			return ErrClosed
		case err := <-errs:
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("connection closed: %w", err)
			}
			return fmt.Errorf("read message: %w", err)
		case msg := <-msgs:
			t.dispatch(ctx, msg)
		}
	}
}

// Close shuts the transport down and fails all pending calls.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	close(t.done)

	t.mu.Lock()
	t.pending = make(map[int64]chan Message)
	t.mu.Unlock()

	return t.conn.Close()
}

// Call sends a request and waits for the matching reply, decoding its
// payload into result when result is non-nil.
func (t *Transport) Call(ctx context.Context, typ string, params, result any) error {
	if t.closed.Load() {
		return ErrClosed
	}

	id := t.nextID.Add(1)
	ch := make(chan Message, 1)

	t.mu.Lock()
	t.pending[id] = ch
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
	}()

	msg := Message{Type: typ, ID: id}
	if params != nil {
		msg.Data = encode(params)
	}
	if err := t.conn.WriteMessage(msg); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return ErrClosed
	case reply := <-ch:
		if reply.Error != "" {
			return fmt.Errorf("%s: %s", typ, reply.Error)
		}
		if result != nil && len(reply.Data) > 0 {
			if err := json.Unmarshal(reply.Data, result); err != nil {
				return fmt.Errorf("decode %s reply: %w", typ, err)
			}
		}
		return nil
	}
}

// Notify sends a message without waiting for a reply.
func (t *Transport) Notify(typ string, params any) error {
	if t.closed.Load() {
		return ErrClosed
	}
	msg := Message{Type: typ}
	if params != nil {
		msg.Data = encode(params)
	}
	return t.conn.WriteMessage(msg)
}

func (t *Transport) dispatch(ctx context.Context, msg Message) {
	if msg.Type == TypeReply {
		t.handleReply(msg)
		return
	}
	if t.handler == nil {
		return
	}

	result, err := t.handler(ctx, msg)
	if msg.ID == 0 {
		return
	}

	reply := Message{Type: TypeReply, ID: msg.ID}
	switch {
	case err != nil:
		reply.Error = err.Error()
	case result != nil:
		reply.Data = encode(result)
	}
	_ = t.conn.WriteMessage(reply)
}

func (t *Transport) handleReply(msg Message) {
	t.mu.Lock()
	ch, ok := t.pending[msg.ID]
	if ok {
		delete(t.pending, msg.ID)
	}
	t.mu.Unlock()

	if ok {
		select {
		case ch <- msg:
		default:
		}
	}
}
