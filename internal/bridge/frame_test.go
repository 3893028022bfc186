package bridge

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"testing"
)

func TestNativeConnRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	conn := NewNativeConn(&buf, &buf, nil)

	sent := Message{Type: TypeKey, ID: 7, Data: encode(KeyEvent{Key: "space"})}
	if err := conn.WriteMessage(sent); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	got, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if got.Type != sent.Type || got.ID != sent.ID {
		t.Errorf("got envelope %q/%d, want %q/%d", got.Type, got.ID, sent.Type, sent.ID)
	}

	var ev KeyEvent
	if err := json.Unmarshal(got.Data, &ev); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if ev.Key != "space" {
		t.Errorf("got key %q, want %q", ev.Key, "space")
	}
}

func TestNativeConnFraming(t *testing.T) {
	// The length prefix must be exactly four little-endian bytes.
	var buf bytes.Buffer
	conn := NewNativeConn(&buf, &buf, nil)

	if err := conn.WriteMessage(Message{Type: TypeNotice}); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	raw := buf.Bytes()
	if len(raw) < 4 {
		t.Fatalf("frame too short: %d bytes", len(raw))
	}
	length := binary.LittleEndian.Uint32(raw[:4])
	if int(length) != len(raw)-4 {
		t.Errorf("length prefix = %d, body = %d bytes", length, len(raw)-4)
	}
}

func TestNativeConnRejectsBadLength(t *testing.T) {
	tests := []struct {
		name   string
		length uint32
	}{
		{"zero", 0},
		{"oversized", maxFrame + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := binary.Write(&buf, binary.LittleEndian, tt.length); err != nil {
				t.Fatal(err)
			}
			conn := NewNativeConn(&buf, io.Discard, nil)
			if _, err := conn.ReadMessage(); err == nil {
				t.Error("ReadMessage() accepted bad frame length")
			}
		})
	}
}

func TestNativeConnEOF(t *testing.T) {
	conn := NewNativeConn(bytes.NewReader(nil), io.Discard, nil)
	if _, err := conn.ReadMessage(); err != io.EOF {
		t.Errorf("ReadMessage() error = %v, want io.EOF", err)
	}
}
