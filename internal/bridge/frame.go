package bridge

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// maxFrame bounds a single native-messaging frame. Chrome caps
// host-bound messages at 64 MB; anything larger is a corrupt stream.
const maxFrame = 64 << 20

// nativeConn speaks the Chrome native-messaging framing: each JSON
// message is preceded by its byte length as a uint32 in host byte
// order, which is little-endian on every platform Chrome ships on.
type nativeConn struct {
	reader *bufio.Reader

	wmu    sync.Mutex
	writer io.Writer

	closer io.Closer
}

// NewNativeConn wraps a stdio pair in the native-messaging framing.
// closer may be nil.
func NewNativeConn(r io.Reader, w io.Writer, c io.Closer) Conn {
	return &nativeConn{
		reader: bufio.NewReaderSize(r, 64*1024),
		writer: w,
		closer: c,
	}
}

func (c *nativeConn) ReadMessage() (Message, error) {
	var length uint32
	if err := binary.Read(c.reader, binary.LittleEndian, &length); err != nil {
		return Message{}, err
	}
	if length == 0 || length > maxFrame {
		return Message{}, fmt.Errorf("bad frame length %d", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(c.reader, body); err != nil {
		return Message{}, fmt.Errorf("read frame body: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return Message{}, fmt.Errorf("decode frame: %w", err)
	}
	return msg, nil
}

func (c *nativeConn) WriteMessage(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if len(data) > maxFrame {
		return fmt.Errorf("frame too large: %d bytes", len(data))
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	if err := binary.Write(c.writer, binary.LittleEndian, uint32(len(data))); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	if _, err := c.writer.Write(data); err != nil {
		return fmt.Errorf("write frame body: %w", err)
	}
	return nil
}

func (c *nativeConn) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
