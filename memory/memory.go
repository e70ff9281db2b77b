package memory

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrTruncatedInput is returned when a read demands more bytes than remain
// in the buffer.
var ErrTruncatedInput = errors.New("truncated input")

type Int interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64
}

type Float interface {
	float32 | float64
}

// Span is a fixed-length opaque byte region. Its content is captured at
// decode time and replayed verbatim on encode, never reinterpreted.
type Span []byte

// Cursor is a sequential, position-tracked reader over an in-memory buffer.
// The offset never exceeds the buffer length; every read advances it by
// exactly the consumed length.
type Cursor struct {
	data []byte
	pos  int
}

func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

func (c *Cursor) Position() int {
	return c.pos
}

func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

// ReadBytes consumes exactly n bytes. The returned slice is a copy, so it
// stays valid after further reads.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, errors.Wrapf(ErrTruncatedInput, "need %d bytes at offset %d, %d remain", n, c.pos, c.Remaining())
	}
	out := make([]byte, n)
	copy(out, c.data[c.pos:c.pos+n])
	c.pos += n
	return out, nil
}

// ReadToEnd consumes the remainder of the buffer and leaves the offset at
// the buffer length.
func (c *Cursor) ReadToEnd() []byte {
	out := make([]byte, c.Remaining())
	copy(out, c.data[c.pos:])
	c.pos = len(c.data)
	return out
}

func ReadSpan(c *Cursor, n int) (Span, error) {
	b, err := c.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return Span(b), nil
}

func ReadInt[T Int](c *Cursor) (T, error) {
	var value T
	buf, err := c.ReadBytes(binary.Size(value))
	if err != nil {
		return 0, err
	}
	err = binary.Read(bytes.NewReader(buf), binary.LittleEndian, &value)
	if err != nil {
		return 0, err
	}
	return value, nil
}

func ReadFloat[T Float](c *Cursor) (T, error) {
	var value T
	buf, err := c.ReadBytes(binary.Size(value))
	if err != nil {
		return 0, err
	}
	err = binary.Read(bytes.NewReader(buf), binary.LittleEndian, &value)
	if err != nil {
		return 0, err
	}
	return value, nil
}

// Writer is the encode-side counterpart of Cursor: an append-only buffer
// every encoder emits into, field by field, in declaration order.
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) WriteBytes(b []byte) {
	w.buf.Write(b)
}

func (w *Writer) Len() int {
	return w.buf.Len()
}

func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

func (s Span) Write(w *Writer) {
	w.WriteBytes(s)
}

func WriteInt[T Int](w *Writer, value T) {
	// writes to a bytes.Buffer cannot fail
	_ = binary.Write(&w.buf, binary.LittleEndian, value)
}

func WriteFloat[T Float](w *Writer, value T) {
	_ = binary.Write(&w.buf, binary.LittleEndian, value)
}
