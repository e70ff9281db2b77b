package ue

import (
	"math"
	"unicode/utf16"

	"github.com/pkg/errors"

	"masseffect-save-edit/memory"
)

// ErrStringTooLong is returned when a string cannot be represented within
// the signed 32-bit length prefix of the wire format.
var ErrStringTooLong = errors.New("string too long for length prefix")

type Vector struct {
	X float32
	Y float32
	Z float32
}

type Rotator struct {
	Pitch int32
	Yaw   int32
	Roll  int32
}

type LinearColor struct {
	R float32
	G float32
	B float32
	A float32
}

func ReadVector(c *memory.Cursor) (Vector, error) {
	var v Vector
	var err error
	if v.X, err = memory.ReadFloat[float32](c); err != nil {
		return v, err
	}
	if v.Y, err = memory.ReadFloat[float32](c); err != nil {
		return v, err
	}
	if v.Z, err = memory.ReadFloat[float32](c); err != nil {
		return v, err
	}
	return v, nil
}

func (v Vector) Write(w *memory.Writer) {
	memory.WriteFloat(w, v.X)
	memory.WriteFloat(w, v.Y)
	memory.WriteFloat(w, v.Z)
}

func ReadRotator(c *memory.Cursor) (Rotator, error) {
	var r Rotator
	var err error
	if r.Pitch, err = memory.ReadInt[int32](c); err != nil {
		return r, err
	}
	if r.Yaw, err = memory.ReadInt[int32](c); err != nil {
		return r, err
	}
	if r.Roll, err = memory.ReadInt[int32](c); err != nil {
		return r, err
	}
	return r, nil
}

func (r Rotator) Write(w *memory.Writer) {
	memory.WriteInt(w, r.Pitch)
	memory.WriteInt(w, r.Yaw)
	memory.WriteInt(w, r.Roll)
}

func ReadLinearColor(c *memory.Cursor) (LinearColor, error) {
	var lc LinearColor
	var err error
	if lc.R, err = memory.ReadFloat[float32](c); err != nil {
		return lc, err
	}
	if lc.G, err = memory.ReadFloat[float32](c); err != nil {
		return lc, err
	}
	if lc.B, err = memory.ReadFloat[float32](c); err != nil {
		return lc, err
	}
	if lc.A, err = memory.ReadFloat[float32](c); err != nil {
		return lc, err
	}
	return lc, nil
}

func (lc LinearColor) Write(w *memory.Writer) {
	memory.WriteFloat(w, lc.R)
	memory.WriteFloat(w, lc.G)
	memory.WriteFloat(w, lc.B)
	memory.WriteFloat(w, lc.A)
}

// ReadString decodes a length-prefixed, null-terminated string. A positive
// length prefix means that many ANSI bytes; a negative prefix means that
// many UTF-16LE code units; zero means an empty string.
func ReadString(c *memory.Cursor) (string, error) {
	size, err := memory.ReadInt[int32](c)
	if err != nil {
		return "", err
	}

	if size == 0 {
		return "", nil
	}

	if size > 0 {
		data, err := c.ReadBytes(int(size))
		if err != nil {
			return "", errors.Wrap(err, "ansi string data")
		}
		// strip the terminating null
		return string(data[:size-1]), nil
	}

	count := -int(size)
	data, err := c.ReadBytes(count * 2)
	if err != nil {
		return "", errors.Wrap(err, "utf16 string data")
	}
	units := make([]uint16, count-1)
	for i := range units {
		units[i] = uint16(data[i*2]) | uint16(data[i*2+1])<<8
	}
	return string(utf16.Decode(units)), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// WriteString encodes a string the way the legacy files do: ASCII content
// uses the positive-length ANSI branch, anything else the negative-length
// UTF-16LE branch, both null-terminated. Empty strings emit a zero prefix.
func WriteString(w *memory.Writer, s string) error {
	if s == "" {
		memory.WriteInt(w, int32(0))
		return nil
	}

	if isASCII(s) {
		if len(s)+1 > math.MaxInt32 {
			return errors.Wrapf(ErrStringTooLong, "%d bytes", len(s))
		}
		memory.WriteInt(w, int32(len(s)+1))
		w.WriteBytes([]byte(s))
		w.WriteBytes([]byte{0})
		return nil
	}

	units := utf16.Encode([]rune(s))
	if len(units)+1 > math.MaxInt32 {
		return errors.Wrapf(ErrStringTooLong, "%d code units", len(units))
	}
	memory.WriteInt(w, int32(-(len(units) + 1)))
	for _, u := range units {
		memory.WriteInt(w, u)
	}
	memory.WriteInt(w, uint16(0))
	return nil
}

// StringWireSize reports how many bytes WriteString would emit for s,
// length prefix included.
func StringWireSize(s string) (int, error) {
	if s == "" {
		return 4, nil
	}
	if isASCII(s) {
		return 4 + len(s) + 1, nil
	}
	units := utf16.Encode([]rune(s))
	return 4 + (len(units)+1)*2, nil
}
