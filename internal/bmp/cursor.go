package bmp

import (
	"encoding/binary"
	"errors"
)

// errShortRead is the internal signal for a read past the end of the input.
// Each decode stage wraps it into the stage-specific Truncated* error before
// it reaches a caller.
var errShortRead = errors.New("bmp: read past end of input")

// cursor is a bounds-checked sequential reader over the input buffer. All
// multi-byte reads are little-endian. Exactly one decode stage owns the
// cursor at any time.
type cursor struct {
	data []byte
	off  int
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

func (c *cursor) pos() int { return c.off }

func (c *cursor) remaining() int { return len(c.data) - c.off }

// bytes returns the next n bytes as a subslice of the input and advances the
// cursor. The slice aliases the input buffer; callers must not modify it.
func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, errShortRead
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) u8() (uint8, error) {
	if c.remaining() < 1 {
		return 0, errShortRead
	}
	v := c.data[c.off]
	c.off++
	return v, nil
}

func (c *cursor) u16() (uint16, error) {
	if c.remaining() < 2 {
		return 0, errShortRead
	}
	v := binary.LittleEndian.Uint16(c.data[c.off:])
	c.off += 2
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if c.remaining() < 4 {
		return 0, errShortRead
	}
	v := binary.LittleEndian.Uint32(c.data[c.off:])
	c.off += 4
	return v, nil
}

func (c *cursor) i32() (int32, error) {
	v, err := c.u32()
	return int32(v), err
}

// skip advances the cursor by n bytes without looking at them.
func (c *cursor) skip(n int) error {
	if n < 0 || c.remaining() < n {
		return errShortRead
	}
	c.off += n
	return nil
}

// seek moves the cursor to an absolute offset within the input.
func (c *cursor) seek(off int) error {
	if off < 0 || off > len(c.data) {
		return errShortRead
	}
	c.off = off
	return nil
}
