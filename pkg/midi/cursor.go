package midi

import (
	"bytes"
	"fmt"
)

// cursor is a position-tracking reader over an immutable byte slice.
// Clones share the backing slice; nothing ever writes to it.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

func (c *cursor) clone() *cursor {
	return &cursor{buf: c.buf, pos: c.pos}
}

func (c *cursor) readByte() (byte, error) {
	if c.pos < 0 || c.pos >= len(c.buf) {
		return 0, fmt.Errorf("%w - offset %d, length %d", ErrOutOfBounds, c.pos, len(c.buf))
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) peekByte(offset int) (byte, error) {
	at := c.pos + offset
	if at < 0 || at >= len(c.buf) {
		return 0, fmt.Errorf("%w - offset %d, length %d", ErrOutOfBounds, at, len(c.buf))
	}
	return c.buf[at], nil
}

// advance skips n bytes without bounds checking; an over-advance past the
// end of the buffer surfaces as ErrOutOfBounds on the next read.
func (c *cursor) advance(n int) {
	c.pos += n
}

func (c *cursor) readChars(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		var err error
		if b[i], err = c.readByte(); err != nil {
			return "", err
		}
	}
	return string(b), nil
}

func (c *cursor) readUint16() (uint16, error) {
	var v uint16
	for i := 0; i < 2; i++ {
		b, err := c.readByte()
		if err != nil {
			return 0, err
		}
		v = v<<8 | uint16(b)
	}
	return v, nil
}

func (c *cursor) readUint32() (uint32, error) {
	var v uint32
	for i := 0; i < 4; i++ {
		b, err := c.readByte()
		if err != nil {
			return 0, err
		}
		v = v<<8 | uint32(b)
	}
	return v, nil
}

// peekVarLen decodes the variable-length quantity at the current position
// without consuming it. Returns the value and its encoded byte length.
func (c *cursor) peekVarLen() (uint32, int, error) {
	var val uint32
	for i := 0; ; i++ {
		b, err := c.peekByte(i)
		if err != nil {
			return 0, 0, err
		}
		val = val<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return val, i + 1, nil
		}
	}
}

func (c *cursor) readVarLen() (uint32, error) {
	val, n, err := c.peekVarLen()
	if err != nil {
		return 0, err
	}
	c.advance(n)
	return val, nil
}

// scanPastByte consumes bytes until a byte equal to target has been
// consumed. Returns false if the buffer runs out first.
func (c *cursor) scanPastByte(target byte) bool {
	for c.pos < len(c.buf) {
		b := c.buf[c.pos]
		c.pos++
		if b == target {
			return true
		}
	}
	return false
}

// scanPastSequence consumes bytes until the next len(seq) bytes match seq,
// then consumes past them. Returns false if seq is not found; the cursor is
// then exhausted.
func (c *cursor) scanPastSequence(seq []byte) bool {
	if c.pos < 0 {
		c.pos = 0
	}
	for c.pos+len(seq) <= len(c.buf) {
		if bytes.Equal(c.buf[c.pos:c.pos+len(seq)], seq) {
			c.pos += len(seq)
			return true
		}
		c.pos++
	}
	c.pos = len(c.buf)
	return false
}
