package binread

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/quolt/axoscn_browser/mdl"
)

// Reader walks an immutable byte buffer with an explicit cursor.
// Every read is bounds-checked and fails with *mdl.BoundsError instead of
// panicking; decoders are expected to abort the section they are in.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) Len() int  { return len(r.buf) }
func (r *Reader) Pos() int  { return r.pos }
func (r *Reader) Rest() int { return len(r.buf) - r.pos }

func (r *Reader) boundsErr(need int) error {
	return &mdl.BoundsError{Offset: r.pos, Need: need, Have: len(r.buf) - r.pos}
}

func (r *Reader) Seek(off int) error {
	if off < 0 || off > len(r.buf) {
		return &mdl.BoundsError{Offset: off, Need: 0, Have: len(r.buf)}
	}
	r.pos = off
	return nil
}

func (r *Reader) Skip(n int) error {
	if n < 0 || r.pos+n > len(r.buf) {
		return r.boundsErr(n)
	}
	r.pos += n
	return nil
}

func (r *Reader) U8() (uint8, error) {
	if r.pos+1 > len(r.buf) {
		return 0, r.boundsErr(1)
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) U16() (uint16, error) {
	if r.pos+2 > len(r.buf) {
		return 0, r.boundsErr(2)
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *Reader) U32() (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, r.boundsErr(4)
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	return math.Float32frombits(v), err
}

// Bytes returns a view into the underlying buffer, not a copy.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, r.boundsErr(n)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// CStr reads a NUL-terminated string and leaves the cursor after the NUL.
func (r *Reader) CStr() (string, error) {
	end := bytes.IndexByte(r.buf[r.pos:], 0)
	if end < 0 {
		return "", r.boundsErr(len(r.buf) - r.pos + 1)
	}
	s := string(r.buf[r.pos : r.pos+end])
	r.pos += end + 1
	return s, nil
}

// U32At reads without moving the cursor.
func (r *Reader) U32At(off int) (uint32, error) {
	if off < 0 || off+4 > len(r.buf) {
		return 0, &mdl.BoundsError{Offset: off, Need: 4, Have: len(r.buf)}
	}
	return binary.LittleEndian.Uint32(r.buf[off:]), nil
}

// Sub returns a reader over buf[off:off+size] with its own cursor.
func (r *Reader) Sub(off, size int) (*Reader, error) {
	if off < 0 || size < 0 || off+size > len(r.buf) {
		return nil, &mdl.BoundsError{Offset: off, Need: size, Have: len(r.buf) - off}
	}
	return NewReader(r.buf[off : off+size]), nil
}

// Raw exposes the whole underlying buffer for random-access table probes.
func (r *Reader) Raw() []byte {
	return r.buf
}
