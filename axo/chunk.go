package axo

import (
	"encoding/binary"
	"fmt"

	"github.com/quolt/axoscn_browser/mdl"
)

// FourCC is a little-endian 4-byte ASCII chunk tag.
type FourCC uint32

const (
	TAG_INFO FourCC = 0x4F464E49 // "INFO"
	TAG_AXO_ FourCC = 0x5F4F5841 // "AXO_"
	TAG_END_ FourCC = 0x20444E45 // "END "
	TAG_GEOG FourCC = 0x474F4547 // "GEOG"
	TAG_GEOM FourCC = 0x4D4F4547 // "GEOM"
	TAG_TEX_ FourCC = 0x20584554 // "TEX "
	TAG_MTRL FourCC = 0x4C52544D // "MTRL"
	TAG_ATOM FourCC = 0x4D4F5441 // "ATOM"
	TAG_FRAM FourCC = 0x4D415246 // "FRAM"
)

func (f FourCC) String() string {
	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], uint32(f))
	for i, b := range raw {
		if b < 0x20 || b > 0x7e {
			raw[i] = '?'
		}
	}
	return string(raw[:])
}

const chunkHeaderSize = 16

// Chunk is the basic AXO container unit: a 16-byte header followed by
// Size payload bytes. RecordSize is only meaningful for table chunks.
type Chunk struct {
	Offset     int
	Tag        FourCC
	Size       uint32
	Count      uint32
	RecordSize uint32
}

func (c *Chunk) PayloadOffset() int {
	return c.Offset + chunkHeaderSize
}

func (c *Chunk) String() string {
	return fmt.Sprintf("Chunk{%q off:0x%x size:0x%x count:%d recordSize:0x%x}",
		c.Tag.String(), c.Offset, c.Size, c.Count, c.RecordSize)
}

func parseChunkAt(b []byte, off int) (Chunk, error) {
	if off < 0 || off+chunkHeaderSize > len(b) {
		return Chunk{}, &mdl.BoundsError{Offset: off, Need: chunkHeaderSize, Have: len(b) - off}
	}
	return Chunk{
		Offset:     off,
		Tag:        FourCC(binary.LittleEndian.Uint32(b[off:])),
		Size:       binary.LittleEndian.Uint32(b[off+4:]),
		Count:      binary.LittleEndian.Uint32(b[off+8:]),
		RecordSize: binary.LittleEndian.Uint32(b[off+12:]),
	}, nil
}

// Payload slices the chunk's body out of the file buffer.
func (c *Chunk) Payload(b []byte) ([]byte, error) {
	start := c.PayloadOffset()
	if start+int(c.Size) > len(b) {
		return nil, &mdl.BoundsError{Offset: start, Need: int(c.Size), Have: len(b) - start}
	}
	return b[start : start+int(c.Size)], nil
}

// CheckMagic validates the INFO/AXO_ double magic and returns the format
// version stored at +0x14.
func CheckMagic(b []byte) (version uint32, err error) {
	if len(b) < 0x20 {
		return 0, &mdl.BoundsError{Offset: 0, Need: 0x20, Have: len(b)}
	}
	if FourCC(binary.LittleEndian.Uint32(b)) != TAG_INFO {
		return 0, &mdl.FormatError{Offset: 0, Msg: "missing INFO magic"}
	}
	if FourCC(binary.LittleEndian.Uint32(b[0x10:])) != TAG_AXO_ {
		return 0, &mdl.FormatError{Offset: 0x10, Msg: "missing AXO_ magic"}
	}
	return binary.LittleEndian.Uint32(b[0x14:]), nil
}

// WalkTop yields successive top-level chunks starting at offset 0. The walk
// ends at an "END " tag or at the buffer end; a non-advancing chunk is an
// error since the offset must strictly increase.
func WalkTop(b []byte) ([]Chunk, error) {
	out := make([]Chunk, 0, 8)
	off := 0
	// any valid walk takes at most len/16 steps
	for steps := 0; off+chunkHeaderSize <= len(b) && steps <= len(b)/chunkHeaderSize; steps++ {
		c, err := parseChunkAt(b, off)
		if err != nil {
			return out, err
		}
		out = append(out, c)
		if c.Tag == TAG_END_ {
			return out, nil
		}
		next := off + chunkHeaderSize + int(c.Size)
		if next <= off {
			return out, &mdl.BoundsError{Offset: off, Need: chunkHeaderSize + int(c.Size), Have: 0}
		}
		off = next
	}
	return out, nil
}

// Nested container children never legitimately reach this count; anything
// above it is corruption.
const maxChildChunks = 0x1000

// WalkChildren iterates the nested chunks of a container such as GEOG.
// Unlike the top-level walk there is no end marker: the container's Count
// field says how many children follow its header.
func WalkChildren(b []byte, parent *Chunk) ([]Chunk, error) {
	if parent.Count > maxChildChunks {
		return nil, &mdl.FormatError{
			Offset: parent.Offset,
			Msg:    fmt.Sprintf("%s child count %d exceeds sanity bound", parent.Tag, parent.Count),
		}
	}
	out := make([]Chunk, 0, parent.Count)
	off := parent.PayloadOffset()
	for i := uint32(0); i < parent.Count; i++ {
		c, err := parseChunkAt(b, off)
		if err != nil {
			return out, err
		}
		out = append(out, c)
		next := off + chunkHeaderSize + int(c.Size)
		if next <= off {
			return out, &mdl.BoundsError{Offset: off, Need: chunkHeaderSize + int(c.Size), Have: 0}
		}
		off = next
	}
	return out, nil
}
