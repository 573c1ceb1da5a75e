package axo

import (
	"encoding/binary"

	"github.com/quolt/axoscn_browser/mdl"
	"github.com/quolt/axoscn_browser/ps2/vif"
)

const (
	geomHeaderSize = 0x20 // 8 * u32; only word 3 (stream dword count) is decoded
	geomTailSize   = 0x30 // 6 qwords consumed by the GIF packet builder
)

// PRIM topology kinds this decoder can triangulate. Other kinds yield no
// indices; the caller is free to present the vertices as a point cloud.
const (
	primKindTriStrip = 4
	primKindTriFan   = 5
)

// Geometry is one GEOM chunk's decoded payload: the VIF attribute streams
// plus the tail's PRIM topology descriptor.
type Geometry struct {
	Streams *vif.Streams
	Prim    uint16
	TailRaw [6]uint64
	Header  [8]uint32
}

// ParseGeometry decodes a GEOM chunk payload: 8-word header, VIF stream of
// header[3] dwords, 48-byte tail.
func ParseGeometry(b []byte, c *Chunk) (*Geometry, error) {
	if c.Tag != TAG_GEOM {
		return nil, &mdl.FormatError{Offset: c.Offset, Msg: "not a GEOM chunk"}
	}
	payload, err := c.Payload(b)
	if err != nil {
		return nil, err
	}
	if len(payload) < geomHeaderSize+geomTailSize {
		return nil, &mdl.BoundsError{Offset: c.PayloadOffset(), Need: geomHeaderSize + geomTailSize, Have: len(payload)}
	}

	g := &Geometry{}
	for i := range g.Header {
		g.Header[i] = binary.LittleEndian.Uint32(payload[i*4:])
	}

	streamLen := int(g.Header[3]) * 4
	if geomHeaderSize+streamLen+geomTailSize > len(payload) {
		return nil, &mdl.BoundsError{
			Offset: c.PayloadOffset() + geomHeaderSize,
			Need:   streamLen + geomTailSize,
			Have:   len(payload) - geomHeaderSize,
		}
	}

	streams, err := vif.Decode(payload[geomHeaderSize : geomHeaderSize+streamLen])
	if err != nil {
		return nil, err
	}
	g.Streams = streams

	tail := payload[geomHeaderSize+streamLen:]
	for i := range g.TailRaw {
		g.TailRaw[i] = binary.LittleEndian.Uint64(tail[i*8:])
	}
	// PRIM is an 11-bit field of the first tail qword, positioned at bit 47.
	g.Prim = uint16((g.TailRaw[0] >> 47) & 0x7ff)

	return g, nil
}

// BuildIndices triangulates the batch list according to the PRIM kind.
// Each batch of k vertices emits k-2 triangles; strips alternate winding,
// fans share the batch's first vertex. Unknown kinds produce no indices.
func BuildIndices(batches []vif.Batch, prim uint16) []uint32 {
	indices := make([]uint32, 0)
	switch prim & 7 {
	case primKindTriStrip:
		for _, b := range batches {
			s := uint32(b.StartVertex)
			for i := 2; i < b.VertexCount; i++ {
				a, bb, c := s+uint32(i)-2, s+uint32(i)-1, s+uint32(i)
				if i&1 != 0 {
					a, bb = bb, a
				}
				indices = append(indices, a, bb, c)
			}
		}
	case primKindTriFan:
		for _, b := range batches {
			s := uint32(b.StartVertex)
			for i := 2; i < b.VertexCount; i++ {
				indices = append(indices, s, s+uint32(i)-1, s+uint32(i))
			}
		}
	}
	return indices
}
