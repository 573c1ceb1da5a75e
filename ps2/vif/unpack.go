package vif

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/quolt/axoscn_browser/mdl"
)

// Batch is one MSCAL/MSCNT-delimited vertex run. The index builder turns
// batches into triangles according to the GEOM tail's PRIM kind.
type Batch struct {
	StartVertex int
	VertexCount int
}

// Streams is the flattened result of one VIF stream walk.
type Streams struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Batches   []Batch
}

// VU target addresses the game's micro-program reads attributes from.
const (
	unpackAddrPosition = 1
	unpackAddrNormal   = 2
	unpackAddrUV       = 3
)

// Normals are 4x16-bit signed with a mandatory w==0x1000 marker; the value
// doubles as the 1/4096 scale.
const normalScaleMarker = 0x1000

// Decode interprets a VIF command stream, collecting position/normal/UV
// unpacks and MSCAL/MSCNT batch boundaries. Unrecognized unpack shapes
// consume their payload and contribute nothing; only payloads running past
// the stream end are an error. Attribute streams shorter than the position
// stream are padded with neutral values.
func Decode(stream []byte) (*Streams, error) {
	st := &Streams{}

	batchStart := 0

	flushBatch := func() {
		if n := len(st.Positions) - batchStart; n >= 3 {
			st.Batches = append(st.Batches, Batch{StartVertex: batchStart, VertexCount: n})
		}
		batchStart = len(st.Positions)
	}

	pos := 0
	for pos+4 <= len(stream) {
		code := NewCode(binary.LittleEndian.Uint32(stream[pos:]))
		pos += 4

		if code.IsUnpack() {
			payload := code.UnpackPayloadBytes()
			if pos+payload > len(stream) {
				return nil, &mdl.BoundsError{Offset: pos, Need: payload, Have: len(stream) - pos}
			}
			decodeUnpack(st, code, stream[pos:pos+payload])
			pos += payload
			continue
		}

		switch code.Cmd() & 0x7f {
		case VIF_CMD_MSCAL, VIF_CMD_MSCNT:
			flushBatch()
		case VIF_CMD_STMASK, VIF_CMD_STROW, VIF_CMD_STCOL:
			if pos+16 > len(stream) {
				return nil, &mdl.BoundsError{Offset: pos, Need: 16, Have: len(stream) - pos}
			}
			pos += 16
		case VIF_CMD_DIRECT, VIF_CMD_DIRECTHL:
			skip := int(code.Imm()) * 16
			if pos+skip > len(stream) {
				return nil, &mdl.BoundsError{Offset: pos, Need: skip, Have: len(stream) - pos}
			}
			pos += skip
		default:
			// NOP, STCYCL, STMOD and friends carry no stream payload.
		}
	}
	flushBatch()

	for len(st.Normals) < len(st.Positions) {
		st.Normals = append(st.Normals, mdl.DefaultNormal)
	}
	for len(st.UVs) < len(st.Positions) {
		st.UVs = append(st.UVs, mdl.DefaultUV)
	}
	return st, nil
}

func decodeUnpack(st *Streams, code VifCode, payload []byte) {
	comps := code.UnpackComponents()
	bits := code.UnpackBits()
	count := code.UnpackCount()

	switch code.UnpackAddr() {
	case unpackAddrPosition:
		if bits != 32 || (comps != 3 && comps != 4) {
			return
		}
		for i := 0; i < count; i++ {
			bp := i * comps * 4
			x := math.Float32frombits(binary.LittleEndian.Uint32(payload[bp:]))
			y := math.Float32frombits(binary.LittleEndian.Uint32(payload[bp+4:]))
			z := math.Float32frombits(binary.LittleEndian.Uint32(payload[bp+8:]))
			// source space is Y-down
			st.Positions = append(st.Positions, mgl32.Vec3{x, -y, z})
		}

	case unpackAddrNormal:
		if bits != 16 || comps != 4 {
			return
		}
		// The whole stream is rejected if any w misses the scale marker:
		// without it these shorts are not normals.
		for i := 0; i < count; i++ {
			if binary.LittleEndian.Uint16(payload[i*8+6:]) != normalScaleMarker {
				return
			}
		}
		for i := 0; i < count; i++ {
			bp := i * 8
			x := float32(int16(binary.LittleEndian.Uint16(payload[bp:]))) / float32(normalScaleMarker)
			y := float32(int16(binary.LittleEndian.Uint16(payload[bp+2:]))) / float32(normalScaleMarker)
			z := float32(int16(binary.LittleEndian.Uint16(payload[bp+4:]))) / float32(normalScaleMarker)
			st.Normals = append(st.Normals, mgl32.Vec3{x, -y, z})
		}

	case unpackAddrUV:
		if bits != 32 || comps != 2 {
			return
		}
		for i := 0; i < count; i++ {
			bp := i * 8
			u := math.Float32frombits(binary.LittleEndian.Uint32(payload[bp:]))
			v := math.Float32frombits(binary.LittleEndian.Uint32(payload[bp+4:]))
			// cancel the renderer's vertical flip here
			st.UVs = append(st.UVs, mgl32.Vec2{u, 1 - v})
		}
	}
}
