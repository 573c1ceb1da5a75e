package scn

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/quolt/axoscn_browser/mdl"
)

// FVF bitfield fields. The low nibble pair selects the position kind, bit
// groups above it flag fixed-size attributes, byte 1 carries the texture
// stage count and the high half-word packs one 2-bit size code per stage.
const (
	fvfPositionMask  = 0x400E
	fvfNormalFlag    = 0x0010
	fvfPointSizeFlag = 0x0020
	fvfDiffuseFlag   = 0x0040
	fvfSpecularFlag  = 0x0080

	fvfStageCountShift = 8
	fvfStageCountMask  = 0xF
	fvfStageFmtShift   = 16
	fvfStageFmtMask    = 0xFFFF
)

// position-kind selector to base field size; the richest variants carry
// blend weights after xyz
var fvfPositionSizes = map[uint32]int{
	0x0002: 12,
	0x0004: 16,
	0x0006: 16,
	0x0008: 20,
	0x000A: 24,
	0x000C: 28,
	0x000E: 32,
}

// per-stage 2-bit size code to byte contribution; code 3 is a pair of
// half floats
var fvfStageSizes = [4]int{8, 12, 16, 4}

const (
	fvfStageFmtFloat2 = 0
	fvfStageFmtFloat3 = 1
	fvfStageFmtFloat4 = 2
	fvfStageFmtHalf2  = 3
)

type fvfField int

const (
	fieldPosition fvfField = iota
	fieldNormal
	fieldPointSize
	fieldDiffuse
	fieldSpecular
	fieldTexStage
)

// fvfWalk replays the bitfield's layout in order, calling visit with each
// field's offset and size. Stage index is passed for fieldTexStage, -1
// otherwise. Both the stride computation and the element-offset lookup go
// through this single walk, so the two can never disagree.
func fvfWalk(decl uint32, visit func(f fvfField, stage, off, size int)) error {
	sel := decl & fvfPositionMask
	base, ok := fvfPositionSizes[sel]
	if !ok {
		return &mdl.UnsupportedLayoutError{Decl: decl,
			Msg: fmt.Sprintf("unrecognized position kind 0x%04x", sel)}
	}

	off := 0
	visit(fieldPosition, -1, off, base)
	off += base

	if decl&fvfNormalFlag != 0 {
		visit(fieldNormal, -1, off, 12)
		off += 12
	}
	if decl&fvfPointSizeFlag != 0 {
		visit(fieldPointSize, -1, off, 4)
		off += 4
	}
	if decl&fvfDiffuseFlag != 0 {
		visit(fieldDiffuse, -1, off, 4)
		off += 4
	}
	if decl&fvfSpecularFlag != 0 {
		visit(fieldSpecular, -1, off, 4)
		off += 4
	}

	stages := int(decl>>fvfStageCountShift) & fvfStageCountMask
	fmtBits := (decl >> fvfStageFmtShift) & fvfStageFmtMask
	for s := 0; s < stages; s++ {
		size := 8
		if fmtBits != 0 {
			size = fvfStageSizes[(fmtBits>>(2*uint(s)))&3]
		}
		visit(fieldTexStage, s, off, size)
		off += size
	}
	return nil
}

// FVFLayout is the resolved per-vertex layout of one declBitfield.
type FVFLayout struct {
	Decl      uint32
	Stride    int
	PosOffset int
	NrmOffset int // -1 when absent
	UVOffset  int // -1 when absent; stage 0 only
	UVFormat  int
}

// ParseFVF derives stride and element offsets from a declBitfield. The
// walk runs twice, once accumulating sizes and once recording offsets;
// a mismatch between the two totals means the layout tables themselves
// are inconsistent and the bitfield is rejected.
func ParseFVF(decl uint32) (*FVFLayout, error) {
	stride := 0
	if err := fvfWalk(decl, func(_ fvfField, _, _, size int) {
		stride += size
	}); err != nil {
		return nil, err
	}

	l := &FVFLayout{Decl: decl, NrmOffset: -1, UVOffset: -1}
	end := 0
	if err := fvfWalk(decl, func(f fvfField, stage, off, size int) {
		end = off + size
		switch f {
		case fieldPosition:
			l.PosOffset = off
		case fieldNormal:
			l.NrmOffset = off
		case fieldTexStage:
			if stage == 0 {
				l.UVOffset = off
				fmtBits := (decl >> fvfStageFmtShift) & fvfStageFmtMask
				if fmtBits != 0 {
					l.UVFormat = int(fmtBits & 3)
				}
			}
		}
	}); err != nil {
		return nil, err
	}

	if end != stride || stride <= 0 {
		return nil, &mdl.UnsupportedLayoutError{Decl: decl,
			Msg: fmt.Sprintf("stride replay mismatch: %d vs %d", stride, end)}
	}
	l.Stride = stride
	return l, nil
}

// decodeFVFVertices fills the mesh's attribute arrays from a vertex
// buffer laid out per the bitfield. The position field's first three
// floats are xyz regardless of kind; richer kinds carry blend data after
// them. Stage-0 UVs are V-flipped like the declaration path.
func decodeFVFVertices(l *FVFLayout, vb []byte, vcount int, mesh *mdl.Mesh) {
	f32 := func(at int) float32 {
		return math.Float32frombits(uint32(vb[at]) | uint32(vb[at+1])<<8 |
			uint32(vb[at+2])<<16 | uint32(vb[at+3])<<24)
	}
	u16 := func(at int) uint16 {
		return uint16(vb[at]) | uint16(vb[at+1])<<8
	}

	for i := 0; i < vcount; i++ {
		base := i * l.Stride
		at := base + l.PosOffset
		mesh.Positions = append(mesh.Positions, mgl32.Vec3{f32(at), f32(at + 4), f32(at + 8)})

		if l.NrmOffset >= 0 {
			at = base + l.NrmOffset
			mesh.Normals = append(mesh.Normals, mgl32.Vec3{f32(at), f32(at + 4), f32(at + 8)})
		}
		if l.UVOffset >= 0 {
			at = base + l.UVOffset
			var u, v float32
			if l.UVFormat == fvfStageFmtHalf2 {
				u, v = halfToFloat(u16(at)), halfToFloat(u16(at+2))
			} else {
				u, v = f32(at), f32(at+4)
			}
			mesh.UVs = append(mesh.UVs, mgl32.Vec2{u, 1.0 - v})
		}
	}
}

// halfToFloat expands an IEEE 754 binary16 value.
func halfToFloat(h uint16) float32 {
	sign := uint32(h>>15) & 1
	exp := uint32(h>>10) & 0x1F
	frac := uint32(h) & 0x3FF

	var bits uint32
	switch {
	case exp == 0 && frac == 0:
		bits = sign << 31
	case exp == 0:
		// subnormal: renormalize
		e := uint32(127 - 15 + 1)
		for frac&0x400 == 0 {
			frac <<= 1
			e--
		}
		bits = sign<<31 | e<<23 | (frac&0x3FF)<<13
	case exp == 31:
		bits = sign<<31 | 0xFF<<23 | frac<<13
	default:
		bits = sign<<31 | (exp+127-15)<<23 | frac<<13
	}
	return math.Float32frombits(bits)
}
