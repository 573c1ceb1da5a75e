package scn

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/quolt/axoscn_browser/mdl"
)

// D3D9-style vertex declaration: 65 elements of 8 bytes, closed by a
// sentinel element with stream 0xFFFF.
const (
	declElementSize = 8
	declElementMax  = 65
	DeclBlockSize   = declElementSize * declElementMax

	declStreamEnd = 0xFFFF
)

const (
	DECLTYPE_FLOAT1    = 0
	DECLTYPE_FLOAT2    = 1
	DECLTYPE_FLOAT3    = 2
	DECLTYPE_FLOAT4    = 3
	DECLTYPE_D3DCOLOR  = 4
	DECLTYPE_UBYTE4    = 5
	DECLTYPE_SHORT2    = 6
	DECLTYPE_SHORT4    = 7
	DECLTYPE_UBYTE4N   = 8
	DECLTYPE_SHORT2N   = 9
	DECLTYPE_SHORT4N   = 10
	DECLTYPE_USHORT2N  = 11
	DECLTYPE_USHORT4N  = 12
	DECLTYPE_UDEC3     = 13
	DECLTYPE_DEC3N     = 14
	DECLTYPE_FLOAT16_2 = 15
	DECLTYPE_FLOAT16_4 = 16
)

const (
	DECLUSAGE_POSITION = 0
	DECLUSAGE_NORMAL   = 3
	DECLUSAGE_TEXCOORD = 5
)

var declTypeSizes = [...]int{
	DECLTYPE_FLOAT1:    4,
	DECLTYPE_FLOAT2:    8,
	DECLTYPE_FLOAT3:    12,
	DECLTYPE_FLOAT4:    16,
	DECLTYPE_D3DCOLOR:  4,
	DECLTYPE_UBYTE4:    4,
	DECLTYPE_SHORT2:    4,
	DECLTYPE_SHORT4:    8,
	DECLTYPE_UBYTE4N:   4,
	DECLTYPE_SHORT2N:   4,
	DECLTYPE_SHORT4N:   8,
	DECLTYPE_USHORT2N:  4,
	DECLTYPE_USHORT4N:  8,
	DECLTYPE_UDEC3:     4,
	DECLTYPE_DEC3N:     4,
	DECLTYPE_FLOAT16_2: 4,
	DECLTYPE_FLOAT16_4: 8,
}

type DeclElement struct {
	Stream     uint16
	Offset     uint16
	Type       uint8
	Method     uint8
	Usage      uint8
	UsageIndex uint8
}

// Declaration is a parsed element table with its derived stream-0 stride.
type Declaration struct {
	Elements []DeclElement
	Stride   int
}

// ParseDeclaration decodes a 520-byte element table. Missing sentinel or an
// element type outside the D3D9 range rejects the whole table: a guessed
// stride corrupts every vertex after the first.
func ParseDeclaration(block []byte) (*Declaration, error) {
	if len(block) < DeclBlockSize {
		return nil, &mdl.BoundsError{Offset: 0, Need: DeclBlockSize, Have: len(block)}
	}

	d := &Declaration{}
	closed := false
	for i := 0; i < declElementMax; i++ {
		raw := block[i*declElementSize:]
		e := DeclElement{
			Stream:     binary.LittleEndian.Uint16(raw),
			Offset:     binary.LittleEndian.Uint16(raw[2:]),
			Type:       raw[4],
			Method:     raw[5],
			Usage:      raw[6],
			UsageIndex: raw[7],
		}
		if e.Stream == declStreamEnd {
			closed = true
			break
		}
		d.Elements = append(d.Elements, e)
	}
	if !closed {
		return nil, &mdl.UnsupportedLayoutError{Msg: "vertex declaration has no end sentinel"}
	}

	for _, e := range d.Elements {
		if int(e.Type) >= len(declTypeSizes) {
			return nil, &mdl.UnsupportedLayoutError{
				Msg: fmt.Sprintf("vertex declaration element type %d out of range", e.Type)}
		}
		if e.Stream != 0 {
			continue
		}
		if end := int(e.Offset) + declTypeSizes[e.Type]; end > d.Stride {
			d.Stride = end
		}
	}
	if d.Stride <= 0 || d.Stride > 1024 {
		return nil, &mdl.UnsupportedLayoutError{
			Msg: fmt.Sprintf("vertex declaration stride %d implausible", d.Stride)}
	}
	return d, nil
}

// No real model in either revision reaches this vertex count; a larger value
// is a misdetected declaration.
const maxPlausibleVertexCount = 5_000_000

// DecodeDeclBlob decodes a vertex-declaration mesh blob whose 520-byte
// element table starts at declOff inside payload. The vertex count sits in
// one of three words after the table, whichever holds a plausible value;
// the vertex buffer follows the count word, then a {format, count} index
// header and the index buffer. Returns the mesh and the offset of the
// first byte after the index buffer.
func DecodeDeclBlob(payload []byte, declOff int) (*mdl.Mesh, int, error) {
	if declOff < 0 || declOff+DeclBlockSize > len(payload) {
		return nil, 0, &mdl.BoundsError{Offset: declOff, Need: DeclBlockSize, Have: len(payload) - declOff}
	}
	decl, err := ParseDeclaration(payload[declOff : declOff+DeclBlockSize])
	if err != nil {
		return nil, 0, err
	}

	vcount, vbOff, err := locateVertexCount(payload, declOff)
	if err != nil {
		return nil, 0, err
	}

	vbSize := decl.Stride * vcount
	if vbOff+vbSize+8 > len(payload) {
		return nil, 0, &mdl.BoundsError{Offset: vbOff, Need: vbSize + 8, Have: len(payload) - vbOff}
	}
	vb := payload[vbOff : vbOff+vbSize]

	idxFmt := binary.LittleEndian.Uint32(payload[vbOff+vbSize:])
	idxCount := int(binary.LittleEndian.Uint32(payload[vbOff+vbSize+4:]))
	var idxSize int
	switch idxFmt {
	case 0:
		idxSize = 2
	case 1:
		idxSize = 4
	default:
		return nil, 0, &mdl.FormatError{Offset: vbOff + vbSize,
			Msg: fmt.Sprintf("unknown index format %d", idxFmt)}
	}
	ibOff := vbOff + vbSize + 8
	if ibOff+idxCount*idxSize > len(payload) {
		return nil, 0, &mdl.BoundsError{Offset: ibOff, Need: idxCount * idxSize, Have: len(payload) - ibOff}
	}

	mesh := &mdl.Mesh{
		Indices:      make([]uint32, idxCount),
		MaterialSets: make(map[uint32]mdl.MaterialSet),
	}
	for i := 0; i < idxCount; i++ {
		if idxSize == 2 {
			mesh.Indices[i] = uint32(binary.LittleEndian.Uint16(payload[ibOff+i*2:]))
		} else {
			mesh.Indices[i] = binary.LittleEndian.Uint32(payload[ibOff+i*4:])
		}
	}

	decodeDeclVertices(decl, vb, vcount, mesh)

	if err := mesh.CheckIndices(); err != nil {
		return nil, 0, err
	}
	return mesh, ibOff + idxCount*idxSize, nil
}

// locateVertexCount probes the three observed count-word positions after
// the declaration.
func locateVertexCount(payload []byte, declOff int) (vcount, vbOff int, err error) {
	for slot := 0; slot < 3; slot++ {
		at := declOff + DeclBlockSize + slot*4
		if at+4 > len(payload) {
			break
		}
		v := binary.LittleEndian.Uint32(payload[at:])
		if v > 0 && v <= maxPlausibleVertexCount {
			return int(v), at + 4, nil
		}
	}
	return 0, 0, &mdl.FormatError{Offset: declOff + DeclBlockSize,
		Msg: "no plausible vertex count after declaration"}
}

// decodeDeclVertices walks the element table per vertex. Only the first
// stream-0 POSITION/NORMAL/TEXCOORD0 element of the expected float type is
// decoded; everything else is layout padding as far as export goes.
func decodeDeclVertices(decl *Declaration, vb []byte, vcount int, mesh *mdl.Mesh) {
	var posElem, nrmElem, uvElem *DeclElement
	for i := range decl.Elements {
		e := &decl.Elements[i]
		if e.Stream != 0 {
			continue
		}
		switch {
		case e.Usage == DECLUSAGE_POSITION && e.Type == DECLTYPE_FLOAT3 && posElem == nil:
			posElem = e
		case e.Usage == DECLUSAGE_NORMAL && e.Type == DECLTYPE_FLOAT3 && nrmElem == nil:
			nrmElem = e
		case e.Usage == DECLUSAGE_TEXCOORD && e.UsageIndex == 0 && e.Type == DECLTYPE_FLOAT2 && uvElem == nil:
			uvElem = e
		}
	}

	f32 := func(at int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(vb[at:]))
	}
	for i := 0; i < vcount; i++ {
		base := i * decl.Stride
		if posElem != nil {
			at := base + int(posElem.Offset)
			mesh.Positions = append(mesh.Positions, mgl32.Vec3{f32(at), f32(at + 4), f32(at + 8)})
		} else {
			mesh.Positions = append(mesh.Positions, mgl32.Vec3{})
		}
		if nrmElem != nil {
			at := base + int(nrmElem.Offset)
			mesh.Normals = append(mesh.Normals, mgl32.Vec3{f32(at), f32(at + 4), f32(at + 8)})
		}
		if uvElem != nil {
			at := base + int(uvElem.Offset)
			mesh.UVs = append(mesh.UVs, mgl32.Vec2{f32(at), 1.0 - f32(at+4)})
		}
	}
}
