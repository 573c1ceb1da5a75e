package scn

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/quolt/axoscn_browser/mdl"
)

func writeDeclElement(w *bytes.Buffer, e DeclElement) {
	binary.Write(w, binary.LittleEndian, e.Stream)
	binary.Write(w, binary.LittleEndian, e.Offset)
	w.WriteByte(e.Type)
	w.WriteByte(e.Method)
	w.WriteByte(e.Usage)
	w.WriteByte(e.UsageIndex)
}

// declBlock builds a 520-byte table from the given elements plus the end
// sentinel, zero padded.
func declBlock(elems ...DeclElement) []byte {
	var b bytes.Buffer
	for _, e := range elems {
		writeDeclElement(&b, e)
	}
	writeDeclElement(&b, DeclElement{Stream: declStreamEnd})
	out := make([]byte, DeclBlockSize)
	copy(out, b.Bytes())
	return out
}

func posUVDecl() []byte {
	return declBlock(
		DeclElement{Stream: 0, Offset: 0, Type: DECLTYPE_FLOAT3, Usage: DECLUSAGE_POSITION},
		DeclElement{Stream: 0, Offset: 12, Type: DECLTYPE_FLOAT2, Usage: DECLUSAGE_TEXCOORD},
	)
}

func TestParseDeclaration(t *testing.T) {
	d, err := ParseDeclaration(posUVDecl())
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Elements) != 2 {
		t.Fatalf("got %d elements; expected 2", len(d.Elements))
	}
	if d.Stride != 20 {
		t.Errorf("Stride=%d; expected 20", d.Stride)
	}
}

func TestParseDeclarationRejects(t *testing.T) {
	// no sentinel
	noEnd := make([]byte, DeclBlockSize)
	if _, err := ParseDeclaration(noEnd); err == nil {
		t.Error("table without sentinel accepted")
	}

	// element type out of range
	bad := declBlock(DeclElement{Stream: 0, Offset: 0, Type: 42, Usage: DECLUSAGE_POSITION})
	_, err := ParseDeclaration(bad)
	if err == nil {
		t.Fatal("bad element type accepted")
	}
	if _, ok := err.(*mdl.UnsupportedLayoutError); !ok {
		t.Errorf("error is %T; expected *mdl.UnsupportedLayoutError", err)
	}
}

func buildDeclBlob(decl []byte, verts []float32, stride int, indices []uint16) []byte {
	var b bytes.Buffer
	b.Write(decl)
	binary.Write(&b, binary.LittleEndian, uint32(len(verts)*4/stride))
	binary.Write(&b, binary.LittleEndian, verts)
	binary.Write(&b, binary.LittleEndian, uint32(0)) // 16-bit index format
	binary.Write(&b, binary.LittleEndian, uint32(len(indices)))
	binary.Write(&b, binary.LittleEndian, indices)
	return b.Bytes()
}

func TestDecodeDeclBlob(t *testing.T) {
	verts := []float32{
		0, 0, 0 /* uv */, 0, 0,
		1, 0, 0, 1, 0,
		0, 1, 0, 0, 1,
	}
	payload := buildDeclBlob(posUVDecl(), verts, 20, []uint16{0, 1, 2})

	mesh, end, err := DecodeDeclBlob(payload, 0)
	if err != nil {
		t.Fatal(err)
	}
	if end != len(payload) {
		t.Errorf("end=%d; expected %d", end, len(payload))
	}
	if len(mesh.Positions) != 3 {
		t.Fatalf("got %d positions; expected 3", len(mesh.Positions))
	}
	if mesh.Positions[1] != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("position[1]=%v; expected (1,0,0)", mesh.Positions[1])
	}
	// V is flipped
	if mesh.UVs[2] != (mgl32.Vec2{0, 0}) {
		t.Errorf("uv[2]=%v; expected flipped (0,0)", mesh.UVs[2])
	}
	if mesh.UVs[0] != (mgl32.Vec2{0, 1}) {
		t.Errorf("uv[0]=%v; expected flipped (0,1)", mesh.UVs[0])
	}
	if len(mesh.Normals) != 0 {
		t.Errorf("declaration without normals produced %d normals", len(mesh.Normals))
	}
}

func TestDecodeDeclBlobBadIndex(t *testing.T) {
	verts := []float32{0, 0, 0, 0, 0}
	payload := buildDeclBlob(posUVDecl(), verts, 20, []uint16{0, 0, 7})
	_, _, err := DecodeDeclBlob(payload, 0)
	if err == nil {
		t.Fatal("index past vertex count accepted")
	}
	if _, ok := err.(*mdl.ConsistencyError); !ok {
		t.Errorf("error is %T; expected *mdl.ConsistencyError", err)
	}
}

func TestDecodeDeclBlobTruncatedVB(t *testing.T) {
	payload := buildDeclBlob(posUVDecl(), []float32{0, 0, 0, 0, 0}, 20, []uint16{0, 0, 0})
	// claim more vertices than the buffer holds
	binary.LittleEndian.PutUint32(payload[DeclBlockSize:], 1000)
	if _, _, err := DecodeDeclBlob(payload, 0); err == nil {
		t.Error("truncated vertex buffer accepted")
	}
}
