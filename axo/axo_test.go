package axo

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/quolt/axoscn_browser/ps2/vif"
)

func put32(w *bytes.Buffer, v uint32) {
	binary.Write(w, binary.LittleEndian, v)
}

func put64(w *bytes.Buffer, v uint64) {
	binary.Write(w, binary.LittleEndian, v)
}

func putF32(w *bytes.Buffer, v float32) {
	binary.Write(w, binary.LittleEndian, v)
}

func writeChunk(w *bytes.Buffer, tag FourCC, count, recordSize uint32, payload []byte) {
	put32(w, uint32(tag))
	put32(w, uint32(len(payload)))
	put32(w, count)
	put32(w, recordSize)
	w.Write(payload)
}

func writeInfoChunk(w *bytes.Buffer, version uint32) {
	var p bytes.Buffer
	put32(&p, uint32(TAG_AXO_))
	put32(&p, version)
	put32(&p, 0)
	put32(&p, 0)
	writeChunk(w, TAG_INFO, 0, 0, p.Bytes())
}

func texPayload(entries []TextureEntry) []byte {
	var p bytes.Buffer
	for _, e := range entries {
		put32(&p, e.Id)
		var name [32]byte
		copy(name[:], e.Name)
		p.Write(name[:])
	}
	return p.Bytes()
}

func TestCheckMagic(t *testing.T) {
	var b bytes.Buffer
	writeInfoChunk(&b, 2)
	version, err := CheckMagic(b.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if version != 2 {
		t.Errorf("version=%d; expected 2", version)
	}

	bad := b.Bytes()
	bad[0] = 'X'
	if _, err := CheckMagic(bad); err == nil {
		t.Error("broken INFO magic should fail")
	}
}

func TestWalkTopTermination(t *testing.T) {
	// all-zero buffer: every chunk advances by 16, no END tag
	b := make([]byte, 160)
	chunks, err := WalkTop(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 10 {
		t.Errorf("got %d chunks from zero buffer; expected 10", len(chunks))
	}

	var f bytes.Buffer
	writeInfoChunk(&f, 1)
	writeChunk(&f, TAG_END_, 0, 0, nil)
	f.Write([]byte("garbage past the end marker"))
	chunks, err = WalkTop(f.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 || chunks[1].Tag != TAG_END_ {
		t.Errorf("walk did not stop at END: %+v", chunks)
	}
}

func TestParseTexTable(t *testing.T) {
	entries := []TextureEntry{{0, "enm01"}, {1, "si_mes_0100"}}
	var b bytes.Buffer
	writeChunk(&b, TAG_TEX_, 2, 36, texPayload(entries))

	chunks, err := WalkTop(b.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	got, err := ParseTexTable(b.Bytes(), &chunks[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(entries) {
		t.Fatalf("got %d entries; expected %d", len(got), len(entries))
	}
	for i, e := range entries {
		if got[i] != e {
			t.Errorf("entry[%d]=%+v; expected %+v", i, got[i], e)
		}
	}
}

func TestBuildIndices(t *testing.T) {
	batches := []vif.Batch{{StartVertex: 0, VertexCount: 4}}

	strip := BuildIndices(batches, primKindTriStrip)
	expected := []uint32{0, 1, 2, 2, 1, 3}
	if len(strip) != len(expected) {
		t.Fatalf("strip indices %v; expected %v", strip, expected)
	}
	for i := range expected {
		if strip[i] != expected[i] {
			t.Fatalf("strip indices %v; expected %v", strip, expected)
		}
	}

	fan := BuildIndices(batches, primKindTriFan)
	expectedFan := []uint32{0, 1, 2, 0, 2, 3}
	for i := range expectedFan {
		if fan[i] != expectedFan[i] {
			t.Fatalf("fan indices %v; expected %v", fan, expectedFan)
		}
	}

	if got := BuildIndices(batches, 3); len(got) != 0 {
		t.Errorf("unknown prim kind produced indices %v", got)
	}
}

// geomPayload builds an 8-word header, a 4-vertex VIF stream and a strip
// tail.
func geomPayload() []byte {
	var stream bytes.Buffer
	// UNPACK addr=1, 3x32bit, 4 vectors: cmd 0x68
	put32(&stream, 1|4<<16|0x68<<24)
	for _, f := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 1, 1, 0} {
		putF32(&stream, f)
	}
	put32(&stream, uint32(vif.VIF_CMD_MSCNT)<<24)

	var p bytes.Buffer
	for i := 0; i < 8; i++ {
		if i == 3 {
			put32(&p, uint32(stream.Len()/4))
		} else {
			put32(&p, 0)
		}
	}
	p.Write(stream.Bytes())
	put64(&p, uint64(primKindTriStrip)<<47)
	for i := 0; i < 5; i++ {
		put64(&p, 0)
	}
	return p.Bytes()
}

func buildTestFile(t *testing.T) []byte {
	var b bytes.Buffer
	writeInfoChunk(&b, 2)

	writeChunk(&b, TAG_TEX_, 1, 36, texPayload([]TextureEntry{{5, "tex_a"}}))

	var mtrl bytes.Buffer
	words := [17]uint32{}
	words[0] = 7 // join key
	words[15] = 5
	for _, w := range words {
		put32(&mtrl, w)
	}
	writeChunk(&b, TAG_MTRL, 1, 68, mtrl.Bytes())

	var atom bytes.Buffer
	put32(&atom, uint32(TAG_GEOM))
	put32(&atom, 0)
	put32(&atom, uint32(TAG_MTRL))
	put32(&atom, 7)
	writeChunk(&b, TAG_ATOM, 1, 16, atom.Bytes())

	var geog bytes.Buffer
	writeChunk(&geog, TAG_GEOM, 0, 0, geomPayload())
	writeChunk(&b, TAG_GEOG, 1, 0, geog.Bytes())

	writeChunk(&b, TAG_END_, 0, 0, nil)
	return b.Bytes()
}

func TestDecodeEndToEnd(t *testing.T) {
	doc, err := Decode(buildTestFile(t))
	if err != nil {
		t.Fatal(err)
	}

	if doc.GeometryCount != 1 {
		t.Fatalf("GeometryCount=%d; expected 1", doc.GeometryCount)
	}
	if len(doc.Models) != 1 {
		t.Fatalf("got %d models; expected 1", len(doc.Models))
	}

	m := doc.Models[0]
	if len(m.Mesh.Positions) != 4 {
		t.Errorf("got %d positions; expected 4", len(m.Mesh.Positions))
	}
	if m.Mesh.FaceCount() != 2 {
		t.Errorf("FaceCount()=%d; expected 2", m.Mesh.FaceCount())
	}
	if m.Mesh.MaterialSets[0].ColorMap != "tex_a" {
		t.Errorf("ColorMap=%q; expected tex_a", m.Mesh.MaterialSets[0].ColorMap)
	}
	if len(m.Mesh.Subsets) != 1 || m.Mesh.Subsets[0].TriCount != 2 {
		t.Errorf("subsets=%+v; expected one 2-triangle subset", m.Mesh.Subsets)
	}
}

func TestDecodeCorruptGeomIsolated(t *testing.T) {
	data := buildTestFile(t)
	// wreck the GEOM stream length word so the entry is rejected
	chunks, err := WalkTop(data)
	if err != nil {
		t.Fatal(err)
	}
	for i := range chunks {
		if chunks[i].Tag == TAG_GEOG {
			// child chunk header, then geom header word 3
			off := chunks[i].PayloadOffset() + 16 + 3*4
			binary.LittleEndian.PutUint32(data[off:], 0xffffff)
		}
	}

	doc, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Models) != 0 {
		t.Errorf("got %d models from corrupt geometry; expected 0", len(doc.Models))
	}
	// the failed entry still occupies its positional index
	if doc.GeometryCount != 1 {
		t.Errorf("GeometryCount=%d; expected 1", doc.GeometryCount)
	}
	if len(doc.Textures) != 1 {
		t.Errorf("texture table should survive geometry corruption")
	}
}
