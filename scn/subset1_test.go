package scn

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/quolt/axoscn_browser/config"
	"github.com/quolt/axoscn_browser/mdl"
)

func subsetMesh(verts, faces int) *mdl.Mesh {
	m := &mdl.Mesh{MaterialSets: map[uint32]mdl.MaterialSet{}}
	for i := 0; i < verts; i++ {
		m.Positions = append(m.Positions, mgl32.Vec3{})
	}
	for i := 0; i < faces*3; i++ {
		m.Indices = append(m.Indices, 0)
	}
	return m
}

func writeSubsetRecord(w *bytes.Buffer, s mdl.Subset) {
	binary.Write(w, binary.LittleEndian, s.MaterialId)
	binary.Write(w, binary.LittleEndian, s.StartTri)
	binary.Write(w, binary.LittleEndian, s.TriCount)
	binary.Write(w, binary.LittleEndian, s.BaseVertex)
	binary.Write(w, binary.LittleEndian, s.VertexCount)
}

func TestLocateSubsetsAnchored(t *testing.T) {
	subsets := []mdl.Subset{
		{MaterialId: 0, StartTri: 0, TriCount: 4, BaseVertex: 0, VertexCount: 8},
		{MaterialId: 1, StartTri: 4, TriCount: 2, BaseVertex: 0, VertexCount: 8},
	}
	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, uint32(len(subsets)))
	for _, s := range subsets {
		writeSubsetRecord(&b, s)
	}
	declOff := b.Len()
	b.Write(make([]byte, 64)) // stand-in for the declaration

	mesh := subsetMesh(8, 6)
	got := LocateSubsets(b.Bytes(), declOff, mesh)
	if len(got) != 2 {
		t.Fatalf("got %d subsets; expected 2", len(got))
	}
	for i := range subsets {
		if got[i] != subsets[i] {
			t.Errorf("subset[%d]=%+v; expected %+v", i, got[i], subsets[i])
		}
	}
}

func TestLocateSubsetsRejectsOutOfRange(t *testing.T) {
	// triCount exceeds the 6-face mesh: the anchored table must be
	// rejected, not clamped
	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, uint32(1))
	writeSubsetRecord(&b, mdl.Subset{TriCount: 40, VertexCount: 8})
	declOff := b.Len()
	b.Write(make([]byte, 64))

	if got := LocateSubsets(b.Bytes(), declOff, subsetMesh(8, 6)); got != nil {
		t.Errorf("out of range subsets accepted: %+v", got)
	}
}

func TestLocateSubsetsWindowedIsOptIn(t *testing.T) {
	// table separated from the declaration by a gap: invisible to the
	// anchored path, found only by the heuristic window scan
	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, uint32(1))
	writeSubsetRecord(&b, mdl.Subset{MaterialId: 3, TriCount: 6, VertexCount: 8})
	b.Write(make([]byte, 32)) // gap
	declOff := b.Len()
	b.Write(make([]byte, 64))

	mesh := subsetMesh(8, 6)
	if got := LocateSubsets(b.Bytes(), declOff, mesh); got != nil {
		t.Errorf("heuristics disabled but window scan ran: %+v", got)
	}

	config.SetHeuristics(true)
	defer config.SetHeuristics(false)
	got := LocateSubsets(b.Bytes(), declOff, mesh)
	if len(got) != 1 || got[0].MaterialId != 3 {
		t.Errorf("window scan found %+v; expected the gapped table", got)
	}
}

func TestCollapseFaceMaterials(t *testing.T) {
	// per-face material ids 0,0,0,1,1,2 collapse into three runs
	var b bytes.Buffer
	for _, id := range []uint32{0, 0, 0, 1, 1, 2} {
		binary.Write(&b, binary.LittleEndian, id)
	}
	declOff := b.Len()
	b.Write(make([]byte, 64))

	mesh := subsetMesh(8, 6)
	got := collapseFaceMaterials(b.Bytes(), 0, declOff, mesh)
	if len(got) != 3 {
		t.Fatalf("got %d runs; expected 3", len(got))
	}
	if got[0].TriCount != 3 || got[1].StartTri != 3 || got[2].MaterialId != 2 {
		t.Errorf("runs=%+v", got)
	}
}

func TestCollapseFaceMaterialsConstantBuffer(t *testing.T) {
	var b bytes.Buffer
	for i := 0; i < 6; i++ {
		binary.Write(&b, binary.LittleEndian, uint32(9))
	}
	declOff := b.Len()

	if got := collapseFaceMaterials(b.Bytes(), 0, declOff, subsetMesh(8, 6)); got != nil {
		t.Errorf("single-run buffer accepted: %+v", got)
	}
}
