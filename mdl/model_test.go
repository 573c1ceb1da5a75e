package mdl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func quadMesh() *Mesh {
	return &Mesh{
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
		Indices:   []uint32{0, 1, 2, 2, 1, 3},
		MaterialSets: map[uint32]MaterialSet{
			0: {ColorMap: "a.dds"},
		},
	}
}

func TestCheckIndices(t *testing.T) {
	m := quadMesh()
	if err := m.CheckIndices(); err != nil {
		t.Errorf("valid indices rejected: %v", err)
	}
	m.Indices[3] = 4
	err := m.CheckIndices()
	if err == nil {
		t.Fatal("out of range index accepted")
	}
	if _, ok := err.(*ConsistencyError); !ok {
		t.Errorf("error is %T; expected *ConsistencyError", err)
	}
}

var subsetTests = []struct {
	name   string
	subset Subset
	ok     bool
}{
	{"full range", Subset{TriCount: 2, VertexCount: 4}, true},
	{"partial", Subset{StartTri: 1, TriCount: 1, BaseVertex: 1, VertexCount: 3}, true},
	{"tris past end", Subset{StartTri: 1, TriCount: 2, VertexCount: 4}, false},
	{"verts past end", Subset{TriCount: 2, BaseVertex: 2, VertexCount: 3}, false},
}

func TestCheckSubset(t *testing.T) {
	m := quadMesh()
	for _, test := range subsetTests {
		err := m.CheckSubset(&test.subset)
		if test.ok && err != nil {
			t.Errorf("%s: rejected: %v", test.name, err)
		}
		if !test.ok {
			if err == nil {
				t.Errorf("%s: accepted", test.name)
			} else if _, isConsistency := err.(*ConsistencyError); !isConsistency {
				t.Errorf("%s: error is %T; expected *ConsistencyError", test.name, err)
			}
		}
	}
}

func TestPadAttributes(t *testing.T) {
	m := quadMesh()
	m.Normals = []mgl32.Vec3{{1, 0, 0}}
	m.PadAttributes()
	if len(m.Normals) != 4 || len(m.UVs) != 4 {
		t.Fatalf("padded to %d normals / %d uvs; expected 4/4", len(m.Normals), len(m.UVs))
	}
	if m.Normals[0] != (mgl32.Vec3{1, 0, 0}) {
		t.Error("existing normal overwritten by padding")
	}
	if m.Normals[3] != DefaultNormal || m.UVs[3] != DefaultUV {
		t.Error("padding does not use neutral defaults")
	}
}

func TestSanitizeMtlName(t *testing.T) {
	tests := []struct{ in, out string }{
		{"enm01", "enm01"},
		{`tex\sub dir\a.dds`, "tex/sub_dir/a.dds"},
		{"", "mat"},
		{"  spaced  ", "spaced"},
	}
	for _, test := range tests {
		if got := SanitizeMtlName(test.in); got != test.out {
			t.Errorf("SanitizeMtlName(%q)=%q; expected %q", test.in, got, test.out)
		}
	}
}

func TestExportObj(t *testing.T) {
	m := &Model{Name: "quad", Mesh: quadMesh()}
	m.Mesh.Subsets = []Subset{{MaterialId: 0, TriCount: 2, VertexCount: 4}}

	var obj bytes.Buffer
	if err := m.ExportObj(&obj, "quad.mtl"); err != nil {
		t.Fatal(err)
	}
	out := obj.String()
	if strings.Count(out, "\nv ") != 4 {
		t.Errorf("expected 4 v lines:\n%s", out)
	}
	if strings.Count(out, "\nf ") != 2 {
		t.Errorf("expected 2 f lines:\n%s", out)
	}
	if !strings.Contains(out, "usemtl quad_mat0") {
		t.Errorf("missing usemtl:\n%s", out)
	}

	var mtl bytes.Buffer
	if err := m.ExportMtl(&mtl); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(mtl.String(), "map_Kd a.dds") {
		t.Errorf("missing map_Kd:\n%s", mtl.String())
	}
}

func TestExportObjAllSharedIndexSpace(t *testing.T) {
	a := &Model{Name: "a", Mesh: quadMesh()}
	b := &Model{Name: "b", Mesh: quadMesh()}

	var obj bytes.Buffer
	if err := ExportObjAll(&obj, []*Model{a, b}, ""); err != nil {
		t.Fatal(err)
	}
	out := obj.String()
	// second model's faces must reference the shifted vertex range
	if !strings.Contains(out, "f 5/5/5 6/6/6 7/7/7") {
		t.Errorf("second model indices not offset:\n%s", out)
	}
}
