package mdl

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

var mtlNameCleaner = regexp.MustCompile(`[^0-9A-Za-z_.:/+-]+`)

func SanitizeMtlName(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\\", "/")
	s = mtlNameCleaner.ReplaceAllString(s, "_")
	if s == "" {
		return "mat"
	}
	return s
}

func (m *Model) mtlFor(id uint32) string {
	return SanitizeMtlName(fmt.Sprintf("%s_mat%d", m.Name, id))
}

// ExportMtl writes one newmtl entry per material id used by the model's
// subsets, or a single entry when the model has no subsets.
func (m *Model) ExportMtl(_w io.Writer) error {
	w := func(format string, args ...interface{}) {
		fmt.Fprintf(_w, format+"\n", args...)
	}

	writeSet := func(name string, set MaterialSet) {
		w("newmtl %s", name)
		w("Kd 1.000000 1.000000 1.000000")
		if set.ColorMap != "" {
			w("map_Kd %s", set.ColorMap)
		}
		if set.NormalMap != "" {
			w("map_Bump %s", set.NormalMap)
		}
		if set.LuminosityMap != "" {
			w("map_Ke %s", set.LuminosityMap)
		}
		if set.ReflectionMap != "" {
			w("# ReflectionMap %s", set.ReflectionMap)
		}
		w("")
	}

	if len(m.Mesh.Subsets) != 0 {
		used := make(map[uint32]struct{})
		for _, s := range m.Mesh.Subsets {
			used[s.MaterialId] = struct{}{}
		}
		ids := make([]uint32, 0, len(used))
		for id := range used {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			writeSet(m.mtlFor(id), m.Mesh.MaterialSets[id])
		}
	} else {
		writeSet(m.mtlFor(0), m.Mesh.MaterialSets[0])
	}
	return nil
}

// ExportMtlAll writes the material libraries of all models into one file.
func ExportMtlAll(w io.Writer, models []*Model) error {
	for _, m := range models {
		if err := m.ExportMtl(w); err != nil {
			return err
		}
	}
	return nil
}

// ExportObjAll writes all models into one OBJ sharing a global index
// space, one o-group per model.
func ExportObjAll(_w io.Writer, models []*Model, mtlLib string) error {
	w := func(format string, args ...interface{}) {
		fmt.Fprintf(_w, format+"\n", args...)
	}
	if mtlLib != "" {
		w("mtllib %s", mtlLib)
	}

	base := uint32(0)
	for _, m := range models {
		mesh := m.Mesh
		w("o %s", SanitizeMtlName(m.Name))
		for _, v := range mesh.Positions {
			w("v %f %f %f", v[0], v[1], v[2])
		}
		for i := range mesh.Positions {
			uv := DefaultUV
			if i < len(mesh.UVs) {
				uv = mesh.UVs[i]
			}
			w("vt %f %f", uv[0], uv[1])
		}
		for i := range mesh.Positions {
			n := DefaultNormal
			if i < len(mesh.Normals) {
				n = mesh.Normals[i]
			}
			w("vn %f %f %f", n[0], n[1], n[2])
		}

		face := func(tri int) {
			a := base + mesh.Indices[tri*3] + 1
			b := base + mesh.Indices[tri*3+1] + 1
			c := base + mesh.Indices[tri*3+2] + 1
			w("f %d/%d/%d %d/%d/%d %d/%d/%d", a, a, a, b, b, b, c, c, c)
		}

		if len(mesh.Subsets) != 0 {
			for _, s := range mesh.Subsets {
				w("usemtl %s", m.mtlFor(s.MaterialId))
				for tri := int(s.StartTri); tri < int(s.StartTri+s.TriCount); tri++ {
					face(tri)
				}
			}
		} else {
			w("usemtl %s", m.mtlFor(0))
			for tri := 0; tri < mesh.FaceCount(); tri++ {
				face(tri)
			}
		}
		base += uint32(len(mesh.Positions))
	}
	return nil
}

// ExportObj writes the model as OBJ referencing mtlLib. Subset ranges
// become usemtl runs so per-range material assignment survives the export.
func (m *Model) ExportObj(_w io.Writer, mtlLib string) error {
	w := func(format string, args ...interface{}) {
		fmt.Fprintf(_w, format+"\n", args...)
	}

	mesh := m.Mesh
	if mtlLib != "" {
		w("mtllib %s", mtlLib)
	}
	w("o %s", SanitizeMtlName(m.Name))

	for _, v := range mesh.Positions {
		w("v %f %f %f", v[0], v[1], v[2])
	}
	for i := range mesh.Positions {
		uv := DefaultUV
		if i < len(mesh.UVs) {
			uv = mesh.UVs[i]
		}
		w("vt %f %f", uv[0], uv[1])
	}
	for i := range mesh.Positions {
		n := DefaultNormal
		if i < len(mesh.Normals) {
			n = mesh.Normals[i]
		}
		w("vn %f %f %f", n[0], n[1], n[2])
	}

	face := func(tri int) {
		a := mesh.Indices[tri*3] + 1
		b := mesh.Indices[tri*3+1] + 1
		c := mesh.Indices[tri*3+2] + 1
		w("f %d/%d/%d %d/%d/%d %d/%d/%d", a, a, a, b, b, b, c, c, c)
	}

	if len(mesh.Subsets) != 0 {
		for _, s := range mesh.Subsets {
			w("usemtl %s", m.mtlFor(s.MaterialId))
			for tri := int(s.StartTri); tri < int(s.StartTri+s.TriCount); tri++ {
				face(tri)
			}
		}
	} else {
		w("usemtl %s", m.mtlFor(0))
		for tri := 0; tri < mesh.FaceCount(); tri++ {
			face(tri)
		}
	}
	return nil
}
