package mdl

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Subset is a contiguous triangle range bound to one material id.
type Subset struct {
	MaterialId  uint32
	StartTri    uint32
	TriCount    uint32
	BaseVertex  uint32
	VertexCount uint32
	Texture     string `json:",omitempty"` // inline texture name (SCN0 subset records)
}

// MaterialSet holds texture-name bindings only. Pixel data is somebody
// else's problem.
type MaterialSet struct {
	ColorMap      string `json:",omitempty"`
	NormalMap     string `json:",omitempty"`
	LuminosityMap string `json:",omitempty"`
	ReflectionMap string `json:",omitempty"`
}

func (m MaterialSet) Empty() bool {
	return m.ColorMap == "" && m.NormalMap == "" && m.LuminosityMap == "" && m.ReflectionMap == ""
}

// Set binds a texture name by its in-file key ("ColorMap", ...). Unknown
// keys are ignored: the formats carry shader parameters in the same table.
func (m *MaterialSet) Set(key, value string) {
	switch key {
	case "ColorMap":
		m.ColorMap = value
	case "NormalMap":
		m.NormalMap = value
	case "LuminosityMap":
		m.LuminosityMap = value
	case "ReflectionMap":
		m.ReflectionMap = value
	}
}

type Mesh struct {
	Positions    []mgl32.Vec3
	Normals      []mgl32.Vec3
	UVs          []mgl32.Vec2
	Indices      []uint32
	Subsets      []Subset
	MaterialSets map[uint32]MaterialSet
}

func (m *Mesh) FaceCount() int {
	return len(m.Indices) / 3
}

// DefaultNormal and DefaultUV pad attribute streams shorter than the
// position stream.
var (
	DefaultNormal = mgl32.Vec3{0, 0, 1}
	DefaultUV     = mgl32.Vec2{0, 0}
)

// PadAttributes extends normals/UVs to the position count with neutral
// values. Missing attributes are never an error.
func (m *Mesh) PadAttributes() {
	for len(m.Normals) < len(m.Positions) {
		m.Normals = append(m.Normals, DefaultNormal)
	}
	for len(m.UVs) < len(m.Positions) {
		m.UVs = append(m.UVs, DefaultUV)
	}
}

// CheckIndices rejects any index that exceeds the vertex count.
func (m *Mesh) CheckIndices() error {
	vc := uint32(len(m.Positions))
	for i, idx := range m.Indices {
		if idx >= vc {
			return &ConsistencyError{Msg: fmt.Sprintf("index[%d]=%d exceeds vertex count %d", i, idx, vc)}
		}
	}
	return nil
}

// CheckSubset rejects out-of-range subsets. Ranges are never clamped.
func (m *Mesh) CheckSubset(s *Subset) error {
	if int(s.StartTri)+int(s.TriCount) > m.FaceCount() {
		return &ConsistencyError{Msg: fmt.Sprintf(
			"subset tris [%d+%d] exceed face count %d", s.StartTri, s.TriCount, m.FaceCount())}
	}
	if int(s.BaseVertex)+int(s.VertexCount) > len(m.Positions) {
		return &ConsistencyError{Msg: fmt.Sprintf(
			"subset vertices [%d+%d] exceed vertex count %d", s.BaseVertex, s.VertexCount, len(m.Positions))}
	}
	return nil
}

// Model is one decoded mesh with its container/group binding.
type Model struct {
	Name           string
	ContainerIndex int
	GroupIndex     int
	Mesh           *Mesh
}
