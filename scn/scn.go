package scn

import (
	"bytes"

	"github.com/quolt/axoscn_browser/mdl"
)

var (
	magicSCN0 = []byte("SCN0")
	magicSCN1 = []byte("SCN1")
)

// ContainerEntry is one size-prefixed mesh container as listed by the
// section tables, before/independent of its mesh blob decoding.
type ContainerEntry struct {
	Index        int
	Name         string
	Offset       int
	Size         int
	MaterialSets []mdl.MaterialSet `json:",omitempty"`
}

// GroupEntry binds an LOD/variant group to a container.
type GroupEntry struct {
	GroupIndex     int32
	ContainerIndex int32
	Name           string
}

// Document is one decoded .scn file. Containers and Groups are the raw
// section listings; Models is the assembled mesh output.
type Document struct {
	Revision   int
	Tree       []*TreeNode
	AutoTable  []AutoOuter
	Containers []*ContainerEntry
	Groups     []GroupEntry `json:",omitempty"`
	Models     []*mdl.Model
}

// Decode dispatches on the 4-byte magic. Section-table errors abort the
// whole file since every later offset depends on them; per-container
// errors only drop that container.
func Decode(b []byte) (*Document, error) {
	if len(b) < 8 {
		return nil, &mdl.BoundsError{Offset: 0, Need: 8, Have: len(b)}
	}
	switch {
	case bytes.Equal(b[:4], magicSCN1):
		return decodeSCN1(b)
	case bytes.Equal(b[:4], magicSCN0):
		return decodeSCN0(b)
	}
	return nil, &mdl.FormatError{Offset: 0, Msg: "missing SCN0/SCN1 magic"}
}

// plausibleName accepts short printable ASCII, the shape of every observed
// container and texture name.
func plausibleName(s string) bool {
	if len(s) == 0 || len(s) > 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
