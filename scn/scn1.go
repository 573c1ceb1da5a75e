package scn

import (
	"fmt"
	"log"

	"github.com/pkg/errors"

	"github.com/quolt/axoscn_browser/binread"
	"github.com/quolt/axoscn_browser/config"
	"github.com/quolt/axoscn_browser/mdl"
)

const scn1PairRecordSize = 12

func decodeSCN1(b []byte) (*Document, error) {
	r := binread.NewReader(b)
	if err := r.Seek(8); err != nil {
		return nil, err
	}

	doc := &Document{Revision: 1}

	var err error
	if doc.Tree, err = ParseTree(r); err != nil {
		return nil, errors.Wrap(err, "scene tree")
	}
	if doc.AutoTable, err = ParseAutoTable(r); err != nil {
		return nil, errors.Wrap(err, "auto table")
	}

	pairCount, err := r.U32()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(int(pairCount) * scn1PairRecordSize); err != nil {
		return nil, errors.Wrap(err, "pair table")
	}
	// 3 configuration words of unrecovered meaning
	if err := r.Skip(12); err != nil {
		return nil, err
	}

	// The mesh-table shape is tried first at this anchored offset; it is
	// accepted only when at least one entry decodes with a plausible
	// embedded container name, otherwise the plain container table is read
	// from the same position.
	sectionOff := r.Pos()
	containers, meshTableOK := tryMeshTable(r, int(pairCount)+1)
	if !meshTableOK {
		if err := r.Seek(sectionOff); err != nil {
			return nil, err
		}
		if containers, err = parseContainerTable(r); err != nil {
			return nil, errors.Wrap(err, "container table")
		}
	}
	doc.Containers = containers

	if doc.Groups, err = parseGroupMap(r); err != nil {
		log.Printf("[scn1] group map truncated: %v", err)
	}

	groupOf := make(map[int32]int32, len(doc.Groups))
	for _, g := range doc.Groups {
		groupOf[g.ContainerIndex] = g.GroupIndex
	}

	for _, c := range doc.Containers {
		model, err := decodeSCN1Container(b, c)
		if err != nil {
			log.Printf("[scn1] container %d %q rejected: %v", c.Index, c.Name, err)
			continue
		}
		model.GroupIndex = -1
		if g, ok := groupOf[int32(c.Index)]; ok {
			model.GroupIndex = int(g)
		}
		doc.Models = append(doc.Models, model)
	}
	return doc, nil
}

// parseContainerTable reads count size-prefixed blocks. The size field
// includes itself; the block name is a cstring at +8.
func parseContainerTable(r *binread.Reader) ([]*ContainerEntry, error) {
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	if int(count) > r.Rest() {
		return nil, &mdl.FormatError{Offset: r.Pos() - 4, Msg: "container count exceeds payload"}
	}
	out := make([]*ContainerEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		entry, err := readContainerBlock(r, int(i))
		if err != nil {
			return nil, errors.Wrapf(err, "container %d", i)
		}
		out = append(out, entry)
	}
	return out, nil
}

func readContainerBlock(r *binread.Reader, index int) (*ContainerEntry, error) {
	off := r.Pos()
	size, err := r.U32()
	if err != nil {
		return nil, err
	}
	if size < 12 || int(size) > r.Rest()+4 {
		return nil, &mdl.BoundsError{Offset: off, Need: int(size), Have: r.Rest() + 4}
	}
	if err := r.Skip(int(size) - 4); err != nil {
		return nil, err
	}
	sub, err := r.Sub(off, int(size))
	if err != nil {
		return nil, err
	}
	if err := sub.Seek(8); err != nil {
		return nil, err
	}
	name, err := sub.CStr()
	if err != nil {
		return nil, err
	}
	return &ContainerEntry{Index: index, Name: name, Offset: off, Size: int(size)}, nil
}

// tryMeshTable attempts the alternate groupCount x entryCount shape where
// each entry is {name, flag, size-prefixed payload}. Anything implausible
// rejects the whole attempt without consuming the section.
func tryMeshTable(r *binread.Reader, groupCount int) ([]*ContainerEntry, bool) {
	var out []*ContainerEntry
	named := false
	for g := 0; g < groupCount; g++ {
		entryCount, err := r.U32()
		if err != nil || entryCount > 0x1000 {
			return nil, false
		}
		for e := uint32(0); e < entryCount; e++ {
			name, err := r.CStr()
			if err != nil || !plausibleName(name) {
				return nil, false
			}
			if _, err := r.U32(); err != nil { // flag
				return nil, false
			}
			entry, err := readContainerBlock(r, len(out))
			if err != nil {
				return nil, false
			}
			if plausibleName(entry.Name) {
				named = true
			} else {
				entry.Name = name
			}
			out = append(out, entry)
		}
	}
	if !named || len(out) == 0 {
		return nil, false
	}
	return out, true
}

// parseGroupMap reads {groupIndex, containerIndex, name} triples. A
// groupIndex of -1 is an early terminator.
func parseGroupMap(r *binread.Reader) ([]GroupEntry, error) {
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	if int(count) > r.Rest() {
		return nil, &mdl.FormatError{Offset: r.Pos() - 4, Msg: "group count exceeds payload"}
	}
	out := make([]GroupEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		var g GroupEntry
		if g.GroupIndex, err = r.I32(); err != nil {
			return out, err
		}
		if g.GroupIndex == -1 {
			return out, nil
		}
		if g.ContainerIndex, err = r.I32(); err != nil {
			return out, err
		}
		if g.Name, err = r.CStr(); err != nil {
			return out, err
		}
		out = append(out, g)
	}
	return out, nil
}

// decodeSCN1Container decodes one container block into a model: material
// blocks by file order, then the declaration mesh blob, then the subset
// table. The strict path only accepts a declaration at the payload start;
// scanning for embedded blocks is heuristic.
func decodeSCN1Container(b []byte, c *ContainerEntry) (*mdl.Model, error) {
	block := b[c.Offset : c.Offset+c.Size]
	r := binread.NewReader(block)
	if err := r.Seek(8); err != nil {
		return nil, err
	}
	if _, err := r.CStr(); err != nil {
		return nil, err
	}
	payload := block[r.Pos():]

	c.MaterialSets = ParseMaterialBlocks(payload)

	declOff, mesh, err := locateSCN1Mesh(payload)
	if err != nil {
		return nil, err
	}

	for i, set := range c.MaterialSets {
		mesh.MaterialSets[uint32(i)] = set
	}

	subsets := LocateSubsets(payload, declOff, mesh)
	if len(subsets) == 0 && mesh.FaceCount() > 0 {
		subsets = []mdl.Subset{{
			MaterialId:  0,
			StartTri:    0,
			TriCount:    uint32(mesh.FaceCount()),
			BaseVertex:  0,
			VertexCount: uint32(len(mesh.Positions)),
		}}
	}
	mesh.Subsets = subsets

	name := c.Name
	if name == "" {
		name = fmt.Sprintf("container%02d", c.Index)
	}
	return &mdl.Model{Name: name, ContainerIndex: c.Index, GroupIndex: -1, Mesh: mesh}, nil
}

func locateSCN1Mesh(payload []byte) (int, *mdl.Mesh, error) {
	if len(payload) >= DeclBlockSize {
		if _, err := ParseDeclaration(payload[:DeclBlockSize]); err == nil {
			mesh, _, err := DecodeDeclBlob(payload, 0)
			if err == nil {
				return 0, mesh, nil
			}
		}
	}
	if config.HeuristicsEnabled() {
		// embedded blocks sit at arbitrary even offsets in some files
		for off := 2; off+DeclBlockSize+12 <= len(payload); off += 2 {
			if _, err := ParseDeclaration(payload[off : off+DeclBlockSize]); err != nil {
				continue
			}
			mesh, _, err := DecodeDeclBlob(payload, off)
			if err != nil {
				continue
			}
			return off, mesh, nil
		}
	}
	return 0, nil, &mdl.FormatError{Offset: 0, Msg: "no vertex declaration at payload start"}
}
