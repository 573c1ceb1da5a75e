package scn

import (
	"fmt"
	"log"

	"github.com/pkg/errors"

	"github.com/quolt/axoscn_browser/binread"
	"github.com/quolt/axoscn_browser/mdl"
	"github.com/quolt/axoscn_browser/utils"
)

const (
	scn0PairRecordSize  = 8
	scn0HeaderSize      = 0x28 // size + hash + name[32]
	scn0SubsetRecSize   = 0x68
	scn0SubsetFieldsOff = 0x44
	scn0SubsetNameOff   = 0x58

	// mesh blob separator between VB and IB
	scn0TagIndexed = 101
	scn0TagAlt     = 102
)

func decodeSCN0(b []byte) (*Document, error) {
	r := binread.NewReader(b)
	if err := r.Seek(4); err != nil {
		return nil, err
	}

	doc := &Document{Revision: 0}

	var err error
	if doc.Tree, err = ParseTree(r); err != nil {
		return nil, errors.Wrap(err, "scene tree")
	}
	if doc.AutoTable, err = ParseAutoTable(r); err != nil {
		return nil, errors.Wrap(err, "auto table")
	}

	// 7 configuration words of unrecovered meaning
	if err := r.Skip(7 * 4); err != nil {
		return nil, err
	}
	pairCount, err := r.U32()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(int(pairCount) * scn0PairRecordSize); err != nil {
		return nil, errors.Wrap(err, "pair table")
	}
	if err := r.Skip(3 * 4); err != nil {
		return nil, err
	}

	groupCount := int(pairCount) + 1
	for g := 0; g < groupCount; g++ {
		entryCount, err := r.U32()
		if err != nil {
			return nil, errors.Wrapf(err, "mesh table group %d", g)
		}
		if int(entryCount) > r.Rest() {
			return nil, &mdl.FormatError{Offset: r.Pos() - 4,
				Msg: fmt.Sprintf("mesh table group %d count exceeds payload", g)}
		}
		for e := uint32(0); e < entryCount; e++ {
			entryName, err := r.CStr()
			if err != nil {
				return nil, errors.Wrapf(err, "mesh entry %d/%d name", g, e)
			}
			if _, err := r.U32(); err != nil { // flag
				return nil, err
			}
			c, block, err := readSCN0Container(r, len(doc.Containers))
			if err != nil {
				return nil, errors.Wrapf(err, "mesh entry %d/%d %q", g, e, entryName)
			}
			doc.Containers = append(doc.Containers, c)
			model, err := decodeSCN0Container(block, c, entryName, doc.AutoTable)
			if err != nil {
				log.Printf("[scn0] container %d %q rejected: %v", c.Index, c.Name, err)
				continue
			}
			model.GroupIndex = g
			doc.Models = append(doc.Models, model)
		}
	}

	decodeSCN0ExtraTable(r, doc)
	return doc, nil
}

// readSCN0Container reads one size-prefixed container: size, hash, 32-byte
// name, mesh blob at +0x28. The size field includes itself.
func readSCN0Container(r *binread.Reader, index int) (*ContainerEntry, []byte, error) {
	off := r.Pos()
	size, err := r.U32()
	if err != nil {
		return nil, nil, err
	}
	if size < scn0HeaderSize || int(size) > r.Rest()+4 {
		return nil, nil, &mdl.BoundsError{Offset: off, Need: int(size), Have: r.Rest() + 4}
	}
	if err := r.Skip(int(size) - 4); err != nil {
		return nil, nil, err
	}
	sub, err := r.Sub(off, int(size))
	if err != nil {
		return nil, nil, err
	}
	block := sub.Raw()
	name := utils.BytesToString(block[8:scn0HeaderSize])
	return &ContainerEntry{Index: index, Name: name, Offset: off, Size: int(size)}, block, nil
}

// decodeSCN0ExtraTable consumes trailing supplementary containers. The
// section is optional and only entries that independently validate as
// container blocks are accepted; any implausible value ends the walk
// without error.
func decodeSCN0ExtraTable(r *binread.Reader, doc *Document) {
	if r.Rest() < 4 {
		return
	}
	start := r.Pos()
	entryCount, err := r.U32()
	if err != nil || entryCount == 0 || int(entryCount) > r.Rest() {
		return
	}
	for e := uint32(0); e < entryCount; e++ {
		pos := r.Pos()
		entryName, err := r.CStr()
		if err != nil || !plausibleName(entryName) {
			r.Seek(pos)
			return
		}
		if _, err := r.U32(); err != nil {
			r.Seek(start)
			return
		}
		c, block, err := readSCN0Container(r, len(doc.Containers))
		if err != nil || !plausibleName(c.Name) {
			r.Seek(pos)
			return
		}
		doc.Containers = append(doc.Containers, c)
		model, err := decodeSCN0Container(block, c, entryName, doc.AutoTable)
		if err != nil {
			log.Printf("[scn0] extra container %d %q rejected: %v", c.Index, c.Name, err)
			continue
		}
		model.GroupIndex = -1
		doc.Models = append(doc.Models, model)
	}
}

func decodeSCN0Container(block []byte, c *ContainerEntry, entryName string, auto []AutoOuter) (*mdl.Model, error) {
	mesh, subsets, err := DecodeFVFBlob(block, scn0HeaderSize)
	if err != nil {
		return nil, err
	}

	if len(subsets) == 0 {
		subsets = autoTableSubsets(auto, c.Name, entryName, mesh)
	}
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

	for _, s := range subsets {
		if s.Texture == "" {
			continue
		}
		if set, ok := mesh.MaterialSets[s.MaterialId]; !ok || set.ColorMap == "" {
			set.ColorMap = s.Texture
			mesh.MaterialSets[s.MaterialId] = set
		}
	}
	c.MaterialSets = materialSetList(mesh)

	name := c.Name
	if name == "" {
		name = entryName
	}
	if name == "" {
		name = fmt.Sprintf("container%02d", c.Index)
	}
	return &mdl.Model{Name: name, ContainerIndex: c.Index, GroupIndex: -1, Mesh: mesh}, nil
}

// DecodeFVFBlob decodes an FVF-bitfield mesh blob at off inside block:
// declBitfield, vertexCount, VB, a 101/102 tag, indexBytes, 16-bit IB,
// then subsetCount x 0x68-byte records.
func DecodeFVFBlob(block []byte, off int) (*mdl.Mesh, []mdl.Subset, error) {
	r := binread.NewReader(block)
	if err := r.Seek(off); err != nil {
		return nil, nil, err
	}

	decl, err := r.U32()
	if err != nil {
		return nil, nil, err
	}
	layout, err := ParseFVF(decl)
	if err != nil {
		return nil, nil, err
	}
	vcount, err := r.U32()
	if err != nil {
		return nil, nil, err
	}
	if vcount == 0 || vcount > maxPlausibleVertexCount {
		return nil, nil, &mdl.FormatError{Offset: r.Pos() - 4,
			Msg: fmt.Sprintf("implausible vertex count %d", vcount)}
	}
	vb, err := r.Bytes(int(vcount) * layout.Stride)
	if err != nil {
		return nil, nil, err
	}

	tag, err := r.U32()
	if err != nil {
		return nil, nil, err
	}
	if tag != scn0TagIndexed && tag != scn0TagAlt {
		return nil, nil, &mdl.FormatError{Offset: r.Pos() - 4,
			Msg: fmt.Sprintf("unknown mesh blob tag %d", tag)}
	}
	indexBytes, err := r.U32()
	if err != nil {
		return nil, nil, err
	}
	if indexBytes%2 != 0 {
		return nil, nil, &mdl.FormatError{Offset: r.Pos() - 4, Msg: "odd index buffer length"}
	}
	ib, err := r.Bytes(int(indexBytes))
	if err != nil {
		return nil, nil, err
	}

	mesh := &mdl.Mesh{MaterialSets: make(map[uint32]mdl.MaterialSet)}
	decodeFVFVertices(layout, vb, int(vcount), mesh)
	mesh.Indices = make([]uint32, indexBytes/2)
	for i := range mesh.Indices {
		mesh.Indices[i] = uint32(uint16(ib[i*2]) | uint16(ib[i*2+1])<<8)
	}
	if err := mesh.CheckIndices(); err != nil {
		return nil, nil, err
	}

	subsetCount, err := r.U32()
	if err != nil {
		// blob ends at the IB in some files
		return mesh, nil, nil
	}
	if int(subsetCount)*scn0SubsetRecSize > r.Rest() {
		return nil, nil, &mdl.BoundsError{Offset: r.Pos(),
			Need: int(subsetCount) * scn0SubsetRecSize, Have: r.Rest()}
	}

	subsets := make([]mdl.Subset, 0, subsetCount)
	for i := uint32(0); i < subsetCount; i++ {
		rec, err := r.Bytes(scn0SubsetRecSize)
		if err != nil {
			return nil, nil, err
		}
		s, err := parseSCN0Subset(rec, mesh)
		if err != nil {
			log.Printf("[scn0] subset %d rejected: %v", i, err)
			continue
		}
		subsets = append(subsets, s)
	}
	return mesh, subsets, nil
}

// parseSCN0Subset overlays the 0x68-byte record: five range words at
// +0x44, a 16-byte inline texture name at +0x58.
func parseSCN0Subset(rec []byte, mesh *mdl.Mesh) (mdl.Subset, error) {
	rr := binread.NewReader(rec)
	if err := rr.Seek(scn0SubsetFieldsOff); err != nil {
		return mdl.Subset{}, err
	}
	var s mdl.Subset
	s.MaterialId, _ = rr.U32()
	s.StartTri, _ = rr.U32()
	s.TriCount, _ = rr.U32()
	s.BaseVertex, _ = rr.U32()
	s.VertexCount, _ = rr.U32()
	s.Texture = utils.BytesToString(rec[scn0SubsetNameOff : scn0SubsetNameOff+16])
	if err := mesh.CheckSubset(&s); err != nil {
		return mdl.Subset{}, err
	}
	return s, nil
}

// autoTableSubsets recovers subset ranges from the auto table when the
// blob carries none, matched by container name first, entry name second.
func autoTableSubsets(auto []AutoOuter, containerName, entryName string, mesh *mdl.Mesh) []mdl.Subset {
	pick := func(name string) []mdl.Subset {
		if name == "" {
			return nil
		}
		for oi := range auto {
			for ii := range auto[oi].Entries {
				inner := &auto[oi].Entries[ii]
				if inner.Name != name || len(inner.Subsets) == 0 {
					continue
				}
				out := make([]mdl.Subset, 0, len(inner.Subsets))
				for _, s := range inner.Subsets {
					if err := mesh.CheckSubset(&s); err != nil {
						log.Printf("[scn0] auto subset for %q rejected: %v", name, err)
						continue
					}
					out = append(out, s)
				}
				return out
			}
		}
		return nil
	}
	if s := pick(containerName); len(s) != 0 {
		return s
	}
	return pick(entryName)
}

func materialSetList(mesh *mdl.Mesh) []mdl.MaterialSet {
	if len(mesh.MaterialSets) == 0 {
		return nil
	}
	max := uint32(0)
	for id := range mesh.MaterialSets {
		if id > max {
			max = id
		}
	}
	out := make([]mdl.MaterialSet, max+1)
	for id, set := range mesh.MaterialSets {
		out[id] = set
	}
	return out
}
