package axo

import (
	"fmt"
	"log"

	"github.com/pkg/errors"

	"github.com/quolt/axoscn_browser/mdl"
)

// Document is one decoded .axo file: the raw tables plus the assembled
// models. GeometryCount includes GEOM entries that failed to decode, since
// ATOM's GEOM values are positional indexes into the chunk list.
type Document struct {
	Version       uint32
	Chunks        []Chunk
	Textures      []TextureEntry
	Materials     []MaterialRecord
	Atoms         []AtomRecord
	GeometryCount int
	Models        []*mdl.Model
}

// Decode parses a complete AXO buffer. One corrupt GEOM entry does not
// abort its siblings; table-level errors abort only their own table.
func Decode(b []byte) (*Document, error) {
	version, err := CheckMagic(b)
	if err != nil {
		return nil, err
	}

	chunks, err := WalkTop(b)
	if err != nil {
		return nil, errors.Wrap(err, "top-level chunk walk failed")
	}

	doc := &Document{Version: version, Chunks: chunks}

	var geometries []*Geometry

	for i := range chunks {
		c := &chunks[i]
		switch c.Tag {
		case TAG_TEX_:
			if doc.Textures, err = ParseTexTable(b, c); err != nil {
				log.Printf("[axo] texture table at 0x%x rejected: %v", c.Offset, err)
			}
		case TAG_MTRL:
			if doc.Materials, err = ParseMtrlTable(b, c); err != nil {
				log.Printf("[axo] material table at 0x%x rejected: %v", c.Offset, err)
			}
		case TAG_ATOM:
			if doc.Atoms, err = ParseAtomTable(b, c); err != nil {
				log.Printf("[axo] atom table at 0x%x rejected: %v", c.Offset, err)
			}
		case TAG_GEOG:
			children, err := WalkChildren(b, c)
			if err != nil {
				log.Printf("[axo] geometry group at 0x%x truncated: %v", c.Offset, err)
			}
			for j := range children {
				child := &children[j]
				if child.Tag != TAG_GEOM {
					// non-geometry child still occupies a position
					geometries = append(geometries, nil)
					continue
				}
				g, err := ParseGeometry(b, child)
				if err != nil {
					log.Printf("[axo] geom[%d] at 0x%x rejected: %v", j, child.Offset, err)
					geometries = append(geometries, nil)
					continue
				}
				geometries = append(geometries, g)
			}
		case TAG_INFO, TAG_END_, TAG_FRAM:
			// structural / non-geometry chunks
		default:
			log.Printf("[axo] skipping unknown chunk %q at 0x%x", c.Tag.String(), c.Offset)
		}
	}

	doc.GeometryCount = len(geometries)
	doc.Models = assembleModels(doc, geometries)
	return doc, nil
}

// assembleModels builds one model per decoded geometry and binds texture
// names through the ATOM -> MTRL -> TEX chain.
func assembleModels(doc *Document, geometries []*Geometry) []*mdl.Model {
	texById := make(map[uint32]string, len(doc.Textures))
	for _, t := range doc.Textures {
		texById[t.Id] = t.Name
	}

	// texture name per geometry position
	boundTex := make(map[int]string)
	for ai := range doc.Atoms {
		atom := &doc.Atoms[ai]
		geomIdx, ok := atom.Lookup(TAG_GEOM)
		if !ok {
			continue
		}
		mtrlKey, ok := atom.Lookup(TAG_MTRL)
		if !ok {
			continue
		}
		var texId uint32
		found := false
		for mi := range doc.Materials {
			if doc.Materials[mi].Key() == mtrlKey {
				texId = doc.Materials[mi].TextureId()
				found = true
				break
			}
		}
		if !found {
			log.Printf("[axo] atom[%d] material key %d not present in material table", ai, mtrlKey)
			continue
		}
		if name, ok := texById[texId]; ok {
			boundTex[int(geomIdx)] = name
		} else {
			log.Printf("[axo] atom[%d] texture id %d not present in texture table", ai, texId)
		}
	}

	models := make([]*mdl.Model, 0, len(geometries))
	for i, g := range geometries {
		if g == nil {
			continue
		}
		mesh := &mdl.Mesh{
			Positions:    g.Streams.Positions,
			Normals:      g.Streams.Normals,
			UVs:          g.Streams.UVs,
			Indices:      BuildIndices(g.Streams.Batches, g.Prim),
			MaterialSets: make(map[uint32]mdl.MaterialSet),
		}
		if err := mesh.CheckIndices(); err != nil {
			log.Printf("[axo] geom[%d] rejected: %v", i, err)
			continue
		}
		if name, ok := boundTex[i]; ok {
			mesh.MaterialSets[0] = mdl.MaterialSet{ColorMap: name}
		}
		if fc := mesh.FaceCount(); fc > 0 {
			mesh.Subsets = []mdl.Subset{{
				MaterialId:  0,
				StartTri:    0,
				TriCount:    uint32(fc),
				BaseVertex:  0,
				VertexCount: uint32(len(mesh.Positions)),
			}}
		}
		models = append(models, &mdl.Model{
			Name:           fmt.Sprintf("geom%02d", i),
			ContainerIndex: i,
			GroupIndex:     -1,
			Mesh:           mesh,
		})
	}
	return models
}
