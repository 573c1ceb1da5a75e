package mdl

import (
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ExportGLTF builds one glTF document with a node per model. Subsets map to
// primitives sharing the vertex accessors, so per-range materials survive.
func ExportGLTF(models []*Model) (*gltf.Document, error) {
	doc := gltf.NewDocument()

	for _, model := range models {
		mesh := model.Mesh

		positions := make([][3]float32, len(mesh.Positions))
		normals := make([][3]float32, len(mesh.Positions))
		uvs := make([][2]float32, len(mesh.Positions))
		for i, p := range mesh.Positions {
			positions[i] = p

			n := DefaultNormal
			if i < len(mesh.Normals) {
				n = mesh.Normals[i]
			}
			if n.Len() > 0.5 {
				n = n.Normalize()
			}
			normals[i] = n

			uv := DefaultUV
			if i < len(mesh.UVs) {
				uv = mesh.UVs[i]
			}
			uvs[i] = uv
		}

		positionAccessor := modeler.WritePosition(doc, positions)
		normalsAccessor := modeler.WriteNormal(doc, normals)
		uvAccessor := modeler.WriteTextureCoord(doc, uvs)

		attributes := map[string]uint32{
			"POSITION":   positionAccessor,
			"NORMAL":     normalsAccessor,
			"TEXCOORD_0": uvAccessor,
		}

		gltfMesh := &gltf.Mesh{Name: model.Name}

		addPrimitive := func(indices []uint32, materialId uint32) {
			indicesAccessor := modeler.WriteIndices(doc, indices)
			var material *uint32
			if set, ok := mesh.MaterialSets[materialId]; ok && !set.Empty() {
				doc.Materials = append(doc.Materials, &gltf.Material{
					Name: set.ColorMap,
				})
				idx := uint32(len(doc.Materials) - 1)
				material = &idx
			}
			gltfMesh.Primitives = append(gltfMesh.Primitives, &gltf.Primitive{
				Attributes: attributes,
				Indices:    gltf.Index(indicesAccessor),
				Material:   material,
			})
		}

		if len(mesh.Subsets) != 0 {
			for _, s := range mesh.Subsets {
				start, end := s.StartTri*3, (s.StartTri+s.TriCount)*3
				addPrimitive(mesh.Indices[start:end], s.MaterialId)
			}
		} else {
			addPrimitive(mesh.Indices, 0)
		}

		doc.Meshes = append(doc.Meshes, gltfMesh)
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: model.Name,
			Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
	}

	return doc, nil
}

// ExportGLTFBinary encodes models as a single .glb stream.
func ExportGLTFBinary(w io.Writer, models []*Model) error {
	doc, err := ExportGLTF(models)
	if err != nil {
		return err
	}
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}
