package scn

import (
	"encoding/binary"

	"github.com/quolt/axoscn_browser/config"
	"github.com/quolt/axoscn_browser/mdl"
)

const (
	subsetRecordSize = 20
	maxSubsetCount   = 256

	// how far before the declaration the windowed fallback may look
	subsetSearchWindow = 0x4000
)

// LocateSubsets finds the subset/material table that precedes a
// declaration mesh blob. The default path is purely anchored: the count
// word must sit exactly 4+count*20 bytes before the declaration. The
// windowed, whole-payload, and per-face fallbacks only run when
// heuristics are enabled, and every accepted record is validated against
// the mesh; ranges are rejected, never clamped.
func LocateSubsets(payload []byte, declOff int, mesh *mdl.Mesh) []mdl.Subset {
	if s := locateSubsetsAnchored(payload, declOff, mesh); s != nil {
		return s
	}
	if !config.HeuristicsEnabled() {
		return nil
	}
	start := declOff - subsetSearchWindow
	if start < 0 {
		start = 0
	}
	if s := scanSubsetTables(payload, start, declOff-4, declOff, mesh, false); s != nil {
		return s
	}
	if s := scanSubsetTables(payload, 0, len(payload), declOff, mesh, true); s != nil {
		return s
	}
	return collapseFaceMaterials(payload, start, declOff, mesh)
}

func locateSubsetsAnchored(payload []byte, declOff int, mesh *mdl.Mesh) []mdl.Subset {
	for count := 1; count <= maxSubsetCount; count++ {
		off := declOff - (4 + count*subsetRecordSize)
		if off < 0 {
			break
		}
		if int(binary.LittleEndian.Uint32(payload[off:])) != count {
			continue
		}
		if s := readSubsetRecords(payload, off+4, count, mesh); s != nil {
			return s
		}
	}
	return nil
}

func readSubsetRecords(payload []byte, off, count int, mesh *mdl.Mesh) []mdl.Subset {
	if off+count*subsetRecordSize > len(payload) {
		return nil
	}
	out := make([]mdl.Subset, 0, count)
	for i := 0; i < count; i++ {
		rec := payload[off+i*subsetRecordSize:]
		s := mdl.Subset{
			MaterialId:  binary.LittleEndian.Uint32(rec),
			StartTri:    binary.LittleEndian.Uint32(rec[4:]),
			TriCount:    binary.LittleEndian.Uint32(rec[8:]),
			BaseVertex:  binary.LittleEndian.Uint32(rec[12:]),
			VertexCount: binary.LittleEndian.Uint32(rec[16:]),
		}
		if s.TriCount == 0 {
			return nil
		}
		if err := mesh.CheckSubset(&s); err != nil {
			return nil
		}
		out = append(out, s)
	}
	return out
}

// scanSubsetTables is the heuristic fallback: probe word-aligned offsets
// in [start,end) for a count word followed by validating records. The
// window pass keeps the table closest to the declaration; the
// whole-payload pass keeps the one covering the most triangles.
func scanSubsetTables(payload []byte, start, end, declOff int, mesh *mdl.Mesh, byCoverage bool) []mdl.Subset {
	var best []mdl.Subset
	bestScore := -1
	for off := start; off+4 <= end && off+4 <= len(payload); off += 4 {
		count := int(binary.LittleEndian.Uint32(payload[off:]))
		if count == 0 || count > maxSubsetCount {
			continue
		}
		tableEnd := off + 4 + count*subsetRecordSize
		if tableEnd > declOff && off < declOff {
			continue
		}
		s := readSubsetRecords(payload, off+4, count, mesh)
		if s == nil {
			continue
		}
		score := 0
		if byCoverage {
			for _, sub := range s {
				score += int(sub.TriCount)
			}
		} else {
			score = tableEnd // closest to the declaration wins
			if tableEnd > declOff {
				continue
			}
		}
		if score > bestScore {
			bestScore = score
			best = s
		}
	}
	return best
}

// collapseFaceMaterials looks for a per-face material-id buffer before
// the declaration and collapses it into contiguous runs. A constant
// buffer proves nothing, so fewer than two runs is a miss.
func collapseFaceMaterials(payload []byte, start, declOff int, mesh *mdl.Mesh) []mdl.Subset {
	fc := mesh.FaceCount()
	if fc < 2 {
		return nil
	}
	for off := start; off+fc*4 <= declOff; off += 4 {
		subs := tryFaceBuffer(payload, off, fc)
		if subs != nil {
			for i := range subs {
				subs[i].VertexCount = uint32(len(mesh.Positions))
			}
			return subs
		}
	}
	return nil
}

func tryFaceBuffer(payload []byte, off, faceCount int) []mdl.Subset {
	var out []mdl.Subset
	var cur mdl.Subset
	for i := 0; i < faceCount; i++ {
		id := binary.LittleEndian.Uint32(payload[off+i*4:])
		if id >= maxSubsetCount {
			return nil
		}
		if i == 0 {
			cur = mdl.Subset{MaterialId: id, StartTri: 0, TriCount: 1}
			continue
		}
		if id == cur.MaterialId {
			cur.TriCount++
			continue
		}
		out = append(out, cur)
		cur = mdl.Subset{MaterialId: id, StartTri: uint32(i), TriCount: 1}
	}
	out = append(out, cur)
	if len(out) < 2 {
		return nil
	}
	return out
}
