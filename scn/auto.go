package scn

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/quolt/axoscn_browser/binread"
	"github.com/quolt/axoscn_browser/mdl"
	"github.com/quolt/axoscn_browser/utils"
)

// The auto table groups per-object parameter lists under named outer and
// inner entries. Three of the four record shapes are opaque to this decoder
// and kept raw; the 104-bit shape carries subset ranges with an inline
// texture name and feeds the subset fallback path.
var autoRecordSizes = [4]int{16, 20, 16, 68}

const autoSubsetList = 3 // index of the 68-byte list

type AutoInner struct {
	Name    string
	Flag    uint32
	Raw     [3][][]byte `json:"-"`
	Subsets []mdl.Subset
}

type AutoOuter struct {
	Name    string
	Entries []AutoInner
}

// ParseAutoTable consumes the auto-block section. The reader is left on the
// first byte after the last sub-list.
func ParseAutoTable(r *binread.Reader) ([]AutoOuter, error) {
	outerCount, err := r.U32()
	if err != nil {
		return nil, err
	}
	if int(outerCount) > r.Rest() {
		return nil, &mdl.FormatError{Offset: r.Pos() - 4, Msg: "auto table outer count exceeds payload"}
	}

	out := make([]AutoOuter, 0, outerCount)
	for o := uint32(0); o < outerCount; o++ {
		var outer AutoOuter
		if outer.Name, err = r.CStr(); err != nil {
			return nil, errors.Wrapf(err, "auto outer %d name", o)
		}

		innerCount, err := r.U32()
		if err != nil {
			return nil, err
		}
		if int(innerCount) > r.Rest() {
			return nil, &mdl.FormatError{Offset: r.Pos() - 4, Msg: "auto table inner count exceeds payload"}
		}

		for i := uint32(0); i < innerCount; i++ {
			var inner AutoInner
			if inner.Name, err = r.CStr(); err != nil {
				return nil, errors.Wrapf(err, "auto entry %s/%d name", outer.Name, i)
			}
			if inner.Flag, err = r.U32(); err != nil {
				return nil, err
			}
			for l, recSize := range autoRecordSizes {
				recs, err := parseAutoList(r, recSize)
				if err != nil {
					return nil, errors.Wrapf(err, "auto entry %q list %d", inner.Name, l)
				}
				if l == autoSubsetList {
					inner.Subsets = parseAutoSubsets(recs)
				} else {
					inner.Raw[l] = recs
				}
			}
			outer.Entries = append(outer.Entries, inner)
		}
		out = append(out, outer)
	}
	return out, nil
}

func parseAutoList(r *binread.Reader, recSize int) ([][]byte, error) {
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	if int(count)*recSize > r.Rest() {
		return nil, &mdl.BoundsError{Offset: r.Pos(), Need: int(count) * recSize, Have: r.Rest()}
	}
	recs := make([][]byte, count)
	for i := range recs {
		if recs[i], err = r.Bytes(recSize); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

// parseAutoSubsets overlays the 68-byte record shape: five range words, a
// 16-byte texture name, 32 reserved bytes.
func parseAutoSubsets(recs [][]byte) []mdl.Subset {
	out := make([]mdl.Subset, 0, len(recs))
	for _, rec := range recs {
		rr := binread.NewReader(rec)
		var s mdl.Subset
		s.MaterialId, _ = rr.U32()
		s.StartTri, _ = rr.U32()
		s.TriCount, _ = rr.U32()
		s.BaseVertex, _ = rr.U32()
		s.VertexCount, _ = rr.U32()
		name, _ := rr.Bytes(16)
		s.Texture = utils.BytesToString(name)
		out = append(out, s)
	}
	return out
}

var autoMarker = []byte("auto\x00")

const maxAutoMaterialPairs = 64

// ParseMaterialBlocks scans a container payload for "auto\x00" material
// blocks and decodes them in file order. Block order is the material id
// space the subset records index into.
func ParseMaterialBlocks(payload []byte) []mdl.MaterialSet {
	var out []mdl.MaterialSet
	for off := 0; ; {
		rel := bytes.Index(payload[off:], autoMarker)
		if rel < 0 {
			return out
		}
		off += rel
		set, next, ok := parseMaterialBlock(payload, off)
		if !ok {
			off += len(autoMarker)
			continue
		}
		out = append(out, set)
		off = next
	}
}

func parseMaterialBlock(payload []byte, off int) (mdl.MaterialSet, int, bool) {
	r := binread.NewReader(payload)
	if err := r.Seek(off + len(autoMarker)); err != nil {
		return mdl.MaterialSet{}, 0, false
	}
	count, err := r.U32()
	if err != nil || count == 0 || count > maxAutoMaterialPairs {
		return mdl.MaterialSet{}, 0, false
	}
	var set mdl.MaterialSet
	for i := uint32(0); i < count; i++ {
		key, err := r.CStr()
		if err != nil {
			return mdl.MaterialSet{}, 0, false
		}
		value, err := r.CStr()
		if err != nil {
			return mdl.MaterialSet{}, 0, false
		}
		if err := r.Skip(8); err != nil {
			return mdl.MaterialSet{}, 0, false
		}
		set.Set(key, value)
	}
	return set, r.Pos(), true
}
