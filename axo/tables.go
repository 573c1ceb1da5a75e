package axo

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/quolt/axoscn_browser/mdl"
	"github.com/quolt/axoscn_browser/utils"
)

const (
	texEntrySize   = 36 // id:u32 + name[32]
	mtrlRecordSize = 68 // 17 * u32
)

type TextureEntry struct {
	Id   uint32
	Name string
}

// MaterialRecord is 17 words the format overlays as both integers and
// floats. Word 0 joins against ATOM's MTRL value, word 15 is the texture id.
type MaterialRecord struct {
	Words [17]uint32
}

func (m *MaterialRecord) Key() uint32 {
	return m.Words[0]
}

func (m *MaterialRecord) TextureId() uint32 {
	return m.Words[15]
}

func (m *MaterialRecord) Floats() [17]float32 {
	var out [17]float32
	for i, w := range m.Words {
		out[i] = math.Float32frombits(w)
	}
	return out
}

type AtomPair struct {
	Tag   FourCC
	Value uint32
}

// AtomRecord is an ordered list of tag/value bindings. GEOM indexes the
// geometry-chunk list, MTRL joins the material table, FRAM is an animation
// key this decoder only carries through.
type AtomRecord struct {
	Pairs []AtomPair
}

func (a *AtomRecord) Lookup(tag FourCC) (uint32, bool) {
	for _, p := range a.Pairs {
		if p.Tag == tag {
			return p.Value, true
		}
	}
	return 0, false
}

func ParseTexTable(b []byte, c *Chunk) ([]TextureEntry, error) {
	if c.Tag != TAG_TEX_ {
		return nil, &mdl.FormatError{Offset: c.Offset, Msg: "not a TEX chunk"}
	}
	payload, err := c.Payload(b)
	if err != nil {
		return nil, err
	}
	if int(c.Count)*texEntrySize > len(payload) {
		return nil, &mdl.BoundsError{Offset: c.PayloadOffset(), Need: int(c.Count) * texEntrySize, Have: len(payload)}
	}
	out := make([]TextureEntry, 0, c.Count)
	for i := 0; i < int(c.Count); i++ {
		rec := payload[i*texEntrySize:]
		out = append(out, TextureEntry{
			Id:   binary.LittleEndian.Uint32(rec),
			Name: utils.BytesToString(rec[4:texEntrySize]),
		})
	}
	return out, nil
}

func ParseMtrlTable(b []byte, c *Chunk) ([]MaterialRecord, error) {
	if c.Tag != TAG_MTRL {
		return nil, &mdl.FormatError{Offset: c.Offset, Msg: "not a MTRL chunk"}
	}
	payload, err := c.Payload(b)
	if err != nil {
		return nil, err
	}
	if int(c.Count)*mtrlRecordSize > len(payload) {
		return nil, &mdl.BoundsError{Offset: c.PayloadOffset(), Need: int(c.Count) * mtrlRecordSize, Have: len(payload)}
	}
	out := make([]MaterialRecord, c.Count)
	for i := range out {
		rec := payload[i*mtrlRecordSize:]
		for w := 0; w < 17; w++ {
			out[i].Words[w] = binary.LittleEndian.Uint32(rec[w*4:])
		}
	}
	return out, nil
}

// ParseAtomTable decodes Count records of RecordSize bytes, each holding
// RecordSize/8 tag/value pairs.
func ParseAtomTable(b []byte, c *Chunk) ([]AtomRecord, error) {
	if c.Tag != TAG_ATOM {
		return nil, &mdl.FormatError{Offset: c.Offset, Msg: "not an ATOM chunk"}
	}
	recSize := int(c.RecordSize)
	if recSize <= 0 || recSize%8 != 0 {
		return nil, errors.WithStack(&mdl.FormatError{
			Offset: c.Offset, Msg: "ATOM record size is not a multiple of 8"})
	}
	payload, err := c.Payload(b)
	if err != nil {
		return nil, err
	}
	if int(c.Count)*recSize > len(payload) {
		return nil, &mdl.BoundsError{Offset: c.PayloadOffset(), Need: int(c.Count) * recSize, Have: len(payload)}
	}
	out := make([]AtomRecord, 0, c.Count)
	for i := 0; i < int(c.Count); i++ {
		rec := payload[i*recSize:]
		pairs := make([]AtomPair, recSize/8)
		for p := range pairs {
			pairs[p] = AtomPair{
				Tag:   FourCC(binary.LittleEndian.Uint32(rec[p*8:])),
				Value: binary.LittleEndian.Uint32(rec[p*8+4:]),
			}
		}
		out = append(out, AtomRecord{Pairs: pairs})
	}
	return out, nil
}
