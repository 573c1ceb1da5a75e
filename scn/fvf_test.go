package scn

import (
	"testing"

	"github.com/quolt/axoscn_browser/mdl"
)

var fvfStrideTests = []struct {
	decl   uint32
	stride int
}{
	{0x0002, 12},             // bare position
	{0x0012, 24},             // position + normal
	{0x0112, 32},             // position + normal + one uv stage
	{0x0102, 20},             // position + one uv stage
	{0x0212, 40},             // normal + two flat uv stages
	{0x00010112, 36},         // stage 0 is FLOAT3
	{0x00030112, 28},         // stage 0 is half floats
	{0x0004, 16},             // 4-float position kind
	{0x000E, 32},             // richest skinned position kind
	{0x0002 | 0x20, 16},      // point size
	{0x0002 | 0x60, 20},      // point size + diffuse
}

func TestParseFVFStride(t *testing.T) {
	for _, test := range fvfStrideTests {
		l, err := ParseFVF(test.decl)
		if err != nil {
			t.Errorf("ParseFVF(0x%x): %v", test.decl, err)
			continue
		}
		if l.Stride != test.stride {
			t.Errorf("ParseFVF(0x%x).Stride=%d; expected %d", test.decl, l.Stride, test.stride)
		}
	}
}

func TestParseFVFOffsets(t *testing.T) {
	l, err := ParseFVF(0x0112)
	if err != nil {
		t.Fatal(err)
	}
	if l.PosOffset != 0 || l.NrmOffset != 12 || l.UVOffset != 24 {
		t.Errorf("offsets pos=%d nrm=%d uv=%d; expected 0/12/24", l.PosOffset, l.NrmOffset, l.UVOffset)
	}

	l, err = ParseFVF(0x0102)
	if err != nil {
		t.Fatal(err)
	}
	if l.NrmOffset != -1 || l.UVOffset != 12 {
		t.Errorf("offsets nrm=%d uv=%d; expected -1/12", l.NrmOffset, l.UVOffset)
	}
}

func TestParseFVFUnsupported(t *testing.T) {
	for _, decl := range []uint32{0x0000, 0x4000, 0x0010} {
		_, err := ParseFVF(decl)
		if err == nil {
			t.Errorf("ParseFVF(0x%x) accepted", decl)
			continue
		}
		if _, ok := err.(*mdl.UnsupportedLayoutError); !ok {
			t.Errorf("ParseFVF(0x%x) error is %T; expected *mdl.UnsupportedLayoutError", decl, err)
		}
	}
}

var halfTests = []struct {
	in  uint16
	out float32
}{
	{0x0000, 0},
	{0x3C00, 1},
	{0xC000, -2},
	{0x3800, 0.5},
	{0x4248, 3.140625},
}

func TestHalfToFloat(t *testing.T) {
	for _, test := range halfTests {
		if got := halfToFloat(test.in); got != test.out {
			t.Errorf("halfToFloat(0x%04x)=%v; expected %v", test.in, got, test.out)
		}
	}
}
