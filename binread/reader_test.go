package binread

import (
	"testing"

	"github.com/quolt/axoscn_browser/mdl"
)

func TestReaderScalars(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0xff, 0xff, 0xff, 0xff})

	if v, err := r.U16(); err != nil || v != 0x0201 {
		t.Errorf("U16()=%x,%v; expected 0201", v, err)
	}
	if v, err := r.U16(); err != nil || v != 0x0403 {
		t.Errorf("U16()=%x,%v; expected 0403", v, err)
	}
	if v, err := r.I32(); err != nil || v != -1 {
		t.Errorf("I32()=%d,%v; expected -1", v, err)
	}
	if r.Rest() != 0 {
		t.Errorf("Rest()=%d; expected 0", r.Rest())
	}
	if _, err := r.U8(); err == nil {
		t.Error("U8 past end should fail")
	}
}

func TestReaderCStr(t *testing.T) {
	r := NewReader([]byte("abc\x00def"))
	s, err := r.CStr()
	if err != nil || s != "abc" {
		t.Errorf("CStr()=%q,%v; expected abc", s, err)
	}
	if r.Pos() != 4 {
		t.Errorf("Pos()=%d; expected 4", r.Pos())
	}
	if _, err := r.CStr(); err == nil {
		t.Error("unterminated CStr should fail")
	}
}

func TestReaderBoundsErrorType(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_, err := r.U32()
	if _, ok := err.(*mdl.BoundsError); !ok {
		t.Errorf("U32 overrun error is %T; expected *mdl.BoundsError", err)
	}
	if err := r.Skip(3); err == nil {
		t.Error("Skip past end should fail")
	}
}

func TestReaderSub(t *testing.T) {
	r := NewReader([]byte{0, 1, 2, 3, 4, 5})
	sub, err := r.Sub(2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Len() != 3 {
		t.Errorf("sub.Len()=%d; expected 3", sub.Len())
	}
	if v, _ := sub.U8(); v != 2 {
		t.Errorf("sub first byte=%d; expected 2", v)
	}
	if _, err := r.Sub(4, 10); err == nil {
		t.Error("out of range Sub should fail")
	}
}
