package mdl

import "fmt"

// FormatError marks a magic or tag mismatch. The affected file or chunk is
// abandoned; siblings of a failed chunk keep parsing.
type FormatError struct {
	Offset int
	Msg    string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error at 0x%x: %s", e.Offset, e.Msg)
}

// BoundsError marks a computed offset or length that exceeds the buffer.
type BoundsError struct {
	Offset int
	Need   int
	Have   int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("out of bounds at 0x%x: need %d bytes, have %d", e.Offset, e.Need, e.Have)
}

// UnsupportedLayoutError marks a vertex layout we refuse to decode.
// A wrong stride corrupts every vertex after the first, so there is no
// best-effort path here.
type UnsupportedLayoutError struct {
	Decl uint32
	Msg  string
}

func (e *UnsupportedLayoutError) Error() string {
	return fmt.Sprintf("unsupported vertex layout 0x%x: %s", e.Decl, e.Msg)
}

// ConsistencyError marks an index or subset range that contradicts the mesh
// it belongs to. The offender is rejected, never clamped.
type ConsistencyError struct {
	Msg string
}

func (e *ConsistencyError) Error() string {
	return "consistency error: " + e.Msg
}
