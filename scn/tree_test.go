package scn

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/quolt/axoscn_browser/binread"
)

func writeNode(w *bytes.Buffer, name string, hasChild, hasSibling uint32) {
	w.WriteString(name)
	w.WriteByte(0)
	w.Write(make([]byte, treeNodeBlobSize))
	binary.Write(w, binary.LittleEndian, hasChild)
	binary.Write(w, binary.LittleEndian, hasSibling)
}

func TestParseTree(t *testing.T) {
	// root -> child, then root's sibling; the child/sibling flags
	// interleave with the recursion, so the root is built by hand
	var b bytes.Buffer
	b.WriteString("root")
	b.WriteByte(0)
	b.Write(make([]byte, treeNodeBlobSize))
	binary.Write(&b, binary.LittleEndian, uint32(1)) // hasChild
	writeNode(&b, "child", 0, 0)
	binary.Write(&b, binary.LittleEndian, uint32(1)) // root hasSibling
	writeNode(&b, "other", 0, 0)
	b.Write([]byte("trailing section data"))

	r := binread.NewReader(b.Bytes())
	nodes, err := ParseTree(r)
	if err != nil {
		t.Fatal(err)
	}

	if len(nodes) != 2 {
		t.Fatalf("got %d top-level nodes; expected 2", len(nodes))
	}
	if nodes[0].Name != "root" || nodes[1].Name != "other" {
		t.Errorf("top-level names %q,%q; expected root,other", nodes[0].Name, nodes[1].Name)
	}
	if len(nodes[0].Children) != 1 || nodes[0].Children[0].Name != "child" {
		t.Errorf("root children %+v; expected one child", nodes[0].Children)
	}
	// cursor must land exactly after the tree
	if r.Rest() != len("trailing section data") {
		t.Errorf("reader Rest()=%d after tree; expected %d", r.Rest(), len("trailing section data"))
	}
}

func TestParseTreeDepthCap(t *testing.T) {
	var b bytes.Buffer
	for i := 0; i <= maxTreeDepth+1; i++ {
		b.WriteString("n")
		b.WriteByte(0)
		b.Write(make([]byte, treeNodeBlobSize))
		binary.Write(&b, binary.LittleEndian, uint32(1)) // always a child
	}
	r := binread.NewReader(b.Bytes())
	if _, err := ParseTree(r); err == nil {
		t.Error("unbounded child chain should fail")
	}
}

func TestParseTreeTruncated(t *testing.T) {
	var b bytes.Buffer
	b.WriteString("node")
	b.WriteByte(0)
	b.Write(make([]byte, 10)) // blob cut short
	r := binread.NewReader(b.Bytes())
	if _, err := ParseTree(r); err == nil {
		t.Error("truncated node should fail")
	}
}
