package scn

import (
	"github.com/pkg/errors"

	"github.com/quolt/axoscn_browser/binread"
	"github.com/quolt/axoscn_browser/mdl"
)

// Corrupt files can fake arbitrarily deep child/sibling chains; the tree is
// acyclic by construction, so depth is purely corruption-controlled.
const maxTreeDepth = 512

const treeNodeBlobSize = 0x40

// TreeNode is a scene-graph node. The 64-byte payload is opaque here: this
// parser exists for byte-length bookkeeping, every section after the tree
// is positioned relative to its end.
type TreeNode struct {
	Name     string
	Blob     [treeNodeBlobSize]byte `json:"-"`
	Children []*TreeNode            `json:",omitempty"`
}

// ParseTree consumes one child/sibling encoded tree from the reader and
// returns the top-level sibling chain. The reader is left positioned on
// the first byte after the tree.
func ParseTree(r *binread.Reader) ([]*TreeNode, error) {
	root := &TreeNode{}
	if err := parseTreeNode(r, root, 0); err != nil {
		return nil, err
	}
	return root.Children, nil
}

// parseTreeNode reads one node, appending it to parent. A child flag
// recurses under the new node; a sibling flag recurses under the same
// parent, which flattens the sibling chain into parent.Children.
func parseTreeNode(r *binread.Reader, parent *TreeNode, depth int) error {
	if depth > maxTreeDepth {
		return &mdl.FormatError{Offset: r.Pos(), Msg: "scene tree exceeds depth cap"}
	}

	node := &TreeNode{}
	name, err := r.CStr()
	if err != nil {
		return errors.Wrap(err, "node name")
	}
	node.Name = name

	blob, err := r.Bytes(treeNodeBlobSize)
	if err != nil {
		return errors.Wrapf(err, "node %q payload", name)
	}
	copy(node.Blob[:], blob)

	parent.Children = append(parent.Children, node)

	hasChild, err := r.U32()
	if err != nil {
		return err
	}
	if hasChild == 1 {
		if err := parseTreeNode(r, node, depth+1); err != nil {
			return err
		}
	}

	hasSibling, err := r.U32()
	if err != nil {
		return err
	}
	if hasSibling == 1 {
		return parseTreeNode(r, parent, depth+1)
	}
	return nil
}
