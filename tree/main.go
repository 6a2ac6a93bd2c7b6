package tree

import (
	"errors"
	"syscall"

	tree_node "memtree/tree/node"
	tree_path "memtree/tree/path"
)

// ErrMoveIntoSubtree is returned by Move when the source folder is an
// ancestor of the target, which would detach the subtree from the tree.
var ErrMoveIntoSubtree = errors.New("cannot move a folder into its own subtree")

// Tree is a concurrent in-memory hierarchy of named folders rooted at
// "/". Lookups descend hand-over-hand under reader admissions and only
// the nodes an operation mutates, plus the common ancestor a Move pins,
// are ever writer-held, so operations on independent subtrees run in
// parallel.
type Tree struct {
	root *tree_node.Node
}

// New returns a tree holding one empty folder, the root "/".
func New() *Tree {
	return &Tree{
		root: tree_node.New(),
	}
}

// Free tears the whole tree down. Undefined when any operation is still
// in flight.
func (tree *Tree) Free() {
	tree.root.Free()
	tree.root = nil
}

// List returns the names of the folders directly inside path, joined
// with commas. An empty folder yields the empty string. Returns
// syscall.EINVAL for a malformed path and syscall.ENOENT when a
// component of the path does not exist.
//
// List takes only reader admissions, so lists over overlapping paths
// proceed concurrently.
func (tree *Tree) List(path string) (string, error) {
	if !tree_path.IsValid(path) {
		return "", syscall.EINVAL
	}

	current := tree.root
	current.ReaderEnter()

	for {
		component, rest, ok := tree_path.Split(path)
		if !ok {
			contents := current.ContentsString()
			current.ReaderExit()
			return contents, nil
		}

		next := current.Child(component)
		if next == nil {
			current.ReaderExit()
			return "", syscall.ENOENT
		}

		next.ReaderEnter()
		current.ReaderExit()

		current = next
		path = rest
	}
}

// findNode descends path from start, entering each node as a reader
// except the node toGrandparent steps below start, which is entered as
// a writer (start itself when toGrandparent is 0). Callers pass the
// number of components of path, so the writer node is the last one. The child admission is always taken before
// the parent admission is dropped, so a destructive operation waiting
// on a node never misses a descent that already passed above it.
//
// On success the caller holds the writer admission on the returned
// node. On a missing component every admission has been dropped and
// syscall.ENOENT is returned; the node held at that point is released
// as a reader, since the writer target is only ever the last node.
func findNode(start *tree_node.Node, path string, toGrandparent int) (*tree_node.Node, error) {
	current := start
	if toGrandparent == 0 {
		current.WriterEnter()
	} else {
		current.ReaderEnter()
	}

	for {
		component, rest, ok := tree_path.Split(path)
		if !ok {
			return current, nil
		}

		next := current.Child(component)
		if next == nil {
			current.ReaderExit()
			return nil, syscall.ENOENT
		}

		toGrandparent--
		if toGrandparent == 0 {
			next.WriterEnter()
		} else {
			next.ReaderEnter()
		}
		current.ReaderExit()

		current = next
		path = rest
	}
}

// Create makes a new empty folder at path. Returns syscall.EINVAL for a
// malformed path, syscall.EEXIST when the folder (or the root) already
// exists and syscall.ENOENT when an intermediate folder is missing.
func (tree *Tree) Create(path string) error {
	if !tree_path.IsValid(path) {
		return syscall.EINVAL
	}

	parentPath, childName, ok := tree_path.SplitParent(path)
	if !ok {
		return syscall.EEXIST
	}

	parent, err := findNode(tree.root, parentPath, tree_path.CountSlashes(parentPath)-1)
	if err != nil {
		return err
	}

	if parent.Child(childName) != nil {
		parent.WriterExit()
		return syscall.EEXIST
	}

	parent.SetChild(childName, tree_node.New())
	parent.WriterExit()

	return nil
}

// Remove deletes the empty folder at path. Returns syscall.EINVAL for a
// malformed path, syscall.EBUSY for the root, syscall.ENOENT when the
// folder does not exist and syscall.ENOTEMPTY when it still has
// children.
func (tree *Tree) Remove(path string) error {
	if !tree_path.IsValid(path) {
		return syscall.EINVAL
	}

	parentPath, childName, ok := tree_path.SplitParent(path)
	if !ok {
		return syscall.EBUSY
	}

	parent, err := findNode(tree.root, parentPath, tree_path.CountSlashes(parentPath)-1)
	if err != nil {
		return err
	}

	child := parent.Child(childName)
	if child == nil {
		parent.WriterExit()
		return syscall.ENOENT
	}

	// The parent is writer-held, so no new descent can reach the child
	// through its name. Wait out the descents that got in earlier, then
	// the emptiness check cannot be raced.
	if !child.DrainAndCheckEmpty() {
		parent.WriterExit()
		return syscall.ENOTEMPTY
	}

	parent.RemoveChild(childName)
	child.Free()
	parent.WriterExit()

	return nil
}
