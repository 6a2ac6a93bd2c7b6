package tree

import (
	"syscall"

	tree_node "memtree/tree/node"
	tree_path "memtree/tree/path"
)

// Move relocates the whole subtree at source to target. Returns
// syscall.EINVAL for malformed paths, syscall.EBUSY when source is the
// root, syscall.EEXIST when target is the root or already exists,
// syscall.ENOENT when an intermediate folder or the source is missing
// and ErrMoveIntoSubtree when source is an ancestor of target.
//
// Move writer-locks the lowest common ancestor of the two parent
// folders before descending to either of them, which linearizes every
// pair of moves whose endpoints cross through that node. Once both
// parents are writer-held the ancestor admission is dropped again to
// cut contention. Before the subtree is respliced it is drained to
// quiescence, so no traversal observes it under its old name while the
// parent edge is rewritten.
func (tree *Tree) Move(source string, target string) error {
	if !tree_path.IsValid(source) || !tree_path.IsValid(target) {
		return syscall.EINVAL
	}
	if source == "/" {
		return syscall.EBUSY
	}
	if target == "/" {
		return syscall.EEXIST
	}
	if len(source) < len(target) && target[:len(source)] == source {
		return ErrMoveIntoSubtree
	}

	sourcePath, sourceName, _ := tree_path.SplitParent(source)
	targetPath, targetName, _ := tree_path.SplitParent(target)

	common := tree_path.CommonFiles(sourcePath, targetPath) - 1
	sourceSteps := tree_path.CountSlashes(sourcePath) - 1 - common
	targetSteps := tree_path.CountSlashes(targetPath) - 1 - common

	lca := tree.root
	if common == 0 {
		lca.WriterEnter()
	} else {
		lca.ReaderEnter()
	}

	for common > 0 {
		component, sourceRest, _ := tree_path.Split(sourcePath)
		_, targetRest, _ := tree_path.Split(targetPath)

		next := lca.Child(component)
		if next == nil {
			lca.ReaderExit()
			return syscall.ENOENT
		}

		common--
		if common == 0 {
			next.WriterEnter()
		} else {
			next.ReaderEnter()
		}
		lca.ReaderExit()

		lca = next
		sourcePath = sourceRest
		targetPath = targetRest
	}

	return moveBelow(lca, targetPath, targetName, sourcePath, sourceName, targetSteps, sourceSteps)
}

// moveDescend walks path downward from the writer-held start node,
// hand-over-hand under reader admissions, taking a writer admission on
// the node toGrandparent steps below start; Move passes the number of
// components of path, so that is the last node reached. The start
// node's admission is never touched; when path is already empty the
// start node itself is returned.
func moveDescend(start *tree_node.Node, path string, toGrandparent int) (*tree_node.Node, error) {
	current := start
	inStart := true

	for {
		component, rest, ok := tree_path.Split(path)
		if !ok {
			return current, nil
		}

		next := current.Child(component)
		if next == nil {
			if !inStart {
				current.ReaderExit()
			}
			return nil, syscall.ENOENT
		}

		toGrandparent--
		if toGrandparent == 0 {
			next.WriterEnter()
		} else {
			next.ReaderEnter()
		}

		if inStart {
			inStart = false
		} else {
			current.ReaderExit()
		}

		current = next
		path = rest
	}
}

// moveBelow runs the part of Move below the writer-held lca: pin the
// target parent first, check the target slot, then pin the source
// parent and splice. The target side goes first so a doomed move backs
// out before it disturbs the source subtree.
func moveBelow(lca *tree_node.Node, targetPath string, targetName string, sourcePath string, sourceName string, targetSteps int, sourceSteps int) error {
	targetParent, err := moveDescend(lca, targetPath, targetSteps)
	if err != nil {
		lca.WriterExit()
		return err
	}

	if targetParent.Child(targetName) != nil {
		if targetParent != lca {
			targetParent.WriterExit()
		}
		lca.WriterExit()
		return syscall.EEXIST
	}

	return moveSplice(lca, targetParent, sourcePath, sourceName, targetName, sourceSteps)
}

// moveSplice pins the source parent, drops the lca admission once both
// parents are writer-held, drains the moved subtree and rewrites the
// two parent edges.
func moveSplice(lca *tree_node.Node, targetParent *tree_node.Node, sourcePath string, sourceName string, targetName string, sourceSteps int) error {
	sourceParent, err := moveDescend(lca, sourcePath, sourceSteps)
	if err != nil {
		if targetParent != lca {
			targetParent.WriterExit()
		}
		lca.WriterExit()
		return err
	}

	moved := sourceParent.Child(sourceName)
	if moved == nil {
		if sourceParent != lca {
			sourceParent.WriterExit()
		}
		if targetParent != lca {
			targetParent.WriterExit()
		}
		lca.WriterExit()
		return syscall.ENOENT
	}

	// Both endpoints are pinned; the lca admission has done its job.
	if lca != sourceParent && lca != targetParent {
		lca.WriterExit()
	}

	moved.DrainSubtree()

	sourceParent.RemoveChild(sourceName)
	targetParent.SetChild(targetName, moved)

	if sourceParent != targetParent {
		sourceParent.WriterExit()
	}
	targetParent.WriterExit()

	return nil
}
