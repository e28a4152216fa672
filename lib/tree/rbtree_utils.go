package tree

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// rbtree rule validation utilities.

// References:
// https://github1s.com/minghu6/rust-minghu6/blob/master/coll_st/src/bst/rb.rs

var (
	ErrRedViolation   = errors.New("rbtree red violation")
	ErrBlackViolation = errors.New("rbtree black violation")
	ErrOrderViolation = errors.New("rbtree order violation")
	ErrLinkViolation  = errors.New("rbtree link violation")
	ErrSizeViolation  = errors.New("rbtree size violation")
)

// Inorder traversal to validate that no red node has a red child and the
// root is black.
func RedViolationValidate[K any, V any](tree RBTree[K, V]) error {
	root := tree.Root()
	if root == nil {
		return nil
	}
	if root.Color() != Black {
		return fmt.Errorf("%w: red root %v", ErrRedViolation, root.Key())
	}
	for aux := root.minimum(); aux != nil; aux = aux.succ() {
		if isRed(aux) && (isRed(aux.left) || isRed(aux.right)) {
			return fmt.Errorf("%w: red node %v has a red child", ErrRedViolation, aux.Key())
		}
	}
	return nil
}

func blackDepthTo[K any, V any](target, to *Node[K, V]) int {
	depth := 0
	for aux := target; aux != to; aux = aux.Parent() {
		if isBlack(aux) {
			depth++
		}
	}
	return depth
}

// BFS traversal to load all nodes owning at least one empty slot.
func bfsLeaves[K any, V any](tree RBTree[K, V]) []*Node[K, V] {
	aux := tree.Root()
	if aux == nil {
		return nil
	}

	leaves := make([]*Node[K, V], 0, tree.Len()>>1+1)
	queue := make([]*Node[K, V], 0, tree.Len()>>1+1)
	queue = append(queue, aux)
	for len(queue) > 0 {
		aux = queue[0]
		queue = queue[1:]
		l, r := aux.Left(), aux.Right()
		if /* empty slots, keep one */ l == nil || r == nil {
			leaves = append(leaves, aux)
		}
		if l != nil {
			queue = append(queue, l)
		}
		if r != nil {
			queue = append(queue, r)
		}
	}
	return leaves
}

/*
<X> is a RED node.
[X] is a BLACK node (or empty).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            <16>

Every path from the root down to an empty slot passes the same number
of black nodes.
*/
func BlackViolationValidate[K any, V any](tree RBTree[K, V]) error {
	leaves := bfsLeaves[K, V](tree)
	if leaves == nil {
		return nil
	}

	root := tree.Root()
	blackDepth := blackDepthTo[K, V](leaves[0], root.Parent())
	for i := 1; i < len(leaves); i++ {
		if d := blackDepthTo[K, V](leaves[i], root.Parent()); d != blackDepth {
			return fmt.Errorf("%w: black depth %d at %v, expected %d",
				ErrBlackViolation, d, leaves[i].Key(), blackDepth)
		}
	}
	return nil
}

// OrderViolationValidate checks the inorder keys are strictly ascending
// under the tree ordering.
func OrderViolationValidate[K any, V any](tree RBTree[K, V]) error {
	var prev *Node[K, V]
	for aux := tree.Root().minimum(); aux != nil; aux = aux.succ() {
		if prev != nil && tree.Compare(prev.Key(), aux.Key()) >= 0 {
			return fmt.Errorf("%w: %v is not less than %v", ErrOrderViolation, prev.Key(), aux.Key())
		}
		prev = aux
	}
	return nil
}

// LinkViolationValidate checks every parent link and cached side agree
// with the child slot actually holding the node.
func LinkViolationValidate[K any, V any](tree RBTree[K, V]) error {
	root := tree.Root()
	if root == nil {
		return nil
	}
	if root.Parent() != nil || root.Direction() != Root {
		return fmt.Errorf("%w: root %v has a parent or side %s", ErrLinkViolation, root.Key(), root.Direction())
	}
	for aux := root.minimum(); aux != nil; aux = aux.succ() {
		for _, dir := range [2]RBDirection{Left, Right} {
			c := aux.child(dir)
			if c == nil {
				continue
			}
			if c.parent != aux || c.side != dir {
				return fmt.Errorf("%w: %v child %v has side %s", ErrLinkViolation, aux.Key(), c.Key(), c.side)
			}
		}
	}
	return nil
}

func SizeViolationValidate[K any, V any](tree RBTree[K, V]) error {
	n := int64(0)
	for aux := tree.Root().minimum(); aux != nil; aux = aux.succ() {
		n++
	}
	if n != tree.Len() {
		return fmt.Errorf("%w: reachable %d, len %d", ErrSizeViolation, n, tree.Len())
	}
	return nil
}

// Validate runs all the validators. Links are checked first, the other
// validators walk the tree by them.
func Validate[K any, V any](tree RBTree[K, V]) error {
	if err := LinkViolationValidate(tree); err != nil {
		return err
	}
	return multierr.Combine(
		RedViolationValidate(tree),
		BlackViolationValidate(tree),
		OrderViolationValidate(tree),
		SizeViolationValidate(tree),
	)
}
