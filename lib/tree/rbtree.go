package tree

import (
	"errors"

	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
)

var (
	ErrAllocationFailure = errors.New("[rbtree] node allocation failure")
	ErrForeignTree       = errors.New("[rbtree] swap with a foreign tree")
)

var _ RBTree[int, struct{}] = (*rbTree[int, struct{}])(nil)

type rbTree[K any, V any] struct {
	root   *Node[K, V]
	count  int64
	cmp    infra.Comparator[K]
	alloc  NodeAllocator[K, V]
	cloner func(V) V
	stats  *rbTreeStats
}

func (tree *rbTree[K, V]) Len() int64 {
	return tree.count
}

func (tree *rbTree[K, V]) Root() *Node[K, V] {
	return tree.root
}

func (tree *rbTree[K, V]) RootSlot() RootSlot[K, V] {
	return RootSlot[K, V]{ref: &tree.root}
}

func (tree *rbTree[K, V]) Compare(i, j K) int64 {
	return tree.cmp(i, j)
}

// References:
// https://elixir.bootlin.com/linux/latest/source/lib/rbtree.c
// rbtree properties:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All empty slots are considered black. There are no sentinel nodes.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   empty slots goes through the same number of black nodes. (black-violation)
// p5. The root is black.
// (Conclusion) A node with exactly one child is black and the child is
//   a red leaf.

// transplant puts y into the slot held by x. x's own links are untouched.
func (tree *rbTree[K, V]) transplant(x, y *Node[K, V]) {
	if x.parent == nil {
		tree.root = y
		if y != nil {
			y.parent, y.side = nil, Root
		}
		return
	}
	x.parent.setChild(x.side, y)
}

/*
rotate moves x down to the dir side and lifts its child on the other side.
rotate(X, Left):

		 |                         |
		 X                         S
		/ \                       / \
	   L   S     ============>   X   Sd
		  / \                   / \
		Sc   Sd                L   Sc

rotate(S, Right) is the way back.
*/
func (tree *rbTree[K, V]) rotate(x *Node[K, V], dir RBDirection) {
	if x == nil || x.child(dir.opposite()) == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] rotate node x is nil or has no child to lift")
	}
	y := x.child(dir.opposite())
	inner := y.child(dir)
	tree.transplant(x, y)
	x.setChild(dir.opposite(), inner)
	y.setChild(dir, x)
	tree.stats.RecordRotate()
}

func (tree *rbTree[K, V]) newNode(key K, val V) (*Node[K, V], error) {
	node, err := tree.alloc.Alloc()
	if err == nil && node == nil {
		err = ErrAllocationFailure
	}
	if err != nil {
		if !errors.Is(err, ErrAllocationFailure) {
			err = multierr.Append(ErrAllocationFailure, err)
		}
		return nil, infra.WrapErrorStackWithMessage(err, "[rbtree] unable to allocate node")
	}
	node.reset(key, val)
	return node, nil
}

func (tree *rbTree[K, V]) Find(key K) *Node[K, V] {
	for aux := tree.root; aux != nil; {
		res := tree.cmp(key, aux.key)
		if res == 0 {
			return aux
		} else if res > 0 {
			aux = aux.right
		} else {
			aux = aux.left
		}
	}
	return nil
}

func (tree *rbTree[K, V]) Add(key K, val V) (*Node[K, V], error) {
	var (
		p   *Node[K, V]
		dir = Root
	)
	for x := tree.root; x != nil; x = x.child(dir) {
		p = x
		if /* less */ tree.cmp(key, x.key) < 0 {
			dir = Left
		} else /* not less */ {
			dir = Right
		}
	}
	return tree.link(p, dir, key, val)
}

func (tree *rbTree[K, V]) Insert(key K, val V) (*Node[K, V], bool, error) {
	var (
		p   *Node[K, V]
		dir = Root
	)
	for x := tree.root; x != nil; x = x.child(dir) {
		p = x
		res := tree.cmp(key, x.key)
		if /* equal */ res == 0 {
			return x, false, nil
		} else /* less */ if res < 0 {
			dir = Left
		} else /* greater */ {
			dir = Right
		}
	}
	z, err := tree.link(p, dir, key, val)
	if err != nil {
		return nil, false, err
	}
	return z, true, nil
}

// i1: Empty rbtree, the new node becomes the root and is painted black.
func (tree *rbTree[K, V]) link(p *Node[K, V], dir RBDirection, key K, val V) (*Node[K, V], error) {
	z, err := tree.newNode(key, val)
	if err != nil {
		return nil, err
	}
	tree.count++
	tree.stats.RecordInsert()

	if /* i1 */ p == nil {
		z.color = Black
		tree.root = z
		return z, nil
	}
	p.setChild(dir, z)
	tree.insertRebalance(z)
	return z, nil
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or empty).

im1: Parent P is black, nothing to fix.

im2: Parent P is red and P is the root, repaint P into black.

im3: Both the parent P and the uncle U are red, grandpa G is black.
Push the blackness down from G. G may now be in red-violation with its
own parent, so continue the fixup from G.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

im4: P is red, U is black or empty, X and P are on opposite sides
(zig-zag). Rotate P towards its own side, then X and P swap roles and
the shape becomes im5.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

im5: X and P are on the same side (zig-zig). Rotate G away from P, the
lifted P turns black and G turns red.

	    [G]                 <P>               [P]
	    / \    rotate(G)    / \    repaint    / \
	  <P> [U]  ========>  <X> [G]  ======>  <X> <G>
	  /                         \                 \
	<X>                         [U]               [U]
*/
func (tree *rbTree[K, V]) insertRebalance(x *Node[K, V]) {
	for {
		p := x.parent
		if p == nil || /* im1 */ p.color == Black {
			break
		}

		g := p.parent
		if /* im2 */ g == nil {
			p.color = Black
			break
		}

		if u := p.sibling(); /* im3 */ isRed(u) {
			p.color, u.color, g.color = Black, Black, Red
			x = g
			continue
		}

		if /* im4 */ x.side != p.side {
			tree.rotate(p, p.side)
			x, p = p, x
		}

		/* im5 */
		tree.rotate(g, p.side.opposite())
		p.color, g.color = Black, Red
		break
	}
	tree.root.color = Black
}

func (tree *rbTree[K, V]) Erase(key K) bool {
	z := tree.Find(key)
	if z == nil {
		return false
	}
	tree.removeNode(z)
	return true
}

// EraseNode refuses nodes that are not linked into this tree.
func (tree *rbTree[K, V]) EraseNode(node *Node[K, V]) bool {
	if node == nil || tree.root == nil {
		return false
	}
	top := node
	for ; top.parent != nil; top = top.parent {
	}
	if top != tree.root {
		return false
	}
	tree.removeNode(node)
	return true
}

/*
exchange swaps the tree positions of n and its in-order successor s.
Links, color and side are exchanged, the payloads stay in their nodes.
s is the leftmost node of n's right subtree, so it has no left child.

	  |                    |
	  N                    S
	 / \                  / \
	L  ..  exchange(N,S) L  ..
		|   =========>       |
		P                    P
	   / \                  / \
	  S  ..                N  ..
	   \                    \
	   Sr                   Sr
*/
func (tree *rbTree[K, V]) exchange(n, s *Node[K, V]) {
	nl, nr, ncolor := n.left, n.right, n.color
	sp, sside, sr, scolor := s.parent, s.side, s.right, s.color

	tree.transplant(n, s)
	s.color = ncolor
	s.setChild(Left, nl)
	if sp == n {
		s.setChild(Right, n)
	} else {
		s.setChild(Right, nr)
		sp.setChild(sside, n)
	}
	n.left = nil
	n.right = nil
	n.setChild(Right, sr)
	n.color = scolor
}

/*
r1: Node N has two children. Exchange N with its successor S, then N has
at most one child.

r2: N has one child C. C must be a red leaf (see the conclusion above),
C takes N's slot and N's color, black-height is unchanged.

r3: N is a red leaf, unlink directly.

r4: N is a black leaf, unlinking it leaves a double-black deficiency at
its empty slot. Fix it from (parent, side).
*/
func (tree *rbTree[K, V]) removeNode(n *Node[K, V]) {
	if /* r1 */ n.left != nil && n.right != nil {
		tree.exchange(n, n.right.minimum())
	}

	c := n.left
	if c == nil {
		c = n.right
	}
	if /* r2 */ c != nil {
		tree.transplant(n, c)
		c.color = n.color
	} else if n.parent == nil {
		tree.root = nil
	} else {
		p, dir := n.parent, n.side
		p.setChild(dir, nil)
		if /* r4 */ n.color == Black {
			tree.removeRebalance(p, dir)
		}
	}

	tree.count--
	tree.stats.RecordErase(1)
	tree.alloc.Free(n)
}

/*
The deficient slot is X, the dir child of parent P. X may be empty.
<X> is a RED node.
[X] is a BLACK node (or empty).
{X} is either a RED node or a BLACK node.

Sn is the near nephew, the child of the sibling S on the X side.
Sf is the far nephew, the child of S on the other side.

rm1: S is red, so P, Sn and Sf are black. Swap the colors of P and S, then
rotate P towards X. The new sibling is the old Sn, which is black.

	  [P]                   <S>               [S]
	  / \    rotate(P)      / \    repaint    / \
	[X] <S>  ==========>  [P] [Sf]  ====>   <P> [Sf]
	    / \               / \               / \
	 [Sn] [Sf]          [X] [Sn]          [X] [Sn]

rm2: S, Sn and Sf are black, P is red. Paint S red and P black, done.

rm3: S, Sn, Sf and P are all black. Paint S red, now the whole P subtree
is short by one, so P becomes the deficient slot.

	  {P}             {P}
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sn] [Sf]       [Sn] [Sf]

rm4: S is black, Sf is black and Sn is red. Swap the colors of S and Sn,
rotate S away from X. Sn is the new sibling and the old S is its red far
child, continue with rm5.

	  {P}                   {P}
	  / \    rotate(S)      / \
	[X] [S]  ==========>  [X] [Sn]
	    / \                     \
	 <Sn> [Sf]                  <S>
	                              \
	                              [Sf]

rm5: S is black, Sf is red. S takes the color of P, P and Sf are painted
black, then rotate P towards X. Done.

	  {P}                   {S}
	  / \    rotate(P)      / \
	[X] [S]  ==========>  [P] [Sf]
	    / \               / \
	 {Sn} <Sf>          [X] {Sn}
*/
func (tree *rbTree[K, V]) removeRebalance(p *Node[K, V], dir RBDirection) {
	for p != nil {
		s := p.child(dir.opposite())
		if s == nil {
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] double black slot without sibling")
		}

		if /* rm1 */ s.color == Red {
			s.color, p.color = Black, Red
			tree.rotate(p, dir)
			s = p.child(dir.opposite())
		}

		near, far := s.child(dir), s.child(dir.opposite())
		if isBlack(near) && isBlack(far) {
			s.color = Red
			if /* rm2 */ p.color == Red {
				p.color = Black
				return
			}
			/* rm3 */
			dir, p = p.side, p.parent
			continue
		}

		if /* rm4 */ isBlack(far) {
			near.color, s.color = Black, Red
			tree.rotate(s, dir.opposite())
			s, far = near, s
		}

		/* rm5 */
		s.color, p.color = p.color, Black
		far.color = Black
		tree.rotate(p, dir)
		return
	}
}

func (tree *rbTree[K, V]) Smallest() *Node[K, V] {
	return tree.root.minimum()
}

func (tree *rbTree[K, V]) Largest() *Node[K, V] {
	return tree.root.maximum()
}

func (tree *rbTree[K, V]) LowerBound(key K) *Node[K, V] {
	var res *Node[K, V]
	for aux := tree.root; aux != nil; {
		if tree.cmp(aux.key, key) < 0 {
			aux = aux.right
		} else {
			res, aux = aux, aux.left
		}
	}
	return res
}

func (tree *rbTree[K, V]) UpperBound(key K) *Node[K, V] {
	var res *Node[K, V]
	for aux := tree.root; aux != nil; {
		if tree.cmp(key, aux.key) < 0 {
			res, aux = aux, aux.left
		} else {
			aux = aux.right
		}
	}
	return res
}

func (tree *rbTree[K, V]) Begin() Cursor[K, V] {
	return NewCursor[K, V](tree.RootSlot(), tree.Smallest())
}

func (tree *rbTree[K, V]) End() Cursor[K, V] {
	return NewCursor[K, V](tree.RootSlot(), nil)
}

// Inorder traversal by successor links, no auxiliary stack.
func (tree *rbTree[K, V]) Foreach(action func(idx int64, color RBColor, key K, val V) bool) {
	idx := int64(0)
	for aux := tree.root.minimum(); aux != nil; aux = aux.succ() {
		if !action(idx, aux.color, aux.key, aux.val) {
			return
		}
		idx++
	}
}

// freeSubtree releases x and all its descendants in post-order. Each leaf
// is detached from its parent before it is freed, so the walk needs
// neither recursion nor a stack.
func (tree *rbTree[K, V]) freeSubtree(x *Node[K, V]) int64 {
	freed := int64(0)
	for x != nil {
		if x.left != nil {
			x = x.left
			continue
		}
		if x.right != nil {
			x = x.right
			continue
		}
		p, side := x.parent, x.side
		if p != nil {
			if side == Left {
				p.left = nil
			} else {
				p.right = nil
			}
		}
		tree.alloc.Free(x)
		freed++
		x = p
	}
	return freed
}

func (tree *rbTree[K, V]) Clear() {
	aux := tree.root
	tree.root = nil
	tree.count = 0
	if aux != nil {
		aux.parent = nil
	}
	tree.stats.RecordErase(tree.freeSubtree(aux))
}

func (tree *rbTree[K, V]) copyNode(src *Node[K, V]) (*Node[K, V], error) {
	val := src.val
	if tree.cloner != nil {
		val = tree.cloner(val)
	}
	node, err := tree.newNode(src.key, val)
	if err != nil {
		return nil, err
	}
	node.color = src.color
	return node, nil
}

// Clone deep copies the node graph with an explicit work stack. The stack
// holds at most one pending sibling per level, so it is bounded by the
// tree height. On allocation failure every cloned node is released and
// the source is untouched.
func (tree *rbTree[K, V]) Clone() (RBTree[K, V], error) {
	dst := &rbTree[K, V]{
		cmp:    tree.cmp,
		alloc:  tree.alloc,
		cloner: tree.cloner,
		stats:  tree.stats,
	}
	if tree.root == nil {
		return dst, nil
	}

	root, err := dst.copyNode(tree.root)
	if err != nil {
		return nil, err
	}

	type clonePair struct {
		src, dst *Node[K, V]
	}
	stack := make([]clonePair, 0, 64)
	stack = append(stack, clonePair{src: tree.root, dst: root})
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, dir := range [2]RBDirection{Left, Right} {
			sc := top.src.child(dir)
			if sc == nil {
				continue
			}
			dc, err := dst.copyNode(sc)
			if err != nil {
				dst.freeSubtree(root)
				return nil, err
			}
			top.dst.setChild(dir, dc)
			stack = append(stack, clonePair{src: sc, dst: dc})
		}
	}
	dst.root = root
	dst.count = tree.count
	dst.stats.RecordClone(dst.count)
	return dst, nil
}

// Swap exchanges the node graphs of two trees, including the allocator
// that owns the nodes. Both trees must share the same ordering. The stats
// stay with their tree, each size is moved by the count it received.
func (tree *rbTree[K, V]) Swap(other RBTree[K, V]) error {
	o, ok := other.(*rbTree[K, V])
	if !ok || o == nil {
		return ErrForeignTree
	}
	tree.stats.RecordResize(o.count - tree.count)
	o.stats.RecordResize(tree.count - o.count)
	tree.root, o.root = o.root, tree.root
	tree.count, o.count = o.count, tree.count
	tree.alloc, o.alloc = o.alloc, tree.alloc
	return nil
}

type RBTreeOpt[K any, V any] func(*rbTree[K, V])

func WithRBTreeDesc[K any, V any]() RBTreeOpt[K, V] {
	return func(tree *rbTree[K, V]) {
		tree.cmp = infra.ReverseCmp(tree.cmp)
	}
}

func WithRBTreeAllocator[K any, V any](alloc NodeAllocator[K, V]) RBTreeOpt[K, V] {
	return func(tree *rbTree[K, V]) {
		if alloc != nil {
			tree.alloc = alloc
		}
	}
}

// WithRBTreeValueCloner deep copies values on Clone. Values are copied by
// assignment otherwise.
func WithRBTreeValueCloner[K any, V any](cloner func(V) V) RBTreeOpt[K, V] {
	return func(tree *rbTree[K, V]) {
		tree.cloner = cloner
	}
}

func WithRBTreeStats[K any, V any](name string) RBTreeOpt[K, V] {
	return func(tree *rbTree[K, V]) {
		tree.stats = newRBTreeStats(name)
	}
}

func NewRBTree[K any, V any](cmp infra.Comparator[K], opts ...RBTreeOpt[K, V]) RBTree[K, V] {
	if cmp == nil {
		panic( /* debug assertion */ "[rbtree] nil key comparator")
	}
	tree := &rbTree[K, V]{
		cmp:   cmp,
		alloc: NewHeapAllocator[K, V](),
	}
	for _, o := range opts {
		o(tree)
	}
	return tree
}

func NewOrderedRBTree[K infra.OrderedKey, V any](opts ...RBTreeOpt[K, V]) RBTree[K, V] {
	return NewRBTree[K, V](infra.OrderedKeyCmp[K], opts...)
}
