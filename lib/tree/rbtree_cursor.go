package tree

// RootSlot refers to the root link of a tree, not to the root node, so a
// cursor built from it sees rotations and swaps of the root.
type RootSlot[K any, V any] struct {
	ref **Node[K, V]
}

func (slot RootSlot[K, V]) Root() *Node[K, V] {
	if slot.ref == nil {
		return nil
	}
	return *slot.ref
}

// Cursor walks the in-order sequence of a tree by node links. It never
// owns a node. A nil current node is the past-the-end position.
//
// Inserting keys never invalidates a cursor. Erasing a key invalidates
// only the cursors positioned at the erased node.
type Cursor[K any, V any] struct {
	root **Node[K, V]
	cur  *Node[K, V]
}

func NewCursor[K any, V any](slot RootSlot[K, V], node *Node[K, V]) Cursor[K, V] {
	return Cursor[K, V]{
		root: slot.ref,
		cur:  node,
	}
}

func (c *Cursor[K, V]) rootNode() *Node[K, V] {
	if c.root == nil {
		return nil
	}
	return *c.root
}

// Next moves to the in-order successor. From the end position it wraps
// to the smallest node.
func (c *Cursor[K, V]) Next() {
	if c.cur == nil {
		c.cur = c.rootNode().minimum()
		return
	}
	c.cur = c.cur.succ()
}

// Prev moves to the in-order predecessor. From the end position it moves
// to the largest node, so the end of a non-empty tree can be walked back.
func (c *Cursor[K, V]) Prev() {
	if c.cur == nil {
		c.cur = c.rootNode().maximum()
		return
	}
	c.cur = c.cur.pred()
}

func (c Cursor[K, V]) Node() *Node[K, V] {
	return c.cur
}

func (c Cursor[K, V]) IsEnd() bool {
	return c.cur == nil
}

func (c Cursor[K, V]) Key() K {
	return c.cur.key
}

func (c Cursor[K, V]) Val() V {
	return c.cur.val
}

func (c Cursor[K, V]) SetVal(val V) {
	c.cur.val = val
}

func (c Cursor[K, V]) Equal(other Cursor[K, V]) bool {
	return c.cur == other.cur
}
