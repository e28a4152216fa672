package tree

// Node is a tree cell. The tree owns it, callers only read the key and
// read or write the value. A set is a tree with V = struct{}.
type Node[K any, V any] struct {
	parent *Node[K, V]
	left   *Node[K, V]
	right  *Node[K, V]
	key    K
	val    V
	color  RBColor
	// side caches which slot of parent holds this node, Root if none.
	side RBDirection
}

// Key of a nil node is the zero key.
func (node *Node[K, V]) Key() K {
	if node == nil {
		return *new(K)
	}
	return node.key
}

func (node *Node[K, V]) Val() V {
	if node == nil {
		return *new(V)
	}
	return node.val
}

// SetVal on a nil node is a no-op.
func (node *Node[K, V]) SetVal(val V) {
	if node == nil {
		return
	}
	node.val = val
}

// ValRef stays valid until the node is erased. Erasing other keys never
// moves a payload to another node.
func (node *Node[K, V]) ValRef() *V {
	if node == nil {
		return nil
	}
	return &node.val
}

func (node *Node[K, V]) Color() RBColor {
	if node == nil {
		return Black
	}
	return node.color
}

func (node *Node[K, V]) Direction() RBDirection {
	if node == nil {
		return Root
	}
	return node.side
}

func (node *Node[K, V]) Left() *Node[K, V] {
	if node == nil {
		return nil
	}
	return node.left
}

func (node *Node[K, V]) Right() *Node[K, V] {
	if node == nil {
		return nil
	}
	return node.right
}

func (node *Node[K, V]) Parent() *Node[K, V] {
	if node == nil {
		return nil
	}
	return node.parent
}

// reset prepares an allocated node to be linked.
func (node *Node[K, V]) reset(key K, val V) {
	*node = Node[K, V]{
		key:   key,
		val:   val,
		color: Red,
		side:  Root,
	}
}

func (node *Node[K, V]) child(dir RBDirection) *Node[K, V] {
	if dir == Left {
		return node.left
	}
	return node.right
}

// setChild links c into the dir slot and keeps c's parent and side in sync.
func (node *Node[K, V]) setChild(dir RBDirection, c *Node[K, V]) {
	if dir == Left {
		node.left = c
	} else {
		node.right = c
	}
	if c != nil {
		c.parent = node
		c.side = dir
	}
}

func (node *Node[K, V]) sibling() *Node[K, V] {
	if node.parent == nil {
		return nil
	}
	return node.parent.child(node.side.opposite())
}

func (node *Node[K, V]) minimum() *Node[K, V] {
	aux := node
	for ; aux != nil && aux.left != nil; aux = aux.left {
	}
	return aux
}

func (node *Node[K, V]) maximum() *Node[K, V] {
	aux := node
	for ; aux != nil && aux.right != nil; aux = aux.right {
	}
	return aux
}

// The succ node of the current node is its next node in sorted order.
func (node *Node[K, V]) succ() *Node[K, V] {
	if node == nil {
		return nil
	}
	if node.right != nil {
		return node.right.minimum()
	}
	x := node
	// Backtrack to the first ancestor that holds x in its left subtree.
	for x.side == Right {
		x = x.parent
	}
	return x.parent
}

// The pred node of the current node is its previous node in sorted order.
func (node *Node[K, V]) pred() *Node[K, V] {
	if node == nil {
		return nil
	}
	if node.left != nil {
		return node.left.maximum()
	}
	x := node
	for x.side == Left {
		x = x.parent
	}
	return x.parent
}

func isRed[K any, V any](node *Node[K, V]) bool {
	return node != nil && node.color == Red
}

// Empty slots are black.
func isBlack[K any, V any](node *Node[K, V]) bool {
	return node == nil || node.color == Black
}
