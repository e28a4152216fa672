package tree

// go install golang.org/x/tools/cmd/stringer@latest

//go:generate stringer -type=RBColor
type RBColor uint8

const (
	Black RBColor = iota
	Red
)

//go:generate stringer -type=RBDirection
type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

func (dir RBDirection) opposite() RBDirection {
	return -dir
}

// RBTree is an ordered container of unique keys.
// It is not safe for concurrent mutation, callers serialize access.
type RBTree[K any, V any] interface {
	Len() int64
	Root() *Node[K, V]
	// RootSlot is the handle cursors use to re-resolve the first and last
	// nodes after structural changes.
	RootSlot() RootSlot[K, V]
	Compare(i, j K) int64

	Find(key K) *Node[K, V]
	// Add always links a new node. Equal keys are placed to the right of
	// the existing ones, so callers check Find first to keep keys unique.
	Add(key K, val V) (*Node[K, V], error)
	// Insert returns the existing node and false if key is present. The
	// existing value is left untouched.
	Insert(key K, val V) (node *Node[K, V], inserted bool, err error)
	Erase(key K) bool
	EraseNode(node *Node[K, V]) bool

	Smallest() *Node[K, V]
	Largest() *Node[K, V]
	LowerBound(key K) *Node[K, V]
	UpperBound(key K) *Node[K, V]
	Begin() Cursor[K, V]
	End() Cursor[K, V]
	Foreach(action func(idx int64, color RBColor, key K, val V) bool)

	Clear()
	Clone() (RBTree[K, V], error)
	Swap(other RBTree[K, V]) error
}
