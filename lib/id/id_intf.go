package id

// Gen generates the number id.
type Gen func() uint64

// Generator hands out ids, the Str form is the decimal text of a fresh
// number, not of the last Number call.
type Generator interface {
	Number() uint64
	Str() string
}

var (
	_ Generator = (*defaultID)(nil)
)

type defaultID struct {
	number Gen
	str    func() string
}

func (id *defaultID) Number() uint64 { return id.number() }
func (id *defaultID) Str() string    { return id.str() }
