package infra

import "cmp"

type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is a constraint that permits any unsigned integer type.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

type Integer interface {
	Signed | Unsigned
}

type Float interface {
	~float32 | ~float64
}

// OrderedKey
// byte => ~uint8
type OrderedKey interface {
	Integer | Float | ~string
}

// Comparator is a total order over K.
// Assume i is the key being searched or inserted.
//  1. i == j, return 0.
//  2. i > j, return a positive number, turn to right part.
//  3. i < j, return a negative number, turn to left part.
type Comparator[K any] func(i, j K) int64

// OrderedKeyCmp is the natural ascending order of the builtin ordered types.
// NaN compares less than any other float and equal to itself.
func OrderedKeyCmp[K OrderedKey](i, j K) int64 {
	return int64(cmp.Compare(i, j))
}

// ReverseCmp flips the order of c.
func ReverseCmp[K any](c Comparator[K]) Comparator[K] {
	if c == nil {
		return nil
	}
	return func(i, j K) int64 {
		return c(j, i)
	}
}

// Less adapts c to a strict weak "less than" predicate.
func (c Comparator[K]) Less(i, j K) bool {
	return c(i, j) < 0
}
