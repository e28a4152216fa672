package id

import (
	"strconv"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"
)

const cacheLinePadSize = unsafe.Sizeof(cpu.CacheLinePad{})

// paddedSeq owns a whole cache line, so the workers taking ids from it
// never false share with their neighbours.
type paddedSeq struct {
	_   [cacheLinePadSize - unsafe.Sizeof(uint64(0))]byte
	val atomic.Uint64
	_   [cacheLinePadSize - unsafe.Sizeof(uint64(0))]byte
}

// next skips 0 when the counter wraps.
func (seq *paddedSeq) next() uint64 {
	for {
		if v := seq.val.Add(1); v != 0 {
			return v
		}
	}
}

// MonotonicNonZeroID counts up from 1.
func MonotonicNonZeroID() (Generator, error) {
	return MonotonicNonZeroIDFrom(0)
}

// MonotonicNonZeroIDFrom hands out start+1 first.
func MonotonicNonZeroIDFrom(start uint64) (Generator, error) {
	seq := &paddedSeq{}
	seq.val.Store(start)
	return &defaultID{
		number: seq.next,
		str: func() string {
			return strconv.FormatUint(seq.next(), 10)
		},
	}, nil
}
