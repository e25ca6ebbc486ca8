package alloc

import (
	"fmt"
	"sync"

	"github.com/mit-pdos/go-ramfs/util"
)

// Alloc is a first-fit bitmap allocator over the numbers [0, max). Bit n of
// the bitmap is set when n is in use.
type Alloc struct {
	mu     *sync.Mutex
	max    uint64
	bitmap []byte
}

// MkAlloc creates an allocator with every number in [0, max) free.
func MkAlloc(max uint64) *Alloc {
	return &Alloc{
		mu:     new(sync.Mutex),
		max:    max,
		bitmap: make([]byte, util.RoundUp(max, 8)),
	}
}

// MkAllocFrom restores an allocator from a bitmap produced by Bitmap. Bits at
// or past max are ignored.
func MkAllocFrom(bitmap []byte, max uint64) (*Alloc, error) {
	if uint64(len(bitmap))*8 < max {
		return nil, fmt.Errorf("bitmap of `%d` bytes cannot hold `%d` bits",
			len(bitmap), max)
	}
	a := MkAlloc(max)
	copy(a.bitmap, bitmap)
	if max%8 != 0 {
		a.bitmap[len(a.bitmap)-1] &= byte(1)<<(max%8) - 1
	}
	return a, nil
}

func (a *Alloc) Max() uint64 {
	return a.max
}

func (a *Alloc) used(n uint64) bool {
	return a.bitmap[n/8]&(1<<(n%8)) != 0
}

func (a *Alloc) set(n uint64) {
	a.bitmap[n/8] |= 1 << (n % 8)
}

func (a *Alloc) clear(n uint64) {
	a.bitmap[n/8] &= ^(1 << (n % 8))
}

func (a *Alloc) check(n uint64) {
	if n >= a.max {
		panic(fmt.Sprintf("alloc: number %d out of range %d", n, a.max))
	}
}

// AllocNum returns the lowest free number and marks it used; false if every
// number is in use.
func (a *Alloc) AllocNum() (uint64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, b := range a.bitmap {
		if b == 0xff {
			continue
		}
		for bit := uint64(0); bit < 8; bit++ {
			n := uint64(i)*8 + bit
			if n >= a.max {
				return 0, false
			}
			if !a.used(n) {
				a.set(n)
				util.DPrintf(5, "AllocNum: %d\n", n)
				return n, true
			}
		}
	}
	return 0, false
}

// FreeNum marks n free. Freeing a number twice is a caller bug and is not
// detected.
func (a *Alloc) FreeNum(n uint64) {
	a.check(n)
	a.mu.Lock()
	a.clear(n)
	a.mu.Unlock()
	util.DPrintf(5, "FreeNum: %d\n", n)
}

func (a *Alloc) MarkUsed(n uint64) {
	a.check(n)
	a.mu.Lock()
	a.set(n)
	a.mu.Unlock()
}

func (a *Alloc) IsFree(n uint64) bool {
	a.check(n)
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.used(n)
}

func popCnt(b byte) uint64 {
	var count uint64
	var x = b
	for i := uint64(0); i < 8; i++ {
		count += uint64(x & 1)
		x = x >> 1
	}
	return count
}

func (a *Alloc) NumFree() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var used uint64
	for _, b := range a.bitmap {
		used += popCnt(b)
	}
	return a.max - used
}

// Bitmap returns a copy of the in-use bitmap.
func (a *Alloc) Bitmap() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return util.CloneByteSlice(a.bitmap)
}
