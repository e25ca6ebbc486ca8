package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopCnt(t *testing.T) {
	assert.Equal(t, uint64(0), popCnt(0))
	assert.Equal(t, uint64(1), popCnt(1))
	assert.Equal(t, uint64(1), popCnt(2))
	assert.Equal(t, uint64(2), popCnt(3))
	assert.Equal(t, uint64(8), popCnt(255))
}

func TestAlloc(t *testing.T) {
	assert := assert.New(t)
	max := uint64(32)
	a := MkAlloc(max)

	assert.Equal(max, a.NumFree(), "everything should be initially free")

	n, ok := a.AllocNum()
	assert.True(ok)
	assert.Equal(uint64(0), n, "first fit starts at 0")

	a.MarkUsed(n + 1)
	n2, ok := a.AllocNum()
	assert.True(ok)
	assert.NotEqual(n+1, n2, "should not allocate something marked used")
	assert.Equal(uint64(2), n2)

	assert.Equal(max-3, a.NumFree(), "should have used 3 items")

	a.FreeNum(n)
	a.FreeNum(n2)
	assert.Equal(max-1, a.NumFree(), "should have freed")
}

func TestFirstFit(t *testing.T) {
	assert := assert.New(t)
	a := MkAlloc(16)
	for i := uint64(0); i < 10; i++ {
		n, _ := a.AllocNum()
		assert.Equal(i, n)
	}
	a.FreeNum(7)
	a.FreeNum(3)
	assert.True(a.IsFree(3))
	n, _ := a.AllocNum()
	assert.Equal(uint64(3), n, "lowest free index first")
	n, _ = a.AllocNum()
	assert.Equal(uint64(7), n)
	assert.False(a.IsFree(7))
}

func TestExhaustion(t *testing.T) {
	assert := assert.New(t)
	a := MkAlloc(11)
	for i := uint64(0); i < 11; i++ {
		_, ok := a.AllocNum()
		assert.True(ok)
	}
	before := a.Bitmap()
	_, ok := a.AllocNum()
	assert.False(ok, "bits past max are never handed out")
	assert.Equal(before, a.Bitmap(), "failed allocation leaves bitmap alone")
	assert.Equal(uint64(0), a.NumFree())
}

func TestBitmapRestore(t *testing.T) {
	a := MkAlloc(20)
	a.MarkUsed(0)
	a.MarkUsed(9)
	a.MarkUsed(19)

	b, err := MkAllocFrom(a.Bitmap(), 20)
	require.NoError(t, err)
	assert.Equal(t, a.Bitmap(), b.Bitmap())
	assert.Equal(t, uint64(17), b.NumFree())

	_, err = MkAllocFrom([]byte{0}, 20)
	assert.Error(t, err)

	c, err := MkAllocFrom([]byte{0xff, 0xff, 0xff}, 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), c.NumFree(), "bits past max dropped")
}

func TestOutOfRangePanics(t *testing.T) {
	a := MkAlloc(8)
	assert.Panics(t, func() { a.FreeNum(8) })
}
