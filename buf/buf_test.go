package buf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-ramfs/addr"
	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/disk"
)

func TestUintWidths(t *testing.T) {
	p := make([]byte, 8)
	for _, w := range []uint64{1, 2, 4, 8} {
		PutUint(p, w, 0xab)
		assert.Equal(t, uint64(0xab), GetUint(p, w), "width %d", w)
	}
	PutUint(p, 2, 0x1234)
	assert.Equal(t, []byte{0x34, 0x12}, p[:2], "little endian")
	assert.Panics(t, func() { GetUint(p, 3) })
}

func TestBufInstall(t *testing.T) {
	d := disk.NewMemDisk(4, 64)
	a := addr.MkAddr(2, 14)

	b, err := ReadBuf(d, a, 14)
	require.NoError(t, err)
	assert.False(t, b.IsDirty())
	b.BnumPut(3, 2, 0x0102)
	assert.True(t, b.IsDirty())
	require.NoError(t, b.WriteDirect(d))

	blk, _ := d.Read(2)
	assert.Equal(t, []byte{0x02, 0x01}, blk[14+6:14+8])
	assert.Equal(t, byte(0), blk[13], "neighbouring object untouched")

	b2, err := ReadBuf(d, a, 14)
	require.NoError(t, err)
	assert.Equal(t, common.Bnum(0x0102), b2.BnumGet(3, 2))
}

func TestReadBufBounds(t *testing.T) {
	d := disk.NewMemDisk(4, 64)
	_, err := ReadBuf(d, addr.MkAddr(1, 60), 8)
	assert.True(t, errors.Is(err, common.ErrOutOfBounds))
}
