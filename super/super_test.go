package super

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/disk"
)

func mkGeo(t *testing.T) common.Geometry {
	geo, err := common.DefaultConfig().Geometry()
	require.NoError(t, err)
	return geo
}

func TestReservedBlocks(t *testing.T) {
	assert := assert.New(t)
	geo := mkGeo(t)
	sb := MkSuperblock(geo)
	for bn := uint64(0); bn < geo.DataStart; bn++ {
		assert.False(sb.Blocks.IsFree(bn), "block %d is metadata", bn)
		assert.True(sb.IsMeta(bn))
	}
	assert.Equal(geo.NumBlocks-geo.DataStart, sb.Blocks.NumFree())
	bn, ok := sb.Blocks.AllocNum()
	assert.True(ok)
	assert.Equal(geo.DataStart, bn, "first data block")
	assert.Equal(geo.NumInodes, sb.Inodes.NumFree())
}

func TestEncodeFreeBits(t *testing.T) {
	geo := mkGeo(t)
	sb := MkSuperblock(geo)
	sb.Inodes.MarkUsed(0)
	data := sb.Encode()
	assert.Equal(t, geo.SuperBlocks*geo.BlockSize, uint64(len(data)))

	// inode bitmap word follows the six header words; 1 = free
	assert.Equal(t, byte(0xfe), data[48])
	assert.Equal(t, byte(0xff), data[49])
	// block bitmap: blocks 0..17 reserved
	assert.Equal(t, byte(0x00), data[56])
	assert.Equal(t, byte(0x00), data[57])
	assert.Equal(t, byte(0xfc), data[58])
}

func TestFlushLoad(t *testing.T) {
	assert := assert.New(t)
	geo := mkGeo(t)
	d := disk.NewMemDisk(geo.NumBlocks, geo.BlockSize)

	sb := MkSuperblock(geo)
	root, _ := sb.Inodes.AllocNum()
	sb.RootInum = root
	sb.Inodes.MarkUsed(5)
	sb.Blocks.MarkUsed(200)
	require.NoError(t, sb.Flush(d))

	sb2, err := Load(d, geo)
	require.NoError(t, err)
	assert.Equal(root, sb2.RootInum)
	assert.Equal(sb.Inodes.Bitmap(), sb2.Inodes.Bitmap())
	assert.Equal(sb.Blocks.Bitmap(), sb2.Blocks.Bitmap())
	assert.False(sb2.Blocks.IsFree(200))
}

func TestDecodeCorrupt(t *testing.T) {
	geo := mkGeo(t)
	d := disk.NewMemDisk(geo.NumBlocks, geo.BlockSize)
	_, err := Load(d, geo)
	assert.True(t, errors.Is(err, common.ErrCorrupt), "zeroed disk has no magic")

	sb := MkSuperblock(geo)
	sb.Inodes.MarkUsed(0)
	data := sb.Encode()
	data[8] = 32 // block size
	_, err = Decode(geo, data)
	assert.True(t, errors.Is(err, common.ErrCorrupt))

	sb = MkSuperblock(geo)
	_, err = Decode(geo, sb.Encode())
	assert.True(t, errors.Is(err, common.ErrCorrupt), "root inode must be in use")

	_, err = Load(disk.NewMemDisk(8, 64), geo)
	assert.True(t, errors.Is(err, common.ErrCorrupt), "disk size mismatch")
}
