// Package image packs a ramdisk arena into a 4 KiB block device, so build
// tooling can ship a prepared file system as a file.
//
// Layout: block 0 holds a header (magic, arena length, ramdisk block size);
// the arena follows from block 1, zero padded to whole blocks.
package image

import (
	"fmt"

	gdisk "github.com/tchajed/goose/machine/disk"
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/disk"
	"github.com/mit-pdos/go-ramfs/util"
)

const MAGIC uint64 = 0x6567_616d_6973_666d // "mfsimage"

// NumBlocks is the size of the device needed for a ramdisk of arenaSize bytes.
func NumBlocks(arenaSize uint64) uint64 {
	return 1 + util.RoundUp(arenaSize, gdisk.BlockSize)
}

// Save copies the ramdisk rd onto dst.
func Save(rd disk.Disk, dst gdisk.Disk) error {
	arenaSize := rd.Size() * rd.BlockSize()
	if dst.Size() < NumBlocks(arenaSize) {
		return fmt.Errorf("saving `%d` byte ramdisk to `%d` blocks: %w",
			arenaSize, dst.Size(), common.ErrOutOfBounds)
	}
	enc := marshal.NewEnc(gdisk.BlockSize)
	enc.PutInt(MAGIC)
	enc.PutInt(arenaSize)
	enc.PutInt(rd.BlockSize())
	dst.Write(0, enc.Finish())

	arena := make([]byte, 0, util.RoundUp(arenaSize, gdisk.BlockSize)*gdisk.BlockSize)
	for bn := uint64(0); bn < rd.Size(); bn++ {
		blk, err := rd.Read(bn)
		if err != nil {
			return fmt.Errorf("saving ramdisk: %w", err)
		}
		arena = append(arena, blk...)
	}
	arena = arena[:cap(arena)]
	for i := uint64(0); i < uint64(len(arena))/gdisk.BlockSize; i++ {
		dst.Write(1+i, arena[i*gdisk.BlockSize:(i+1)*gdisk.BlockSize])
	}
	dst.Barrier()
	util.DPrintf(1, "Save: %d bytes in %d blocks\n", arenaSize,
		NumBlocks(arenaSize))
	return nil
}

// Load reads a ramdisk saved by Save.
func Load(src gdisk.Disk) (disk.Disk, error) {
	if src.Size() == 0 {
		return nil, fmt.Errorf("loading image: empty device: %w",
			common.ErrCorrupt)
	}
	dec := marshal.NewDec(src.Read(0))
	if magic := dec.GetInt(); magic != MAGIC {
		return nil, fmt.Errorf("loading image: bad magic `%#x`: %w", magic,
			common.ErrCorrupt)
	}
	arenaSize := dec.GetInt()
	blockSize := dec.GetInt()
	if src.Size() < NumBlocks(arenaSize) {
		return nil, fmt.Errorf("loading image: `%d` bytes do not fit `%d` "+
			"blocks: %w", arenaSize, src.Size(), common.ErrCorrupt)
	}
	arena := make([]byte, 0, util.RoundUp(arenaSize, gdisk.BlockSize)*gdisk.BlockSize)
	for i := uint64(1); i < NumBlocks(arenaSize); i++ {
		arena = append(arena, src.Read(i)...)
	}
	rd, err := disk.NewMemDiskFrom(arena[:arenaSize], blockSize)
	if err != nil {
		return nil, fmt.Errorf("loading image: %w", err)
	}
	return rd, nil
}
