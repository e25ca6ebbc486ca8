package addr

import (
	"fmt"

	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/disk"
)

// Addr identifies the start of an object on the ramdisk.
//
// Blkno is the block number containing the object, and Off is the location of
// the object within the block (expressed as a byte offset). The size of the
// object is determined by the context in which Addr is used.
type Addr struct {
	Blkno common.Bnum
	Off   uint64 // offset in bytes
}

// Flatid is the byte offset of a from the start of the ramdisk.
func (a Addr) Flatid(blockSize uint64) uint64 {
	return uint64(a.Blkno)*blockSize + a.Off
}

func MkAddr(blkno common.Bnum, off uint64) Addr {
	return Addr{Blkno: blkno, Off: off}
}

// MkObjAddr locates object n in a table of sz-byte objects that starts at
// block start. Objects are packed per block and never straddle two blocks.
func MkObjAddr(start common.Bnum, n uint64, sz uint64, blockSize uint64) Addr {
	per := blockSize / sz
	return MkAddr(start+common.Bnum(n/per), (n%per)*sz)
}

// Check verifies that an sz-byte object at a lies inside one block of d.
func (a Addr) Check(d disk.Disk, sz uint64) error {
	if a.Blkno >= d.Size() || a.Off+sz > d.BlockSize() || a.Off+sz < a.Off {
		return fmt.Errorf("object of `%d` bytes at %v: %w", sz, a,
			common.ErrOutOfBounds)
	}
	return nil
}

func (a Addr) String() string {
	return fmt.Sprintf("(%d, %d)", a.Blkno, a.Off)
}
