// Package buf manages sub-block objects (inodes, block-number slots) that are
// packed into ramdisk blocks.
package buf

import (
	"fmt"

	"github.com/mit-pdos/go-ramfs/addr"
	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/disk"
	"github.com/mit-pdos/go-ramfs/util"
)

// A Buf is a view of a disk object inside its loaded block. Data aliases the
// block, so modifying Data and calling WriteDirect installs the object.
type Buf struct {
	Addr  addr.Addr
	Sz    uint64 // number of bytes
	Data  []byte
	blk   disk.Block
	dirty bool // has this object been written to?
}

// Load the bytes of a disk block into a new buf, as specified by addr
func MkBufLoad(addr addr.Addr, sz uint64, blk disk.Block) *Buf {
	b := &Buf{
		Addr:  addr,
		Sz:    sz,
		Data:  blk[addr.Off : addr.Off+sz],
		blk:   blk,
		dirty: false,
	}
	return b
}

// ReadBuf loads the sz-byte object at a from d.
func ReadBuf(d disk.Disk, a addr.Addr, sz uint64) (*Buf, error) {
	if err := a.Check(d, sz); err != nil {
		return nil, fmt.Errorf("reading buf: %w", err)
	}
	blk, err := d.Read(a.Blkno)
	if err != nil {
		return nil, fmt.Errorf("reading buf at %v: %w", a, err)
	}
	return MkBufLoad(a, sz, blk), nil
}

func (buf *Buf) IsDirty() bool {
	return buf.dirty
}

func (buf *Buf) SetDirty() {
	buf.dirty = true
}

// WriteDirect writes the block holding buf back to d if buf is dirty.
func (buf *Buf) WriteDirect(d disk.Disk) error {
	if !buf.dirty {
		return nil
	}
	util.DPrintf(20, "%v: write %d bytes\n", buf.Addr, buf.Sz)
	if err := d.Write(buf.Addr.Blkno, buf.blk); err != nil {
		return fmt.Errorf("writing buf at %v: %w", buf.Addr, err)
	}
	buf.dirty = false
	return nil
}

// BnumGet reads slot i of a block-number array with w-byte entries.
func (buf *Buf) BnumGet(i uint64, w uint64) common.Bnum {
	return common.Bnum(GetUint(buf.Data[i*w:], w))
}

func (buf *Buf) BnumPut(i uint64, w uint64, v common.Bnum) {
	PutUint(buf.Data[i*w:], w, uint64(v))
	buf.SetDirty()
}
