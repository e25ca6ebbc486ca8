package inode

import (
	"fmt"

	"github.com/mit-pdos/go-ramfs/addr"
	"github.com/mit-pdos/go-ramfs/buf"
	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/disk"
	"github.com/mit-pdos/go-ramfs/super"
	"github.com/mit-pdos/go-ramfs/util"
)

// Inode is the in-memory copy of an inode record. Blocks has one slot per
// direct block, then the single-indirect and the double-indirect slot;
// NULLBNUM marks a slot that was never allocated.
type Inode struct {
	Inum       common.Inum
	Size       uint64
	Type       common.FileType
	MajorMinor uint8
	Blocks     []common.Bnum
}

func (ip *Inode) String() string {
	return fmt.Sprintf("# %d %v size %d mm %#x blocks %v", ip.Inum, ip.Type,
		ip.Size, ip.MajorMinor, ip.Blocks)
}

func (ip *Inode) IsDir() bool {
	return ip.Type == common.FileTypeDir
}

// Table owns the inode table region and the data blocks reachable from it.
type Table struct {
	d   disk.Disk
	sb  *super.Superblock
	geo common.Geometry
}

func MkTable(d disk.Disk, sb *super.Superblock) *Table {
	return &Table{d: d, sb: sb, geo: sb.Geo}
}

func (t *Table) Geometry() common.Geometry {
	return t.geo
}

func (t *Table) inodeAddr(inum common.Inum) addr.Addr {
	return addr.MkObjAddr(t.geo.InodeTableStart, inum, t.geo.InodeSize,
		t.geo.BlockSize)
}

func (t *Table) encode(ip *Inode, data []byte) {
	w := t.geo.BnumWidth
	buf.PutUint(data[0:4], 4, ip.Size)
	data[4] = byte(ip.Type)
	data[5] = ip.MajorMinor
	for i, bn := range ip.Blocks {
		off := common.INODEHDRSZ + uint64(i)*w
		buf.PutUint(data[off:off+w], w, bn)
	}
}

func (t *Table) decode(inum common.Inum, data []byte) *Inode {
	w := t.geo.BnumWidth
	ip := &Inode{
		Inum:       inum,
		Size:       buf.GetUint(data[0:4], 4),
		Type:       common.FileType(data[4]),
		MajorMinor: data[5],
		Blocks:     make([]common.Bnum, t.geo.InodeSlots),
	}
	for i := range ip.Blocks {
		off := common.INODEHDRSZ + uint64(i)*w
		ip.Blocks[i] = buf.GetUint(data[off:off+w], w)
	}
	return ip
}

// Get reads inode inum from the table.
func (t *Table) Get(inum common.Inum) (*Inode, error) {
	if inum >= t.geo.NumInodes {
		return nil, fmt.Errorf("reading inode `%d`: %w", inum,
			common.ErrOutOfBounds)
	}
	b, err := buf.ReadBuf(t.d, t.inodeAddr(inum), t.geo.InodeSize)
	if err != nil {
		return nil, fmt.Errorf("reading inode `%d`: %w", inum, err)
	}
	return t.decode(inum, b.Data), nil
}

// Put writes ip back into its record.
func (t *Table) Put(ip *Inode) error {
	if uint64(len(ip.Blocks)) != t.geo.InodeSlots {
		panic("Put: wrong number of block slots")
	}
	b, err := buf.ReadBuf(t.d, t.inodeAddr(ip.Inum), t.geo.InodeSize)
	if err != nil {
		return fmt.Errorf("writing inode `%d`: %w", ip.Inum, err)
	}
	t.encode(ip, b.Data)
	b.SetDirty()
	if err := b.WriteDirect(t.d); err != nil {
		return fmt.Errorf("writing inode `%d`: %w", ip.Inum, err)
	}
	return nil
}

// Alloc takes the lowest free inode and initializes it as an empty file of
// type typ. The inode bitmap is left unchanged on failure.
func (t *Table) Alloc(typ common.FileType, mm uint8) (*Inode, error) {
	inum, ok := t.sb.Inodes.AllocNum()
	if !ok {
		return nil, fmt.Errorf("allocating inode: %w", common.ErrNoInodes)
	}
	ip := &Inode{
		Inum:       inum,
		Type:       typ,
		MajorMinor: mm,
		Blocks:     make([]common.Bnum, t.geo.InodeSlots),
	}
	if err := t.Put(ip); err != nil {
		t.sb.Inodes.FreeNum(inum)
		return nil, fmt.Errorf("allocating inode: %w", err)
	}
	util.DPrintf(5, "Alloc: %v\n", ip)
	return ip, nil
}

// Free releases every block of ip and then ip itself.
func (t *Table) Free(ip *Inode) error {
	if err := t.Truncate(ip, 0); err != nil {
		return fmt.Errorf("freeing inode `%d`: %w", ip.Inum, err)
	}
	ip.Type = common.FileTypeNone
	ip.MajorMinor = 0
	if err := t.Put(ip); err != nil {
		return fmt.Errorf("freeing inode `%d`: %w", ip.Inum, err)
	}
	t.sb.Inodes.FreeNum(ip.Inum)
	util.DPrintf(5, "Free: %d\n", ip.Inum)
	return nil
}
