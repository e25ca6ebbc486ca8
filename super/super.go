// Package super holds the superblock: the layout header of a ramdisk file
// system plus its free-inode and free-block bitmaps.
package super

import (
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-ramfs/alloc"
	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/disk"
	"github.com/mit-pdos/go-ramfs/util"
)

const MAGIC uint64 = 0x7366_6d61_72 // "ramfs"

type Superblock struct {
	Geo      common.Geometry
	RootInum common.Inum
	Inodes   *alloc.Alloc
	Blocks   *alloc.Alloc
}

// MkSuperblock creates the superblock of an empty file system. All inodes are
// free and only the metadata blocks are in use.
func MkSuperblock(geo common.Geometry) *Superblock {
	sb := &Superblock{
		Geo:    geo,
		Inodes: alloc.MkAlloc(geo.NumInodes),
		Blocks: alloc.MkAlloc(geo.NumBlocks),
	}
	sb.reserve()
	return sb
}

// reserve marks the superblock region and the inode table in use, so the
// block allocator never returns them.
func (sb *Superblock) reserve() {
	for bn := uint64(0); bn < sb.Geo.DataStart; bn++ {
		sb.Blocks.MarkUsed(bn)
	}
}

// IsMeta reports whether bn belongs to the superblock or the inode table.
func (sb *Superblock) IsMeta(bn common.Bnum) bool {
	return bn < sb.Geo.DataStart
}

// words converts an in-use bitmap into little-endian 64-bit words with
// 1 = free. Bits past max stay 0.
func words(used []byte, max uint64) []uint64 {
	w := make([]uint64, common.BitmapBytes(max)/8)
	for n := uint64(0); n < max; n++ {
		if used[n/8]&(1<<(n%8)) == 0 {
			w[n/64] |= 1 << (n % 64)
		}
	}
	return w
}

func unwords(w []uint64, max uint64) []byte {
	used := make([]byte, util.RoundUp(max, 8))
	for n := uint64(0); n < max; n++ {
		if w[n/64]&(1<<(n%64)) == 0 {
			used[n/8] |= 1 << (n % 8)
		}
	}
	return used
}

// Encode serializes sb into SuperBlocks whole blocks.
func (sb *Superblock) Encode() []byte {
	g := sb.Geo
	enc := marshal.NewEnc(g.SuperBlocks * g.BlockSize)
	enc.PutInt(MAGIC)
	enc.PutInt(g.BlockSize)
	enc.PutInt(g.NumBlocks)
	enc.PutInt(uint64(g.InodeTableStart))
	enc.PutInt(g.NumInodes)
	enc.PutInt(uint64(sb.RootInum))
	enc.PutInts(words(sb.Inodes.Bitmap(), g.NumInodes))
	enc.PutInts(words(sb.Blocks.Bitmap(), g.NumBlocks))
	return enc.Finish()
}

func corrupt(format string, a ...interface{}) error {
	return fmt.Errorf("decoding superblock: %s: %w", fmt.Sprintf(format, a...),
		common.ErrCorrupt)
}

// Decode parses a superblock written by Encode and checks it against geo.
func Decode(geo common.Geometry, data []byte) (*Superblock, error) {
	if uint64(len(data)) < geo.SuperSize {
		return nil, corrupt("`%d` bytes, need `%d`", len(data), geo.SuperSize)
	}
	dec := marshal.NewDec(data)
	if magic := dec.GetInt(); magic != MAGIC {
		return nil, corrupt("bad magic `%#x`", magic)
	}
	hdr := []struct {
		name string
		want uint64
	}{
		{"block size", geo.BlockSize},
		{"block count", geo.NumBlocks},
		{"inode table start", uint64(geo.InodeTableStart)},
		{"inode count", geo.NumInodes},
	}
	for _, h := range hdr {
		if got := dec.GetInt(); got != h.want {
			return nil, corrupt("%s is `%d`, expected `%d`", h.name, got,
				h.want)
		}
	}
	root := dec.GetInt()
	if root >= geo.NumInodes {
		return nil, corrupt("root inode `%d` out of range", root)
	}
	iw := dec.GetInts(common.BitmapBytes(geo.NumInodes) / 8)
	bw := dec.GetInts(common.BitmapBytes(geo.NumBlocks) / 8)

	inodes, err := alloc.MkAllocFrom(unwords(iw, geo.NumInodes), geo.NumInodes)
	if err != nil {
		return nil, corrupt("%v", err)
	}
	blocks, err := alloc.MkAllocFrom(unwords(bw, geo.NumBlocks), geo.NumBlocks)
	if err != nil {
		return nil, corrupt("%v", err)
	}
	sb := &Superblock{Geo: geo, RootInum: root, Inodes: inodes, Blocks: blocks}
	if inodes.IsFree(root) {
		return nil, corrupt("root inode `%d` is free", root)
	}
	sb.reserve()
	return sb, nil
}

// Flush writes sb to the superblock region of d.
func (sb *Superblock) Flush(d disk.Disk) error {
	data := sb.Encode()
	bs := sb.Geo.BlockSize
	for i := uint64(0); i < sb.Geo.SuperBlocks; i++ {
		if err := d.Write(i, data[i*bs:(i+1)*bs]); err != nil {
			return fmt.Errorf("flushing superblock: %w", err)
		}
	}
	return nil
}

// Load reads and decodes the superblock region of d.
func Load(d disk.Disk, geo common.Geometry) (*Superblock, error) {
	if d.BlockSize() != geo.BlockSize || d.Size() != geo.NumBlocks {
		return nil, corrupt("disk of `%d` x `%d` byte blocks", d.Size(),
			d.BlockSize())
	}
	data := make([]byte, 0, geo.SuperBlocks*geo.BlockSize)
	for i := uint64(0); i < geo.SuperBlocks; i++ {
		blk, err := d.Read(i)
		if err != nil {
			return nil, fmt.Errorf("loading superblock: %w", err)
		}
		data = append(data, blk...)
	}
	return Decode(geo, data)
}
