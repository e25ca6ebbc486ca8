package common

import "math"

const (
	// magic, block size, block count, inode table start, inode count, root
	SUPERHDRSZ uint64 = 6 * 8
	INODEHDRSZ uint64 = 4 + 1 + 1 // size, type, major/minor
)

// Geometry is the layout derived from a Config.
//
//   [ superblock | inode table | data blocks ............ ]
//   0            InodeTableStart DataStart                NumBlocks
//
// Block numbers and inode numbers are stored with the narrowest width that
// can name every block (inode) of the configuration.
type Geometry struct {
	Config

	NumBlocks    uint64
	BnumWidth    uint64
	InumWidth    uint64
	PtrsPerBlock uint64 // block numbers per indirect block (K)

	InodeSlots     uint64 // DirectBlocks + single + double
	InodeSize      uint64
	InodesPerBlock uint64

	SuperSize        uint64 // encoded superblock, in bytes
	SuperBlocks      uint64
	InodeTableStart  Bnum
	InodeTableBlocks uint64
	DataStart        Bnum

	SingleStart uint64 // first file offset mapped by the single-indirect block
	DoubleStart uint64 // first file offset mapped by the double-indirect block
	MaxFileSize uint64 // structural limit of the three tiers
	SizeLimit   uint64 // MaxFileSize capped by the inode's size field

	DirEntrySize uint64
}

func width(n uint64) uint64 {
	for _, w := range []uint64{1, 2, 4} {
		if n <= 1<<(8*w) {
			return w
		}
	}
	return 8
}

func (cfg Config) geometry() Geometry {
	g := Geometry{Config: cfg}
	bs := cfg.BlockSize
	g.NumBlocks = cfg.DiskSize / bs
	g.BnumWidth = width(g.NumBlocks)
	g.InumWidth = width(cfg.NumInodes)
	g.PtrsPerBlock = bs / g.BnumWidth

	g.InodeSlots = cfg.DirectBlocks + 2
	g.InodeSize = INODEHDRSZ + g.InodeSlots*g.BnumWidth
	if g.InodeSize <= bs {
		g.InodesPerBlock = bs / g.InodeSize
	} else {
		g.InodesPerBlock = 1
	}

	g.SuperSize = SUPERHDRSZ + BitmapBytes(cfg.NumInodes) +
		BitmapBytes(g.NumBlocks)
	g.SuperBlocks = (g.SuperSize + bs - 1) / bs
	g.InodeTableStart = g.SuperBlocks
	g.InodeTableBlocks = (cfg.NumInodes + g.InodesPerBlock - 1) /
		g.InodesPerBlock
	g.DataStart = g.InodeTableStart + g.InodeTableBlocks

	k := g.PtrsPerBlock
	g.SingleStart = cfg.DirectBlocks * bs
	g.DoubleStart = g.SingleStart + k*bs
	g.MaxFileSize = g.DoubleStart + k*k*bs
	g.SizeLimit = g.MaxFileSize
	if g.SizeLimit > math.MaxUint32 {
		g.SizeLimit = math.MaxUint32
	}

	g.DirEntrySize = cfg.MaxFilename + g.InumWidth
	return g
}

// Geometry validates cfg and derives its layout.
func (cfg Config) Geometry() (Geometry, error) {
	if err := cfg.Validate(); err != nil {
		return Geometry{}, err
	}
	return cfg.geometry(), nil
}

// BitmapBytes is the serialized size of a bitmap over n items; bitmaps are
// stored as whole 64-bit words.
func BitmapBytes(n uint64) uint64 {
	return (n + 63) / 64 * 8
}
