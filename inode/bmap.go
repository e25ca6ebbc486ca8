package inode

import (
	"fmt"

	"github.com/mit-pdos/go-ramfs/addr"
	"github.com/mit-pdos/go-ramfs/buf"
	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/disk"
	"github.com/mit-pdos/go-ramfs/util"
)

// A file's logical blocks are addressed in three tiers:
//
//   [0, D)            Blocks[i]
//   [D, D+K)          single-indirect block Blocks[D]
//   [D+K, D+K+K*K)    double-indirect block Blocks[D+1], then a second-layer
//                     index block per K data blocks
//
// where D is the number of direct slots and K the block numbers per block.

// valid reports whether bn may name a data or index block.
func (t *Table) valid(bn common.Bnum) bool {
	return bn != common.NULLBNUM && !t.sb.IsMeta(bn) && bn < t.geo.NumBlocks
}

func (t *Table) readIndex(bn common.Bnum) (*buf.Buf, error) {
	return buf.ReadBuf(t.d, addr.MkAddr(bn, 0), t.geo.BlockSize)
}

// slot returns entry i of index block bn, if bn and the entry are set.
func (t *Table) slot(bn common.Bnum, i uint64) (common.Bnum, bool) {
	if !t.valid(bn) {
		return common.NULLBNUM, false
	}
	b, err := t.readIndex(bn)
	if err != nil {
		util.DPrintf(1, "slot: index block %d: %v\n", bn, err)
		return common.NULLBNUM, false
	}
	child := b.BnumGet(i, t.geo.BnumWidth)
	return child, t.valid(child)
}

func (t *Table) setSlot(bn common.Bnum, i uint64, v common.Bnum) error {
	w := t.geo.BnumWidth
	b, err := buf.ReadBuf(t.d, addr.MkAddr(bn, i*w), w)
	if err != nil {
		return err
	}
	b.BnumPut(0, w, v)
	return b.WriteDirect(t.d)
}

// translate maps offset off of ip through the three tiers, ignoring the file
// size.
func (t *Table) translate(ip *Inode, off uint64) (common.Bnum, bool) {
	g := t.geo
	bs := g.BlockSize
	switch {
	case off < g.SingleStart:
		bn := ip.Blocks[off/bs]
		return bn, t.valid(bn)
	case off < g.DoubleStart:
		return t.slot(ip.Blocks[g.DirectBlocks], (off-g.SingleStart)/bs)
	case off < g.MaxFileSize:
		rel := off - g.DoubleStart
		span := g.PtrsPerBlock * bs
		second, ok := t.slot(ip.Blocks[g.DirectBlocks+1], rel/span)
		if !ok {
			return common.NULLBNUM, false
		}
		return t.slot(second, rel%span/bs)
	}
	return common.NULLBNUM, false
}

// Bmap returns the block holding byte off of ip. Offsets past the end of the
// file are unmapped, as is an end of file that falls on a block boundary.
func (t *Table) Bmap(ip *Inode, off uint64) (common.Bnum, bool) {
	if off > ip.Size || (off == ip.Size && off%t.geo.BlockSize == 0) {
		return common.NULLBNUM, false
	}
	bn, ok := t.translate(ip, off)
	util.DPrintf(10, "Bmap: %d off %d -> %d %v\n", ip.Inum, off, bn, ok)
	return bn, ok
}

func (t *Table) allocBlock() (common.Bnum, error) {
	bn, ok := t.sb.Blocks.AllocNum()
	if !ok {
		return common.NULLBNUM, common.ErrNoSpace
	}
	if err := disk.Zero(t.d, bn); err != nil {
		t.sb.Blocks.FreeNum(bn)
		return common.NULLBNUM, err
	}
	util.DPrintf(5, "allocBlock: %d\n", bn)
	return bn, nil
}

func (t *Table) freeBlock(bn common.Bnum) {
	if !t.valid(bn) {
		panic(fmt.Sprintf("freeBlock: %d is not a data block", bn))
	}
	util.DPrintf(5, "freeBlock: %d\n", bn)
	t.sb.Blocks.FreeNum(bn)
}

// AppendBlock extends ip by one block, allocating index blocks the first
// time a tier (or a second-layer block) is entered. If fewer free blocks
// remain than it needs, it fails with ErrNoSpace before taking any. ip.Size
// is left to the caller.
func (t *Table) AppendBlock(ip *Inode) (common.Bnum, error) {
	g := t.geo
	bs := g.BlockSize
	d := g.DirectBlocks
	k := g.PtrsPerBlock
	lbn := util.RoundUp(ip.Size, bs)
	if lbn*bs >= g.SizeLimit {
		return common.NULLBNUM, fmt.Errorf("appending block %d to inode `%d`: %w",
			lbn, ip.Inum, common.ErrFileTooLarge)
	}

	need := uint64(1)
	var single, double, second bool
	switch {
	case lbn < d:
	case lbn < d+k:
		single = !t.valid(ip.Blocks[d])
	default:
		double = !t.valid(ip.Blocks[d+1])
		_, ok := t.slot(ip.Blocks[d+1], (lbn-d-k)/k)
		second = !ok
	}
	for _, b := range []bool{single, double, second} {
		if b {
			need++
		}
	}
	if t.sb.Blocks.NumFree() < need {
		return common.NULLBNUM, fmt.Errorf("appending block %d to inode `%d`: %w",
			lbn, ip.Inum, common.ErrNoSpace)
	}

	// On failure every block taken here is freed and every slot written here
	// is reset, newest first.
	var undo []func()
	wrap := func(err error) (common.Bnum, error) {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		return common.NULLBNUM, fmt.Errorf("appending block %d to inode `%d`: %w",
			lbn, ip.Inum, err)
	}
	take := func() (common.Bnum, error) {
		bn, err := t.allocBlock()
		if err == nil {
			undo = append(undo, func() { t.freeBlock(bn) })
		}
		return bn, err
	}
	link := func(idx common.Bnum, i uint64, bn common.Bnum) error {
		if err := t.setSlot(idx, i, bn); err != nil {
			return err
		}
		undo = append(undo, func() {
			if err := t.setSlot(idx, i, common.NULLBNUM); err != nil {
				util.DPrintf(1, "AppendBlock: reset slot %d of %d: %v\n", i, idx, err)
			}
		})
		return nil
	}
	put := func(i uint64, bn common.Bnum) {
		old := ip.Blocks[i]
		ip.Blocks[i] = bn
		undo = append(undo, func() { ip.Blocks[i] = old })
	}

	if single {
		bn, err := take()
		if err != nil {
			return wrap(err)
		}
		put(d, bn)
	}
	if double {
		bn, err := take()
		if err != nil {
			return wrap(err)
		}
		put(d+1, bn)
	}
	if second {
		bn, err := take()
		if err != nil {
			return wrap(err)
		}
		if err := link(ip.Blocks[d+1], (lbn-d-k)/k, bn); err != nil {
			return wrap(err)
		}
	}
	bn, err := take()
	if err != nil {
		return wrap(err)
	}
	switch {
	case lbn < d:
		put(lbn, bn)
	case lbn < d+k:
		err = link(ip.Blocks[d], lbn-d, bn)
	default:
		sec, _ := t.slot(ip.Blocks[d+1], (lbn-d-k)/k)
		err = link(sec, (lbn-d-k)%k, bn)
	}
	if err != nil {
		return wrap(err)
	}
	if err := t.Put(ip); err != nil {
		return wrap(err)
	}
	util.DPrintf(5, "AppendBlock: %d lbn %d -> %d\n", ip.Inum, lbn, bn)
	return bn, nil
}
