package inode

import (
	"fmt"

	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/util"
)

func sub(n uint64, m uint64) uint64 {
	if n < m {
		return 0
	}
	return n - m
}

// span is the number of data blocks reachable from an index block at level
// (1 = single-indirect, 2 = double-indirect).
func (t *Table) span(level uint64) uint64 {
	n := uint64(1)
	for i := uint64(1); i < level; i++ {
		n *= t.geo.PtrsPerBlock
	}
	return n
}

// truncIndirect keeps the first keep data blocks under index block bn and
// frees the rest, including index blocks left empty. It returns NULLBNUM if bn
// itself was freed.
func (t *Table) truncIndirect(bn common.Bnum, level uint64,
	keep uint64) (common.Bnum, error) {
	if !t.valid(bn) {
		return common.NULLBNUM, nil
	}
	b, err := t.readIndex(bn)
	if err != nil {
		return bn, err
	}
	w := t.geo.BnumWidth
	span := t.span(level)
	for i := uint64(0); i < t.geo.PtrsPerBlock; i++ {
		child := b.BnumGet(i, w)
		if !t.valid(child) {
			continue
		}
		ck := sub(keep, i*span)
		if ck >= span {
			continue
		}
		nc := common.NULLBNUM
		if level > 1 {
			nc, err = t.truncIndirect(child, level-1, ck)
			if err != nil {
				return bn, err
			}
		} else {
			t.freeBlock(child)
		}
		if nc != child {
			b.BnumPut(i, w, nc)
		}
	}
	if keep == 0 {
		t.freeBlock(bn)
		return common.NULLBNUM, nil
	}
	return bn, b.WriteDirect(t.d)
}

// Truncate shrinks ip to size bytes and frees every data and index block
// that no longer holds file data.
func (t *Table) Truncate(ip *Inode, size uint64) error {
	if size > ip.Size {
		return fmt.Errorf("truncating inode `%d` to %d past size %d: %w",
			ip.Inum, size, ip.Size, common.ErrHole)
	}
	g := t.geo
	d := g.DirectBlocks
	keep := util.RoundUp(size, g.BlockSize)
	for i := keep; i < d; i++ {
		if t.valid(ip.Blocks[i]) {
			t.freeBlock(ip.Blocks[i])
		}
		ip.Blocks[i] = common.NULLBNUM
	}
	var err error
	ip.Blocks[d], err = t.truncIndirect(ip.Blocks[d], 1, sub(keep, d))
	if err != nil {
		return fmt.Errorf("truncating inode `%d`: %w", ip.Inum, err)
	}
	ip.Blocks[d+1], err = t.truncIndirect(ip.Blocks[d+1], 2,
		sub(keep, d+g.PtrsPerBlock))
	if err != nil {
		return fmt.Errorf("truncating inode `%d`: %w", ip.Inum, err)
	}
	ip.Size = size
	if err := t.Put(ip); err != nil {
		return fmt.Errorf("truncating inode `%d`: %w", ip.Inum, err)
	}
	util.DPrintf(5, "Truncate: %v\n", ip)
	return nil
}

// Owned lists every block of ip, index blocks included.
func (t *Table) Owned(ip *Inode) ([]common.Bnum, error) {
	var bns []common.Bnum
	var walk func(bn common.Bnum, level uint64) error
	walk = func(bn common.Bnum, level uint64) error {
		if !t.valid(bn) {
			return nil
		}
		bns = append(bns, bn)
		if level == 0 {
			return nil
		}
		b, err := t.readIndex(bn)
		if err != nil {
			return err
		}
		for i := uint64(0); i < t.geo.PtrsPerBlock; i++ {
			if err := walk(b.BnumGet(i, t.geo.BnumWidth), level-1); err != nil {
				return err
			}
		}
		return nil
	}
	d := t.geo.DirectBlocks
	for i, bn := range ip.Blocks {
		level := uint64(0)
		if uint64(i) >= d {
			level = uint64(i) - d + 1
		}
		if err := walk(bn, level); err != nil {
			return nil, fmt.Errorf("listing blocks of inode `%d`: %w", ip.Inum,
				err)
		}
	}
	return bns, nil
}
