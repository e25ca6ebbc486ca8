package inode

import (
	"fmt"

	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/util"
)

// Read copies bytes of ip starting at off into p. It never reads past the end
// of the file and returns 0 at or beyond it.
func (t *Table) Read(ip *Inode, p []byte, off uint64) (uint64, error) {
	if off >= ip.Size {
		return 0, nil
	}
	bs := t.geo.BlockSize
	n := util.Min(uint64(len(p)), ip.Size-off)
	var done uint64
	for done < n {
		o := off + done
		bn, ok := t.Bmap(ip, o)
		if !ok {
			return done, fmt.Errorf("reading inode `%d` at %d: %w", ip.Inum, o,
				common.ErrCorrupt)
		}
		blk, err := t.d.Read(bn)
		if err != nil {
			return done, fmt.Errorf("reading inode `%d` at %d: %w", ip.Inum, o,
				err)
		}
		done += uint64(copy(p[done:n], blk[o%bs:]))
	}
	return done, nil
}

// Write copies p into ip at off, growing the file one block at a time. off may
// be at most the file size; files have no holes. Size is updated after every
// block, so a write cut short by exhaustion keeps what it wrote.
func (t *Table) Write(ip *Inode, p []byte, off uint64) (uint64, error) {
	if off > ip.Size {
		return 0, fmt.Errorf("writing inode `%d` at %d past size %d: %w",
			ip.Inum, off, ip.Size, common.ErrHole)
	}
	if util.SumOverflows(off, uint64(len(p))) {
		return 0, fmt.Errorf("writing inode `%d`: %w", ip.Inum,
			common.ErrFileTooLarge)
	}
	bs := t.geo.BlockSize
	var done uint64
	for done < uint64(len(p)) {
		o := off + done
		var bn common.Bnum
		if o == ip.Size && o%bs == 0 {
			var err error
			bn, err = t.AppendBlock(ip)
			if err != nil {
				return done, fmt.Errorf("writing inode `%d`: %w", ip.Inum, err)
			}
		} else {
			var ok bool
			bn, ok = t.Bmap(ip, o)
			if !ok {
				return done, fmt.Errorf("writing inode `%d` at %d: %w",
					ip.Inum, o, common.ErrCorrupt)
			}
		}
		blk, err := t.d.Read(bn)
		if err != nil {
			return done, fmt.Errorf("writing inode `%d`: %w", ip.Inum, err)
		}
		end := util.Min(uint64(len(p)), done+t.geo.SizeLimit-o)
		c := uint64(copy(blk[o%bs:], p[done:end]))
		if err := t.d.Write(bn, blk); err != nil {
			return done, fmt.Errorf("writing inode `%d`: %w", ip.Inum, err)
		}
		done += c
		if o+c > ip.Size {
			ip.Size = o + c
			if err := t.Put(ip); err != nil {
				return done, fmt.Errorf("writing inode `%d`: %w", ip.Inum, err)
			}
		}
		if c == 0 {
			return done, fmt.Errorf("writing inode `%d` at %d: %w", ip.Inum, o,
				common.ErrFileTooLarge)
		}
	}
	return done, nil
}
