// Package fs is the system-call facing ramdisk file system: file creation and
// deletion, an open-file table, and device open hooks, on top of the inode
// and directory layers.
package fs

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mit-pdos/go-ramfs/alloc"
	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/dir"
	"github.com/mit-pdos/go-ramfs/disk"
	"github.com/mit-pdos/go-ramfs/inode"
	"github.com/mit-pdos/go-ramfs/super"
	"github.com/mit-pdos/go-ramfs/util"
)

// FS owns one ramdisk and all the state kept on it. mu serializes every
// exported method; the layers below are not safe for concurrent use.
type FS struct {
	mu      *sync.Mutex
	d       disk.Disk
	geo     common.Geometry
	sb      *super.Superblock
	tbl     *inode.Table
	tree    *dir.Tree
	oft     []OpenFile
	oftFree *alloc.Alloc
	drivers map[uint8]OpenHook
}

func checkDisk(d disk.Disk, geo common.Geometry) error {
	if d.BlockSize() != geo.BlockSize || d.Size() != geo.NumBlocks {
		return fmt.Errorf("disk has `%d` blocks of `%d` bytes, config wants "+
			"`%d` of `%d`: %w", d.Size(), d.BlockSize(), geo.NumBlocks,
			geo.BlockSize, common.ErrBadConfig)
	}
	return nil
}

func mkFS(d disk.Disk, sb *super.Superblock) *FS {
	tbl := inode.MkTable(d, sb)
	return &FS{
		mu:      new(sync.Mutex),
		d:       d,
		geo:     sb.Geo,
		sb:      sb,
		tbl:     tbl,
		tree:    dir.MkTree(tbl, sb.RootInum),
		oft:     make([]OpenFile, sb.Geo.MaxOpenFiles),
		oftFree: alloc.MkAlloc(sb.Geo.MaxOpenFiles),
		drivers: make(map[uint8]OpenHook),
	}
}

// Format lays out an empty file system on d: a superblock, a zeroed inode
// table and an empty root directory.
func Format(d disk.Disk, cfg common.Config) (*FS, error) {
	geo, err := cfg.Geometry()
	if err != nil {
		return nil, fmt.Errorf("formatting: %w", err)
	}
	if err := checkDisk(d, geo); err != nil {
		return nil, fmt.Errorf("formatting: %w", err)
	}
	for bn := geo.InodeTableStart; bn < geo.DataStart; bn++ {
		if err := disk.Zero(d, bn); err != nil {
			return nil, fmt.Errorf("formatting: %w", err)
		}
	}
	sb := super.MkSuperblock(geo)
	tbl := inode.MkTable(d, sb)
	for inum := uint64(0); inum < geo.NumInodes; inum++ {
		ip := &inode.Inode{Inum: inum, Type: common.FileTypeNone,
			Blocks: make([]common.Bnum, geo.InodeSlots)}
		if err := tbl.Put(ip); err != nil {
			return nil, fmt.Errorf("formatting: %w", err)
		}
	}
	root, err := tbl.Alloc(common.FileTypeDir, 0)
	if err != nil {
		return nil, fmt.Errorf("formatting: %w", err)
	}
	sb.RootInum = root.Inum
	if err := sb.Flush(d); err != nil {
		return nil, fmt.Errorf("formatting: %w", err)
	}
	util.DPrintf(1, "Format: %d blocks of %d bytes, %d inodes, data at %d\n",
		geo.NumBlocks, geo.BlockSize, geo.NumInodes, geo.DataStart)
	return mkFS(d, sb), nil
}

// Mount opens a file system previously formatted on d with the same config.
// The open-file table starts empty.
func Mount(d disk.Disk, cfg common.Config) (*FS, error) {
	geo, err := cfg.Geometry()
	if err != nil {
		return nil, fmt.Errorf("mounting: %w", err)
	}
	if err := checkDisk(d, geo); err != nil {
		return nil, fmt.Errorf("mounting: %w", err)
	}
	sb, err := super.Load(d, geo)
	if err != nil {
		return nil, fmt.Errorf("mounting: %w", err)
	}
	root, err := inode.MkTable(d, sb).Get(sb.RootInum)
	if err != nil {
		return nil, fmt.Errorf("mounting: %w", err)
	}
	if !root.IsDir() {
		return nil, fmt.Errorf("mounting: root inode `%d` is %v: %w",
			root.Inum, root.Type, common.ErrCorrupt)
	}
	util.DPrintf(1, "Mount: root %d, %d free blocks, %d free inodes\n",
		sb.RootInum, sb.Blocks.NumFree(), sb.Inodes.NumFree())
	return mkFS(d, sb), nil
}

// An Unpacker populates a freshly formatted file system.
type Unpacker interface {
	Unpack(fsys *FS) error
}

// Init creates a new ramdisk sized by cfg, formats it, and unpacks the boot
// archive into it.
func Init(cfg common.Config, archive Unpacker) (*FS, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("initializing: %w", err)
	}
	util.Debug = cfg.Debug
	d := disk.NewMemDisk(cfg.DiskSize/cfg.BlockSize, cfg.BlockSize)
	fsys, err := Format(d, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing: %w", err)
	}
	if archive != nil {
		if err := archive.Unpack(fsys); err != nil {
			return nil, fmt.Errorf("initializing: %w", err)
		}
	}
	return fsys, nil
}

func (fsys *FS) Disk() disk.Disk {
	return fsys.d
}

func (fsys *FS) Geometry() common.Geometry {
	return fsys.geo
}

func (fsys *FS) RootInum() common.Inum {
	return fsys.sb.RootInum
}

// NumFree reports the free inodes and free blocks.
func (fsys *FS) NumFree() (inodes uint64, blocks uint64) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	return fsys.sb.Inodes.NumFree(), fsys.sb.Blocks.NumFree()
}

// flush writes the superblock so the ramdisk image is self-describing.
func (fsys *FS) flush() error {
	if err := fsys.sb.Flush(fsys.d); err != nil {
		return fmt.Errorf("flushing: %w", err)
	}
	return nil
}

// absPath checks that p is absolute and within the path limit. "." and ".."
// are left for the directory walk to resolve one component at a time.
func (fsys *FS) absPath(p string) (string, error) {
	if uint64(len(p)) > fsys.geo.MaxPath {
		return "", fmt.Errorf("path of %d bytes: %w", len(p),
			common.ErrPathTooLong)
	}
	if !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("path `%s` is not absolute: %w", p,
			common.ErrInvalidPath)
	}
	return p, nil
}
