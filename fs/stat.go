package fs

import (
	"fmt"

	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/dir"
	"github.com/mit-pdos/go-ramfs/inode"
)

type Stat struct {
	Inum   common.Inum
	Type   common.FileType
	Size   uint64
	Major  uint8
	Minor  uint8
	Blocks uint64 // data and index blocks
}

func (fsys *FS) stat(ip *inode.Inode) (Stat, error) {
	owned, err := fsys.tbl.Owned(ip)
	if err != nil {
		return Stat{}, err
	}
	return Stat{
		Inum:   ip.Inum,
		Type:   ip.Type,
		Size:   ip.Size,
		Major:  common.Major(ip.MajorMinor),
		Minor:  common.Minor(ip.MajorMinor),
		Blocks: uint64(len(owned)),
	}, nil
}

func (fsys *FS) Stat(p string) (Stat, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	st, err := fsys.statPath(p)
	if err != nil {
		return Stat{}, fmt.Errorf("stat `%s`: %w", p, err)
	}
	return st, nil
}

func (fsys *FS) statPath(p string) (Stat, error) {
	p, err := fsys.absPath(p)
	if err != nil {
		return Stat{}, err
	}
	ip, err := fsys.tree.Resolve(p)
	if err != nil {
		return Stat{}, err
	}
	return fsys.stat(ip)
}

// Fstat describes the file behind an open descriptor.
func (fsys *FS) Fstat(fd Fd) (Stat, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	of, err := fsys.lookupFd(fd)
	if err != nil {
		return Stat{}, fmt.Errorf("fstat: %w", err)
	}
	ip, err := fsys.tbl.Get(of.Inum)
	if err != nil {
		return Stat{}, fmt.Errorf("fstat: %w", err)
	}
	return fsys.stat(ip)
}

// ReadDir lists the directory at p in entry order.
func (fsys *FS) ReadDir(p string) ([]dir.Entry, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	ents, err := fsys.readDir(p)
	if err != nil {
		return nil, fmt.Errorf("listing `%s`: %w", p, err)
	}
	return ents, nil
}

func (fsys *FS) readDir(p string) ([]dir.Entry, error) {
	p, err := fsys.absPath(p)
	if err != nil {
		return nil, err
	}
	ip, err := fsys.tree.Resolve(p)
	if err != nil {
		return nil, err
	}
	return fsys.tree.Entries(ip)
}
