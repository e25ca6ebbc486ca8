package fs

import (
	"fmt"

	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/inode"
	"github.com/mit-pdos/go-ramfs/util"
)

// Fd indexes the open-file table.
type Fd uint64

// OpenFile is one open-file table entry. Several entries may name the same
// inode, each with its own cursor.
type OpenFile struct {
	Cursor uint64
	Inum   common.Inum
}

func (fsys *FS) release(fd Fd) {
	fsys.oft[fd] = OpenFile{}
	fsys.oftFree.FreeNum(uint64(fd))
}

func (fsys *FS) lookupFd(fd Fd) (*OpenFile, error) {
	if uint64(fd) >= fsys.geo.MaxOpenFiles || fsys.oftFree.IsFree(uint64(fd)) {
		return nil, fmt.Errorf("fd %d: %w", fd, common.ErrBadDescriptor)
	}
	return &fsys.oft[fd], nil
}

// Open resolves p and returns a descriptor with its cursor at 0. Opening a
// device node runs the open hook registered for its driver.
func (fsys *FS) Open(p string) (Fd, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	fd, err := fsys.open(p)
	if err != nil {
		return 0, fmt.Errorf("opening `%s`: %w", p, err)
	}
	return fd, nil
}

func (fsys *FS) open(p string) (Fd, error) {
	p, err := fsys.absPath(p)
	if err != nil {
		return 0, err
	}
	ip, err := fsys.tree.Resolve(p)
	if err != nil {
		return 0, err
	}
	n, ok := fsys.oftFree.AllocNum()
	if !ok {
		return 0, common.ErrTableFull
	}
	fd := Fd(n)
	if ip.Type.IsDevice() {
		if err := fsys.openDevice(ip); err != nil {
			fsys.release(fd)
			return 0, err
		}
	}
	fsys.oft[fd] = OpenFile{Cursor: 0, Inum: ip.Inum}
	util.DPrintf(5, "Open: %s inode %d fd %d\n", p, ip.Inum, fd)
	return fd, nil
}

func (fsys *FS) Close(fd Fd) error {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	if _, err := fsys.lookupFd(fd); err != nil {
		return fmt.Errorf("closing: %w", err)
	}
	fsys.release(fd)
	return nil
}

// file returns the entry and inode behind fd, refusing device nodes: their
// I/O belongs to the driver.
func (fsys *FS) file(fd Fd) (*OpenFile, *inode.Inode, error) {
	of, err := fsys.lookupFd(fd)
	if err != nil {
		return nil, nil, err
	}
	ip, err := fsys.tbl.Get(of.Inum)
	if err != nil {
		return nil, nil, err
	}
	if ip.Type.IsDevice() {
		return nil, nil, fmt.Errorf("fd %d is a %v device: %w", fd, ip.Type,
			common.ErrInvalidType)
	}
	return of, ip, nil
}

// Read reads from the cursor of fd and advances it. Directories read as
// their raw entries.
func (fsys *FS) Read(fd Fd, p []byte) (uint64, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	of, ip, err := fsys.file(fd)
	if err != nil {
		return 0, fmt.Errorf("reading: %w", err)
	}
	n, err := fsys.tbl.Read(ip, p, of.Cursor)
	of.Cursor += n
	if err != nil {
		return n, fmt.Errorf("reading fd %d: %w", fd, err)
	}
	return n, nil
}

// Write writes at the cursor of fd and advances it by the bytes written, even
// when the write stops early.
func (fsys *FS) Write(fd Fd, p []byte) (uint64, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	of, ip, err := fsys.file(fd)
	if err != nil {
		return 0, fmt.Errorf("writing: %w", err)
	}
	if ip.IsDir() {
		return 0, fmt.Errorf("writing fd %d: %w", fd, common.ErrIsDir)
	}
	n, err := fsys.tbl.Write(ip, p, of.Cursor)
	of.Cursor += n
	if ferr := fsys.flush(); err == nil {
		err = ferr
	}
	if err != nil {
		return n, fmt.Errorf("writing fd %d: %w", fd, err)
	}
	return n, nil
}

// Seek moves the cursor of fd. A cursor past the end of the file reads
// nothing and cannot be written at.
func (fsys *FS) Seek(fd Fd, off uint64) error {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	of, err := fsys.lookupFd(fd)
	if err != nil {
		return fmt.Errorf("seeking: %w", err)
	}
	of.Cursor = off
	return nil
}

// Tell returns the cursor of fd.
func (fsys *FS) Tell(fd Fd) (uint64, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	of, err := fsys.lookupFd(fd)
	if err != nil {
		return 0, fmt.Errorf("tell: %w", err)
	}
	return of.Cursor, nil
}

// NumOpen is the number of open-file table entries in use.
func (fsys *FS) NumOpen() uint64 {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	return fsys.geo.MaxOpenFiles - fsys.oftFree.NumFree()
}
