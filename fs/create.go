package fs

import (
	"errors"
	"fmt"

	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/util"
)

// Create makes an empty file of type typ at path p. major and minor are only
// meaningful for device types and must fit the packed major/minor byte.
func (fsys *FS) Create(typ common.FileType, p string, major uint8,
	minor uint8) (common.Inum, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	inum, err := fsys.create(typ, p, major, minor)
	if err != nil {
		return 0, fmt.Errorf("creating `%s`: %w", p, err)
	}
	return inum, nil
}

func (fsys *FS) create(typ common.FileType, p string, major uint8,
	minor uint8) (common.Inum, error) {
	p, err := fsys.absPath(p)
	if err != nil {
		return 0, err
	}
	dp, name, err := fsys.tree.Parent(p)
	if err != nil {
		return 0, err
	}
	if _, err := fsys.tree.Lookup(dp, name); err == nil {
		return 0, common.ErrExists
	} else if !errors.Is(err, common.ErrNotFound) {
		return 0, err
	}
	if err := typ.Validate(); err != nil {
		return 0, err
	}
	mm, err := common.MkMajorMinor(major, minor)
	if err != nil {
		return 0, err
	}
	ip, err := fsys.tbl.Alloc(typ, mm)
	if err != nil {
		return 0, err
	}
	if err := fsys.tree.AddEntry(dp, name, ip.Inum); err != nil {
		// the parent could not grow; give the inode back
		if ferr := fsys.tbl.Free(ip); ferr != nil {
			util.DPrintf(1, "create: releasing inode %d: %v\n", ip.Inum, ferr)
		}
		return 0, err
	}
	if err := fsys.flush(); err != nil {
		return 0, err
	}
	util.DPrintf(1, "Create: %s %v inode %d\n", p, typ, ip.Inum)
	return ip.Inum, nil
}

func (fsys *FS) Mkfile(p string) (common.Inum, error) {
	return fsys.Create(common.FileTypeRegular, p, 0, 0)
}

func (fsys *FS) Mkdir(p string) (common.Inum, error) {
	return fsys.Create(common.FileTypeDir, p, 0, 0)
}

// Mknod creates a device node served by driver major.
func (fsys *FS) Mknod(p string, typ common.FileType, major uint8,
	minor uint8) (common.Inum, error) {
	if !typ.IsDevice() {
		return 0, fmt.Errorf("creating device `%s` of type %v: %w", p, typ,
			common.ErrInvalidType)
	}
	return fsys.Create(typ, p, major, minor)
}

// Delete removes the file at p and reclaims its inode, its blocks and its
// directory entry. Open descriptors on the file are closed. The root and
// non-empty directories cannot be deleted.
func (fsys *FS) Delete(p string) error {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	if err := fsys.delete(p); err != nil {
		return fmt.Errorf("deleting `%s`: %w", p, err)
	}
	return nil
}

func (fsys *FS) delete(p string) error {
	p, err := fsys.absPath(p)
	if err != nil {
		return err
	}
	ip, err := fsys.tree.Resolve(p)
	if err != nil {
		return err
	}
	if ip.Inum == fsys.sb.RootInum {
		return fmt.Errorf("root directory: %w", common.ErrInvalidPath)
	}
	if ip.IsDir() && ip.Size > 0 {
		return common.ErrNotEmpty
	}
	dp, name, err := fsys.tree.Parent(p)
	if err != nil {
		return err
	}
	for fd := range fsys.oft {
		if !fsys.oftFree.IsFree(uint64(fd)) && fsys.oft[fd].Inum == ip.Inum {
			util.DPrintf(1, "Delete: %s still open as fd %d, closing\n", p, fd)
			fsys.release(Fd(fd))
		}
	}
	if err := fsys.tree.RemoveEntry(dp, name); err != nil {
		return err
	}
	if err := fsys.tbl.Free(ip); err != nil {
		return err
	}
	if err := fsys.flush(); err != nil {
		return err
	}
	util.DPrintf(1, "Delete: %s inode %d\n", p, ip.Inum)
	return nil
}
