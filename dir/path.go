package dir

import (
	"fmt"
	"strings"

	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/inode"
)

// Split breaks an absolute path into its components. Empty components (from
// repeated or trailing slashes) are skipped; "." and ".." are kept for walk.
func (tr *Tree) Split(path string) ([]string, error) {
	if uint64(len(path)) > tr.geo.MaxPath {
		return nil, fmt.Errorf("splitting path of %d bytes: %w", len(path),
			common.ErrPathTooLong)
	}
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("splitting path `%s`: not absolute: %w", path,
			common.ErrInvalidPath)
	}
	var names []string
	for _, name := range strings.Split(path, "/") {
		if name == "" {
			continue
		}
		if !isDot(name) {
			if err := tr.CheckName(name); err != nil {
				return nil, fmt.Errorf("splitting path `%s`: %w", path, err)
			}
		}
		names = append(names, name)
		if uint64(len(names)) > tr.geo.MaxPath/2+1 {
			return nil, fmt.Errorf("splitting path `%s`: %w", path,
				common.ErrPathTooLong)
		}
	}
	return names, nil
}

func isDot(name string) bool {
	return name == "." || name == ".."
}

// walk looks names up one at a time from the root. Directories hold no "."
// or ".." entries, so those step within the stack of directories walked so
// far, once the current inode has been checked to be a directory. ".." at
// the root stays at the root.
func (tr *Tree) walk(names []string) (*inode.Inode, error) {
	root, err := tr.tbl.Get(tr.Root)
	if err != nil {
		return nil, err
	}
	stack := []*inode.Inode{root}
	for _, name := range names {
		ip := stack[len(stack)-1]
		if isDot(name) {
			if err := tr.checkDir(ip); err != nil {
				return nil, err
			}
			if name == ".." && len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			continue
		}
		inum, err := tr.Lookup(ip, name)
		if err != nil {
			return nil, err
		}
		if ip, err = tr.tbl.Get(inum); err != nil {
			return nil, err
		}
		stack = append(stack, ip)
	}
	return stack[len(stack)-1], nil
}

// Resolve walks path from the root and returns the inode it names.
func (tr *Tree) Resolve(path string) (*inode.Inode, error) {
	names, err := tr.Split(path)
	if err != nil {
		return nil, err
	}
	ip, err := tr.walk(names)
	if err != nil {
		return nil, fmt.Errorf("resolving `%s`: %w", path, err)
	}
	return ip, nil
}

// Parent resolves every component of path but the last. It returns the
// containing directory and the final name, which need not exist.
func (tr *Tree) Parent(path string) (*inode.Inode, string, error) {
	names, err := tr.Split(path)
	if err != nil {
		return nil, "", err
	}
	if len(names) == 0 || isDot(names[len(names)-1]) {
		return nil, "", fmt.Errorf("parent of `%s`: %w", path,
			common.ErrInvalidPath)
	}
	dp, err := tr.walk(names[:len(names)-1])
	if err != nil {
		return nil, "", fmt.Errorf("parent of `%s`: %w", path, err)
	}
	if !dp.IsDir() {
		return nil, "", fmt.Errorf("parent of `%s`: inode `%d`: %w", path,
			dp.Inum, common.ErrNotDir)
	}
	return dp, names[len(names)-1], nil
}
