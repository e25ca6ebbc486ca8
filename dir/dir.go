// Package dir stores directories as ordinary file data: a packed array of
// fixed-size entries, each a zero-padded name followed by an inode number.
package dir

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mit-pdos/go-ramfs/buf"
	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/inode"
	"github.com/mit-pdos/go-ramfs/util"
)

type Entry struct {
	Name string
	Inum common.Inum
}

// Tree resolves paths against the directory hierarchy rooted at Root.
type Tree struct {
	tbl  *inode.Table
	geo  common.Geometry
	Root common.Inum
}

func MkTree(tbl *inode.Table, root common.Inum) *Tree {
	return &Tree{tbl: tbl, geo: tbl.Geometry(), Root: root}
}

// CheckName rejects names that do not fit an entry.
func (tr *Tree) CheckName(name string) error {
	if uint64(len(name)) > tr.geo.MaxFilename {
		return fmt.Errorf("checking name `%s`: %w", name, common.ErrNameTooLong)
	}
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("checking name %q: %w", name, common.ErrInvalidPath)
	}
	return nil
}

func (tr *Tree) encode(e Entry) []byte {
	data := make([]byte, tr.geo.DirEntrySize)
	copy(data, e.Name)
	buf.PutUint(data[tr.geo.MaxFilename:], tr.geo.InumWidth, e.Inum)
	return data
}

func (tr *Tree) decode(data []byte) Entry {
	name := data[:tr.geo.MaxFilename]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return Entry{
		Name: string(name),
		Inum: buf.GetUint(data[tr.geo.MaxFilename:], tr.geo.InumWidth),
	}
}

func (tr *Tree) checkDir(dp *inode.Inode) error {
	if !dp.IsDir() {
		return fmt.Errorf("inode `%d` is %v: %w", dp.Inum, dp.Type,
			common.ErrNotDir)
	}
	if dp.Size%tr.geo.DirEntrySize != 0 {
		return fmt.Errorf("directory `%d` of size %d: %w", dp.Inum, dp.Size,
			common.ErrCorrupt)
	}
	return nil
}

// Entries returns the entries of dp in on-disk order.
func (tr *Tree) Entries(dp *inode.Inode) ([]Entry, error) {
	if err := tr.checkDir(dp); err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	data := make([]byte, dp.Size)
	if _, err := tr.tbl.Read(dp, data, 0); err != nil {
		return nil, fmt.Errorf("reading directory `%d`: %w", dp.Inum, err)
	}
	es := tr.geo.DirEntrySize
	ents := make([]Entry, 0, dp.Size/es)
	for off := uint64(0); off < dp.Size; off += es {
		ents = append(ents, tr.decode(data[off:off+es]))
	}
	return ents, nil
}

func (tr *Tree) find(dp *inode.Inode, name string) (int, []Entry, error) {
	ents, err := tr.Entries(dp)
	if err != nil {
		return 0, nil, err
	}
	for i, e := range ents {
		if e.Name == name {
			return i, ents, nil
		}
	}
	return 0, ents, fmt.Errorf("looking up `%s` in directory `%d`: %w", name,
		dp.Inum, common.ErrNotFound)
}

// Lookup scans dp linearly for name.
func (tr *Tree) Lookup(dp *inode.Inode, name string) (common.Inum, error) {
	i, ents, err := tr.find(dp, name)
	if err != nil {
		return 0, err
	}
	return ents[i].Inum, nil
}

// AddEntry appends an entry for inum to dp. It does not check for an
// existing entry with the same name.
func (tr *Tree) AddEntry(dp *inode.Inode, name string, inum common.Inum) error {
	if err := tr.CheckName(name); err != nil {
		return err
	}
	if err := tr.checkDir(dp); err != nil {
		return fmt.Errorf("adding `%s`: %w", name, err)
	}
	e := Entry{Name: name, Inum: inum}
	if _, err := tr.tbl.Write(dp, tr.encode(e), dp.Size); err != nil {
		// drop a partially written entry
		keep := dp.Size - dp.Size%tr.geo.DirEntrySize
		if terr := tr.tbl.Truncate(dp, keep); terr != nil {
			util.DPrintf(1, "AddEntry: truncating `%d`: %v\n", dp.Inum, terr)
		}
		return fmt.Errorf("adding `%s` to directory `%d`: %w", name, dp.Inum,
			err)
	}
	util.DPrintf(5, "AddEntry: %d %s -> %d\n", dp.Inum, name, inum)
	return nil
}

// RemoveEntry deletes name from dp by moving the last entry into its place
// and shrinking the directory by one entry.
func (tr *Tree) RemoveEntry(dp *inode.Inode, name string) error {
	i, ents, err := tr.find(dp, name)
	if err != nil {
		return fmt.Errorf("removing entry: %w", err)
	}
	es := tr.geo.DirEntrySize
	last := len(ents) - 1
	if i != last {
		if _, err := tr.tbl.Write(dp, tr.encode(ents[last]),
			uint64(i)*es); err != nil {
			return fmt.Errorf("removing `%s` from directory `%d`: %w", name,
				dp.Inum, err)
		}
	}
	if err := tr.tbl.Truncate(dp, dp.Size-es); err != nil {
		return fmt.Errorf("removing `%s` from directory `%d`: %w", name,
			dp.Inum, err)
	}
	util.DPrintf(5, "RemoveEntry: %d %s\n", dp.Inum, name)
	return nil
}
