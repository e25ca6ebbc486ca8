package dir

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/disk"
	"github.com/mit-pdos/go-ramfs/inode"
	"github.com/mit-pdos/go-ramfs/super"
)

type fixture struct {
	tbl *inode.Table
	sb  *super.Superblock
	tr  *Tree
}

func mkFixture(t *testing.T) fixture {
	geo, err := common.DefaultConfig().Geometry()
	require.NoError(t, err)
	d := disk.NewMemDisk(geo.NumBlocks, geo.BlockSize)
	sb := super.MkSuperblock(geo)
	tbl := inode.MkTable(d, sb)
	root, err := tbl.Alloc(common.FileTypeDir, 0)
	require.NoError(t, err)
	sb.RootInum = root.Inum
	return fixture{tbl: tbl, sb: sb, tr: MkTree(tbl, root.Inum)}
}

// mk creates an inode of type typ and links it into dir path parent.
func (f fixture) mk(t *testing.T, parent string, name string,
	typ common.FileType) *inode.Inode {
	dp, err := f.tr.Resolve(parent)
	require.NoError(t, err)
	ip, err := f.tbl.Alloc(typ, 0)
	require.NoError(t, err)
	require.NoError(t, f.tr.AddEntry(dp, name, ip.Inum))
	return ip
}

func TestAddLookup(t *testing.T) {
	assert := assert.New(t)
	f := mkFixture(t)
	root, _ := f.tbl.Get(f.tr.Root)
	assert.Equal(uint64(0), root.Size)

	ip := f.mk(t, "/", "a", common.FileTypeRegular)
	root, _ = f.tbl.Get(f.tr.Root)
	assert.Equal(uint64(17), root.Size, "one entry")

	inum, err := f.tr.Lookup(root, "a")
	require.NoError(t, err)
	assert.Equal(ip.Inum, inum)

	_, err = f.tr.Lookup(root, "b")
	assert.True(errors.Is(err, common.ErrNotFound))

	full := strings.Repeat("x", 16)
	ip2 := f.mk(t, "/", full, common.FileTypeRegular)
	got, err := f.tr.Resolve("/" + full)
	require.NoError(t, err)
	assert.Equal(ip2.Inum, got.Inum, "name filling the whole field")
}

func TestEntriesGrowDirectory(t *testing.T) {
	assert := assert.New(t)
	f := mkFixture(t)
	// 30 entries of 17 bytes run into the single-indirect tier
	for i := 0; i < 30; i++ {
		f.mk(t, "/", fmt.Sprintf("f%02d", i), common.FileTypeRegular)
	}
	root, _ := f.tbl.Get(f.tr.Root)
	ents, err := f.tr.Entries(root)
	require.NoError(t, err)
	assert.Len(ents, 30)
	for i, e := range ents {
		assert.Equal(fmt.Sprintf("f%02d", i), e.Name)
	}
	assert.NotEqual(common.NULLBNUM, root.Blocks[6])
}

func TestResolveErrors(t *testing.T) {
	assert := assert.New(t)
	f := mkFixture(t)
	f.mk(t, "/", "dir", common.FileTypeDir)
	f.mk(t, "/dir", "file", common.FileTypeRegular)

	_, err := f.tr.Resolve("/dir/file")
	assert.NoError(err)
	_, err = f.tr.Resolve("//dir///file/")
	assert.NoError(err, "empty components are skipped")

	_, err = f.tr.Resolve("/dir/file/x")
	assert.True(errors.Is(err, common.ErrNotDir))
	_, err = f.tr.Resolve("/nope/file")
	assert.True(errors.Is(err, common.ErrNotFound))
	_, err = f.tr.Resolve("/" + strings.Repeat("y", 17))
	assert.True(errors.Is(err, common.ErrNameTooLong))
	_, err = f.tr.Resolve("/" + strings.Repeat("a/", 64))
	assert.True(errors.Is(err, common.ErrPathTooLong))
	_, err = f.tr.Resolve("dir")
	assert.True(errors.Is(err, common.ErrInvalidPath))

	ip, err := f.tr.Resolve("/")
	require.NoError(t, err)
	assert.Equal(f.tr.Root, ip.Inum)
}

func TestParent(t *testing.T) {
	assert := assert.New(t)
	f := mkFixture(t)
	d := f.mk(t, "/", "dir", common.FileTypeDir)
	f.mk(t, "/", "file", common.FileTypeRegular)

	dp, name, err := f.tr.Parent("/dir/new")
	require.NoError(t, err)
	assert.Equal(d.Inum, dp.Inum)
	assert.Equal("new", name)

	_, _, err = f.tr.Parent("/")
	assert.True(errors.Is(err, common.ErrInvalidPath))
	_, _, err = f.tr.Parent("/file/new")
	assert.True(errors.Is(err, common.ErrNotDir))
	_, _, err = f.tr.Parent("/missing/new")
	assert.True(errors.Is(err, common.ErrNotFound))
}

func TestRemoveEntry(t *testing.T) {
	assert := assert.New(t)
	f := mkFixture(t)
	for _, n := range []string{"a", "b", "c", "d"} {
		f.mk(t, "/", n, common.FileTypeRegular)
	}
	root, _ := f.tbl.Get(f.tr.Root)
	require.NoError(t, f.tr.RemoveEntry(root, "b"))
	ents, err := f.tr.Entries(root)
	require.NoError(t, err)
	names := []string{}
	for _, e := range ents {
		names = append(names, e.Name)
	}
	assert.Equal([]string{"a", "d", "c"}, names, "last entry fills the hole")

	require.NoError(t, f.tr.RemoveEntry(root, "c"))
	assert.Equal(uint64(2*17), root.Size)
	err = f.tr.RemoveEntry(root, "c")
	assert.True(errors.Is(err, common.ErrNotFound))
}

func TestAddEntryChecks(t *testing.T) {
	assert := assert.New(t)
	f := mkFixture(t)
	file := f.mk(t, "/", "file", common.FileTypeRegular)
	root, _ := f.tbl.Get(f.tr.Root)

	err := f.tr.AddEntry(file, "x", 3)
	assert.True(errors.Is(err, common.ErrNotDir))
	err = f.tr.AddEntry(root, strings.Repeat("z", 17), 3)
	assert.True(errors.Is(err, common.ErrNameTooLong))
	err = f.tr.AddEntry(root, "a\x00b", 3)
	assert.True(errors.Is(err, common.ErrInvalidPath))
	for _, n := range []string{".", ".."} {
		err = f.tr.AddEntry(root, n, 3)
		assert.True(errors.Is(err, common.ErrInvalidPath), n)
	}
}

func TestDotComponents(t *testing.T) {
	assert := assert.New(t)
	f := mkFixture(t)
	d := f.mk(t, "/", "dir", common.FileTypeDir)
	file := f.mk(t, "/dir", "file", common.FileTypeRegular)

	ip, err := f.tr.Resolve("/dir/./file")
	require.NoError(t, err)
	assert.Equal(file.Inum, ip.Inum)
	_, err = f.tr.Resolve("/dir/file/../..")
	assert.True(errors.Is(err, common.ErrNotDir))
	ip, err = f.tr.Resolve("/dir/../dir/.")
	require.NoError(t, err)
	assert.Equal(d.Inum, ip.Inum)
	ip, err = f.tr.Resolve("/../..")
	require.NoError(t, err)
	assert.Equal(f.tr.Root, ip.Inum)

	_, err = f.tr.Resolve("/missing/..")
	assert.True(errors.Is(err, common.ErrNotFound))
	_, err = f.tr.Resolve("/dir/file/.")
	assert.True(errors.Is(err, common.ErrNotDir))

	dp, name, err := f.tr.Parent("/dir/../new")
	require.NoError(t, err)
	assert.Equal(f.tr.Root, dp.Inum)
	assert.Equal("new", name)
	_, _, err = f.tr.Parent("/dir/..")
	assert.True(errors.Is(err, common.ErrInvalidPath))
	_, _, err = f.tr.Parent("/dir/.")
	assert.True(errors.Is(err, common.ErrInvalidPath))
	_, _, err = f.tr.Parent("/dir/file/../new")
	assert.True(errors.Is(err, common.ErrNotDir))
}
