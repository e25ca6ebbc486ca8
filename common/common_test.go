package common

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGeometry(t *testing.T) {
	assert := assert.New(t)
	g, err := DefaultConfig().Geometry()
	require.NoError(t, err)

	assert.Equal(uint64(256), g.NumBlocks)
	assert.Equal(uint64(1), g.BnumWidth)
	assert.Equal(uint64(1), g.InumWidth)
	assert.Equal(uint64(64), g.PtrsPerBlock)
	assert.Equal(uint64(8), g.InodeSlots)
	assert.Equal(uint64(14), g.InodeSize)
	assert.Equal(uint64(4), g.InodesPerBlock)
	assert.Equal(uint64(88), g.SuperSize)
	assert.Equal(uint64(2), g.SuperBlocks)
	assert.Equal(Bnum(2), g.InodeTableStart)
	assert.Equal(uint64(16), g.InodeTableBlocks)
	assert.Equal(Bnum(18), g.DataStart)
	assert.Equal(uint64(384), g.SingleStart)
	assert.Equal(uint64(4480), g.DoubleStart)
	assert.Equal(uint64(266624), g.MaxFileSize)
	assert.Equal(g.MaxFileSize, g.SizeLimit)
	assert.Equal(uint64(17), g.DirEntrySize)
}

func TestWideGeometry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BlockSize = 512
	cfg.DiskSize = 512 * 1024
	cfg.NumInodes = 300
	g, err := cfg.Geometry()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), g.BnumWidth, "1024 blocks need two bytes")
	assert.Equal(t, uint64(2), g.InumWidth)
	assert.Equal(t, uint64(256), g.PtrsPerBlock)
	assert.Equal(t, uint64(6+16), g.InodeSize)
}

func TestValidate(t *testing.T) {
	tweak := []func(*Config){
		func(c *Config) { c.BlockSize = 48 },
		func(c *Config) { c.BlockSize = 8 },
		func(c *Config) { c.DiskSize = 1000 },
		func(c *Config) { c.NumInodes = 0 },
		func(c *Config) { c.MaxOpenFiles = 0 },
		func(c *Config) { c.DirectBlocks = 0 },
		func(c *Config) { c.MaxPath = 16 },
		func(c *Config) { c.DirectBlocks = 60 },
		func(c *Config) { c.DiskSize = 128 },
	}
	for i, f := range tweak {
		cfg := DefaultConfig()
		f(&cfg)
		err := cfg.Validate()
		assert.True(t, errors.Is(err, ErrBadConfig), "case %d: %v", i, err)
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfig(t *testing.T) {
	os.Setenv("RAMFS_NUM_INODES", "32")
	defer os.Unsetenv("RAMFS_NUM_INODES")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	want := DefaultConfig()
	want.NumInodes = 32
	assert.Equal(t, want, cfg)

	os.Setenv("RAMFS_BLOCK_SIZE", "100")
	defer os.Unsetenv("RAMFS_BLOCK_SIZE")
	_, err = LoadConfig()
	assert.True(t, errors.Is(err, ErrBadConfig))
}

func TestMajorMinor(t *testing.T) {
	assert := assert.New(t)
	mm, err := MkMajorMinor(31, 7)
	assert.NoError(err)
	assert.Equal(uint8(0xff), mm)
	assert.Equal(uint8(31), Major(mm))
	assert.Equal(uint8(7), Minor(mm))

	mm, _ = MkMajorMinor(2, 5)
	assert.Equal(uint8(2<<3|5), mm)

	_, err = MkMajorMinor(32, 0)
	assert.True(errors.Is(err, ErrInvalidDevice))
	_, err = MkMajorMinor(0, 8)
	assert.True(errors.Is(err, ErrInvalidDevice))
}

func TestFileType(t *testing.T) {
	assert := assert.New(t)
	for ft := FileTypeRegular; ft <= FileTypePWM; ft++ {
		got, err := ParseFileType(ft.String())
		assert.NoError(err)
		assert.Equal(ft, got)
		assert.NoError(ft.Validate())
	}
	assert.False(FileTypeRegular.IsDevice())
	assert.False(FileTypeDir.IsDevice())
	assert.True(FileTypeChar.IsDevice())
	assert.True(FileTypePWM.IsDevice())
	assert.True(errors.Is(FileTypeNone.Validate(), ErrInvalidType))
	assert.True(errors.Is(FileType(9).Validate(), ErrInvalidType))
	_, err := ParseFileType("socket")
	assert.True(errors.Is(err, ErrInvalidType))
}
