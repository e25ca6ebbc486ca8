package common

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the layout constants of a ramdisk file system. None of them
// are baked into the code; every table and region is sized from a Config.
type Config struct {
	BlockSize    uint64 `envconfig:"BLOCK_SIZE" default:"64"`
	DiskSize     uint64 `envconfig:"DISK_SIZE" default:"16384"`
	NumInodes    uint64 `envconfig:"NUM_INODES" default:"64"`
	MaxFilename  uint64 `envconfig:"MAX_FILENAME" default:"16"`
	MaxPath      uint64 `envconfig:"MAX_PATH" default:"128"`
	MaxOpenFiles uint64 `envconfig:"MAX_OPEN_FILES" default:"64"`
	DirectBlocks uint64 `envconfig:"DIRECT_BLOCKS" default:"6"`
	Debug        uint64 `envconfig:"DEBUG" default:"0"`
}

func DefaultConfig() Config {
	return Config{
		BlockSize:    64,
		DiskSize:     16384,
		NumInodes:    64,
		MaxFilename:  16,
		MaxPath:      128,
		MaxOpenFiles: 64,
		DirectBlocks: 6,
	}
}

// LoadConfig reads RAMFS_* environment variables on top of the defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("ramfs", &cfg); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func (cfg Config) Validate() error {
	bad := func(format string, a ...interface{}) error {
		return fmt.Errorf("validating config: %s: %w",
			fmt.Sprintf(format, a...), ErrBadConfig)
	}
	if cfg.BlockSize < 16 || cfg.BlockSize&(cfg.BlockSize-1) != 0 {
		return bad("block size `%d` is not a power of two >= 16",
			cfg.BlockSize)
	}
	if cfg.DiskSize == 0 || cfg.DiskSize%cfg.BlockSize != 0 {
		return bad("disk size `%d` is not a multiple of block size `%d`",
			cfg.DiskSize, cfg.BlockSize)
	}
	if cfg.NumInodes == 0 {
		return bad("no inodes")
	}
	if cfg.MaxOpenFiles == 0 {
		return bad("no open file slots")
	}
	if cfg.DirectBlocks == 0 {
		return bad("no direct blocks")
	}
	if cfg.MaxFilename == 0 || cfg.MaxPath <= cfg.MaxFilename {
		return bad("max path `%d` must exceed max filename `%d`",
			cfg.MaxPath, cfg.MaxFilename)
	}
	geo := cfg.geometry()
	if geo.InodeSize > cfg.BlockSize {
		return bad("inode of `%d` bytes does not fit a `%d` byte block",
			geo.InodeSize, cfg.BlockSize)
	}
	if geo.DataStart >= geo.NumBlocks {
		return bad("metadata needs `%d` of `%d` blocks", geo.DataStart,
			geo.NumBlocks)
	}
	return nil
}
