package disk

import (
	"fmt"
	"sync"

	"github.com/mit-pdos/go-ramfs/common"
)

var _ Disk = (*memDisk)(nil)

// memDisk is a ramdisk: one contiguous byte arena carved into blocks. Every
// access is checked against the arena before it touches memory.
type memDisk struct {
	l         *sync.RWMutex
	arena     []byte
	blockSize uint64
}

func NewMemDisk(numBlocks uint64, blockSize uint64) memDisk {
	return memDisk{
		l:         new(sync.RWMutex),
		arena:     make([]byte, numBlocks*blockSize),
		blockSize: blockSize,
	}
}

// NewMemDiskFrom wraps an existing image. The arena is owned by the disk
// afterwards.
func NewMemDiskFrom(arena []byte, blockSize uint64) (memDisk, error) {
	if blockSize == 0 || uint64(len(arena))%blockSize != 0 {
		return memDisk{}, fmt.Errorf(
			"wrapping `%d` byte image in `%d` byte blocks: %w",
			len(arena), blockSize, common.ErrOutOfBounds)
	}
	return memDisk{l: new(sync.RWMutex), arena: arena, blockSize: blockSize}, nil
}

func (d memDisk) span(a uint64, n uint64) (uint64, error) {
	if a >= d.Size() || n != d.blockSize {
		return 0, fmt.Errorf("accessing block `%d` (%d bytes) of `%d`: %w",
			a, n, d.Size(), common.ErrOutOfBounds)
	}
	return a * d.blockSize, nil
}

func (d memDisk) ReadTo(a uint64, buf Block) error {
	d.l.RLock()
	defer d.l.RUnlock()
	off, err := d.span(a, uint64(len(buf)))
	if err != nil {
		return err
	}
	copy(buf, d.arena[off:off+d.blockSize])
	return nil
}

func (d memDisk) Read(a uint64) (Block, error) {
	buf := make(Block, d.blockSize)
	if err := d.ReadTo(a, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d memDisk) Write(a uint64, v Block) error {
	d.l.Lock()
	defer d.l.Unlock()
	off, err := d.span(a, uint64(len(v)))
	if err != nil {
		return err
	}
	copy(d.arena[off:off+d.blockSize], v)
	return nil
}

func (d memDisk) Size() uint64 {
	// this never changes so we assume it's safe to run lock-free
	return uint64(len(d.arena)) / d.blockSize
}

func (d memDisk) BlockSize() uint64 { return d.blockSize }

func (d memDisk) Barrier() error { return nil }

func (d memDisk) Close() error { return nil }

// Bytes returns a copy of the whole arena.
func (d memDisk) Bytes() []byte {
	d.l.RLock()
	defer d.l.RUnlock()
	b := make([]byte, len(d.arena))
	copy(b, d.arena)
	return b
}
