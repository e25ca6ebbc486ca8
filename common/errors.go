package common

type ConstError string

func (err ConstError) Error() string { return string(err) }

const (
	// exhaustion
	ErrNoInodes     ConstError = "no free inodes"
	ErrNoSpace      ConstError = "no free blocks"
	ErrTableFull    ConstError = "open file table full"
	ErrFileTooLarge ConstError = "file too large for block addressing"

	// lookup
	ErrNotFound ConstError = "not found"
	ErrExists   ConstError = "file exists"

	// type mismatch
	ErrNotDir      ConstError = "not a directory"
	ErrIsDir       ConstError = "is a directory"
	ErrInvalidType ConstError = "invalid file type"

	// malformed input
	ErrPathTooLong   ConstError = "path too long"
	ErrNameTooLong   ConstError = "filename too long"
	ErrInvalidPath   ConstError = "invalid path"
	ErrHole          ConstError = "write would leave a hole"
	ErrInvalidDevice ConstError = "invalid device number"

	// handles
	ErrBadDescriptor ConstError = "bad file descriptor"

	ErrNotEmpty    ConstError = "directory not empty"
	ErrNoDriver    ConstError = "no driver for device"
	ErrOutOfBounds ConstError = "access outside ramdisk"
	ErrCorrupt     ConstError = "corrupt file system"
	ErrBadConfig   ConstError = "invalid configuration"
)
