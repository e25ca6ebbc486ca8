package common

import "fmt"

// Bnum names a block of the ramdisk. Block 0 belongs to the superblock, so
// inside serialized block lists NULLBNUM marks an unused slot.
type Bnum = uint64

// Inum names an inode slot in the inode table.
type Inum = uint64

const (
	NULLBNUM Bnum = 0
)

const (
	MINORBITS uint8 = 3
	MINORMASK uint8 = 1<<MINORBITS - 1
	MAXMAJOR  uint8 = 1<<(8-MINORBITS) - 1
)

type FileType uint8

const (
	FileTypeRegular FileType = 0
	FileTypeDir     FileType = 1
	FileTypeChar    FileType = 2
	FileTypeBlock   FileType = 3
	FileTypeNet     FileType = 4
	FileTypeTimer   FileType = 5
	FileTypeGPIO    FileType = 6
	FileTypeADC     FileType = 7
	FileTypePWM     FileType = 8
	FileTypeNone    FileType = 255
)

func (ft FileType) String() string {
	switch ft {
	case FileTypeRegular:
		return "regular"
	case FileTypeDir:
		return "dir"
	case FileTypeChar:
		return "char"
	case FileTypeBlock:
		return "block"
	case FileTypeNet:
		return "net"
	case FileTypeTimer:
		return "timer"
	case FileTypeGPIO:
		return "gpio"
	case FileTypeADC:
		return "adc"
	case FileTypePWM:
		return "pwm"
	case FileTypeNone:
		return "none"
	default:
		return fmt.Sprintf("filetype(%d)", uint8(ft))
	}
}

// ParseFileType is the inverse of String.
func ParseFileType(s string) (FileType, error) {
	for ft := FileTypeRegular; ft <= FileTypePWM; ft++ {
		if ft.String() == s {
			return ft, nil
		}
	}
	return FileTypeNone, fmt.Errorf("parsing file type `%s`: %w", s,
		ErrInvalidType)
}

func (ft FileType) Validate() error {
	if ft > FileTypePWM {
		return fmt.Errorf("validating file type `%d`: %w", uint8(ft),
			ErrInvalidType)
	}
	return nil
}

// IsDevice reports whether opening a file of this type goes through a
// driver open hook.
func (ft FileType) IsDevice() bool {
	return ft >= FileTypeChar && ft <= FileTypePWM
}

// MkMajorMinor packs a driver type and a device number into one byte: the
// upper five bits hold major, the lower three minor.
func MkMajorMinor(major uint8, minor uint8) (uint8, error) {
	if major > MAXMAJOR || minor > MINORMASK {
		return 0, fmt.Errorf("packing major `%d` minor `%d`: %w", major,
			minor, ErrInvalidDevice)
	}
	return major<<MINORBITS | minor, nil
}

func Major(mm uint8) uint8 {
	return mm >> MINORBITS
}

func Minor(mm uint8) uint8 {
	return mm & MINORMASK
}
