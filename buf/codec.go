package buf

import (
	"encoding/binary"
	"fmt"

	"github.com/tchajed/marshal"
)

// GetUint decodes a little-endian integer of w bytes (1, 2, 4 or 8).
func GetUint(p []byte, w uint64) uint64 {
	switch w {
	case 1:
		return uint64(p[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(p))
	case 4:
		return uint64(binary.LittleEndian.Uint32(p))
	case 8:
		dec := marshal.NewDec(p[:8])
		return dec.GetInt()
	}
	panic(fmt.Sprintf("GetUint: width %d", w))
}

// PutUint encodes v as a little-endian integer of w bytes, dropping high bits.
func PutUint(p []byte, w uint64, v uint64) {
	switch w {
	case 1:
		p[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(p, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(p, uint32(v))
	case 8:
		enc := marshal.NewEnc(8)
		enc.PutInt(v)
		copy(p[:8], enc.Finish())
	default:
		panic(fmt.Sprintf("PutUint: width %d", w))
	}
}
