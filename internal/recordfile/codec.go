package recordfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Field helpers shared by the record codecs. All integers are big-endian.

// PutString copies s into dst, NUL-padding the remainder. Fails if s does not
// fit; record widths are fixed, so overlong fields are a caller bug.
func PutString(dst []byte, s string) error {
	if len(s) > len(dst) {
		return fmt.Errorf("string %q exceeds field width %d", s, len(dst))
	}
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}

// GetString reads a NUL-padded string field.
func GetString(src []byte) string {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		return string(src[:i])
	}
	return string(src)
}

// PutInt64 writes v big-endian into dst[:8].
func PutInt64(dst []byte, v int64) {
	binary.BigEndian.PutUint64(dst, uint64(v))
}

// GetInt64 reads a big-endian int64 from src[:8].
func GetInt64(src []byte) int64 {
	return int64(binary.BigEndian.Uint64(src))
}
