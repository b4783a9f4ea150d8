// Package byteoffset implements the CBF_BYTE_OFFSET compression used for
// integer pixel data in CBF files. Values are delta-coded: each delta is
// written in the smallest of 1, 2, 4 or 8 little-endian bytes, with the
// most negative value at each width reserved as the escape marker to the
// next width.
package byteoffset

import (
	"bytes"
	"encoding/binary"

	"github.com/arthur-debert/difftbx/pkg/errors"
)

const (
	marker8  = 0x80
	marker16 = 0x8000
	marker32 = 0x80000000
)

// Compress delta-codes pixel values into a byte-offset stream
func Compress(data []int32) []byte {
	var buf bytes.Buffer

	last := int64(0)
	for _, v := range data {
		delta := int64(v) - last
		last = int64(v)

		switch {
		case delta > -128 && delta < 128:
			buf.WriteByte(byte(int8(delta)))
		case delta > -32768 && delta < 32768:
			buf.WriteByte(marker8)
			var b [2]byte
			binary.LittleEndian.PutUint16(b[:], uint16(int16(delta)))
			buf.Write(b[:])
		case delta > -2147483648 && delta < 2147483648:
			buf.WriteByte(marker8)
			var b16 [2]byte
			binary.LittleEndian.PutUint16(b16[:], marker16)
			buf.Write(b16[:])
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], uint32(int32(delta)))
			buf.Write(b[:])
		default:
			buf.WriteByte(marker8)
			var b16 [2]byte
			binary.LittleEndian.PutUint16(b16[:], marker16)
			buf.Write(b16[:])
			var b32 [4]byte
			binary.LittleEndian.PutUint32(b32[:], marker32)
			buf.Write(b32[:])
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], uint64(delta))
			buf.Write(b[:])
		}
	}

	return buf.Bytes()
}

// Decompress decodes a byte-offset stream into n pixel values
func Decompress(data []byte, n int) ([]int32, error) {
	out := make([]int32, 0, n)

	last := int64(0)
	pos := 0
	for len(out) < n {
		if pos >= len(data) {
			return nil, errors.Newf(errors.ErrCodec,
				"byte-offset stream truncated: %d of %d values decoded", len(out), n)
		}

		var delta int64
		b := data[pos]
		pos++
		if b != marker8 {
			delta = int64(int8(b))
		} else {
			if pos+2 > len(data) {
				return nil, errors.New(errors.ErrCodec, "byte-offset stream truncated in 16-bit delta")
			}
			v16 := binary.LittleEndian.Uint16(data[pos:])
			pos += 2
			if v16 != marker16 {
				delta = int64(int16(v16))
			} else {
				if pos+4 > len(data) {
					return nil, errors.New(errors.ErrCodec, "byte-offset stream truncated in 32-bit delta")
				}
				v32 := binary.LittleEndian.Uint32(data[pos:])
				pos += 4
				if v32 != marker32 {
					delta = int64(int32(v32))
				} else {
					if pos+8 > len(data) {
						return nil, errors.New(errors.ErrCodec, "byte-offset stream truncated in 64-bit delta")
					}
					delta = int64(binary.LittleEndian.Uint64(data[pos:]))
					pos += 8
				}
			}
		}

		last += delta
		if last < -2147483648 || last > 2147483647 {
			return nil, errors.Newf(errors.ErrCodec, "byte-offset value %d overflows int32", last)
		}
		out = append(out, int32(last))
	}

	return out, nil
}
