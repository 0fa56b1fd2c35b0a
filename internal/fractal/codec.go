package fractal

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

const (
	// PackedRecordSize is the byte stride of one packed branch record:
	// four little-endian float64 coordinates followed by an int32 depth.
	PackedRecordSize = 4*8 + 4
	// FixedRecordFields is the number of float64 fields per fixed record.
	FixedRecordFields = 5
)

// Encoding selects how a worker serializes its subtree. It is chosen once
// per run and applies to every task.
type Encoding int

const (
	// EncodingPacked appends packed binary records to a growing buffer.
	EncodingPacked Encoding = iota
	// EncodingFixed writes into a buffer pre-sized from the expected subtree
	// size. It is only valid for uniform partitions.
	EncodingFixed
)

// String returns the flag name of the encoding.
func (e Encoding) String() string {
	switch e {
	case EncodingPacked:
		return "packed"
	case EncodingFixed:
		return "fixed"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// ParseEncoding converts a flag value into an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "packed":
		return EncodingPacked, nil
	case "fixed":
		return EncodingFixed, nil
	}
	return 0, fmt.Errorf("unknown encoding %q (want packed or fixed)", s)
}

// Payload is the encoded pre-order emission of one subtree. Exactly one of
// Packed or Fixed is populated, according to Encoding.
type Payload struct {
	Encoding Encoding
	Packed   []byte
	Fixed    []float64
}

// Len returns the number of branch records in the payload.
func (p Payload) Len() int {
	if p.Encoding == EncodingFixed {
		return len(p.Fixed) / FixedRecordFields
	}
	return len(p.Packed) / PackedRecordSize
}

// AppendBranches decodes the payload and appends the branches to dst.
func (p Payload) AppendBranches(dst []Branch) ([]Branch, error) {
	switch p.Encoding {
	case EncodingPacked:
		if len(p.Packed)%PackedRecordSize != 0 {
			return dst, fmt.Errorf("packed payload length %d is not a multiple of %d", len(p.Packed), PackedRecordSize)
		}
		for off := 0; off < len(p.Packed); off += PackedRecordSize {
			dst = append(dst, decodePacked(p.Packed[off:off+PackedRecordSize]))
		}
	case EncodingFixed:
		if len(p.Fixed)%FixedRecordFields != 0 {
			return dst, fmt.Errorf("fixed payload length %d is not a multiple of %d", len(p.Fixed), FixedRecordFields)
		}
		for off := 0; off < len(p.Fixed); off += FixedRecordFields {
			r := p.Fixed[off : off+FixedRecordFields]
			dst = append(dst, Branch{X1: r[0], Y1: r[1], X2: r[2], Y2: r[3], Depth: int(r[4])})
		}
	default:
		return dst, fmt.Errorf("unsupported payload %s", p.Encoding)
	}
	return dst, nil
}

// appendPackedRecord appends the 36-byte record of b to dst.
func appendPackedRecord(dst []byte, b Branch) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(b.X1))
	dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(b.Y1))
	dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(b.X2))
	dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(b.Y2))
	return binary.LittleEndian.AppendUint32(dst, uint32(int32(b.Depth)))
}

func decodePacked(rec []byte) Branch {
	return Branch{
		X1:    math.Float64frombits(binary.LittleEndian.Uint64(rec[0:8])),
		Y1:    math.Float64frombits(binary.LittleEndian.Uint64(rec[8:16])),
		X2:    math.Float64frombits(binary.LittleEndian.Uint64(rec[16:24])),
		Y2:    math.Float64frombits(binary.LittleEndian.Uint64(rec[24:32])),
		Depth: int(int32(binary.LittleEndian.Uint32(rec[32:36]))),
	}
}

// appendPackedSubtree encodes the subtree rooted at pose in pre-order,
// appending to dst.
func appendPackedSubtree(dst []byte, pose Pose, params Parameters) []byte {
	if pose.Length < params.MinLength {
		return dst
	}
	b := segment(pose)
	dst = appendPackedRecord(dst, b)

	left, right := children(pose, b.X2, b.Y2, params)
	dst = appendPackedSubtree(dst, left, params)
	return appendPackedSubtree(dst, right, params)
}

// fillFixedSubtree writes the subtree rooted at pose into dst starting at
// record field index next and returns the index after the last record. Records
// that do not fit are counted but not written, so the caller can detect an
// undersized buffer from the returned index.
func fillFixedSubtree(dst []float64, next int, pose Pose, params Parameters) int {
	if pose.Length < params.MinLength {
		return next
	}
	b := segment(pose)
	if next+FixedRecordFields <= len(dst) {
		dst[next] = b.X1
		dst[next+1] = b.Y1
		dst[next+2] = b.X2
		dst[next+3] = b.Y2
		dst[next+4] = float64(b.Depth)
	}
	next += FixedRecordFields

	left, right := children(pose, b.X2, b.Y2, params)
	next = fillFixedSubtree(dst, next, left, params)
	return fillFixedSubtree(dst, next, right, params)
}
