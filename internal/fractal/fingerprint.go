package fractal

import "github.com/cespare/xxhash/v2"

// Fingerprint returns an order-independent digest of a branch set: the
// wrapping sum of the xxhash64 of every branch's packed record. Two
// collections holding the same branches in any order share a fingerprint.
func Fingerprint(branches []Branch) uint64 {
	var (
		sum uint64
		rec [PackedRecordSize]byte
	)
	for _, b := range branches {
		sum += xxhash.Sum64(appendPackedRecord(rec[:0], b))
	}
	return sum
}
