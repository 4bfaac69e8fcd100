package hash

import "github.com/cespare/xxhash/v2"

// Key computes the xxHash64 of a qualified dictionary key.
func Key(qualified string) uint64 {
	return xxhash.Sum64String(qualified)
}

// Checksum computes the xxHash64 of a payload.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
