package utils

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/google/uuid"
)

// SumSHA256 returns the SHA-256 checksum of the provided data.
func SumSHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ChecksumHex returns the lowercase hex SHA-256 of the provided data.
func ChecksumHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// AdvisoryLockKey derives the int64 key for a Postgres advisory lock from
// a UUID, using the first 8 bytes of its SHA-256. The mapping must stay
// stable across releases: every writer for the same project has to land
// on the same key.
func AdvisoryLockKey(id uuid.UUID) int64 {
	sum := sha256.Sum256(id[:])
	return int64(binary.BigEndian.Uint64(sum[:8]))
}
