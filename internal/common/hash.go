package common

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// HashHex returns the lowercase hex SHA-256 digest of data. Every blob that
// crosses a trust boundary (content store upload/download) is identified by
// this digest in the record and consent registries.
func HashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// GenerateRandByteArray returns size cryptographically random bytes.
func GenerateRandByteArray(size int) []byte {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return buf
}

// WipeByteArray zeroes buf in place. Used for secret material that is about
// to go out of scope.
func WipeByteArray(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
