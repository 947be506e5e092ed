package models

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashPassword returns the hex sha256 digest stored for a group account
// password. The shared password travels in plain text on every mutating
// call; only the at-rest form is hashed.
func HashPassword(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword compares a stored digest against a supplied plain password
// in constant time.
func VerifyPassword(digest, plain string) bool {
	want, err := hex.DecodeString(digest)
	if err != nil || len(want) != sha256.Size {
		return false
	}
	got := sha256.Sum256([]byte(plain))
	return subtle.ConstantTimeCompare(got[:], want) == 1
}
