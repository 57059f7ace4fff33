package canonical

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/fthyco/simorg/domain/org"
)

// Hash returns the lowercase hex SHA-256 digest of state's canonical bytes.
// Clients treat this as an opaque version identifier (spec §4.1).
func Hash(state org.OrgState) (string, error) {
	b, err := Serialize(state)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// HashBytes is a convenience for hashing already-canonicalized bytes, used
// by the snapshot store which persists the bytes alongside the digest.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
