package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// DigestLength is the byte length of ContentDigest before hex encoding
const DigestLength = 16

// ContentDigest returns a short hex BLAKE2b digest of data, used to name stored objects
func ContentDigest(data []byte) string {
	h, err := blake2b.New(DigestLength, nil)
	if err != nil {
		// only fails for invalid sizes or keys
		panic(err)
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
