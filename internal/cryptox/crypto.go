// Package cryptox holds small hashing helpers. Biometric templates must never
// reach the logs; TemplateDigest gives a stable short handle instead.
package cryptox

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// digestSize is the number of BLAKE2b output bytes kept in a digest.
const digestSize = 8

// TemplateDigest returns a short hex BLAKE2b digest of a template.
// An empty template yields an empty digest.
func TemplateDigest(template string) string {
	if template == "" {
		return ""
	}
	h, err := blake2b.New(digestSize, nil)
	if err != nil {
		// unreachable: digestSize is within 1..64 and no key is used
		panic(err)
	}
	h.Write([]byte(template))
	return hex.EncodeToString(h.Sum(nil))
}
