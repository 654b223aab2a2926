package service

import (
	"crypto/rand"
	"encoding/base64"
)

const secretTokenBytes = 32

// GenerateSecretToken returns a 256-bit random value encoded with the
// unpadded URL-safe base64 alphabet. It is used for refresh, verification
// and reset tokens, which are bearer secrets and must not be guessable.
// Exhaustion of the system random source is unrecoverable, so it panics.
func GenerateSecretToken() string {
	buf := make([]byte, secretTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		panic("secret token generation failed: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
