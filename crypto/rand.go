package crypto

import "crypto/rand"

// CryptographicRandomGenerator is cryptographically secure random generator.
//
// - implements crypto.RandGenerator
type CryptographicRandomGenerator struct{}

// Read implements crypto.RandGenerator. It fills the given buffer at its
// capacity as long as no error occurred.
func (crg CryptographicRandomGenerator) Read(buffer []byte) (int, error) {
	return rand.Read(buffer)
}

// RandomDigest fills a digest with random bytes from the generator.
func RandomDigest(gen RandGenerator) ([DigestSize]byte, error) {
	var digest [DigestSize]byte

	_, err := gen.Read(digest[:])
	if err != nil {
		return digest, err
	}

	return digest, nil
}
