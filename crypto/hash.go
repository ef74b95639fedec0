package crypto

import (
	"crypto/sha256"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// HashAlgorithm is the identifier of a hash algorithm.
type HashAlgorithm int

const (
	// Blake2b256 is the default algorithm used to compute the content hashes
	// of the ledger.
	Blake2b256 HashAlgorithm = iota
	// Sha256 is an alternative algorithm, mostly useful in tests.
	Sha256
)

// hashFactory is a hash factory that is using the selected algorithm.
//
// - implements crypto.HashFactory
type hashFactory struct {
	hashType HashAlgorithm
}

// NewHashFactory returns a new instance of the factory.
func NewHashFactory(a HashAlgorithm) HashFactory {
	return hashFactory{a}
}

// New implements crypto.HashFactory. It returns a new Hash instance.
func (f hashFactory) New() hash.Hash {
	switch f.hashType {
	case Blake2b256:
		// The error is only returned for an invalid key.
		h, _ := blake2b.New256(nil)
		return h
	case Sha256:
		return sha256.New()
	default:
		panic("unknown hash type")
	}
}

// DefaultHashFactory is the factory used when none is provided.
var DefaultHashFactory = NewHashFactory(Blake2b256)

// Sum returns the digest of the concatenation of the chunks using the default
// hash factory.
func Sum(chunks ...[]byte) [DigestSize]byte {
	h := DefaultHashFactory.New()

	for _, chunk := range chunks {
		h.Write(chunk)
	}

	var digest [DigestSize]byte
	copy(digest[:], h.Sum(nil))

	return digest
}
