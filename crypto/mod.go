// Package crypto defines the cryptographic primitives used to address cells,
// scripts and transactions, and to sign transactions.
package crypto

import (
	"hash"
	"io"
)

// DigestSize is the size in bytes of every digest produced by the package.
const DigestSize = 32

// HashFactory is an interface to produce a hash digest.
type HashFactory interface {
	New() hash.Hash
}

// RandGenerator is the interface of a random source.
type RandGenerator interface {
	io.Reader
}

// PublicKey is a public identity that can be used to verify a signature.
type PublicKey interface {
	MarshalBinary() ([]byte, error)

	Verify(msg []byte, sig Signature) error
}

// Signature is a verifiable element for a unique message.
type Signature interface {
	MarshalBinary() ([]byte, error)
}

// Signer provides the primitives to sign messages.
type Signer interface {
	GetPublicKey() PublicKey

	Sign(msg []byte) (Signature, error)
}
