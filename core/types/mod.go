// Package types defines the data model of the cell ledger: scripts, cells,
// out-points, transactions, headers and resolved transactions.
//
// Every value that is addressed by content (scripts, transactions, cell data)
// implements a deterministic binary fingerprint which is hashed with the
// default hash factory of the crypto package.
package types

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"strings"

	"go.dedis.ch/cellkit/crypto"
	"golang.org/x/xerrors"
)

// Hash is a content digest.
type Hash [crypto.DigestSize]byte

// ZeroHash is the hash with only zeros.
var ZeroHash = Hash{}

// HashOf returns the digest of the data.
func HashOf(data []byte) Hash {
	return crypto.Sum(data)
}

// HashFromHex parses a hexadecimal string, with or without the 0x prefix.
func HashFromHex(str string) (Hash, error) {
	var h Hash

	err := h.UnmarshalText([]byte(str))
	if err != nil {
		return h, err
	}

	return h, nil
}

// IsZero returns true if the hash has only zeros.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// Bytes returns a copy of the digest as a slice.
func (h Hash) Bytes() []byte {
	return append([]byte{}, h[:]...)
}

// String implements fmt.Stringer. It returns the 0x-prefixed hexadecimal
// representation of the hash.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	buffer, err := decodeHex(string(text))
	if err != nil {
		return xerrors.Errorf("invalid hash: %v", err)
	}

	if len(buffer) != len(h) {
		return xerrors.Errorf("invalid hash length %d", len(buffer))
	}

	copy(h[:], buffer)

	return nil
}

// Bytes is a byte slice that is represented in hexadecimal in text formats.
type Bytes []byte

// String implements fmt.Stringer.
func (b Bytes) String() string {
	return "0x" + hex.EncodeToString(b)
}

// MarshalText implements encoding.TextMarshaler.
func (b Bytes) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Bytes) UnmarshalText(text []byte) error {
	buffer, err := decodeHex(string(text))
	if err != nil {
		return xerrors.Errorf("invalid bytes: %v", err)
	}

	*b = buffer

	return nil
}

func decodeHex(str string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(str, "0x"))
}

// Fingerprinter is implemented by the elements that have a deterministic
// binary representation.
type Fingerprinter interface {
	Fingerprint(w io.Writer) error
}

// Digest returns the hash of the fingerprint of the element.
func Digest(f Fingerprinter) (Hash, error) {
	h := crypto.DefaultHashFactory.New()

	err := f.Fingerprint(h)
	if err != nil {
		return Hash{}, xerrors.Errorf("couldn't fingerprint: %v", err)
	}

	var digest Hash
	copy(digest[:], h.Sum(nil))

	return digest, nil
}

// encoder writes the little-endian encoding of the primitives and remembers
// the first error.
type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) write(data []byte) {
	if e.err != nil {
		return
	}

	_, e.err = e.w.Write(data)
}

func (e *encoder) u8(v uint8) {
	e.write([]byte{v})
}

func (e *encoder) u32(v uint32) {
	buffer := make([]byte, 4)
	binary.LittleEndian.PutUint32(buffer, v)
	e.write(buffer)
}

func (e *encoder) u64(v uint64) {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, v)
	e.write(buffer)
}

// bytes writes a length-prefixed byte slice.
func (e *encoder) bytes(data []byte) {
	e.u32(uint32(len(data)))
	e.write(data)
}

func (e *encoder) hash(h Hash) {
	e.write(h[:])
}
