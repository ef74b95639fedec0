package types

import (
	"bytes"
	"io"

	"golang.org/x/xerrors"
)

// HashType selects how the code hash of a script is matched against the
// deployed code.
type HashType uint8

const (
	// HashTypeData matches the code hash against the data hash of the code
	// cells and runs the code with the first version of the VM.
	HashTypeData HashType = 0
	// HashTypeType matches the code hash against the type script hash of the
	// code cells.
	HashTypeType HashType = 1
	// HashTypeData1 is the data addressing mode using the second version of
	// the VM.
	HashTypeData1 HashType = 2
	// HashTypeData2 is the data addressing mode using the third version of
	// the VM.
	HashTypeData2 HashType = 4
)

var hashTypeNames = map[HashType]string{
	HashTypeData:  "data",
	HashTypeType:  "type",
	HashTypeData1: "data1",
	HashTypeData2: "data2",
}

// IsData returns true if the code hash is matched against a data hash.
func (ht HashType) IsData() bool {
	return ht == HashTypeData || ht == HashTypeData1 || ht == HashTypeData2
}

// IsValid returns true if the hash type is one of the known values.
func (ht HashType) IsValid() bool {
	_, found := hashTypeNames[ht]
	return found
}

// String implements fmt.Stringer.
func (ht HashType) String() string {
	name, found := hashTypeNames[ht]
	if !found {
		return "unknown"
	}

	return name
}

// MarshalText implements encoding.TextMarshaler.
func (ht HashType) MarshalText() ([]byte, error) {
	if !ht.IsValid() {
		return nil, xerrors.Errorf("invalid hash type %d", uint8(ht))
	}

	return []byte(ht.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (ht *HashType) UnmarshalText(text []byte) error {
	for value, name := range hashTypeNames {
		if name == string(text) {
			*ht = value
			return nil
		}
	}

	return xerrors.Errorf("unknown hash type '%s'", text)
}

// scriptFixedSize is the size of the fixed part of a serialized script.
const scriptFixedSize = HashSize + 1

// HashSize is the size in bytes of a hash.
const HashSize = len(Hash{})

// Script is a reference to an executable code and the arguments to run it
// with. The code is identified by its code hash which is interpreted according
// to the hash type.
type Script struct {
	CodeHash Hash     `json:"code_hash"`
	HashType HashType `json:"hash_type"`
	Args     Bytes    `json:"args"`
}

// NewScript returns a new script.
func NewScript(codeHash Hash, hashType HashType, args []byte) Script {
	return Script{
		CodeHash: codeHash,
		HashType: hashType,
		Args:     args,
	}
}

// Size returns the number of bytes occupied by the script in a cell.
func (s Script) Size() uint64 {
	return uint64(scriptFixedSize + len(s.Args))
}

// Equal returns true if both scripts are the same.
func (s Script) Equal(other Script) bool {
	return s.CodeHash == other.CodeHash && s.HashType == other.HashType &&
		bytes.Equal(s.Args, other.Args)
}

// Clone returns a deep copy of the script.
func (s Script) Clone() Script {
	s.Args = append(Bytes(nil), s.Args...)
	return s
}

// Fingerprint implements types.Fingerprinter. It writes a deterministic binary
// representation of the script.
func (s Script) Fingerprint(w io.Writer) error {
	enc := &encoder{w: w}
	enc.hash(s.CodeHash)
	enc.u8(uint8(s.HashType))
	enc.bytes(s.Args)

	if enc.err != nil {
		return xerrors.Errorf("couldn't write script: %v", enc.err)
	}

	return nil
}

// Hash returns the script hash which is the digest of its fingerprint. It is
// used as the key of the lock and type indices.
func (s Script) Hash() Hash {
	// Writing to a hash never fails.
	h, _ := Digest(s)
	return h
}

// OptionalScriptHash returns the hash of the script if it is set, otherwise
// the zero hash and false.
func OptionalScriptHash(s *Script) (Hash, bool) {
	if s == nil {
		return Hash{}, false
	}

	return s.Hash(), true
}
