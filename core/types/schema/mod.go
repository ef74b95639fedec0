// Package schema implements the fixed-width little-endian encodings of the
// primitives stored in cell data. A value can only be decoded from a buffer of
// the exact size declared by its schema.
package schema

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"math/bits"

	"golang.org/x/xerrors"
)

const (
	// Uint32Size is the size of an encoded Uint32.
	Uint32Size = 4
	// Uint64Size is the size of an encoded Uint64.
	Uint64Size = 8
	// Uint128Size is the size of an encoded Uint128.
	Uint128Size = 16
	// Byte32Size is the size of an encoded Byte32.
	Byte32Size = 32
)

// SizeError is returned when a buffer does not match the size of the schema.
type SizeError struct {
	Schema   string
	Expected int
	Actual   int
}

// Error implements error.
func (e SizeError) Error() string {
	return fmt.Sprintf("invalid %s length: expected %d bytes but got %d",
		e.Schema, e.Expected, e.Actual)
}

func checkSize(schema string, expected int, data []byte) error {
	if len(data) != expected {
		return SizeError{Schema: schema, Expected: expected, Actual: len(data)}
	}

	return nil
}

// EncodeUint32 returns the encoding of the value.
func EncodeUint32(v uint32) []byte {
	buffer := make([]byte, Uint32Size)
	binary.LittleEndian.PutUint32(buffer, v)
	return buffer
}

// DecodeUint32 decodes a value.
func DecodeUint32(data []byte) (uint32, error) {
	err := checkSize("Uint32", Uint32Size, data)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(data), nil
}

// EncodeUint64 returns the encoding of the value.
func EncodeUint64(v uint64) []byte {
	buffer := make([]byte, Uint64Size)
	binary.LittleEndian.PutUint64(buffer, v)
	return buffer
}

// DecodeUint64 decodes a value.
func DecodeUint64(data []byte) (uint64, error) {
	err := checkSize("Uint64", Uint64Size, data)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(data), nil
}

// DecodeByte32 decodes a 32-byte array.
func DecodeByte32(data []byte) ([Byte32Size]byte, error) {
	var res [Byte32Size]byte

	err := checkSize("Byte32", Byte32Size, data)
	if err != nil {
		return res, err
	}

	copy(res[:], data)

	return res, nil
}

// Uint128 is an unsigned integer of 128 bits, typically used to store token
// amounts.
type Uint128 struct {
	Lo uint64
	Hi uint64
}

// NewUint128 returns the 128-bit representation of the value.
func NewUint128(v uint64) Uint128 {
	return Uint128{Lo: v}
}

// DecodeUint128 decodes a 16-byte little-endian value.
func DecodeUint128(data []byte) (Uint128, error) {
	err := checkSize("Uint128", Uint128Size, data)
	if err != nil {
		return Uint128{}, err
	}

	return Uint128{
		Lo: binary.LittleEndian.Uint64(data[:8]),
		Hi: binary.LittleEndian.Uint64(data[8:]),
	}, nil
}

// Bytes returns the 16-byte little-endian encoding of the value.
func (u Uint128) Bytes() []byte {
	buffer := make([]byte, Uint128Size)
	binary.LittleEndian.PutUint64(buffer[:8], u.Lo)
	binary.LittleEndian.PutUint64(buffer[8:], u.Hi)
	return buffer
}

// Add returns the sum of both values, or an error if it overflows.
func (u Uint128) Add(o Uint128) (Uint128, error) {
	lo, carry := bits.Add64(u.Lo, o.Lo, 0)
	hi, carry := bits.Add64(u.Hi, o.Hi, carry)
	if carry != 0 {
		return Uint128{}, xerrors.Errorf("uint128 overflow: %v + %v", u, o)
	}

	return Uint128{Lo: lo, Hi: hi}, nil
}

// Sub returns the difference of both values, or an error if it underflows.
func (u Uint128) Sub(o Uint128) (Uint128, error) {
	lo, borrow := bits.Sub64(u.Lo, o.Lo, 0)
	hi, borrow := bits.Sub64(u.Hi, o.Hi, borrow)
	if borrow != 0 {
		return Uint128{}, xerrors.Errorf("uint128 underflow: %v - %v", u, o)
	}

	return Uint128{Lo: lo, Hi: hi}, nil
}

// Cmp returns -1, 0 or +1 depending if the value is smaller, equal or bigger
// than the other.
func (u Uint128) Cmp(o Uint128) int {
	switch {
	case u.Hi < o.Hi:
		return -1
	case u.Hi > o.Hi:
		return 1
	case u.Lo < o.Lo:
		return -1
	case u.Lo > o.Lo:
		return 1
	default:
		return 0
	}
}

// Big returns the value as a big integer.
func (u Uint128) Big() *big.Int {
	value := new(big.Int).SetUint64(u.Hi)
	value.Lsh(value, 64)
	return value.Or(value, new(big.Int).SetUint64(u.Lo))
}

// String implements fmt.Stringer. It returns the decimal representation.
func (u Uint128) String() string {
	return u.Big().String()
}
