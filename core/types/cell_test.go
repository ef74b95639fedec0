package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutPoint_Parse(t *testing.T) {
	op := NewOutPoint(HashOf([]byte("tx")), 3)

	parsed, err := ParseOutPoint(op.String())
	require.NoError(t, err)
	require.Equal(t, op, parsed)

	_, err = ParseOutPoint("abc")
	require.EqualError(t, err, "malformed out-point 'abc'")

	_, err = ParseOutPoint("0x12:1")
	require.EqualError(t, err, "malformed tx hash: invalid hash length 1")

	_, err = ParseOutPoint(op.TxHash.String() + ":x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed index: ")
}

func TestOutPoint_Binary(t *testing.T) {
	op := NewOutPoint(HashOf([]byte("tx")), 7)

	data, err := op.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, OutPointSize)

	buffer := op.Bytes()
	require.Equal(t, data, buffer[:])
	require.Equal(t, uint8(7), buffer[HashSize])

	var other OutPoint
	require.NoError(t, other.UnmarshalBinary(data))
	require.Equal(t, op, other)

	err = other.UnmarshalBinary(data[:10])
	require.EqualError(t, err, "invalid out-point length 10")
}

func TestOutPoint_IsNull(t *testing.T) {
	require.True(t, NullOutPoint.IsNull())
	require.False(t, OutPoint{}.IsNull())
}

func TestDepType_Text(t *testing.T) {
	for _, dt := range []DepType{DepTypeCode, DepTypeDepGroup} {
		text, err := dt.MarshalText()
		require.NoError(t, err)

		var other DepType
		require.NoError(t, other.UnmarshalText(text))
		require.Equal(t, dt, other)
	}

	_, err := DepType(5).MarshalText()
	require.EqualError(t, err, "invalid dep type 5")

	var dt DepType
	require.EqualError(t, dt.UnmarshalText([]byte("x")), "unknown dep type 'x'")
}

func TestCellOutput_OccupiedCapacity(t *testing.T) {
	output := CellOutput{
		Lock: NewScript(Hash{}, HashTypeData, []byte{1, 2}),
	}

	// capacity + lock(32+1+2) + data
	require.Equal(t, uint64(8+35+10), output.OccupiedBytes(10))

	capacity, err := output.OccupiedCapacity(10)
	require.NoError(t, err)
	require.Equal(t, 53*ShannonsPerByte, capacity)

	typ := NewScript(Hash{}, HashTypeType, nil)
	output.Type = &typ
	require.Equal(t, uint64(8+35+33), output.OccupiedBytes(0))

	_, err = BytesToCapacity(math.MaxUint64)
	require.EqualError(t, err, "capacity overflow for 18446744073709551615 bytes")
}

func TestCellOutput_CloneEqual(t *testing.T) {
	typ := NewScript(Hash{2}, HashTypeType, []byte{1})
	output := CellOutput{
		Capacity: 10,
		Lock:     NewScript(Hash{1}, HashTypeData, []byte{1}),
		Type:     &typ,
	}

	clone := output.Clone()
	require.True(t, output.Equal(clone))

	clone.Type.Args[0] = 5
	require.False(t, output.Equal(clone))
	require.Equal(t, Bytes{1}, output.Type.Args)

	clone.Type = nil
	require.False(t, output.Equal(clone))
}

func TestCellOutput_Fingerprint(t *testing.T) {
	output := CellOutput{Lock: NewScript(Hash{}, HashTypeData, nil)}

	err := output.Fingerprint(badWriter{})
	require.EqualError(t, err, "couldn't write capacity: oops")
}
