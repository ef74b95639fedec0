package types

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// ShannonsPerByte is the price in the base unit of one byte of cell storage.
const ShannonsPerByte uint64 = 100_000_000

// capacityFieldSize is the number of bytes used by the capacity field itself.
const capacityFieldSize = 8

// OutPointSize is the size in bytes of a serialized out-point.
const OutPointSize = HashSize + 4

// OutPoint is a reference to a committed cell made of the hash of the
// transaction that created it and the index of the output.
type OutPoint struct {
	TxHash Hash   `json:"tx_hash"`
	Index  uint32 `json:"index"`
}

// NullOutPoint is the out-point used by the inputs of a cellbase transaction.
var NullOutPoint = OutPoint{Index: math.MaxUint32}

// NewOutPoint returns a new out-point.
func NewOutPoint(txHash Hash, index uint32) OutPoint {
	return OutPoint{TxHash: txHash, Index: index}
}

// ParseOutPoint parses the text representation of an out-point, i.e.
// "<tx hash>:<index>".
func ParseOutPoint(str string) (OutPoint, error) {
	parts := strings.Split(str, ":")
	if len(parts) != 2 {
		return OutPoint{}, xerrors.Errorf("malformed out-point '%s'", str)
	}

	hash, err := HashFromHex(parts[0])
	if err != nil {
		return OutPoint{}, xerrors.Errorf("malformed tx hash: %v", err)
	}

	index, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return OutPoint{}, xerrors.Errorf("malformed index: %v", err)
	}

	return NewOutPoint(hash, uint32(index)), nil
}

// IsNull returns true if the out-point does not reference any cell.
func (op OutPoint) IsNull() bool {
	return op == NullOutPoint
}

// String implements fmt.Stringer.
func (op OutPoint) String() string {
	return fmt.Sprintf("%v:%d", op.TxHash, op.Index)
}

// Fingerprint implements types.Fingerprinter.
func (op OutPoint) Fingerprint(w io.Writer) error {
	enc := &encoder{w: w}
	enc.hash(op.TxHash)
	enc.u32(op.Index)

	if enc.err != nil {
		return xerrors.Errorf("couldn't write out-point: %v", enc.err)
	}

	return nil
}

// Bytes returns the fixed-size binary representation of the out-point: the
// transaction hash followed by the little-endian index.
func (op OutPoint) Bytes() [OutPointSize]byte {
	var buffer [OutPointSize]byte
	copy(buffer[:], op.TxHash[:])
	binary.LittleEndian.PutUint32(buffer[HashSize:], op.Index)

	return buffer
}

// MarshalBinary implements encoding.BinaryMarshaler. It never fails.
func (op OutPoint) MarshalBinary() ([]byte, error) {
	buffer := op.Bytes()
	return buffer[:], nil
}

// UnmarshalBinary populates the out-point from its binary representation.
func (op *OutPoint) UnmarshalBinary(data []byte) error {
	if len(data) != OutPointSize {
		return xerrors.Errorf("invalid out-point length %d", len(data))
	}

	copy(op.TxHash[:], data[:HashSize])
	op.Index = binary.LittleEndian.Uint32(data[HashSize:])

	return nil
}

// CellInput is a reference to a cell consumed by a transaction.
type CellInput struct {
	PreviousOutput OutPoint `json:"previous_output"`
	Since          uint64   `json:"since"`
}

// NewCellInput returns an input consuming the out-point.
func NewCellInput(op OutPoint) CellInput {
	return CellInput{PreviousOutput: op}
}

// DepType defines how the cell of a dependency is interpreted.
type DepType uint8

const (
	// DepTypeCode is a dependency on the cell itself.
	DepTypeCode DepType = iota
	// DepTypeDepGroup is a dependency on the list of out-points stored in the
	// data of the cell.
	DepTypeDepGroup
)

// String implements fmt.Stringer.
func (dt DepType) String() string {
	switch dt {
	case DepTypeCode:
		return "code"
	case DepTypeDepGroup:
		return "dep_group"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (dt DepType) MarshalText() ([]byte, error) {
	if dt > DepTypeDepGroup {
		return nil, xerrors.Errorf("invalid dep type %d", uint8(dt))
	}

	return []byte(dt.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (dt *DepType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "code":
		*dt = DepTypeCode
	case "dep_group":
		*dt = DepTypeDepGroup
	default:
		return xerrors.Errorf("unknown dep type '%s'", text)
	}

	return nil
}

// CellDep is a cell loaded by a transaction for its code or data without
// being consumed.
type CellDep struct {
	OutPoint OutPoint `json:"out_point"`
	DepType  DepType  `json:"dep_type"`
}

// NewCodeDep returns a code dependency on the out-point.
func NewCodeDep(op OutPoint) CellDep {
	return CellDep{OutPoint: op, DepType: DepTypeCode}
}

// CellOutput is the description of a cell without its data.
type CellOutput struct {
	Capacity uint64  `json:"capacity"`
	Lock     Script  `json:"lock"`
	Type     *Script `json:"type,omitempty"`
}

// Clone returns a deep copy of the output.
func (o CellOutput) Clone() CellOutput {
	o.Lock = o.Lock.Clone()

	if o.Type != nil {
		typ := o.Type.Clone()
		o.Type = &typ
	}

	return o
}

// Equal returns true if both outputs are the same.
func (o CellOutput) Equal(other CellOutput) bool {
	if o.Capacity != other.Capacity || !o.Lock.Equal(other.Lock) {
		return false
	}

	if o.Type == nil || other.Type == nil {
		return o.Type == nil && other.Type == nil
	}

	return o.Type.Equal(*other.Type)
}

// OccupiedBytes returns the number of bytes occupied by the cell when it holds
// the given amount of data.
func (o CellOutput) OccupiedBytes(dataLen int) uint64 {
	size := capacityFieldSize + uint64(dataLen) + o.Lock.Size()

	if o.Type != nil {
		size += o.Type.Size()
	}

	return size
}

// OccupiedCapacity returns the minimal capacity the cell must have to hold the
// given amount of data.
func (o CellOutput) OccupiedCapacity(dataLen int) (uint64, error) {
	return BytesToCapacity(o.OccupiedBytes(dataLen))
}

// BytesToCapacity returns the capacity required to store the number of bytes.
func BytesToCapacity(size uint64) (uint64, error) {
	if size > math.MaxUint64/ShannonsPerByte {
		return 0, xerrors.Errorf("capacity overflow for %d bytes", size)
	}

	return size * ShannonsPerByte, nil
}

// Fingerprint implements types.Fingerprinter.
func (o CellOutput) Fingerprint(w io.Writer) error {
	enc := &encoder{w: w}
	enc.u64(o.Capacity)

	if enc.err != nil {
		return xerrors.Errorf("couldn't write capacity: %v", enc.err)
	}

	err := o.Lock.Fingerprint(w)
	if err != nil {
		return xerrors.Errorf("lock: %v", err)
	}

	if o.Type == nil {
		enc.u8(0)
	} else {
		enc.u8(1)
	}

	if enc.err != nil {
		return xerrors.Errorf("couldn't write type flag: %v", enc.err)
	}

	if o.Type != nil {
		err = o.Type.Fingerprint(w)
		if err != nil {
			return xerrors.Errorf("type: %v", err)
		}
	}

	return nil
}
