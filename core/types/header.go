package types

import "fmt"

// EpochNumberWithFraction is the packed representation of a position in an
// epoch: the epoch number on 24 bits, the index in the epoch on 16 bits and
// the length of the epoch on 16 bits.
type EpochNumberWithFraction uint64

const (
	epochNumberBits = 24
	epochIndexBits  = 16
	epochLengthBits = 16

	epochNumberMask = (1 << epochNumberBits) - 1
	epochIndexMask  = (1 << epochIndexBits) - 1
	epochLengthMask = (1 << epochLengthBits) - 1
)

// NewEpoch packs the epoch number with the fraction index/length.
func NewEpoch(number, index, length uint64) EpochNumberWithFraction {
	return EpochNumberWithFraction(
		(number & epochNumberMask) |
			((index & epochIndexMask) << epochNumberBits) |
			((length & epochLengthMask) << (epochNumberBits + epochIndexBits)))
}

// Number returns the epoch number.
func (e EpochNumberWithFraction) Number() uint64 {
	return uint64(e) & epochNumberMask
}

// Index returns the index of the block in the epoch.
func (e EpochNumberWithFraction) Index() uint64 {
	return (uint64(e) >> epochNumberBits) & epochIndexMask
}

// Length returns the number of blocks in the epoch.
func (e EpochNumberWithFraction) Length() uint64 {
	return (uint64(e) >> (epochNumberBits + epochIndexBits)) & epochLengthMask
}

// String implements fmt.Stringer.
func (e EpochNumberWithFraction) String() string {
	return fmt.Sprintf("%d(%d/%d)", e.Number(), e.Index(), e.Length())
}

// Header is the metadata of a block known by the ledger.
type Header struct {
	Hash       Hash                    `json:"hash"`
	ParentHash Hash                    `json:"parent_hash"`
	Number     uint64                  `json:"number"`
	Epoch      EpochNumberWithFraction `json:"epoch"`
	Timestamp  uint64                  `json:"timestamp"`
}

// TransactionInfo is the provenance of a committed transaction.
type TransactionInfo struct {
	BlockHash   Hash                    `json:"block_hash"`
	BlockNumber uint64                  `json:"block_number"`
	BlockEpoch  EpochNumberWithFraction `json:"block_epoch"`
	Index       int                     `json:"index"`
}
