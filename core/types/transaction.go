package types

import (
	"io"

	"golang.org/x/xerrors"
)

// Transaction consumes a list of existing cells and creates new ones. The
// outputs are paired one to one with the outputs data.
type Transaction struct {
	Version     uint32       `json:"version"`
	CellDeps    []CellDep    `json:"cell_deps"`
	HeaderDeps  []Hash       `json:"header_deps"`
	Inputs      []CellInput  `json:"inputs"`
	Outputs     []CellOutput `json:"outputs"`
	OutputsData []Bytes      `json:"outputs_data"`
	Witnesses   []Bytes      `json:"witnesses"`
}

// Hash returns the hash of the transaction. The witnesses are not part of the
// hash so that they can commit to it.
func (tx Transaction) Hash() Hash {
	// Writing to a hash never fails.
	h, _ := Digest(tx)
	return h
}

// Fingerprint implements types.Fingerprinter. It writes a deterministic binary
// representation of the transaction without the witnesses.
func (tx Transaction) Fingerprint(w io.Writer) error {
	enc := &encoder{w: w}
	enc.u32(tx.Version)

	enc.u32(uint32(len(tx.CellDeps)))
	for _, dep := range tx.CellDeps {
		enc.hash(dep.OutPoint.TxHash)
		enc.u32(dep.OutPoint.Index)
		enc.u8(uint8(dep.DepType))
	}

	enc.u32(uint32(len(tx.HeaderDeps)))
	for _, h := range tx.HeaderDeps {
		enc.hash(h)
	}

	enc.u32(uint32(len(tx.Inputs)))
	for _, input := range tx.Inputs {
		enc.u64(input.Since)
		enc.hash(input.PreviousOutput.TxHash)
		enc.u32(input.PreviousOutput.Index)
	}

	if enc.err != nil {
		return xerrors.Errorf("couldn't write references: %v", enc.err)
	}

	enc.u32(uint32(len(tx.Outputs)))
	for i, output := range tx.Outputs {
		if enc.err != nil {
			break
		}

		err := output.Fingerprint(w)
		if err != nil {
			return xerrors.Errorf("output %d: %v", i, err)
		}
	}

	enc.u32(uint32(len(tx.OutputsData)))
	for _, data := range tx.OutputsData {
		enc.bytes(data)
	}

	if enc.err != nil {
		return xerrors.Errorf("couldn't write outputs: %v", enc.err)
	}

	return nil
}

// IsCellbase returns true if the transaction only has the null input.
func (tx Transaction) IsCellbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PreviousOutput.IsNull()
}

// OutPoint returns the out-point of the output at the given index.
func (tx Transaction) OutPoint(index int) OutPoint {
	return NewOutPoint(tx.Hash(), uint32(index))
}

// HasInput returns true if the out-point is consumed by the transaction.
func (tx Transaction) HasInput(op OutPoint) bool {
	for _, input := range tx.Inputs {
		if input.PreviousOutput == op {
			return true
		}
	}

	return false
}

// HasCellDep returns true if the dependency is already part of the
// transaction.
func (tx Transaction) HasCellDep(dep CellDep) bool {
	for _, d := range tx.CellDeps {
		if d == dep {
			return true
		}
	}

	return false
}

// Clone returns a deep copy of the transaction.
func (tx Transaction) Clone() Transaction {
	clone := Transaction{
		Version:    tx.Version,
		CellDeps:   append([]CellDep(nil), tx.CellDeps...),
		HeaderDeps: append([]Hash(nil), tx.HeaderDeps...),
		Inputs:     append([]CellInput(nil), tx.Inputs...),
	}

	if tx.Outputs != nil {
		clone.Outputs = make([]CellOutput, len(tx.Outputs))
		for i, output := range tx.Outputs {
			clone.Outputs[i] = output.Clone()
		}
	}

	clone.OutputsData = cloneBytesList(tx.OutputsData)
	clone.Witnesses = cloneBytesList(tx.Witnesses)

	return clone
}

func cloneBytesList(list []Bytes) []Bytes {
	if list == nil {
		return nil
	}

	clone := make([]Bytes, len(list))
	for i, data := range list {
		clone[i] = append(Bytes(nil), data...)
	}

	return clone
}
