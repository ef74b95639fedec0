package types

// CellMeta is a committed cell materialized with its out-point and, when it
// is known, the provenance of the transaction that created it.
type CellMeta struct {
	Output    CellOutput       `json:"output"`
	OutPoint  OutPoint         `json:"out_point"`
	TxInfo    *TransactionInfo `json:"tx_info,omitempty"`
	DataBytes uint64           `json:"data_bytes"`
	// Data is only populated when the cell has been eagerly loaded.
	Data Bytes `json:"data,omitempty"`
	// DataHash is the content hash of the data, populated with the data.
	DataHash *Hash `json:"data_hash,omitempty"`
}

// NewCellMeta returns the metadata of a cell with its data loaded.
func NewCellMeta(op OutPoint, output CellOutput, data []byte) CellMeta {
	hash := HashOf(data)

	return CellMeta{
		Output:    output,
		OutPoint:  op,
		DataBytes: uint64(len(data)),
		Data:      data,
		DataHash:  &hash,
	}
}

// WithoutData returns the metadata stripped from the data.
func (m CellMeta) WithoutData() CellMeta {
	m.Data = nil
	m.DataHash = nil
	return m
}

// ResolvedTransaction is a transaction where every input and cell dependency
// is attached to the cell it refers to.
type ResolvedTransaction struct {
	Transaction       Transaction `json:"transaction"`
	ResolvedCellDeps  []CellMeta  `json:"resolved_cell_deps"`
	ResolvedInputs    []CellMeta  `json:"resolved_inputs"`
	ResolvedDepGroups []CellMeta  `json:"resolved_dep_groups"`
}

// InputOutPoints returns the out-points of the resolved inputs.
func (rtx ResolvedTransaction) InputOutPoints() []OutPoint {
	ops := make([]OutPoint, len(rtx.ResolvedInputs))
	for i, input := range rtx.ResolvedInputs {
		ops[i] = input.OutPoint
	}

	return ops
}
