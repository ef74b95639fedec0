package remote

import (
	"go.dedis.ch/cellkit/core/ledger"
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

// The messages of the service only carry primitive fields so that their
// encoding does not depend on the representation of the domain types.

// Script is the message of a script.
type Script struct {
	CodeHash []byte `cramberry:"1"`
	HashType uint8  `cramberry:"2"`
	Args     []byte `cramberry:"3"`
}

// OutPoint is the message of an out-point.
type OutPoint struct {
	TxHash []byte `cramberry:"1"`
	Index  uint32 `cramberry:"2"`
}

// CellOutput is the message of a cell output.
type CellOutput struct {
	Capacity uint64  `cramberry:"1"`
	Lock     Script  `cramberry:"2"`
	Type     *Script `cramberry:"3"`
}

// CellDep is the message of a cell dependency.
type CellDep struct {
	OutPoint OutPoint `cramberry:"1"`
	DepType  uint8    `cramberry:"2"`
}

// CellInput is the message of a cell input.
type CellInput struct {
	PreviousOutput OutPoint `cramberry:"1"`
	Since          uint64   `cramberry:"2"`
}

// Transaction is the message of a transaction.
type Transaction struct {
	Version     uint32       `cramberry:"1"`
	CellDeps    []CellDep    `cramberry:"2"`
	HeaderDeps  [][]byte     `cramberry:"3"`
	Inputs      []CellInput  `cramberry:"4"`
	Outputs     []CellOutput `cramberry:"5"`
	OutputsData [][]byte     `cramberry:"6"`
	Witnesses   [][]byte     `cramberry:"7"`
}

// TransactionInfo is the message of the provenance of a transaction.
type TransactionInfo struct {
	BlockHash   []byte `cramberry:"1"`
	BlockNumber uint64 `cramberry:"2"`
	BlockEpoch  uint64 `cramberry:"3"`
	Index       uint64 `cramberry:"4"`
}

// CellMeta is the message of a cell.
type CellMeta struct {
	Output    CellOutput       `cramberry:"1"`
	OutPoint  OutPoint         `cramberry:"2"`
	TxInfo    *TransactionInfo `cramberry:"3"`
	DataBytes uint64           `cramberry:"4"`
	Loaded    bool             `cramberry:"5"`
	Data      []byte           `cramberry:"6"`
}

// Header is the message of a header.
type Header struct {
	Hash       []byte `cramberry:"1"`
	ParentHash []byte `cramberry:"2"`
	Number     uint64 `cramberry:"3"`
	Epoch      uint64 `cramberry:"4"`
	Timestamp  uint64 `cramberry:"5"`
}

// GetCellRequest is the request of a cell.
type GetCellRequest struct {
	OutPoint OutPoint `cramberry:"1"`
	WithData bool     `cramberry:"2"`
}

// GetCellResponse is the response of a cell request.
type GetCellResponse struct {
	Status uint8    `cramberry:"1"`
	Cell   CellMeta `cramberry:"2"`
}

// HashRequest is the request of an element identified by its hash.
type HashRequest struct {
	Hash []byte `cramberry:"1"`
}

// GetTransactionResponse is the response of a transaction request.
type GetTransactionResponse struct {
	Transaction Transaction     `cramberry:"1"`
	Info        TransactionInfo `cramberry:"2"`
}

// GetTipRequest is the (empty) request of the tip.
type GetTipRequest struct{}

// SendTransactionRequest is the request to commit a transaction.
type SendTransactionRequest struct {
	Transaction Transaction `cramberry:"1"`
}

// SendTransactionResponse is the response of a committed or rejected
// transaction. A rejection is not an error of the transport.
type SendTransactionResponse struct {
	Hash       []byte `cramberry:"1"`
	Rejected   bool   `cramberry:"2"`
	Reason     string `cramberry:"3"`
	ScriptHash []byte `cramberry:"4"`
}

// FindCellsRequest is the request of the cells matching a query. The query is
// the JSON representation of a cell query.
type FindCellsRequest struct {
	Query []byte `cramberry:"1"`
}

// FindCellsResponse is the response of a query.
type FindCellsResponse struct {
	Cells []CellMeta `cramberry:"1"`
}

func toHash(data []byte) (types.Hash, error) {
	var hash types.Hash
	if len(data) != len(hash) {
		return hash, xerrors.Errorf("invalid hash length %d", len(data))
	}

	copy(hash[:], data)

	return hash, nil
}

func newScript(s types.Script) Script {
	return Script{
		CodeHash: s.CodeHash.Bytes(),
		HashType: uint8(s.HashType),
		Args:     s.Args,
	}
}

func (s Script) domain() (types.Script, error) {
	codeHash, err := toHash(s.CodeHash)
	if err != nil {
		return types.Script{}, xerrors.Errorf("code hash: %v", err)
	}

	return types.NewScript(codeHash, types.HashType(s.HashType), s.Args), nil
}

func newOutPoint(op types.OutPoint) OutPoint {
	return OutPoint{TxHash: op.TxHash.Bytes(), Index: op.Index}
}

func (op OutPoint) domain() (types.OutPoint, error) {
	hash, err := toHash(op.TxHash)
	if err != nil {
		return types.OutPoint{}, xerrors.Errorf("out-point: %v", err)
	}

	return types.NewOutPoint(hash, op.Index), nil
}

func newCellOutput(o types.CellOutput) CellOutput {
	msg := CellOutput{
		Capacity: o.Capacity,
		Lock:     newScript(o.Lock),
	}

	if o.Type != nil {
		typ := newScript(*o.Type)
		msg.Type = &typ
	}

	return msg
}

func (o CellOutput) domain() (types.CellOutput, error) {
	lock, err := o.Lock.domain()
	if err != nil {
		return types.CellOutput{}, xerrors.Errorf("lock: %v", err)
	}

	output := types.CellOutput{Capacity: o.Capacity, Lock: lock}

	if o.Type != nil {
		typ, err := o.Type.domain()
		if err != nil {
			return types.CellOutput{}, xerrors.Errorf("type: %v", err)
		}

		output.Type = &typ
	}

	return output, nil
}

func newTransaction(tx types.Transaction) Transaction {
	msg := Transaction{Version: tx.Version}

	for _, dep := range tx.CellDeps {
		msg.CellDeps = append(msg.CellDeps, CellDep{
			OutPoint: newOutPoint(dep.OutPoint),
			DepType:  uint8(dep.DepType),
		})
	}

	for _, hash := range tx.HeaderDeps {
		msg.HeaderDeps = append(msg.HeaderDeps, hash.Bytes())
	}

	for _, input := range tx.Inputs {
		msg.Inputs = append(msg.Inputs, CellInput{
			PreviousOutput: newOutPoint(input.PreviousOutput),
			Since:          input.Since,
		})
	}

	for _, output := range tx.Outputs {
		msg.Outputs = append(msg.Outputs, newCellOutput(output))
	}

	for _, data := range tx.OutputsData {
		msg.OutputsData = append(msg.OutputsData, data)
	}

	for _, witness := range tx.Witnesses {
		msg.Witnesses = append(msg.Witnesses, witness)
	}

	return msg
}

func (tx Transaction) domain() (types.Transaction, error) {
	res := types.Transaction{Version: tx.Version}

	for i, dep := range tx.CellDeps {
		op, err := dep.OutPoint.domain()
		if err != nil {
			return res, xerrors.Errorf("cell dep %d: %v", i, err)
		}

		res.CellDeps = append(res.CellDeps, types.CellDep{
			OutPoint: op,
			DepType:  types.DepType(dep.DepType),
		})
	}

	for i, data := range tx.HeaderDeps {
		hash, err := toHash(data)
		if err != nil {
			return res, xerrors.Errorf("header dep %d: %v", i, err)
		}

		res.HeaderDeps = append(res.HeaderDeps, hash)
	}

	for i, input := range tx.Inputs {
		op, err := input.PreviousOutput.domain()
		if err != nil {
			return res, xerrors.Errorf("input %d: %v", i, err)
		}

		res.Inputs = append(res.Inputs, types.CellInput{PreviousOutput: op, Since: input.Since})
	}

	for i, output := range tx.Outputs {
		out, err := output.domain()
		if err != nil {
			return res, xerrors.Errorf("output %d: %v", i, err)
		}

		res.Outputs = append(res.Outputs, out)
	}

	for _, data := range tx.OutputsData {
		res.OutputsData = append(res.OutputsData, data)
	}

	for _, witness := range tx.Witnesses {
		res.Witnesses = append(res.Witnesses, witness)
	}

	return res, nil
}

func newTransactionInfo(info types.TransactionInfo) TransactionInfo {
	return TransactionInfo{
		BlockHash:   info.BlockHash.Bytes(),
		BlockNumber: info.BlockNumber,
		BlockEpoch:  uint64(info.BlockEpoch),
		Index:       uint64(info.Index),
	}
}

func (info TransactionInfo) domain() (types.TransactionInfo, error) {
	hash, err := toHash(info.BlockHash)
	if err != nil {
		return types.TransactionInfo{}, xerrors.Errorf("block hash: %v", err)
	}

	return types.TransactionInfo{
		BlockHash:   hash,
		BlockNumber: info.BlockNumber,
		BlockEpoch:  types.EpochNumberWithFraction(info.BlockEpoch),
		Index:       int(info.Index),
	}, nil
}

func newCellMeta(meta types.CellMeta) CellMeta {
	msg := CellMeta{
		Output:    newCellOutput(meta.Output),
		OutPoint:  newOutPoint(meta.OutPoint),
		DataBytes: meta.DataBytes,
	}

	if meta.TxInfo != nil {
		info := newTransactionInfo(*meta.TxInfo)
		msg.TxInfo = &info
	}

	if meta.DataHash != nil {
		msg.Loaded = true
		msg.Data = meta.Data
	}

	return msg
}

func (m CellMeta) domain() (types.CellMeta, error) {
	output, err := m.Output.domain()
	if err != nil {
		return types.CellMeta{}, err
	}

	op, err := m.OutPoint.domain()
	if err != nil {
		return types.CellMeta{}, err
	}

	meta := types.CellMeta{
		Output:    output,
		OutPoint:  op,
		DataBytes: m.DataBytes,
	}

	if m.Loaded {
		meta = types.NewCellMeta(op, output, m.Data)
	}

	if m.TxInfo != nil {
		info, err := m.TxInfo.domain()
		if err != nil {
			return types.CellMeta{}, err
		}

		meta.TxInfo = &info
	}

	return meta, nil
}

func newHeader(h types.Header) Header {
	return Header{
		Hash:       h.Hash.Bytes(),
		ParentHash: h.ParentHash.Bytes(),
		Number:     h.Number,
		Epoch:      uint64(h.Epoch),
		Timestamp:  h.Timestamp,
	}
}

func (h Header) domain() (types.Header, error) {
	hash, err := toHash(h.Hash)
	if err != nil {
		return types.Header{}, xerrors.Errorf("hash: %v", err)
	}

	parent, err := toHash(h.ParentHash)
	if err != nil {
		return types.Header{}, xerrors.Errorf("parent hash: %v", err)
	}

	return types.Header{
		Hash:       hash,
		ParentHash: parent,
		Number:     h.Number,
		Epoch:      types.EpochNumberWithFraction(h.Epoch),
		Timestamp:  h.Timestamp,
	}, nil
}

func newCommitted(tx ledger.CommittedTransaction) *GetTransactionResponse {
	return &GetTransactionResponse{
		Transaction: newTransaction(tx.Transaction),
		Info:        newTransactionInfo(tx.Info),
	}
}

func (resp GetTransactionResponse) domain() (ledger.CommittedTransaction, error) {
	tx, err := resp.Transaction.domain()
	if err != nil {
		return ledger.CommittedTransaction{}, err
	}

	info, err := resp.Info.domain()
	if err != nil {
		return ledger.CommittedTransaction{}, err
	}

	return ledger.CommittedTransaction{Transaction: tx, Info: info}, nil
}
