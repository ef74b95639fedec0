// Package contract implements the rule engine of a contract: the queries
// selecting the inputs the contract needs, and the ordered rules rewriting the
// fields of the outputs that reference the contract.
//
// A contract tracks its code cell and its usage cell separately. The usage
// cell references the contract through its lock or type script, and updating
// the code propagates the new code hash into that script.
package contract

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.dedis.ch/cellkit/core/query"
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

// Usage defines how the outputs reference the contract.
type Usage int

const (
	// UsageLock is the usage of a contract referenced as a lock script.
	UsageLock Usage = iota
	// UsageType is the usage of a contract referenced as a type script.
	UsageType
)

// String implements fmt.Stringer.
func (u Usage) String() string {
	switch u {
	case UsageLock:
		return "lock"
	case UsageType:
		return "type"
	default:
		return fmt.Sprintf("usage(%d)", int(u))
	}
}

// StaleCodeHashError is returned when a cell references the contract with a
// code hash that is not the one of the current code.
type StaleCodeHashError struct {
	Contract string
	Expected types.Hash
	Actual   types.Hash
}

// Error implements error.
func (e StaleCodeHashError) Error() string {
	return fmt.Sprintf("contract %s: stale code hash %v != %v", e.Contract, e.Actual, e.Expected)
}

// ErrNoCode is returned when a contract has no code.
var ErrNoCode = xerrors.New("contract has no code")

// InputRule is a function producing the query of an input the contract needs,
// given the transaction in progress.
type InputRule func(tx types.Transaction) (query.CellQuery, error)

// Deployer is the interface to deploy the code of a contract.
type Deployer interface {
	Deploy(data []byte) (types.OutPoint, error)
}

// Contract holds the rules of a contract and the template of the outputs and
// dependencies it adds to a transaction.
type Contract struct {
	name     string
	code     []byte
	codeDep  *types.CellDep
	usage    Usage
	hashType types.HashType
	args     types.Bytes

	usageCell *templateCell

	inputRules  []InputRule
	outputRules []OutputRule

	outputs []templateCell
	deps    []types.CellDep
}

type templateCell struct {
	output types.CellOutput
	data   []byte
}

// Option is the type of options to create a contract.
type Option func(*Contract)

// WithArgs sets the arguments of the script of the contract.
func WithArgs(args []byte) Option {
	return func(c *Contract) {
		c.args = append(types.Bytes{}, args...)
	}
}

// WithHashType sets the hash type of the script of the contract. It must be
// one of the data hash types.
func WithHashType(ht types.HashType) Option {
	return func(c *Contract) {
		c.hashType = ht
	}
}

// NewContract creates a contract with the code and the usage.
func NewContract(name string, code []byte, usage Usage, opts ...Option) *Contract {
	c := &Contract{
		name:     name,
		code:     append([]byte{}, code...),
		usage:    usage,
		hashType: types.HashTypeData,
		args:     types.Bytes{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the name of the contract.
func (c *Contract) Name() string {
	return c.name
}

// Usage returns how the outputs reference the contract.
func (c *Contract) Usage() Usage {
	return c.usage
}

// Code returns the code of the contract.
func (c *Contract) Code() []byte {
	return append([]byte{}, c.code...)
}

// CodeHash returns the data hash of the code.
func (c *Contract) CodeHash() types.Hash {
	return types.HashOf(c.code)
}

// Script returns the script referencing the contract.
func (c *Contract) Script() types.Script {
	return types.NewScript(c.CodeHash(), c.hashType, c.args)
}

// ScriptHash returns the hash of the script referencing the contract.
func (c *Contract) ScriptHash() types.Hash {
	return c.Script().Hash()
}

// SetCode replaces the code of the contract. The usage cell and the template
// outputs whose script runs the previous code are updated with the new code
// hash, whatever their arguments. The dependency to the previous code cell is
// dropped.
func (c *Contract) SetCode(code []byte) {
	previous := c.Script()

	c.code = append([]byte{}, code...)

	if c.codeDep != nil {
		c.deps = removeDep(c.deps, *c.codeDep)
		c.codeDep = nil
	}

	current := c.Script()

	if c.usageCell != nil {
		c.propagateCode(&c.usageCell.output, previous, current)
	}

	for i := range c.outputs {
		c.propagateCode(&c.outputs[i].output, previous, current)
	}
}

// SetArgs replaces the arguments of the script. The usage cell and the
// template outputs referencing the previous script are updated.
func (c *Contract) SetArgs(args []byte) {
	previous := c.Script()

	c.args = append(types.Bytes{}, args...)

	current := c.Script()

	if c.usageCell != nil {
		c.propagate(&c.usageCell.output, previous, current)
	}

	for i := range c.outputs {
		c.propagate(&c.outputs[i].output, previous, current)
	}
}

func (c *Contract) propagateCode(output *types.CellOutput, previous, current types.Script) {
	var script *types.Script

	switch c.usage {
	case UsageLock:
		script = &output.Lock
	case UsageType:
		script = output.Type
	}

	if script == nil || script.CodeHash != previous.CodeHash || script.HashType != previous.HashType {
		return
	}

	script.CodeHash = current.CodeHash
	script.HashType = current.HashType
}

func (c *Contract) propagate(output *types.CellOutput, previous, current types.Script) {
	switch c.usage {
	case UsageLock:
		if output.Lock.Equal(previous) {
			output.Lock = current.Clone()
		}
	case UsageType:
		if output.Type != nil && output.Type.Equal(previous) {
			script := current.Clone()
			output.Type = &script
		}
	}
}

// SetUsageCell sets the cell that uses the contract. Its lock or type script,
// depending on the usage, is expected to reference the contract.
func (c *Contract) SetUsageCell(output types.CellOutput, data []byte) {
	c.usageCell = &templateCell{
		output: output.Clone(),
		data:   append([]byte{}, data...),
	}
}

// UsageCell returns the cell using the contract, if any.
func (c *Contract) UsageCell() (types.CellOutput, []byte, bool) {
	if c.usageCell == nil {
		return types.CellOutput{}, nil, false
	}

	return c.usageCell.output.Clone(), append([]byte{}, c.usageCell.data...), true
}

// Deploy deploys the code of the contract and adds the code cell to the
// dependencies of the template.
func (c *Contract) Deploy(d Deployer) (types.OutPoint, error) {
	op, err := d.Deploy(c.code)
	if err != nil {
		return op, xerrors.Errorf("failed to deploy %s: %v", c.name, err)
	}

	dep := types.NewCodeDep(op)

	if c.codeDep != nil {
		c.deps = removeDep(c.deps, *c.codeDep)
	}

	c.codeDep = &dep
	c.AddCellDep(dep)

	return op, nil
}

// CodeOutPoint returns the out-point of the code cell once deployed.
func (c *Contract) CodeOutPoint() (types.OutPoint, bool) {
	if c.codeDep == nil {
		return types.OutPoint{}, false
	}

	return c.codeDep.OutPoint, true
}

// AddInputRule appends a rule selecting an input of the contract.
func (c *Contract) AddInputRule(rule InputRule) {
	c.inputRules = append(c.inputRules, rule)
}

// AddOutputRule appends a rule rewriting the outputs of the contract. The rules
// are applied in the order they are added.
func (c *Contract) AddOutputRule(rule OutputRule) {
	c.outputRules = append(c.outputRules, rule)
}

// AddOutput appends an output to the template of the contract.
func (c *Contract) AddOutput(output types.CellOutput, data []byte) {
	c.outputs = append(c.outputs, templateCell{
		output: output.Clone(),
		data:   append([]byte{}, data...),
	})
}

// AddCellDep appends a dependency to the template of the contract, unless it
// is already present.
func (c *Contract) AddCellDep(dep types.CellDep) {
	for _, other := range c.deps {
		if other == dep {
			return
		}
	}

	c.deps = append(c.deps, dep)
}

// Queries returns the input queries of the contract for the transaction.
func (c *Contract) Queries(tx types.Transaction) ([]query.CellQuery, error) {
	queries := make([]query.CellQuery, 0, len(c.inputRules))

	for i, rule := range c.inputRules {
		q, err := rule(tx.Clone())
		if err != nil {
			return nil, xerrors.Errorf("input rule %d: %v", i, err)
		}

		queries = append(queries, q)
	}

	return queries, nil
}

// AppendTemplate appends the template outputs, their data and the dependencies
// of the contract to the transaction. Dependencies already present are not
// duplicated.
func (c *Contract) AppendTemplate(tx *types.Transaction) {
	for _, cell := range c.outputs {
		tx.Outputs = append(tx.Outputs, cell.output.Clone())
		tx.OutputsData = append(tx.OutputsData, append(types.Bytes{}, cell.data...))
	}

	for _, dep := range c.deps {
		if !tx.HasCellDep(dep) {
			tx.CellDeps = append(tx.CellDeps, dep)
		}
	}
}

// Matches returns true if the output references the contract according to
// its usage.
func (c *Contract) Matches(output types.CellOutput) bool {
	hash := c.ScriptHash()

	switch c.usage {
	case UsageLock:
		return output.Lock.Hash() == hash
	default:
		typeHash, ok := types.OptionalScriptHash(output.Type)
		return ok && typeHash == hash
	}
}

// Apply folds the output rules over the output at the index, in order. Every
// rule observes the result of the previous ones.
func (c *Contract) Apply(tx *types.Transaction, index int, inputs map[types.OutPoint]types.CellMeta) error {
	for i, rule := range c.outputRules {
		ctx := NewRuleContext(tx, index, inputs)

		err := rule.apply(ctx, tx)
		if err != nil {
			return xerrors.Errorf("output rule %d (%v) on output %d: %v", i, rule.Field, index, err)
		}
	}

	return nil
}

// Check verifies that every cell referencing the contract uses the hash of
// the current code. Every inconsistency is reported.
func (c *Contract) Check() error {
	var result error

	if len(c.code) == 0 {
		result = multierror.Append(result, xerrors.Errorf("%s: %w", c.name, ErrNoCode))
	}

	if !c.hashType.IsData() {
		result = multierror.Append(result,
			xerrors.Errorf("contract %s: unsupported hash type %v", c.name, c.hashType))
	}

	expected := c.CodeHash()

	if c.usageCell != nil {
		err := c.checkScript(c.usageCell.output, expected)
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result
}

func (c *Contract) checkScript(output types.CellOutput, expected types.Hash) error {
	var script *types.Script

	switch c.usage {
	case UsageLock:
		script = &output.Lock
	case UsageType:
		script = output.Type
	}

	if script == nil {
		return xerrors.Errorf("contract %s: usage cell has no %v script", c.name, c.usage)
	}

	if script.CodeHash != expected {
		return StaleCodeHashError{
			Contract: c.name,
			Expected: expected,
			Actual:   script.CodeHash,
		}
	}

	return nil
}

func removeDep(deps []types.CellDep, dep types.CellDep) []types.CellDep {
	for i, other := range deps {
		if other == dep {
			return append(deps[:i:i], deps[i+1:]...)
		}
	}

	return deps
}
