// Package siglock implements a lock program that requires a Schnorr signature
// of the transaction hash to consume the cells it protects.
//
// The arguments of the lock are the first 20 bytes of the blake2b digest of
// the Ed25519 public key. The witness at the first input of the lock group
// carries the public key followed by the signature.
package siglock

import (
	"bytes"

	"go.dedis.ch/cellkit/core/contract"
	"go.dedis.ch/cellkit/core/execution/native"
	"go.dedis.ch/cellkit/core/types"
	"go.dedis.ch/cellkit/crypto"
	"go.dedis.ch/cellkit/crypto/ed25519"
	"golang.org/x/xerrors"
)

const (
	// ContractName is the name of the contract.
	ContractName = "sig_lock"

	// ArgsSize is the size in bytes of the arguments of the lock.
	ArgsSize = 20

	// WitnessSize is the size in bytes of the witness unlocking a group.
	WitnessSize = ed25519.PublicKeySize + ed25519.SignatureSize

	// VerifyCycles is the number of cycles charged for a signature
	// verification.
	VerifyCycles uint64 = 100_000
)

// Code is the content of the code cell of the program.
var Code = []byte("go.dedis.ch/cellkit/contracts/siglock")

// CodeHash is the data hash of the code cell.
var CodeHash = types.HashOf(Code)

// Program is the signature lock program.
//
// - implements native.Program
type Program struct{}

// Execute implements native.Program. It verifies the signature of the witness
// of the group against the arguments of the lock.
func (Program) Execute(ctx *native.ScriptContext) error {
	args := ctx.Script().Args
	if len(args) != ArgsSize {
		return xerrors.Errorf("invalid args size %d", len(args))
	}

	inputs := ctx.GroupInputs()
	if len(inputs) == 0 {
		return xerrors.New("lock group without input")
	}

	witness := ctx.Witness(inputs[0])
	if len(witness) != WitnessSize {
		return xerrors.Errorf("invalid witness size %d at %d", len(witness), inputs[0])
	}

	err := ctx.Consume(VerifyCycles)
	if err != nil {
		return err
	}

	pubkey := witness[:ed25519.PublicKeySize]

	if !bytes.Equal(Args(pubkey), args) {
		return xerrors.New("public key does not match the lock")
	}

	pk, err := ed25519.NewPublicKey(pubkey)
	if err != nil {
		return xerrors.Errorf("invalid public key: %v", err)
	}

	hash := ctx.TxHash()

	err = pk.Verify(hash.Bytes(), ed25519.NewSignature(witness[ed25519.PublicKeySize:]))
	if err != nil {
		return xerrors.Errorf("invalid signature: %v", err)
	}

	ctx.Debug("signature verified for %x", args)

	return nil
}

// Register registers the program to the engine and returns its code hash.
func Register(engine *native.Engine) types.Hash {
	return engine.Register(Code, Program{})
}

// Args returns the arguments of the lock for the marshaled public key.
func Args(pubkey []byte) []byte {
	digest := crypto.Sum(pubkey)
	return append([]byte{}, digest[:ArgsSize]...)
}

// Script returns the lock script of the public key.
func Script(pk crypto.PublicKey) (types.Script, error) {
	pubkey, err := pk.MarshalBinary()
	if err != nil {
		return types.Script{}, xerrors.Errorf("failed to marshal public key: %v", err)
	}

	return types.NewScript(CodeHash, types.HashTypeData, Args(pubkey)), nil
}

// NewContract returns a lock contract for the public key.
func NewContract(pk crypto.PublicKey) (*contract.Contract, error) {
	lock, err := Script(pk)
	if err != nil {
		return nil, err
	}

	return contract.NewContract(ContractName, Code, contract.UsageLock,
		contract.WithArgs(lock.Args)), nil
}

// Sign signs the hash of the transaction and writes the witness at the index
// of the first input of the group. The witnesses are extended if necessary.
func Sign(tx *types.Transaction, index int, signer crypto.Signer) error {
	pubkey, err := signer.GetPublicKey().MarshalBinary()
	if err != nil {
		return xerrors.Errorf("failed to marshal public key: %v", err)
	}

	hash := tx.Hash()

	sig, err := signer.Sign(hash.Bytes())
	if err != nil {
		return xerrors.Errorf("failed to sign: %v", err)
	}

	sigBuf, err := sig.MarshalBinary()
	if err != nil {
		return xerrors.Errorf("failed to marshal signature: %v", err)
	}

	for len(tx.Witnesses) <= index {
		tx.Witnesses = append(tx.Witnesses, types.Bytes{})
	}

	witness := make(types.Bytes, 0, WitnessSize)
	witness = append(witness, pubkey...)
	witness = append(witness, sigBuf...)

	tx.Witnesses[index] = witness

	return nil
}
