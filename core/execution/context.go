package execution

import (
	"sort"

	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

// Feature is the name of a hard-fork feature.
type Feature string

const (
	// FeatureVMVersion1 enables the second version of the VM, i.e. the data1
	// hash type and type-addressed scripts running on it.
	FeatureVMVersion1 Feature = "vm_version_1"

	// FeatureVMVersion2 enables the third version of the VM, i.e. the data2
	// hash type.
	FeatureVMVersion2 Feature = "vm_version_2"
)

// Features is the list of known features.
var Features = []Feature{FeatureVMVersion1, FeatureVMVersion2}

// HardForkSwitch maps a feature to the epoch number it is activated at. A
// feature missing from the switch is never enabled.
type HardForkSwitch map[Feature]uint64

// IsEnabled returns true if the feature is active at the epoch.
func (s HardForkSwitch) IsEnabled(f Feature, epoch uint64) bool {
	activation, found := s[f]
	return found && epoch >= activation
}

// Validate returns an error if the switch contains unknown features.
func (s HardForkSwitch) Validate() error {
	unknown := []string{}

	for f := range s {
		if !isKnown(f) {
			unknown = append(unknown, string(f))
		}
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return xerrors.Errorf("unknown features: %v", unknown)
	}

	return nil
}

func isKnown(f Feature) bool {
	for _, known := range Features {
		if known == f {
			return true
		}
	}

	return false
}

// Consensus is the set of consensus parameters relevant to the verification.
type Consensus struct {
	HardForks HardForkSwitch
}

// TxEnv describes where the transaction is verified.
type TxEnv struct {
	Epoch       types.EpochNumberWithFraction
	BlockNumber uint64
}

// Context is the consensus and transaction context of a verification.
type Context struct {
	Consensus Consensus
	Env       TxEnv
}

// DefaultActivationEpoch is the epoch every feature is activated at in the
// default context.
const DefaultActivationEpoch = 200

// DefaultEpoch is the epoch number of the transaction environment in the
// default context. It is past the activation of every feature.
const DefaultEpoch = 300

// DefaultContext returns a context where every feature is enabled.
func DefaultContext() Context {
	forks := HardForkSwitch{}
	for _, f := range Features {
		forks[f] = DefaultActivationEpoch
	}

	return Context{
		Consensus: Consensus{HardForks: forks},
		Env: TxEnv{
			Epoch: types.NewEpoch(DefaultEpoch, 0, 1),
		},
	}
}

// IsEnabled returns true if the feature is enabled at the epoch of the
// transaction environment.
func (ctx Context) IsEnabled(f Feature) bool {
	return ctx.Consensus.HardForks.IsEnabled(f, ctx.Env.Epoch.Number())
}

// VMVersion returns the version of the VM a script of the given hash type runs
// with, or an error if the hash type is not enabled in this context.
func (ctx Context) VMVersion(ht types.HashType) (int, error) {
	switch ht {
	case types.HashTypeData:
		return 0, nil
	case types.HashTypeType:
		if ctx.IsEnabled(FeatureVMVersion2) {
			return 2, nil
		}
		if ctx.IsEnabled(FeatureVMVersion1) {
			return 1, nil
		}
		return 0, nil
	case types.HashTypeData1:
		if !ctx.IsEnabled(FeatureVMVersion1) {
			return 0, xerrors.Errorf("hash type %v not enabled at epoch %v", ht, ctx.Env.Epoch)
		}
		return 1, nil
	case types.HashTypeData2:
		if !ctx.IsEnabled(FeatureVMVersion2) {
			return 0, xerrors.Errorf("hash type %v not enabled at epoch %v", ht, ctx.Env.Epoch)
		}
		return 2, nil
	default:
		return 0, xerrors.Errorf("invalid hash type %d", ht)
	}
}
