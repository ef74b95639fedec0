package execution

import (
	"os"

	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// DefaultMaxCycles is the cycle budget used when none is provided.
const DefaultMaxCycles uint64 = 70_000_000

// EpochConfig is the configuration of an epoch with its fraction.
type EpochConfig struct {
	Number uint64 `yaml:"number"`
	Index  uint64 `yaml:"index"`
	Length uint64 `yaml:"length"`
}

// Config is the file representation of a verification context.
//
//	hardforks:
//	  vm_version_1: 200
//	  vm_version_2: 200
//	epoch:
//	  number: 300
//	  index: 0
//	  length: 1
//	block_number: 0
//	max_cycles: 70000000
type Config struct {
	HardForks   map[string]uint64 `yaml:"hardforks"`
	Epoch       EpochConfig       `yaml:"epoch"`
	BlockNumber uint64            `yaml:"block_number"`
	MaxCycles   uint64            `yaml:"max_cycles"`
}

// DefaultConfig returns the configuration of the default context.
func DefaultConfig() Config {
	ctx := DefaultContext()

	forks := make(map[string]uint64)
	for f, epoch := range ctx.Consensus.HardForks {
		forks[string(f)] = epoch
	}

	return Config{
		HardForks: forks,
		Epoch: EpochConfig{
			Number: ctx.Env.Epoch.Number(),
			Index:  ctx.Env.Epoch.Index(),
			Length: ctx.Env.Epoch.Length(),
		},
		MaxCycles: DefaultMaxCycles,
	}
}

// LoadConfig reads the configuration from a YAML file. Missing fields keep the
// value of the default configuration.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, xerrors.Errorf("failed to read config: %v", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses the YAML configuration.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	err := yaml.UnmarshalStrict(data, &cfg)
	if err != nil {
		return Config{}, xerrors.Errorf("failed to parse config: %v", err)
	}

	return cfg, nil
}

// Context returns the verification context of the configuration.
func (cfg Config) Context() (Context, error) {
	if cfg.Epoch.Length == 0 {
		return Context{}, xerrors.New("epoch length must be positive")
	}

	if cfg.Epoch.Index >= cfg.Epoch.Length {
		return Context{}, xerrors.Errorf("epoch index %d out of length %d",
			cfg.Epoch.Index, cfg.Epoch.Length)
	}

	forks := HardForkSwitch{}
	for name, epoch := range cfg.HardForks {
		forks[Feature(name)] = epoch
	}

	err := forks.Validate()
	if err != nil {
		return Context{}, xerrors.Errorf("invalid hard forks: %v", err)
	}

	ctx := Context{
		Consensus: Consensus{HardForks: forks},
		Env: TxEnv{
			Epoch:       types.NewEpoch(cfg.Epoch.Number, cfg.Epoch.Index, cfg.Epoch.Length),
			BlockNumber: cfg.BlockNumber,
		},
	}

	return ctx, nil
}
