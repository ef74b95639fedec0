package execution

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/cellkit/core/types"
)

func TestDefaultConfig_Context(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, DefaultMaxCycles, cfg.MaxCycles)

	ctx, err := cfg.Context()
	require.NoError(t, err)
	require.Equal(t, DefaultContext(), ctx)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
hardforks:
  vm_version_2: 500
epoch:
  number: 400
  index: 1
  length: 10
block_number: 12
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, DefaultMaxCycles, cfg.MaxCycles)
	require.Equal(t, uint64(500), cfg.HardForks["vm_version_2"])
	require.Equal(t, uint64(DefaultActivationEpoch), cfg.HardForks["vm_version_1"])

	ctx, err := cfg.Context()
	require.NoError(t, err)
	require.Equal(t, types.NewEpoch(400, 1, 10), ctx.Env.Epoch)
	require.Equal(t, uint64(12), ctx.Env.BlockNumber)
	require.True(t, ctx.IsEnabled(FeatureVMVersion1))
	require.False(t, ctx.IsEnabled(FeatureVMVersion2))
}

func TestLoadConfig_Failures(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config: ")

	_, err = ParseConfig([]byte("unknown: 1"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse config: ")
}

func TestConfig_ContextFailures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Epoch.Length = 0

	_, err := cfg.Context()
	require.EqualError(t, err, "epoch length must be positive")

	cfg = DefaultConfig()
	cfg.Epoch.Index = 1

	_, err = cfg.Context()
	require.EqualError(t, err, "epoch index 1 out of length 1")

	cfg = DefaultConfig()
	cfg.HardForks["unknown"] = 1

	_, err = cfg.Context()
	require.EqualError(t, err, "invalid hard forks: unknown features: [unknown]")
}
