package fake

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckLog(t *testing.T) {
	logger, check := CheckLog("second")

	logger.Info().Msg("first")
	logger.Warn().Str("key", "value").Msg("second")

	check(t)
}

func TestMessages(t *testing.T) {
	output := []byte(`{"level":"info","message":"a"}
not an entry
{"level":"info"}
{"level":"warn","message":"b"}
`)

	require.Equal(t, []string{"a", "b"}, Messages(output))
	require.Empty(t, Messages(nil))
}
