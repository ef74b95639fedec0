package execution

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

func TestRejectedError_Error(t *testing.T) {
	err := RejectedError{Reason: "oops"}
	require.EqualError(t, err, "transaction rejected: oops")

	err.ScriptHash = types.Hash{1}
	require.EqualError(t, err, "transaction rejected by script "+
		types.Hash{1}.String()+": oops")
}

func TestIsRejected(t *testing.T) {
	require.True(t, IsRejected(RejectedError{}))
	require.True(t, IsRejected(xerrors.Errorf("wrapped: %w", RejectedError{})))
	require.False(t, IsRejected(xerrors.New("oops")))
	require.False(t, IsRejected(nil))
}
