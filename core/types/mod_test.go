package types

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestHash_Text(t *testing.T) {
	h := HashOf([]byte("deadbeef"))

	text, err := h.MarshalText()
	require.NoError(t, err)
	require.Equal(t, h.String(), string(text))
	require.Len(t, text, 2+2*HashSize)

	var h2 Hash
	require.NoError(t, h2.UnmarshalText(text))
	require.Equal(t, h, h2)

	h3, err := HashFromHex(h.String()[2:])
	require.NoError(t, err)
	require.Equal(t, h, h3)

	_, err = HashFromHex("0xzz")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid hash: ")

	_, err = HashFromHex("0xabcd")
	require.EqualError(t, err, "invalid hash length 2")
}

func TestHash_IsZero(t *testing.T) {
	require.True(t, Hash{}.IsZero())
	require.False(t, HashOf(nil).IsZero())
}

func TestBytes_JSON(t *testing.T) {
	data, err := json.Marshal(Bytes{0xab, 0xcd})
	require.NoError(t, err)
	require.Equal(t, `"0xabcd"`, string(data))

	var b Bytes
	require.NoError(t, json.Unmarshal(data, &b))
	require.Equal(t, Bytes{0xab, 0xcd}, b)

	err = json.Unmarshal([]byte(`"0xz"`), &b)
	require.Error(t, err)
}

func TestDigest_Failure(t *testing.T) {
	_, err := Digest(badFingerprinter{})
	require.EqualError(t, err, "couldn't fingerprint: oops")
}

func TestEncoder_Error(t *testing.T) {
	enc := &encoder{w: badWriter{}}
	enc.u32(1)
	enc.u64(2)
	require.Equal(t, errOops, enc.err)
}

var errOops = xerrors.New("oops")

type badFingerprinter struct{}

func (badFingerprinter) Fingerprint(io.Writer) error {
	return errOops
}

type badWriter struct{}

func (badWriter) Write([]byte) (int, error) {
	return 0, errOops
}
