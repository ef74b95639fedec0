package ed25519

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/kyber/v3/sign/schnorr"
)

func TestPublicKey_New(t *testing.T) {
	point := suite.Point().Pick(suite.RandomStream())
	pointBuf, err := point.MarshalBinary()
	require.NoError(t, err)

	pubKey, err := NewPublicKey(pointBuf)
	require.NoError(t, err)
	require.True(t, pubKey.Equal(PublicKey{point: point}))

	_, err = NewPublicKey([]byte{})
	require.EqualError(t, err, "couldn't unmarshal point: invalid Ed25519 curve point")
}

func TestPublicKey_MarshalBinary(t *testing.T) {
	signer := NewSigner()

	buffer, err := signer.GetPublicKey().MarshalBinary()
	require.NoError(t, err)
	require.Len(t, buffer, PublicKeySize)
}

func TestPublicKey_Verify(t *testing.T) {
	privKey := suite.Scalar().Pick(suite.RandomStream())
	pubKey := suite.Point().Mul(privKey, nil)
	pk := PublicKey{point: pubKey}

	msg := []byte("hello")
	signature, err := schnorr.Sign(suite, privKey, msg)
	require.NoError(t, err)

	err = pk.Verify(msg, Signature{data: signature})
	require.NoError(t, err)

	err = pk.Verify(msg, fakeSignature{})
	require.EqualError(t, err, "invalid signature type 'ed25519.fakeSignature'")

	err = pk.Verify([]byte("oops"), Signature{data: signature})
	require.Error(t, err)
	require.Contains(t, err.Error(), "schnorr verify failed")
}

func TestPublicKey_Equal(t *testing.T) {
	signer := NewSigner()

	require.True(t, signer.GetPublicKey().(PublicKey).Equal(signer.GetPublicKey()))
	require.False(t, signer.GetPublicKey().(PublicKey).Equal(NewSigner().GetPublicKey()))
	require.False(t, signer.GetPublicKey().(PublicKey).Equal(nil))
}

func TestPublicKey_String(t *testing.T) {
	signer := NewSigner()

	require.Len(t, signer.GetPublicKey().(PublicKey).String(), len("schnorr:")+16)
}

func TestSignature_Equal(t *testing.T) {
	sig := NewSignature([]byte{1, 2, 3})

	require.True(t, sig.Equal(NewSignature([]byte{1, 2, 3})))
	require.False(t, sig.Equal(NewSignature([]byte{1, 2})))
	require.False(t, sig.Equal(fakeSignature{}))
}

func TestSigner_Sign(t *testing.T) {
	signer := NewSigner()

	sig, err := signer.Sign([]byte("deadbeef"))
	require.NoError(t, err)

	buffer, err := sig.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, buffer, SignatureSize)

	err = signer.GetPublicKey().Verify([]byte("deadbeef"), sig)
	require.NoError(t, err)
}

func TestSigner_MarshalBinary(t *testing.T) {
	signer := NewSigner()

	data, err := signer.MarshalBinary()
	require.NoError(t, err)

	restored, err := NewSignerFromBytes(data)
	require.NoError(t, err)
	require.True(t, restored.GetPublicKey().(PublicKey).Equal(signer.GetPublicKey()))

	sig, err := restored.Sign([]byte("deadbeef"))
	require.NoError(t, err)
	require.NoError(t, signer.GetPublicKey().Verify([]byte("deadbeef"), sig))

	_, err = NewSignerFromBytes([]byte{1, 2, 3})
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't unmarshal scalar: ")
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeSignature struct{}

func (fakeSignature) MarshalBinary() ([]byte, error) {
	return nil, nil
}
