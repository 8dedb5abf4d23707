package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeypair(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	// base58btc multibase prefix
	assert.True(t, strings.HasPrefix(kp.Private, "z"))
	assert.True(t, strings.HasPrefix(kp.Public, "z"))
	assert.NoError(t, kp.Validate())

	derived, err := KeypairFromPrivate(kp.Private)
	require.NoError(t, err)
	assert.Equal(t, kp, derived)
}

func TestKeypairValidateMismatch(t *testing.T) {
	a, err := GenerateKeypair()
	require.NoError(t, err)
	b, err := GenerateKeypair()
	require.NoError(t, err)

	err = Keypair{Private: a.Private, Public: b.Public}.Validate()
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSignVerify(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)
	other, err := GenerateKeypair()
	require.NoError(t, err)

	msg := []byte("hello chain")
	sig, err := Sign(kp.Private, msg)
	require.NoError(t, err)

	ok, err := Verify(kp.Public, msg, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify(kp.Public, []byte("tampered"), sig)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Verify(other.Public, msg, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidKeys(t *testing.T) {
	_, err := Sign("!not-a-key", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = Verify("zshort", []byte("x"), "zsig")
	assert.ErrorIs(t, err, ErrInvalidKey)

	assert.Error(t, ValidatePublicKey(""))
}

func TestHashValueDeterministic(t *testing.T) {
	a := map[string]string{"b": "2", "a": "1", "c": "3"}
	b := map[string]string{"c": "3", "a": "1", "b": "2"}

	ha, err := HashValue(a)
	require.NoError(t, err)
	hb, err := HashValue(b)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
	assert.Len(t, ha, 64)

	hc, err := HashValue(map[string]string{"a": "1"})
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}
