package cryptox

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randomKey(t *testing.T, size int) []byte {
	t.Helper()
	key := make([]byte, size)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestSealOpen_RoundTrip(t *testing.T) {
	for _, size := range []int{16, 24, 32} {
		key := randomKey(t, size)
		plaintext := []byte("hello world")

		sealed, err := Seal(key, plaintext)
		require.NoError(t, err)
		require.Greater(t, len(sealed), NonceSize)

		got, err := Open(key, sealed)
		require.NoError(t, err)
		require.Equal(t, plaintext, got)
	}
}

func TestSeal_Randomized(t *testing.T) {
	key := randomKey(t, 32)

	a, err := Seal(key, []byte("same input"))
	require.NoError(t, err)
	b, err := Seal(key, []byte("same input"))
	require.NoError(t, err)

	require.NotEqual(t, a, b, "each seal must use a fresh nonce")
}

func TestOpen_WrongKey(t *testing.T) {
	sealed, err := Seal(randomKey(t, 32), []byte("secret"))
	require.NoError(t, err)

	_, err = Open(randomKey(t, 32), sealed)
	require.Error(t, err)
}

func TestOpen_TamperedCiphertext(t *testing.T) {
	key := randomKey(t, 32)
	sealed, err := Seal(key, []byte("secret"))
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0x01

	_, err = Open(key, sealed)
	require.Error(t, err)
}

func TestOpen_TooShort(t *testing.T) {
	_, err := Open(randomKey(t, 32), []byte{1, 2, 3})
	require.Error(t, err)
}

func TestSeal_InvalidKeyLength(t *testing.T) {
	_, err := Seal([]byte("short"), []byte("x"))
	require.Error(t, err)
}
