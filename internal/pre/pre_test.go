package pre

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOriginalRoundTrip(t *testing.T) {
	sk, pk, err := GenerateKeyPair()
	require.NoError(t, err)

	plaintext := []byte("hello world")
	capsule, ciphertext, err := Encapsulate(pk, plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, ciphertext)

	got, err := DecryptOriginal(sk, capsule, ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestEncapsulate_Randomized(t *testing.T) {
	_, pk, err := GenerateKeyPair()
	require.NoError(t, err)

	plaintext := []byte("same input")
	cap1, ct1, err := Encapsulate(pk, plaintext)
	require.NoError(t, err)
	cap2, ct2, err := Encapsulate(pk, plaintext)
	require.NoError(t, err)

	// Randomized encapsulation: identical input must not yield identical
	// output, so equivalence checks always go through decryption.
	require.False(t, bytes.Equal(cap1.Bytes(), cap2.Bytes()))
	require.False(t, bytes.Equal(ct1, ct2))
}

func TestDecryptOriginal_WrongKey(t *testing.T) {
	_, pk, err := GenerateKeyPair()
	require.NoError(t, err)
	otherSK, _, err := GenerateKeyPair()
	require.NoError(t, err)

	capsule, ciphertext, err := Encapsulate(pk, []byte("secret"))
	require.NoError(t, err)

	_, err = DecryptOriginal(otherSK, capsule, ciphertext)
	require.Error(t, err)
}

func TestDecryptOriginal_TamperedCiphertext(t *testing.T) {
	sk, pk, err := GenerateKeyPair()
	require.NoError(t, err)

	capsule, ciphertext, err := Encapsulate(pk, []byte("secret"))
	require.NoError(t, err)

	ciphertext[len(ciphertext)-1] ^= 0x01
	_, err = DecryptOriginal(sk, capsule, ciphertext)
	require.Error(t, err)
}

func TestSecretKeyEncoding_RoundTrip(t *testing.T) {
	sk, pk, err := GenerateKeyPair()
	require.NoError(t, err)

	restored, err := ParseSecretKey(sk.Bytes())
	require.NoError(t, err)
	require.True(t, restored.PublicKey().Equal(pk))
}

func TestPublicKeyEncoding_RoundTrip(t *testing.T) {
	_, pk, err := GenerateKeyPair()
	require.NoError(t, err)

	restored, err := ParsePublicKey(pk.Bytes())
	require.NoError(t, err)
	require.True(t, restored.Equal(pk))

	_, err = ParsePublicKey([]byte{0x02, 0x01})
	require.Error(t, err)
}

func TestCapsuleEncoding_RoundTrip(t *testing.T) {
	sk, pk, err := GenerateKeyPair()
	require.NoError(t, err)

	capsule, ciphertext, err := Encapsulate(pk, []byte("payload"))
	require.NoError(t, err)

	restored, err := ParseCapsule(capsule.Bytes())
	require.NoError(t, err)

	// A re-parsed capsule must still decrypt.
	got, err := DecryptOriginal(sk, restored, ciphertext)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), got)
}
