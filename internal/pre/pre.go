// Package pre implements the proxy re-encryption primitives used by the
// sharing protocol: key generation, encapsulation, re-encryption key fragment
// derivation, capsule fragment re-encryption, fragment verification, and both
// decryption paths (owner and delegated viewer).
//
// The scheme is an Umbral-style unidirectional PRE restricted to
// threshold = 1 / shares = 1, built on NIST P-256. A payload is encrypted
// with AES-256-GCM under a data key derived (HKDF-SHA256) from an ECDH-style
// shared point; the capsule carries the ephemeral curve point needed to
// re-derive that key. Re-encryption transforms the capsule point so the
// receiving key can reach the same shared point, and every capsule fragment
// carries a Chaum-Pedersen DLEQ proof plus an ECDSA signature binding it to
// the delegating and receiving keys, so fragments are verifiable before use.
package pre

import (
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/hkdf"

	"github.com/dmitrijs2005/preshare/internal/cryptox"
)

var curve = elliptic.P256()

const (
	pointSize  = 33 // compressed P-256 point
	scalarSize = 32
	dekSize    = 32
)

// SecretKey is a P-256 scalar. It must never leave the owning principal's
// vault boundary.
type SecretKey struct {
	d *big.Int
}

// PublicKey is a P-256 curve point.
type PublicKey struct {
	x, y *big.Int
}

// Capsule is the key-encapsulation artifact produced at encryption time. It
// holds the ephemeral point E = r*G; together with the recipient's secret key
// (or a verified fragment) it re-derives the data encryption key.
type Capsule struct {
	ex, ey *big.Int
}

// GenerateKeyPair creates a fresh keypair.
func GenerateKeyPair() (*SecretKey, *PublicKey, error) {
	d, err := randScalar()
	if err != nil {
		return nil, nil, fmt.Errorf("keygen: %w", err)
	}
	x, y := curve.ScalarBaseMult(d.Bytes())
	return &SecretKey{d: d}, &PublicKey{x: x, y: y}, nil
}

// PublicKey returns the public key matching sk.
func (sk *SecretKey) PublicKey() *PublicKey {
	x, y := curve.ScalarBaseMult(sk.d.Bytes())
	return &PublicKey{x: x, y: y}
}

// Encapsulate encrypts plaintext for the holder of pk. Encapsulation is
// randomized: two calls with identical input produce different capsules and
// ciphertexts, so callers must never compare raw output bytes.
func Encapsulate(pk *PublicKey, plaintext []byte) (*Capsule, []byte, error) {
	r, err := randScalar()
	if err != nil {
		return nil, nil, fmt.Errorf("encapsulate: %w", err)
	}

	ex, ey := curve.ScalarBaseMult(r.Bytes())
	capsule := &Capsule{ex: ex, ey: ey}

	sx, sy := curve.ScalarMult(pk.x, pk.y, r.Bytes())
	dek := deriveDEK(sx, sy, capsule)

	ciphertext, err := cryptox.Seal(dek, plaintext)
	if err != nil {
		return nil, nil, fmt.Errorf("encapsulate: %w", err)
	}

	return capsule, ciphertext, nil
}

// DecryptOriginal is the owner-only decryption path: the capsule was produced
// for sk's public key.
func DecryptOriginal(sk *SecretKey, capsule *Capsule, ciphertext []byte) ([]byte, error) {
	sx, sy := curve.ScalarMult(capsule.ex, capsule.ey, sk.d.Bytes())
	dek := deriveDEK(sx, sy, capsule)

	plaintext, err := cryptox.Open(dek, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypt original: %w", err)
	}
	return plaintext, nil
}

// deriveDEK derives the AES data key from the shared point and the capsule,
// binding the key to this specific encapsulation.
func deriveDEK(sx, sy *big.Int, capsule *Capsule) []byte {
	secret := elliptic.MarshalCompressed(curve, sx, sy)
	info := append([]byte("preshare/dek/v1"), capsule.Bytes()...)

	dek := make([]byte, dekSize)
	kdf := hkdf.New(sha256.New, secret, nil, info)
	if _, err := io.ReadFull(kdf, dek); err != nil {
		// HKDF cannot fail for a 32-byte read
		panic(err)
	}
	return dek
}

// randScalar returns a uniformly random scalar in [1, N-1].
func randScalar() (*big.Int, error) {
	n := new(big.Int).Sub(curve.Params().N, big.NewInt(1))
	k, err := rand.Int(rand.Reader, n)
	if err != nil {
		return nil, err
	}
	return k.Add(k, big.NewInt(1)), nil
}

// hashToScalar maps the domain tag and inputs to a nonzero scalar mod N.
func hashToScalar(domain string, parts ...[]byte) *big.Int {
	h := sha256.New()
	h.Write([]byte(domain))
	for _, p := range parts {
		h.Write(p)
	}
	s := new(big.Int).SetBytes(h.Sum(nil))
	s.Mod(s, curve.Params().N)
	if s.Sign() == 0 {
		s.SetInt64(1)
	}
	return s
}

func pointBytes(x, y *big.Int) []byte {
	return elliptic.MarshalCompressed(curve, x, y)
}
