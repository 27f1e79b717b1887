package pre

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"math/big"

	"github.com/dmitrijs2005/preshare/internal/common"
	"github.com/dmitrijs2005/preshare/internal/cryptox"
)

// KeyFragment (kfrag) is the delegation material the owner hands to the
// proxy. It lets the proxy transform a capsule for the receiving key without
// ever seeing the owner's secret key or the plaintext.
type KeyFragment struct {
	rk       *big.Int // re-encryption scalar
	xax, xay *big.Int // ephemeral point X_A, needed by the receiver
	ux, uy   *big.Int // commitment U = rk*G, anchor for the DLEQ proof
	sig      []byte   // ECDSA over (X_A, U, delegating, receiving)
}

// CapsuleFragment (cfrag) is the output of re-encrypting a capsule with a
// kfrag. It carries a Chaum-Pedersen DLEQ proof that E1 was computed with the
// same scalar committed in U, plus the kfrag signature, so the viewer can
// verify it before decryption.
type CapsuleFragment struct {
	e1x, e1y *big.Int // transformed capsule point E1 = rk*E
	xax, xay *big.Int
	ux, uy   *big.Int
	t1x, t1y *big.Int // DLEQ commitment w*G
	t2x, t2y *big.Int // DLEQ commitment w*E
	s        *big.Int // DLEQ response
	sig      []byte
}

// VerifiedFragment wraps a CapsuleFragment that passed VerifyFragment.
// DecryptWithFragment only accepts this type, so an unverified fragment
// cannot reach decryption.
type VerifiedFragment struct {
	cfrag *CapsuleFragment
}

// DeriveKeyFragments derives the re-encryption key fragments delegating from
// the owner (delegating/signer) to the receiving public key. Only
// threshold = 1 with a single share is supported; one fragment suffices to
// decrypt.
func DeriveKeyFragments(delegating *SecretKey, signer *SecretKey, receiving *PublicKey, threshold, shares int) ([]*KeyFragment, error) {
	if threshold != 1 || shares != 1 {
		return nil, errors.New("pre: only threshold=1 with shares=1 is supported")
	}

	x, err := randScalar()
	if err != nil {
		return nil, err
	}
	xax, xay := curve.ScalarBaseMult(x.Bytes())

	// Non-interactive key agreement with the receiver: the receiver
	// recomputes d from X_A and its own secret during decryption.
	dsx, dsy := curve.ScalarMult(receiving.x, receiving.y, x.Bytes())
	d := hashToScalar("preshare/kfrag-d/v1",
		pointBytes(xax, xay), pointBytes(receiving.x, receiving.y), pointBytes(dsx, dsy))

	// rk = a * d^-1 mod N, so that d * (rk * E) = a * E.
	dInv := new(big.Int).ModInverse(d, curve.Params().N)
	rk := new(big.Int).Mul(delegating.d, dInv)
	rk.Mod(rk, curve.Params().N)

	ux, uy := curve.ScalarBaseMult(rk.Bytes())

	delegatingPK := delegating.PublicKey()
	digest := kfragDigest(xax, xay, ux, uy, delegatingPK, receiving)
	sig, err := ecdsa.SignASN1(rand.Reader, signer.ecdsaKey(), digest)
	if err != nil {
		return nil, err
	}

	return []*KeyFragment{{
		rk:  rk,
		xax: xax,
		xay: xay,
		ux:  ux,
		uy:  uy,
		sig: sig,
	}}, nil
}

// ReEncrypt applies kfrag to a capsule, producing a capsule fragment. This is
// the proxy-side operation: it needs no secret key.
func ReEncrypt(kfrag *KeyFragment, capsule *Capsule) (*CapsuleFragment, error) {
	e1x, e1y := curve.ScalarMult(capsule.ex, capsule.ey, kfrag.rk.Bytes())

	// DLEQ proof: log_G(U) == log_E(E1) == rk.
	w, err := randScalar()
	if err != nil {
		return nil, err
	}
	t1x, t1y := curve.ScalarBaseMult(w.Bytes())
	t2x, t2y := curve.ScalarMult(capsule.ex, capsule.ey, w.Bytes())

	c := dleqChallenge(capsule, e1x, e1y, kfrag.ux, kfrag.uy, t1x, t1y, t2x, t2y)

	s := new(big.Int).Mul(c, kfrag.rk)
	s.Add(s, w)
	s.Mod(s, curve.Params().N)

	return &CapsuleFragment{
		e1x: e1x, e1y: e1y,
		xax: kfrag.xax, xay: kfrag.xay,
		ux: kfrag.ux, uy: kfrag.uy,
		t1x: t1x, t1y: t1y,
		t2x: t2x, t2y: t2y,
		s:   s,
		sig: kfrag.sig,
	}, nil
}

// VerifyFragment checks a capsule fragment against the capsule it claims to
// transform and the three public keys involved. It verifies the kfrag
// signature (authenticity of the delegation) and the DLEQ proof (the
// transformation actually used the committed re-encryption scalar on this
// capsule). It must be called before DecryptWithFragment; skipping it would
// let a tampering proxy or store substitute a bogus fragment.
func VerifyFragment(cfrag *CapsuleFragment, capsule *Capsule, signingPK, delegatingPK, receivingPK *PublicKey) (*VerifiedFragment, error) {
	digest := kfragDigest(cfrag.xax, cfrag.xay, cfrag.ux, cfrag.uy, delegatingPK, receivingPK)
	if !ecdsa.VerifyASN1(signingPK.ecdsaKey(), digest, cfrag.sig) {
		return nil, common.ErrVerificationFailed
	}

	c := dleqChallenge(capsule, cfrag.e1x, cfrag.e1y, cfrag.ux, cfrag.uy,
		cfrag.t1x, cfrag.t1y, cfrag.t2x, cfrag.t2y)

	// s*G == T1 + c*U
	lx, ly := curve.ScalarBaseMult(cfrag.s.Bytes())
	cux, cuy := curve.ScalarMult(cfrag.ux, cfrag.uy, c.Bytes())
	rx, ry := curve.Add(cfrag.t1x, cfrag.t1y, cux, cuy)
	if lx.Cmp(rx) != 0 || ly.Cmp(ry) != 0 {
		return nil, common.ErrVerificationFailed
	}

	// s*E == T2 + c*E1
	lx, ly = curve.ScalarMult(capsule.ex, capsule.ey, cfrag.s.Bytes())
	cex, cey := curve.ScalarMult(cfrag.e1x, cfrag.e1y, c.Bytes())
	rx, ry = curve.Add(cfrag.t2x, cfrag.t2y, cex, cey)
	if lx.Cmp(rx) != 0 || ly.Cmp(ry) != 0 {
		return nil, common.ErrVerificationFailed
	}

	return &VerifiedFragment{cfrag: cfrag}, nil
}

// DecryptWithFragment is the delegated decryption path: the viewer combines
// its secret key, the original capsule, and a verified fragment to re-derive
// the data key and open the ciphertext.
func DecryptWithFragment(receiving *SecretKey, delegatingPK *PublicKey, capsule *Capsule, frag *VerifiedFragment, ciphertext []byte) ([]byte, error) {
	cfrag := frag.cfrag

	// Recompute d exactly as the owner did during kfrag derivation.
	receivingPK := receiving.PublicKey()
	dsx, dsy := curve.ScalarMult(cfrag.xax, cfrag.xay, receiving.d.Bytes())
	d := hashToScalar("preshare/kfrag-d/v1",
		pointBytes(cfrag.xax, cfrag.xay), pointBytes(receivingPK.x, receivingPK.y), pointBytes(dsx, dsy))

	// d * E1 = d * rk * E = a * E = r * delegatingPK: the same shared
	// point the owner encapsulated against.
	sx, sy := curve.ScalarMult(cfrag.e1x, cfrag.e1y, d.Bytes())
	dek := deriveDEK(sx, sy, capsule)

	plaintext, err := cryptox.Open(dek, ciphertext)
	if err != nil {
		return nil, common.ErrVerificationFailed
	}
	return plaintext, nil
}

func kfragDigest(xax, xay, ux, uy *big.Int, delegatingPK, receivingPK *PublicKey) []byte {
	h := sha256.New()
	h.Write([]byte("preshare/kfrag-sig/v1"))
	h.Write(pointBytes(xax, xay))
	h.Write(pointBytes(ux, uy))
	h.Write(pointBytes(delegatingPK.x, delegatingPK.y))
	h.Write(pointBytes(receivingPK.x, receivingPK.y))
	return h.Sum(nil)
}

func dleqChallenge(capsule *Capsule, e1x, e1y, ux, uy, t1x, t1y, t2x, t2y *big.Int) *big.Int {
	return hashToScalar("preshare/dleq/v1",
		capsule.Bytes(),
		pointBytes(e1x, e1y),
		pointBytes(ux, uy),
		pointBytes(t1x, t1y),
		pointBytes(t2x, t2y),
	)
}
