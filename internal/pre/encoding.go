package pre

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"math/big"
)

// Byte encodings for the artifacts that cross component boundaries: public
// keys and secret keys (identity registry / vault), capsules (the
// orchestrator's retained-capsule cache), and capsule fragments (the content
// store). All curve points use compressed SEC1 form.

// Bytes returns the compressed-point encoding of pk.
func (pk *PublicKey) Bytes() []byte {
	return elliptic.MarshalCompressed(curve, pk.x, pk.y)
}

// ParsePublicKey decodes a compressed-point public key.
func ParsePublicKey(data []byte) (*PublicKey, error) {
	x, y := elliptic.UnmarshalCompressed(curve, data)
	if x == nil {
		return nil, errors.New("pre: invalid public key encoding")
	}
	return &PublicKey{x: x, y: y}, nil
}

// Equal reports whether two public keys are the same point.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	return pk.x.Cmp(other.x) == 0 && pk.y.Cmp(other.y) == 0
}

// Bytes returns the fixed-width big-endian scalar encoding of sk.
func (sk *SecretKey) Bytes() []byte {
	return sk.d.FillBytes(make([]byte, scalarSize))
}

// ParseSecretKey decodes a secret key previously encoded with Bytes.
func ParseSecretKey(data []byte) (*SecretKey, error) {
	if len(data) != scalarSize {
		return nil, errors.New("pre: invalid secret key length")
	}
	d := new(big.Int).SetBytes(data)
	if d.Sign() == 0 || d.Cmp(curve.Params().N) >= 0 {
		return nil, errors.New("pre: secret key out of range")
	}
	return &SecretKey{d: d}, nil
}

// Bytes returns the compressed-point encoding of the capsule.
func (c *Capsule) Bytes() []byte {
	return elliptic.MarshalCompressed(curve, c.ex, c.ey)
}

// ParseCapsule decodes a capsule previously encoded with Bytes.
func ParseCapsule(data []byte) (*Capsule, error) {
	x, y := elliptic.UnmarshalCompressed(curve, data)
	if x == nil {
		return nil, errors.New("pre: invalid capsule encoding")
	}
	return &Capsule{ex: x, ey: y}, nil
}

// Bytes encodes the capsule fragment as fixed-width point and scalar fields
// followed by the variable-length kfrag signature.
func (cf *CapsuleFragment) Bytes() []byte {
	out := make([]byte, 0, 5*pointSize+scalarSize+len(cf.sig))
	out = append(out, pointBytes(cf.e1x, cf.e1y)...)
	out = append(out, pointBytes(cf.xax, cf.xay)...)
	out = append(out, pointBytes(cf.ux, cf.uy)...)
	out = append(out, pointBytes(cf.t1x, cf.t1y)...)
	out = append(out, pointBytes(cf.t2x, cf.t2y)...)
	out = append(out, cf.s.FillBytes(make([]byte, scalarSize))...)
	out = append(out, cf.sig...)
	return out
}

// ParseCapsuleFragment decodes a capsule fragment previously encoded with
// Bytes.
func ParseCapsuleFragment(data []byte) (*CapsuleFragment, error) {
	if len(data) <= 5*pointSize+scalarSize {
		return nil, errors.New("pre: capsule fragment too short")
	}

	points := make([][2]*big.Int, 5)
	for i := range points {
		x, y := elliptic.UnmarshalCompressed(curve, data[i*pointSize:(i+1)*pointSize])
		if x == nil {
			return nil, errors.New("pre: invalid capsule fragment point")
		}
		points[i] = [2]*big.Int{x, y}
	}

	off := 5 * pointSize
	s := new(big.Int).SetBytes(data[off : off+scalarSize])
	sig := make([]byte, len(data)-off-scalarSize)
	copy(sig, data[off+scalarSize:])

	return &CapsuleFragment{
		e1x: points[0][0], e1y: points[0][1],
		xax: points[1][0], xay: points[1][1],
		ux: points[2][0], uy: points[2][1],
		t1x: points[3][0], t1y: points[3][1],
		t2x: points[4][0], t2y: points[4][1],
		s:   s,
		sig: sig,
	}, nil
}

func (sk *SecretKey) ecdsaKey() *ecdsa.PrivateKey {
	pk := sk.PublicKey()
	return &ecdsa.PrivateKey{
		PublicKey: *pk.ecdsaKey(),
		D:         new(big.Int).Set(sk.d),
	}
}

func (pk *PublicKey) ecdsaKey() *ecdsa.PublicKey {
	return &ecdsa.PublicKey{Curve: curve, X: pk.x, Y: pk.y}
}
