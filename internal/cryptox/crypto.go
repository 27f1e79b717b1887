// Package cryptox provides the symmetric sealing primitives used for
// record payloads: AES-256-GCM with a random nonce prepended to the
// ciphertext.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
)

// NonceSize is the GCM nonce length prepended to every sealed payload.
const NonceSize = 12

// Seal encrypts plaintext with AES-GCM under key.
//
// The key must be a valid AES key length (16, 24, or 32 bytes for AES-128,
// AES-192, or AES-256 respectively). A new random nonce is generated for
// each call and prepended to the returned ciphertext, so sealing the same
// plaintext twice never yields the same bytes.
func Seal(key, plaintext []byte) ([]byte, error) {

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return append(nonce, aesgcm.Seal(nil, nonce, plaintext, nil)...), nil
}

// Open decrypts a payload produced by Seal. The key must match the one
// used for sealing; any modification of the ciphertext, including its
// nonce prefix, fails authentication.
func Open(key, sealed []byte) ([]byte, error) {

	if len(sealed) < NonceSize {
		return nil, errors.New("sealed payload too short")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return aesgcm.Open(nil, sealed[:NonceSize], sealed[NonceSize:], nil)
}
