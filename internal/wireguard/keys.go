// Package wireguard provides the cryptographic and textual primitives for
// WARP client profiles: Curve25519 key pair generation and WireGuard
// configuration rendering. The package produces text artifacts only and
// never touches a live WireGuard interface.
package wireguard

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

var (
	// ErrKeyGeneration is returned when the system entropy source or the
	// scalar multiplication fails while creating a key pair.
	ErrKeyGeneration = errors.New("failed to generate key pair")
	// ErrInvalidKey is returned when a base64 key string cannot be decoded
	// into the 32 bytes WireGuard expects.
	ErrInvalidKey = errors.New("invalid key")
)

// KeyPair represents a WireGuard cryptographic key pair.
// It contains both the private and public keys in base64-encoded format,
// as required by the WireGuard configuration file format. The public key
// also serves as the device identifier submitted to the WARP registration
// service, which derives all per-device state from it.
type KeyPair struct {
	PrivateKey string // Base64-encoded private key (32 bytes)
	PublicKey  string // Base64-encoded public key (32 bytes)
}

// GenerateKeyPair creates a new cryptographically secure WireGuard key pair.
// It reads 32 bytes from the system's cryptographically secure random number
// generator, clamps them into a valid Curve25519 scalar, and derives the
// corresponding public key. Both keys are encoded in base64 format for
// compatibility with WireGuard configuration files.
// Returns a KeyPair pointer or ErrKeyGeneration if either step fails.
func GenerateKeyPair() (*KeyPair, error) {
	var private [32]byte
	if _, err := rand.Read(private[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}

	// Clamp per RFC 7748 so the bytes form a valid Curve25519 scalar.
	private[0] &= 248
	private[31] &= 127
	private[31] |= 64

	public, err := curve25519.X25519(private[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}

	return &KeyPair{
		PrivateKey: base64.StdEncoding.EncodeToString(private[:]),
		PublicKey:  base64.StdEncoding.EncodeToString(public),
	}, nil
}

// PublicKeyFromPrivate derives the base64-encoded public key for an existing
// base64-encoded private key. The relationship between the two halves of a
// KeyPair is exactly this derivation, so the function doubles as a validity
// check for stored private keys.
func PublicKeyFromPrivate(privateKey string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(decoded) != 32 {
		return "", fmt.Errorf("%w: got %d bytes, want 32", ErrInvalidKey, len(decoded))
	}

	public, err := curve25519.X25519(decoded, curve25519.Basepoint)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return base64.StdEncoding.EncodeToString(public), nil
}

// PrivateKeyBytes decodes the base64-encoded private key and returns it as a
// byte array. This is useful when the raw key bytes are needed, such as when
// re-deriving the public key or zeroing key material after use.
// Returns a 32-byte array containing the private key or ErrInvalidKey.
func (kp *KeyPair) PrivateKeyBytes() ([32]byte, error) {
	return keyBytes(kp.PrivateKey)
}

// PublicKeyBytes decodes the base64-encoded public key and returns it as a
// byte array.
// Returns a 32-byte array containing the public key or ErrInvalidKey.
func (kp *KeyPair) PublicKeyBytes() ([32]byte, error) {
	return keyBytes(kp.PublicKey)
}

func keyBytes(encoded string) ([32]byte, error) {
	var key [32]byte
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return key, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(decoded) != 32 {
		return key, fmt.Errorf("%w: got %d bytes, want 32", ErrInvalidKey, len(decoded))
	}
	copy(key[:], decoded)
	return key, nil
}
