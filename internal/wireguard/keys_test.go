package wireguard

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/curve25519"
)

func TestGenerateKeyPair(t *testing.T) {
	t.Run("should generate valid key pair", func(t *testing.T) {
		keyPair, err := GenerateKeyPair()
		require.NoError(t, err)
		require.NotNil(t, keyPair)

		assert.NotEmpty(t, keyPair.PrivateKey)
		assert.NotEmpty(t, keyPair.PublicKey)
		assert.NotEqual(t, keyPair.PrivateKey, keyPair.PublicKey)
	})

	t.Run("should generate valid base64 encoded keys", func(t *testing.T) {
		keyPair, err := GenerateKeyPair()
		require.NoError(t, err)

		_, err = base64.StdEncoding.DecodeString(keyPair.PrivateKey)
		assert.NoError(t, err, "Private key should be valid base64")

		_, err = base64.StdEncoding.DecodeString(keyPair.PublicKey)
		assert.NoError(t, err, "Public key should be valid base64")
	})

	t.Run("should generate 32-byte keys", func(t *testing.T) {
		keyPair, err := GenerateKeyPair()
		require.NoError(t, err)

		privateBytes, err := base64.StdEncoding.DecodeString(keyPair.PrivateKey)
		require.NoError(t, err)
		assert.Len(t, privateBytes, 32, "Private key should be 32 bytes")

		publicBytes, err := base64.StdEncoding.DecodeString(keyPair.PublicKey)
		require.NoError(t, err)
		assert.Len(t, publicBytes, 32, "Public key should be 32 bytes")
	})

	t.Run("should clamp the private key", func(t *testing.T) {
		keyPair, err := GenerateKeyPair()
		require.NoError(t, err)

		private, err := keyPair.PrivateKeyBytes()
		require.NoError(t, err)

		assert.EqualValues(t, 0, private[0]&7, "low three bits should be cleared")
		assert.EqualValues(t, 0, private[31]&128, "top bit should be cleared")
		assert.EqualValues(t, 64, private[31]&64, "bit 254 should be set")
	})

	t.Run("should derive public key from private key", func(t *testing.T) {
		keyPair, err := GenerateKeyPair()
		require.NoError(t, err)

		private, err := keyPair.PrivateKeyBytes()
		require.NoError(t, err)

		derived, err := curve25519.X25519(private[:], curve25519.Basepoint)
		require.NoError(t, err)

		assert.Equal(t, base64.StdEncoding.EncodeToString(derived), keyPair.PublicKey)
	})

	t.Run("should generate unique key pairs", func(t *testing.T) {
		keyPair1, err := GenerateKeyPair()
		require.NoError(t, err)

		keyPair2, err := GenerateKeyPair()
		require.NoError(t, err)

		assert.NotEqual(t, keyPair1.PrivateKey, keyPair2.PrivateKey)
		assert.NotEqual(t, keyPair1.PublicKey, keyPair2.PublicKey)
	})
}

func TestPublicKeyFromPrivate(t *testing.T) {
	t.Run("should match the generated public key", func(t *testing.T) {
		keyPair, err := GenerateKeyPair()
		require.NoError(t, err)

		public, err := PublicKeyFromPrivate(keyPair.PrivateKey)
		require.NoError(t, err)

		assert.Equal(t, keyPair.PublicKey, public)
	})

	t.Run("should reject invalid base64", func(t *testing.T) {
		_, err := PublicKeyFromPrivate("not-base64!@#")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("should reject keys that are not 32 bytes", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString([]byte("too short"))

		_, err := PublicKeyFromPrivate(short)
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

func TestKeyPair_PrivateKeyBytes(t *testing.T) {
	t.Run("should return correct private key bytes", func(t *testing.T) {
		keyPair, err := GenerateKeyPair()
		require.NoError(t, err)

		bytes, err := keyPair.PrivateKeyBytes()
		require.NoError(t, err)

		expectedBytes, err := base64.StdEncoding.DecodeString(keyPair.PrivateKey)
		require.NoError(t, err)

		assert.Equal(t, expectedBytes, bytes[:])
	})

	t.Run("should handle invalid base64", func(t *testing.T) {
		keyPair := &KeyPair{PrivateKey: "invalid-base64!@#"}

		_, err := keyPair.PrivateKeyBytes()
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

func TestKeyPair_PublicKeyBytes(t *testing.T) {
	t.Run("should return correct public key bytes", func(t *testing.T) {
		keyPair, err := GenerateKeyPair()
		require.NoError(t, err)

		bytes, err := keyPair.PublicKeyBytes()
		require.NoError(t, err)

		expectedBytes, err := base64.StdEncoding.DecodeString(keyPair.PublicKey)
		require.NoError(t, err)

		assert.Equal(t, expectedBytes, bytes[:])
	})

	t.Run("should handle invalid base64", func(t *testing.T) {
		keyPair := &KeyPair{PublicKey: "invalid-base64!@#"}

		_, err := keyPair.PublicKeyBytes()
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}
