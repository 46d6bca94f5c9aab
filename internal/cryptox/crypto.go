// Package cryptox implements the credential vault that keeps the WebDAV
// password encrypted at rest.
//
// Every call to Encrypt derives a fresh key with PBKDF2-HMAC-SHA256 from a
// fixed application label and a new random salt, then seals the secret with
// AES-256-GCM under a new random nonce. The salt and nonce are stored in
// front of the ciphertext so each blob carries what is needed to open it:
//
//	salt (16 bytes) || nonce (12 bytes) || ciphertext || tag (16 bytes)
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"

	"github.com/dmitrijs2005/davmarks/internal/common"
)

const (
	SaltSize   = 16
	NonceSize  = 12
	KeySize    = 32
	Iterations = 100_000

	// MinBlobSize is the shortest blob Decrypt will look at.
	MinBlobSize = SaltSize + NonceSize

	// MinPasswordLength is counted in characters, not bytes.
	MinPasswordLength = 8
)

// Vault encrypts and decrypts short secrets. It holds no key material; the
// key is re-derived from the label and the per-blob salt on every call.
type Vault struct {
	label      []byte
	iterations int
}

// NewVault returns a vault keyed by label using the standard iteration count.
func NewVault(label string) *Vault {
	return &Vault{label: []byte(label), iterations: Iterations}
}

// DeriveKey stretches the vault label with salt into an AES-256 key.
func (v *Vault) DeriveKey(salt []byte) []byte {
	return pbkdf2.Key(v.label, salt, v.iterations, KeySize, sha256.New)
}

// Encrypt seals secret and returns salt || nonce || ciphertext+tag.
func (v *Vault) Encrypt(secret string) ([]byte, error) {
	salt := common.GenerateRandByteArray(SaltSize)
	nonce := common.GenerateRandByteArray(NonceSize)

	key := v.DeriveKey(salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	blob := make([]byte, 0, SaltSize+NonceSize+len(secret)+aesgcm.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	return aesgcm.Seal(blob, nonce, []byte(secret), nil), nil
}

// Decrypt opens a blob produced by Encrypt. Truncated or tampered input and
// blobs sealed under a different label fail with common.ErrDecryption.
func (v *Vault) Decrypt(blob []byte) (string, error) {
	if len(blob) < MinBlobSize {
		return "", fmt.Errorf("%w: blob is %d bytes, need at least %d", common.ErrDecryption, len(blob), MinBlobSize)
	}

	salt := blob[:SaltSize]
	nonce := blob[SaltSize:MinBlobSize]
	ciphertext := blob[MinBlobSize:]

	key := v.DeriveKey(salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// ValidatePassword rejects secrets shorter than MinPasswordLength.
func ValidatePassword(secret string) error {
	if n := utf8.RuneCountInString(secret); n < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters, got %d", common.ErrValidation, MinPasswordLength, n)
	}
	return nil
}
