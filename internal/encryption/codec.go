// Package encryption implements the credential blob codec: AES-256-CBC with
// a SHA-256-derived key and a fixed all-zero IV.
//
// The zero IV is a protocol constant, not a bug: external credential
// producers encrypt without transmitting an IV, and the relay must stay
// bit-compatible with them. It trades semantic security for identical
// plaintexts against stateless, IV-less interoperability.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDecryption is the single error kind reported for any decrypt failure.
// Callers must not disclose which stage failed; the wrapped detail exists
// for debug logs only.
var ErrDecryption = errors.New("decryption failed")

// fixedIV is the protocol-mandated initialization vector.
var fixedIV = make([]byte, aes.BlockSize)

// deriveKey turns the configured secret string into a 256-bit AES key.
func deriveKey(key string) []byte {
	sum := sha256.Sum256([]byte(key))
	return sum[:]
}

// Encrypt serializes v as JSON and encrypts it with AES-256-CBC under the
// derived key and the fixed IV, returning base64-encoded ciphertext.
// The output is deterministic: the same v and key always produce the same
// blob (fixed-IV property).
func Encrypt(v interface{}, key string) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to serialize value: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(key))
	if err != nil {
		return "", fmt.Errorf("failed to create AES cipher: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, fixedIV).CryptBlocks(ciphertext, padded)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt: base64-decode, AES-256-CBC decrypt with the
// fixed IV, strip padding, and verify the plaintext is JSON. Every failure
// is reported as ErrDecryption so callers cannot tell the stages apart.
// The returned bytes are the decrypted JSON document.
func Decrypt(blob string, key string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 payload", ErrDecryption)
	}

	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not block-aligned", ErrDecryption)
	}

	block, err := aes.NewCipher(deriveKey(key))
	if err != nil {
		return nil, fmt.Errorf("%w: cipher init", ErrDecryption)
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, fixedIV).CryptBlocks(padded, ciphertext)

	plaintext, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid padding", ErrDecryption)
	}

	if !json.Valid(plaintext) {
		return nil, fmt.Errorf("%w: plaintext is not JSON", ErrDecryption)
	}

	return plaintext, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("data is not block-aligned")
	}

	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, errors.New("invalid padding length")
	}

	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, errors.New("inconsistent padding bytes")
		}
	}

	return data[:len(data)-padding], nil
}
