// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides steward's local persistence.
//
// The bearer credential never touches disk in the clear. It is sealed
// with AES-256-GCM under a key derived from a machine-local secret file,
// so a copied session record is useless without the secret beside it.
package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"
)

const (
	secretFileName = "credential.key"

	// pbkdf2Iterations stretches the machine secret into the sealing key.
	pbkdf2Iterations = 100_000

	keySize   = 32
	saltSize  = 16
	secretLen = 32
)

// errSealedCorrupt marks a sealed credential that cannot be opened.
// Callers treat it as record absence, never as a fatal error.
var errSealedCorrupt = errors.New("store: sealed credential is corrupt")

// credentialBox seals and opens bearer credentials using a machine-local
// secret.
type credentialBox struct {
	secret []byte
}

// openCredentialBox loads the machine secret from dir, creating it with
// owner-only permissions on first use.
func openCredentialBox(dir string) (*credentialBox, error) {
	path := filepath.Join(dir, secretFileName)

	secret, err := os.ReadFile(path)
	if err == nil && len(secret) == secretLen {
		return &credentialBox{secret: secret}, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read credential key: %w", err)
	}

	secret = make([]byte, secretLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate credential key: %w", err)
	}
	if err := writeFileAtomic(path, secret, 0600); err != nil {
		return nil, fmt.Errorf("failed to write credential key: %w", err)
	}
	return &credentialBox{secret: secret}, nil
}

// seal encrypts a credential. Output layout: base64(salt || nonce || ct).
func (b *credentialBox) seal(credential string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := b.cipherFor(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(credential), nil)

	blob := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// open decrypts a sealed credential. Any malformed input returns
// errSealedCorrupt.
func (b *credentialBox) open(sealed string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(blob) < saltSize {
		return "", errSealedCorrupt
	}

	salt, rest := blob[:saltSize], blob[saltSize:]
	gcm, err := b.cipherFor(salt)
	if err != nil {
		return "", err
	}
	if len(rest) < gcm.NonceSize() {
		return "", errSealedCorrupt
	}

	nonce, ct := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", errSealedCorrupt
	}
	return string(plaintext), nil
}

// cipherFor derives the AES-GCM cipher for a given salt.
func (b *credentialBox) cipherFor(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(b.secret, salt, pbkdf2Iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
