/*
 *   Copyright 2025 KiProTek <info@kiprotek.com>
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	cryptorand "crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/kiprotek/kipvault/pkg/types"
)

const (
	// KeySize is the AES-256 key length. No other length is accepted.
	KeySize = 32

	// NonceSize is the GCM nonce length used by every envelope, old and new.
	NonceSize = 12
)

// randReader is swapped out by tests that need deterministic nonces.
var randReader io.Reader = cryptorand.Reader

// GenerateKey returns a fresh 32 byte key from the platform CSPRNG,
// base64 encoded for transport and storage.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(randReader, key); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Encrypt seals plaintext under key with AES-256-GCM and a fresh nonce,
// producing an envelope tagged with keyVersion. Encrypting the same
// plaintext twice never yields the same envelope.
func Encrypt(plaintext string, key []byte, keyVersion string) (types.Envelope, error) {
	var e types.Envelope
	if len(key) == 0 {
		return e, types.KeyUnavailableError{}
	}
	if len(key) != KeySize {
		return e, types.DecryptionError{Reason: fmt.Sprintf("key must be %d bytes, have %d", KeySize, len(key))}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return e, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return e, err
	}

	e.Format = types.FormatVersioned
	e.Version = keyVersion
	e.IV = make([]byte, NonceSize)
	if _, err := io.ReadFull(randReader, e.IV); err != nil {
		return types.Envelope{}, err
	}
	e.CT = gcm.Seal(nil, e.IV, []byte(plaintext), nil)

	return e, nil
}

// Decrypt opens an envelope under key. Tag verification failure, a bad
// nonce, and a wrong key length all surface as DecryptionError; a missing
// key is KeyUnavailableError. Decryption never partially succeeds.
func Decrypt(e types.Envelope, key []byte) (string, error) {
	if len(key) == 0 {
		return "", types.KeyUnavailableError{}
	}
	if len(key) != KeySize {
		return "", types.DecryptionError{Reason: fmt.Sprintf("key must be %d bytes, have %d", KeySize, len(key))}
	}
	if e.IsZero() {
		return "", nil
	}
	// gcm.Open panics on a wrong-size nonce, so reject it here.
	if len(e.IV) != NonceSize {
		return "", types.DecryptionError{Reason: fmt.Sprintf("nonce must be %d bytes, have %d", NonceSize, len(e.IV))}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, e.IV, e.CT, nil)
	if err != nil {
		return "", types.DecryptionError{Reason: "authentication failed"}
	}
	return string(plaintext), nil
}

// EncodeKey renders a raw key in its base64 transport form.
func EncodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// DecodeKey parses a base64 key as produced by GenerateKey.
func DecodeKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, types.DecryptionError{Reason: "key is not valid base64"}
	}
	if len(key) != KeySize {
		return nil, types.DecryptionError{Reason: fmt.Sprintf("key must be %d bytes, have %d", KeySize, len(key))}
	}
	return key, nil
}
