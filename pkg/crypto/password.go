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
	"bytes"
	cryptorand "crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/kiprotek/kipvault/pkg/types"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// HashIterations matches every password hash already in the profiles
	// table. Changing it invalidates stored credentials.
	HashIterations = 100000

	HashSize = 32
	SaltSize = 16

	MinPasswordLength = 8
)

const specialRunes = `!@#$%^&*(),.?":{}|<>`

// HashPassword derives a PBKDF2-SHA256 record from password. A nil salt
// means generate a fresh random one; an explicit salt re-derives for
// verification.
func HashPassword(password string, salt []byte) (types.PasswordRecord, error) {
	var record types.PasswordRecord
	if salt == nil {
		salt = make([]byte, SaltSize)
		if _, err := io.ReadFull(cryptorand.Reader, salt); err != nil {
			return record, fmt.Errorf("generate salt: %w", err)
		}
	}

	hash := pbkdf2.Key([]byte(password), salt, HashIterations, HashSize, sha256.New)
	record.Hash = base64.StdEncoding.EncodeToString(hash)
	record.Salt = base64.StdEncoding.EncodeToString(salt)
	return record, nil
}

// VerifyPassword re-derives the hash for password under the stored salt and
// compares the full byte sequences.
func VerifyPassword(password, hashB64, saltB64 string) (bool, error) {
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return false, fmt.Errorf("stored salt is not valid base64: %w", err)
	}
	stored, err := base64.StdEncoding.DecodeString(hashB64)
	if err != nil {
		return false, fmt.Errorf("stored hash is not valid base64: %w", err)
	}

	derived := pbkdf2.Key([]byte(password), salt, HashIterations, HashSize, sha256.New)
	return bytes.Equal(derived, stored), nil
}

// ValidateStrength checks password against every rule and reports all
// violations, not just the first.
func ValidateStrength(password string) types.StrengthResult {
	var (
		result                                   types.StrengthResult
		hasUpper, hasLower, hasDigit, hasSpecial bool
	)

	if len(password) < MinPasswordLength {
		result.Errors = append(result.Errors,
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialRunes, r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		result.Errors = append(result.Errors, "password must contain an uppercase letter")
	}
	if !hasLower {
		result.Errors = append(result.Errors, "password must contain a lowercase letter")
	}
	if !hasDigit {
		result.Errors = append(result.Errors, "password must contain a digit")
	}
	if !hasSpecial {
		result.Errors = append(result.Errors, "password must contain a special character")
	}

	result.IsValid = len(result.Errors) == 0
	return result
}
