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
	"encoding/base64"
	"testing"
)

func TestHashPassword(t *testing.T) {
	record, err := HashPassword("Correct-Horse-1!", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	salt, err := base64.StdEncoding.DecodeString(record.Salt)
	if err != nil {
		t.Fatalf("Salt is not valid base64: %v", err)
	}
	if len(salt) != SaltSize {
		t.Errorf("Expected %d byte salt but got %d", SaltSize, len(salt))
	}

	hash, err := base64.StdEncoding.DecodeString(record.Hash)
	if err != nil {
		t.Fatalf("Hash is not valid base64: %v", err)
	}
	if len(hash) != HashSize {
		t.Errorf("Expected %d byte hash but got %d", HashSize, len(hash))
	}

	// Fresh salt each call, so records never repeat.
	second, err := HashPassword("Correct-Horse-1!", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if second.Salt == record.Salt || second.Hash == record.Hash {
		t.Error("Expected a fresh salt per hash call")
	}
}

func TestHashPasswordFixedSalt(t *testing.T) {
	salt := []byte("0123456789abcdef")

	first, err := HashPassword("Correct-Horse-1!", salt)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := HashPassword("Correct-Horse-1!", salt)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if first.Hash != second.Hash {
		t.Error("Expected identical hashes for identical password and salt")
	}
}

func TestVerifyPassword(t *testing.T) {
	record, err := HashPassword("Correct-Horse-1!", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		salt     string
		expected bool
		wantErr  bool
	}{
		{
			name:     "Correct password",
			password: "Correct-Horse-1!",
			hash:     record.Hash,
			salt:     record.Salt,
			expected: true,
		},
		{
			name:     "Wrong password",
			password: "Wrong-Horse-1!",
			hash:     record.Hash,
			salt:     record.Salt,
			expected: false,
		},
		{
			name:     "Corrupt stored salt",
			password: "Correct-Horse-1!",
			hash:     record.Hash,
			salt:     "***",
			wantErr:  true,
		},
		{
			name:     "Corrupt stored hash",
			password: "Correct-Horse-1!",
			hash:     "***",
			salt:     record.Salt,
			wantErr:  true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ok, err := VerifyPassword(test.password, test.hash, test.salt)
			if test.wantErr {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if ok != test.expected {
				t.Errorf("Expected %v but got %v", test.expected, ok)
			}
		})
	}
}

func TestValidateStrength(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		valid      bool
		violations int
	}{
		{name: "Strong password", password: "Str0ng-Enough!", valid: true},
		{name: "Too short but otherwise complete", password: "Ab1!", violations: 1},
		{name: "Missing uppercase", password: "weak-pass-1!", violations: 1},
		{name: "Missing special", password: "WeakPass123", violations: 1},
		{name: "Empty reports every rule", password: "", violations: 5},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := ValidateStrength(test.password)
			if result.IsValid != test.valid {
				t.Errorf("Expected valid=%v but got %v (%v)", test.valid, result.IsValid, result.Errors)
			}
			if len(result.Errors) != test.violations {
				t.Errorf("Expected %d violations but got %d: %v", test.violations, len(result.Errors), result.Errors)
			}
		})
	}
}
