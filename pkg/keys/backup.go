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
package keys

import (
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// Backup writes the current key to path as an armored, passphrase-protected
// OpenPGP message. Losing the site key makes every encrypted field
// unreadable, so setup offers this as a recovery artefact.
func (m *Manager) Backup(path, passphrase string) error {
	encoded, err := m.Get()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	defer f.Close()

	armored, err := armor.Encode(f, "PGP MESSAGE", nil)
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}

	plaintext, err := openpgp.SymmetricallyEncrypt(armored, []byte(passphrase), nil, nil)
	if err != nil {
		armored.Close()
		return fmt.Errorf("backup: %w", err)
	}
	if _, err = plaintext.Write([]byte(encoded)); err != nil {
		plaintext.Close()
		armored.Close()
		return fmt.Errorf("backup: %w", err)
	}
	if err = plaintext.Close(); err != nil {
		armored.Close()
		return fmt.Errorf("backup: %w", err)
	}
	return armored.Close()
}

// Restore reads an armored backup produced by Backup and installs the
// recovered key.
func (m *Manager) Restore(path, passphrase string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	defer f.Close()

	block, err := armor.Decode(f)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	attempted := false
	prompt := func(keys []openpgp.Key, symmetric bool) ([]byte, error) {
		if attempted {
			return nil, fmt.Errorf("incorrect passphrase")
		}
		attempted = true
		return []byte(passphrase), nil
	}

	md, err := openpgp.ReadMessage(block.Body, nil, prompt, nil)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	encoded, err := io.ReadAll(md.UnverifiedBody)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	return m.Set(string(encoded))
}
