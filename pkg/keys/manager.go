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

// Package keys owns the site encryption key for the lifetime of a session.
// The key lives in a memguard enclave while the process runs and in a
// session-scoped mirror file so restarts within the same login session do
// not need another remote fetch.
package keys

import (
	"context"
	"sync"

	"github.com/awnumar/memguard"
	"github.com/kiprotek/kipvault/pkg/crypto"
	"github.com/kiprotek/kipvault/pkg/store"
	"github.com/kiprotek/kipvault/pkg/types"
)

type Manager struct {
	mu      sync.Mutex
	enclave *memguard.Enclave
	version string
}

// NewManager creates a manager for the given key version. An empty version
// selects the current default.
func NewManager(version string) *Manager {
	if version == "" {
		version = types.DefaultKeyVersion
	}
	return &Manager{version: version}
}

func (m *Manager) Version() string {
	return m.version
}

// Set validates and takes ownership of a base64 key, mirroring it into the
// session file.
func (m *Manager) Set(encoded string) error {
	raw, err := crypto.DecodeKey(encoded)
	if err != nil {
		return err
	}

	m.mu.Lock()
	// NewEnclave wipes raw as a side effect.
	m.enclave = memguard.NewEnclave(raw)
	m.mu.Unlock()

	return writeSession(m.version, encoded)
}

// Generate creates a fresh key and installs it, returning the base64 form
// for persistence.
func (m *Manager) Generate() (string, error) {
	encoded, err := crypto.GenerateKey()
	if err != nil {
		return "", err
	}
	if err = m.Set(encoded); err != nil {
		return "", err
	}
	return encoded, nil
}

// Key returns the raw 32 byte key. Resolution order is in-memory enclave,
// then session mirror. There is no fallback key: absence is
// KeyUnavailableError, never a default.
func (m *Manager) Key() ([]byte, error) {
	m.mu.Lock()
	enclave := m.enclave
	m.mu.Unlock()

	if enclave != nil {
		buf, err := enclave.Open()
		if err != nil {
			return nil, err
		}
		defer buf.Destroy()
		key := make([]byte, len(buf.Bytes()))
		copy(key, buf.Bytes())
		return key, nil
	}

	encoded, err := readSession(m.version)
	if err != nil || encoded == "" {
		return nil, types.KeyUnavailableError{}
	}
	if err = m.Set(encoded); err != nil {
		return nil, err
	}
	return m.Key()
}

// Get returns the key in its base64 transport form.
func (m *Manager) Get() (string, error) {
	key, err := m.Key()
	if err != nil {
		return "", err
	}
	return crypto.EncodeKey(key), nil
}

// Clear drops the in-memory key and removes the session mirror. Safe to
// call when no key is held.
func (m *Manager) Clear() error {
	m.mu.Lock()
	m.enclave = nil
	m.mu.Unlock()
	return removeSession(m.version)
}

// FetchRemote pulls the site key out of the settings row. Only admin and
// super-admin viewers may load the key; anyone else gets
// KeyUnavailableError without a store round trip.
func (m *Manager) FetchRemote(ctx context.Context, client *store.Client, viewer types.Viewer) error {
	if !viewer.Admin() {
		return types.KeyUnavailableError{}
	}

	encoded, err := client.EncryptionKey(ctx)
	if err != nil {
		return err
	}
	if encoded == "" {
		return types.KeyUnavailableError{}
	}
	return m.Set(encoded)
}
