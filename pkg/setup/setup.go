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

// Package setup drives one-time site provisioning. Steps run strictly
// forward and every remote write is single shot: a failure leaves the
// machine exactly where it was and the operator decides whether to run the
// step again.
package setup

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kiprotek/kipvault/pkg/crypto"
	"github.com/kiprotek/kipvault/pkg/fields"
	"github.com/kiprotek/kipvault/pkg/keys"
	"github.com/kiprotek/kipvault/pkg/store"
	"github.com/kiprotek/kipvault/pkg/types"
)

type State int

const (
	NotStarted State = iota
	ConnectionVerified
	KeyEstablished
	AdminCreated
	SettingsSaved
	Complete
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case ConnectionVerified:
		return "connection verified"
	case KeyEstablished:
		return "key established"
	case AdminCreated:
		return "admin created"
	case SettingsSaved:
		return "settings saved"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Machine struct {
	store *store.Client
	keys  *keys.Manager
	state State
}

func NewMachine(client *store.Client, km *keys.Manager) *Machine {
	return &Machine{store: client, keys: km}
}

func (m *Machine) State() State {
	return m.state
}

// require guards step ordering. A completed site short-circuits instead of
// erroring so re-running setup is harmless.
func (m *Machine) require(s State) error {
	if m.state == Complete {
		return nil
	}
	if m.state != s {
		return fmt.Errorf("setup is at %q, not %q", m.state, s)
	}
	return nil
}

// VerifyConnection probes the remote store. Nothing is written.
func (m *Machine) VerifyConnection(ctx context.Context) error {
	if err := m.require(NotStarted); err != nil || m.state == Complete {
		return err
	}
	if err := m.store.Ping(ctx); err != nil {
		return err
	}
	m.state = ConnectionVerified
	return nil
}

// EstablishKey generates the site key and persists it remotely, returning
// the base64 form for the operator's backup. If the remote write fails the
// generated key is discarded entirely; a retry produces a fresh one.
func (m *Machine) EstablishKey(ctx context.Context) (string, error) {
	if err := m.require(ConnectionVerified); err != nil || m.state == Complete {
		return "", err
	}

	encoded, err := m.keys.Generate()
	if err != nil {
		return "", err
	}
	if err = m.store.SaveEncryptionKey(ctx, encoded); err != nil {
		// Never keep a key the store does not hold.
		if cerr := m.keys.Clear(); cerr != nil {
			return "", fmt.Errorf("%w (and clearing the local key failed: %v)", err, cerr)
		}
		return "", err
	}

	m.state = KeyEstablished
	return encoded, nil
}

// CreateAdmin provisions the one super-admin account. The password must
// pass every strength rule; only its hash and salt are stored.
func (m *Machine) CreateAdmin(ctx context.Context, name, email, password string) error {
	if err := m.require(KeyEstablished); err != nil || m.state == Complete {
		return err
	}

	if strength := crypto.ValidateStrength(password); !strength.IsValid {
		return types.ValidationError{Violations: strength.Errors}
	}

	record, err := crypto.HashPassword(password, nil)
	if err != nil {
		return err
	}

	profile := types.Profile{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: record.Hash,
		PasswordSalt: record.Salt,
		Role:         types.RoleAdmin,
		IsSuperAdmin: true,
		IsActive:     true,
		IsVerified:   true,
	}
	if _, err = m.store.CreateProfile(ctx, profile); err != nil {
		return err
	}

	m.state = AdminCreated
	return nil
}

// SaveSettings writes site metadata and SMTP credentials. The SMTP password
// goes through the encrypted field path like any other sensitive value.
func (m *Machine) SaveSettings(ctx context.Context, settings types.Settings) error {
	if err := m.require(AdminCreated); err != nil || m.state == Complete {
		return err
	}

	if err := fields.EncryptSettings(m.keys, &settings); err != nil {
		return err
	}
	if err := m.store.UpsertSettings(ctx, settings); err != nil {
		return err
	}

	m.state = SettingsSaved
	return nil
}

// Finalize marks the site operational.
func (m *Machine) Finalize(ctx context.Context) error {
	if err := m.require(SettingsSaved); err != nil || m.state == Complete {
		return err
	}
	if err := m.store.SetSetupComplete(ctx); err != nil {
		return err
	}
	m.state = Complete
	return nil
}

// Resume derives the machine state from the remote rows so an interrupted
// setup continues from the last completed step. Remote progress only ever
// moves forward, so the derivation is unambiguous.
func (m *Machine) Resume(ctx context.Context) error {
	m.state = NotStarted

	if err := m.store.Ping(ctx); err != nil {
		return err
	}
	m.state = ConnectionVerified

	settings, err := m.store.GetSettings(ctx)
	if err != nil {
		return err
	}
	if settings.SetupComplete {
		m.state = Complete
		return nil
	}
	if settings.SiteName != "" || settings.SMTPHost != "" {
		m.state = SettingsSaved
		return nil
	}

	hasAdmin, err := m.store.HasSuperAdmin(ctx)
	if err != nil {
		return err
	}
	if hasAdmin {
		m.state = AdminCreated
		return nil
	}

	if settings.XSecret != "" {
		m.state = KeyEstablished
	}
	return nil
}
