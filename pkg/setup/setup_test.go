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
package setup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/kiprotek/kipvault/pkg/keys"
	"github.com/kiprotek/kipvault/pkg/store"
	"github.com/kiprotek/kipvault/pkg/transport"
	"github.com/kiprotek/kipvault/pkg/types"
	"github.com/stretchr/testify/assert"
)

func setupSuite(t *testing.T) (*Machine, *transport.MockHttpClient, func(t *testing.T)) {
	oldSessionPath := keys.SessionPath
	dir := t.TempDir()
	keys.SessionPath = func(version string) (string, error) {
		return filepath.Join(dir, fmt.Sprintf("enc_key_%s", version)), nil
	}

	mock := &transport.MockHttpClient{}
	client := store.New("https://store.example.com", "anon", "service")
	client.SetTransport(mock)

	machine := NewMachine(client, keys.NewManager(""))
	return machine, mock, func(t *testing.T) {
		keys.SessionPath = oldSessionPath
	}
}

func respond(mock *transport.MockHttpClient, responses ...transport.MockHttpResponse) {
	mock.Responses = append(mock.Responses, responses...)
}

func TestFullWalkthrough(t *testing.T) {
	machine, mock, teardown := setupSuite(t)
	defer teardown(t)
	ctx := context.Background()

	assert.Equal(t, NotStarted, machine.State())

	respond(mock, transport.MockHttpResponse{Code: 200, Body: []byte(`[{"id":1}]`)})
	assert.NoError(t, machine.VerifyConnection(ctx))
	assert.Equal(t, ConnectionVerified, machine.State())

	respond(mock, transport.MockHttpResponse{Code: 201})
	encoded, err := machine.EstablishKey(ctx)
	assert.NoError(t, err)
	assert.NotEmpty(t, encoded)
	assert.Equal(t, KeyEstablished, machine.State())

	respond(mock, transport.MockHttpResponse{Code: 201, Body: []byte(`[]`)})
	assert.NoError(t, machine.CreateAdmin(ctx, "Site Admin", "admin@kiprotek.com", "Sup3r-Secret!"))
	assert.Equal(t, AdminCreated, machine.State())

	respond(mock, transport.MockHttpResponse{Code: 201})
	assert.NoError(t, machine.SaveSettings(ctx, types.Settings{
		SiteName: "KiProTek",
		SMTPHost: "smtp.example.com",
		SMTPPass: "smtp-secret",
	}))
	assert.Equal(t, SettingsSaved, machine.State())

	respond(mock, transport.MockHttpResponse{Code: 204})
	assert.NoError(t, machine.Finalize(ctx))
	assert.Equal(t, Complete, machine.State())

	// Re-running any step on a completed site is a no-op.
	assert.NoError(t, machine.VerifyConnection(ctx))
	_, err = machine.EstablishKey(ctx)
	assert.NoError(t, err)
	assert.Equal(t, Complete, machine.State())
}

func TestStepsRunStrictlyForward(t *testing.T) {
	machine, _, teardown := setupSuite(t)
	defer teardown(t)
	ctx := context.Background()

	if _, err := machine.EstablishKey(ctx); err == nil {
		t.Error("Expected error establishing key before verifying connection")
	}
	if err := machine.CreateAdmin(ctx, "a", "a@b.c", "Sup3r-Secret!"); err == nil {
		t.Error("Expected error creating admin before establishing key")
	}
	if err := machine.Finalize(ctx); err == nil {
		t.Error("Expected error finalizing before saving settings")
	}
	assert.Equal(t, NotStarted, machine.State())
}

func TestVerifyConnectionFailure(t *testing.T) {
	machine, mock, teardown := setupSuite(t)
	defer teardown(t)

	respond(mock, transport.MockHttpResponse{Code: 404, Body: []byte(`{}`)})
	err := machine.VerifyConnection(context.Background())

	var cerr types.ConnectivityError
	if !errors.As(err, &cerr) {
		t.Errorf("Expected ConnectivityError but got %v", err)
	}
	assert.Equal(t, NotStarted, machine.State())
}

func TestEstablishKeyDiscardsOnFailedWrite(t *testing.T) {
	machine, mock, teardown := setupSuite(t)
	defer teardown(t)
	ctx := context.Background()

	respond(mock, transport.MockHttpResponse{Code: 200, Body: []byte(`[{"id":1}]`)})
	assert.NoError(t, machine.VerifyConnection(ctx))

	respond(mock, transport.MockHttpResponse{Code: 400, Body: []byte(`{}`)})
	_, err := machine.EstablishKey(ctx)

	var perr types.PersistenceError
	if !errors.As(err, &perr) {
		t.Errorf("Expected PersistenceError but got %v", err)
	}
	assert.Equal(t, ConnectionVerified, machine.State())

	// The generated key must not survive the failed write.
	if _, err = machine.keys.Get(); err != (types.KeyUnavailableError{}) {
		t.Errorf("Expected KeyUnavailableError but got %v", err)
	}

	// Retry succeeds with a fresh key.
	respond(mock, transport.MockHttpResponse{Code: 201})
	encoded, err := machine.EstablishKey(ctx)
	assert.NoError(t, err)
	assert.NotEmpty(t, encoded)
	assert.Equal(t, KeyEstablished, machine.State())
}

func TestCreateAdminRejectsWeakPassword(t *testing.T) {
	machine, mock, teardown := setupSuite(t)
	defer teardown(t)
	ctx := context.Background()

	respond(mock,
		transport.MockHttpResponse{Code: 200, Body: []byte(`[{"id":1}]`)},
		transport.MockHttpResponse{Code: 201},
	)
	assert.NoError(t, machine.VerifyConnection(ctx))
	if _, err := machine.EstablishKey(ctx); err != nil {
		t.Fatal(err)
	}

	err := machine.CreateAdmin(ctx, "Site Admin", "admin@kiprotek.com", "weak")
	var verr types.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError but got %v", err)
	}
	if len(verr.Violations) == 0 {
		t.Error("Expected every violated rule to be reported")
	}
	assert.Equal(t, KeyEstablished, machine.State())
}

func TestResume(t *testing.T) {
	tests := []struct {
		name      string
		responses []transport.MockHttpResponse
		expected  State
		wantErr   bool
	}{
		{
			name: "Unreachable store",
			responses: []transport.MockHttpResponse{
				{Code: 404, Body: []byte(`{}`)},
			},
			expected: NotStarted,
			wantErr:  true,
		},
		{
			name: "Fresh site",
			responses: []transport.MockHttpResponse{
				{Code: 200, Body: []byte(`[{"id":1}]`)},
				{Code: 200, Body: []byte(`[]`)},
				{Code: 200, Body: []byte(`[]`)},
			},
			expected: ConnectionVerified,
		},
		{
			name: "Key established",
			responses: []transport.MockHttpResponse{
				{Code: 200, Body: []byte(`[{"id":1}]`)},
				{Code: 200, Body: []byte(`[{"id":1,"x_secret":"somekey","setup_complete":false}]`)},
				{Code: 200, Body: []byte(`[]`)},
			},
			expected: KeyEstablished,
		},
		{
			name: "Admin created",
			responses: []transport.MockHttpResponse{
				{Code: 200, Body: []byte(`[{"id":1}]`)},
				{Code: 200, Body: []byte(`[{"id":1,"x_secret":"somekey","setup_complete":false}]`)},
				{Code: 200, Body: []byte(`[{"id":"0b879135-cf4b-4b2b-8378-b4d6d1c1a80f"}]`)},
			},
			expected: AdminCreated,
		},
		{
			name: "Settings saved",
			responses: []transport.MockHttpResponse{
				{Code: 200, Body: []byte(`[{"id":1}]`)},
				{Code: 200, Body: []byte(`[{"id":1,"site_name":"KiProTek","x_secret":"somekey","setup_complete":false}]`)},
			},
			expected: SettingsSaved,
		},
		{
			name: "Complete",
			responses: []transport.MockHttpResponse{
				{Code: 200, Body: []byte(`[{"id":1}]`)},
				{Code: 200, Body: []byte(`[{"id":1,"site_name":"KiProTek","x_secret":"somekey","setup_complete":true}]`)},
			},
			expected: Complete,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			machine, mock, teardown := setupSuite(t)
			defer teardown(t)

			respond(mock, test.responses...)
			err := machine.Resume(context.Background())
			if test.wantErr && err == nil {
				t.Error("Expected error but got nil")
			}
			if !test.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			assert.Equal(t, test.expected, machine.State())
		})
	}
}
