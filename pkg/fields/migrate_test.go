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
package fields

import (
	"testing"

	"github.com/kiprotek/kipvault/pkg/crypto"
	"github.com/kiprotek/kipvault/pkg/types"
	"github.com/stretchr/testify/assert"
)

// legacyValue encrypts plaintext and rewrites the envelope into the old
// iv:ciphertext wire form.
func legacyValue(t *testing.T, plaintext string) string {
	t.Helper()
	envelope, err := crypto.Encrypt(plaintext, kp.key, kp.Version())
	assert.NoError(t, err)
	envelope.Format = types.FormatLegacy
	return envelope.String()
}

func TestRefreshProfileRewritesLegacyEnvelopes(t *testing.T) {
	profile := types.Profile{
		Phone:        legacyValue(t, "+90 392 555 01 01"),
		CompanyPhone: legacyValue(t, "+90 392 555 02 02"),
	}

	changed, err := RefreshProfile(kp, &profile)
	assert.NoError(t, err)
	assert.True(t, changed)

	for _, stored := range []string{profile.Phone, profile.CompanyPhone} {
		var envelope types.Envelope
		assert.NoError(t, envelope.UnmarshalText([]byte(stored)))
		assert.Equal(t, types.FormatVersioned, envelope.Format)
		assert.Equal(t, kp.Version(), envelope.Version)
	}

	assert.NoError(t, DecryptProfile(kp, &profile))
	assert.Equal(t, "+90 392 555 01 01", profile.Phone)
	assert.Equal(t, "+90 392 555 02 02", profile.CompanyPhone)
}

func TestRefreshLeavesCurrentEnvelopesAlone(t *testing.T) {
	profile := types.Profile{Phone: "+90 392 555 01 01"}
	assert.NoError(t, EncryptProfile(kp, &profile))
	stored := profile.Phone

	changed, err := RefreshProfile(kp, &profile)
	assert.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, stored, profile.Phone)
}

func TestRefreshLeavesUnreadableValuesAlone(t *testing.T) {
	job := types.Job{ContactPhone: "not an envelope at all"}

	changed, err := RefreshJob(kp, &job)
	assert.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "not an envelope at all", job.ContactPhone)
}

func TestRefreshEmptyField(t *testing.T) {
	settings := types.Settings{}
	changed, err := RefreshSettings(kp, &settings)
	assert.NoError(t, err)
	assert.False(t, changed)
}

func TestRefreshNeedsKey(t *testing.T) {
	settings := types.Settings{SMTPPass: legacyValue(t, "smtp-secret")}
	_, err := RefreshSettings(staticKey{}, &settings)
	assert.Equal(t, types.KeyUnavailableError{}, err)
}
