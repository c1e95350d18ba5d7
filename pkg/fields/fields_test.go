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
	"bytes"
	"testing"

	"github.com/kiprotek/kipvault/pkg/crypto"
	"github.com/kiprotek/kipvault/pkg/types"
	"github.com/stretchr/testify/assert"
)

type staticKey struct {
	key []byte
}

func (s staticKey) Key() ([]byte, error) {
	if s.key == nil {
		return nil, types.KeyUnavailableError{}
	}
	return s.key, nil
}

func (s staticKey) Version() string {
	return types.DefaultKeyVersion
}

var kp = staticKey{key: bytes.Repeat([]byte{0x2a}, crypto.KeySize)}

func TestProfileRoundTrip(t *testing.T) {
	profile := types.Profile{
		Name:           "Ayşe Yılmaz",
		Email:          "ayse@example.com",
		Phone:          "+90 392 555 01 01",
		CompanyPhone:   "+90 392 555 02 02",
		CompanyAddress: "Girne Caddesi 14, Lefkoşa",
	}

	assert.NoError(t, EncryptProfile(kp, &profile))

	// Non-sensitive fields pass through untouched, sensitive ones do not.
	assert.Equal(t, "ayse@example.com", profile.Email)
	assert.NotEqual(t, "+90 392 555 01 01", profile.Phone)
	assert.NotEqual(t, "+90 392 555 02 02", profile.CompanyPhone)
	assert.NotEqual(t, "Girne Caddesi 14, Lefkoşa", profile.CompanyAddress)

	assert.NoError(t, DecryptProfile(kp, &profile))
	assert.Equal(t, "+90 392 555 01 01", profile.Phone)
	assert.Equal(t, "+90 392 555 02 02", profile.CompanyPhone)
	assert.Equal(t, "Girne Caddesi 14, Lefkoşa", profile.CompanyAddress)
}

func TestEmptyFieldsStayEmpty(t *testing.T) {
	profile := types.Profile{Name: "No Phone", Email: "nophone@example.com"}
	assert.NoError(t, EncryptProfile(kp, &profile))
	assert.Equal(t, "", profile.Phone)
	assert.NoError(t, DecryptProfile(kp, &profile))
	assert.Equal(t, "", profile.Phone)
}

func TestCorruptFieldBecomesSentinel(t *testing.T) {
	profile := types.Profile{
		Phone:          "not an envelope at all",
		CompanyAddress: "Girne Caddesi 14, Lefkoşa",
	}
	assert.NoError(t, EncryptProfile(kp, &types.Profile{}))

	// Encrypt the address properly, leave the phone corrupted.
	encrypted, err := crypto.Encrypt(profile.CompanyAddress, kp.key, kp.Version())
	assert.NoError(t, err)
	profile.CompanyAddress = encrypted.String()

	assert.NoError(t, DecryptProfile(kp, &profile))
	assert.Equal(t, Sentinel, profile.Phone)
	assert.Equal(t, "Girne Caddesi 14, Lefkoşa", profile.CompanyAddress)
}

func TestMissingKeyAbortsRead(t *testing.T) {
	profile := types.Profile{Phone: "anything"}
	err := DecryptProfile(staticKey{}, &profile)
	assert.Equal(t, types.KeyUnavailableError{}, err)

	err = EncryptProfile(staticKey{}, &types.Profile{Phone: "anything"})
	assert.Equal(t, types.KeyUnavailableError{}, err)
}

func TestJobRoundTrip(t *testing.T) {
	job := types.Job{Title: "Plumbing repair", ContactPhone: "+90 533 123 45 67"}
	assert.NoError(t, EncryptJob(kp, &job))
	assert.NotEqual(t, "+90 533 123 45 67", job.ContactPhone)
	assert.NoError(t, DecryptJob(kp, &job))
	assert.Equal(t, "+90 533 123 45 67", job.ContactPhone)
}

func TestSettingsRoundTrip(t *testing.T) {
	settings := types.Settings{SMTPUser: "mailer", SMTPPass: "smtp-secret"}
	assert.NoError(t, EncryptSettings(kp, &settings))
	assert.NotEqual(t, "smtp-secret", settings.SMTPPass)
	assert.Equal(t, "mailer", settings.SMTPUser)
	assert.NoError(t, DecryptSettings(kp, &settings))
	assert.Equal(t, "smtp-secret", settings.SMTPPass)
}
