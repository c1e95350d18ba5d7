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

	"github.com/google/uuid"
	"github.com/kiprotek/kipvault/pkg/types"
	"github.com/stretchr/testify/assert"
)

func encryptedProfile(t *testing.T, owner uuid.UUID) types.Profile {
	t.Helper()
	profile := types.Profile{
		ID:             owner,
		Name:           "Mehmet Kaya",
		Email:          "mehmet@example.com",
		Phone:          "+90 392 555 01 01",
		CompanyPhone:   "+90 392 555 02 02",
		CompanyAddress: "Girne Caddesi 14, Lefkoşa",
		PasswordHash:   "hash",
		PasswordSalt:   "salt",
		Role:           types.RoleProvider,
	}
	if err := EncryptProfile(kp, &profile); err != nil {
		t.Fatal(err)
	}
	return profile
}

func TestProjectProfile(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	tests := []struct {
		name    string
		viewer  types.Viewer
		plain   bool
	}{
		{
			name:   "Owner sees plaintext",
			viewer: types.Viewer{ID: owner, Role: types.RoleProvider},
			plain:  true,
		},
		{
			name:   "Admin sees plaintext",
			viewer: types.Viewer{ID: other, Role: types.RoleAdmin},
			plain:  true,
		},
		{
			name:   "Super admin sees plaintext",
			viewer: types.Viewer{ID: other, Role: types.RoleBuyer, SuperAdmin: true},
			plain:  true,
		},
		{
			name:   "Other buyer sees masked view",
			viewer: types.Viewer{ID: other, Role: types.RoleBuyer},
		},
		{
			name:   "Anonymous sees masked view",
			viewer: types.Viewer{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			record := encryptedProfile(t, owner)
			projected, err := ProjectProfile(kp, test.viewer, record)
			assert.NoError(t, err)

			// Credentials never appear in any projection.
			assert.Equal(t, "", projected.PasswordHash)
			assert.Equal(t, "", projected.PasswordSalt)

			if test.plain {
				assert.Equal(t, "+90 392 555 01 01", projected.Phone)
				assert.Equal(t, "+90 392 555 02 02", projected.CompanyPhone)
				assert.Equal(t, "Girne Caddesi 14, Lefkoşa", projected.CompanyAddress)
				return
			}

			assert.Equal(t, "+90 XXX XXX XX 01", projected.Phone)
			assert.Equal(t, "+90 XXX XXX XX 02", projected.CompanyPhone)
			assert.Equal(t, "", projected.CompanyAddress)
		})
	}
}

func TestProjectJob(t *testing.T) {
	owner := uuid.New()
	job := types.Job{
		ID:           uuid.New(),
		Title:        "Electrical inspection",
		ContactPhone: "+90 533 123 45 67",
		OwnerID:      owner,
	}
	assert.NoError(t, EncryptJob(kp, &job))

	projected, err := ProjectJob(kp, types.Viewer{ID: owner, Role: types.RoleProvider}, job)
	assert.NoError(t, err)
	assert.Equal(t, "+90 533 123 45 67", projected.ContactPhone)

	projected, err = ProjectJob(kp, types.Viewer{ID: uuid.New(), Role: types.RoleBuyer}, job)
	assert.NoError(t, err)
	assert.Equal(t, "+90 XXX XXX XX 67", projected.ContactPhone)
}

func TestProjectSettings(t *testing.T) {
	settings := types.Settings{
		ID:            1,
		SiteName:      "KiProTek",
		ContactEmail:  "info@kiprotek.com",
		SMTPHost:      "smtp.example.com",
		SMTPPort:      587,
		SMTPUser:      "mailer",
		SMTPPass:      "smtp-secret",
		XSecret:       "site-key-material",
		SetupComplete: true,
	}
	assert.NoError(t, EncryptSettings(kp, &settings))

	admin := types.Viewer{ID: uuid.New(), Role: types.RoleAdmin}
	projected, err := ProjectSettings(kp, admin, settings)
	assert.NoError(t, err)
	assert.Equal(t, "smtp-secret", projected.SMTPPass)
	assert.Equal(t, "", projected.XSecret)

	public := types.Viewer{}
	projected, err = ProjectSettings(kp, public, settings)
	assert.NoError(t, err)
	assert.Equal(t, "KiProTek", projected.SiteName)
	assert.Equal(t, "", projected.SMTPPass)
	assert.Equal(t, "", projected.SMTPHost)
	assert.Equal(t, "", projected.XSecret)
}
