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
	"log"

	"github.com/kiprotek/kipvault/pkg/crypto"
	"github.com/kiprotek/kipvault/pkg/types"
)

// refreshValue re-encrypts a stored field under the provider's key version.
// Values already in the current form come back unchanged, as do values that
// cannot be parsed or decrypted: migration never destroys what it cannot
// read. The bool reports whether the value changed.
func refreshValue(kp KeyProvider, field, stored string) (string, bool, error) {
	if stored == "" {
		return stored, false, nil
	}

	var envelope types.Envelope
	if err := envelope.UnmarshalText([]byte(stored)); err != nil {
		log.Printf("field %s left as is: %v", field, err)
		return stored, false, nil
	}
	if envelope.Format == types.FormatVersioned && envelope.Version == kp.Version() {
		return stored, false, nil
	}

	key, err := kp.Key()
	if err != nil {
		return stored, false, err
	}

	plaintext, err := crypto.Decrypt(envelope, key)
	if err != nil {
		log.Printf("field %s left as is: %v", field, err)
		return stored, false, nil
	}

	fresh, err := crypto.Encrypt(plaintext, key, kp.Version())
	if err != nil {
		return stored, false, err
	}
	return fresh.String(), true, nil
}

// RefreshProfile rewrites the encrypted profile fields under the current key
// version. Reports whether anything changed.
func RefreshProfile(kp KeyProvider, profile *types.Profile) (changed bool, err error) {
	var c bool
	if profile.Phone, c, err = refreshValue(kp, "phone", profile.Phone); err != nil {
		return
	}
	changed = changed || c
	if profile.CompanyPhone, c, err = refreshValue(kp, "company_phone", profile.CompanyPhone); err != nil {
		return
	}
	changed = changed || c
	if profile.CompanyAddress, c, err = refreshValue(kp, "company_address", profile.CompanyAddress); err != nil {
		return
	}
	changed = changed || c
	return
}

// RefreshJob rewrites the encrypted job fields under the current key version.
func RefreshJob(kp KeyProvider, job *types.Job) (changed bool, err error) {
	job.ContactPhone, changed, err = refreshValue(kp, "contact_phone", job.ContactPhone)
	return
}

// RefreshSettings rewrites the encrypted settings fields under the current
// key version.
func RefreshSettings(kp KeyProvider, settings *types.Settings) (changed bool, err error) {
	settings.SMTPPass, changed, err = refreshValue(kp, "smtp_pass", settings.SMTPPass)
	return
}
