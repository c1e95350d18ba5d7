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

// Package fields is the only path through which sensitive record fields are
// read or written. Profiles carry phone, company_phone and company_address
// encrypted; jobs carry contact_phone; settings carry smtp_pass.
package fields

import (
	"errors"
	"log"

	"github.com/kiprotek/kipvault/pkg/crypto"
	"github.com/kiprotek/kipvault/pkg/types"
)

// Sentinel replaces a field value that exists but cannot be decrypted. It is
// shown to the user rather than an empty string so corruption is visible.
const Sentinel = "could not decrypt"

// KeyProvider hands out the site key. Satisfied by keys.Manager.
type KeyProvider interface {
	Key() ([]byte, error)
	Version() string
}

func encryptValue(kp KeyProvider, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	key, err := kp.Key()
	if err != nil {
		return "", err
	}
	envelope, err := crypto.Encrypt(value, key, kp.Version())
	if err != nil {
		return "", err
	}
	return envelope.String(), nil
}

// decryptValue resolves one stored field. A missing key aborts the whole
// read; anything wrong with the value itself is isolated to this field and
// surfaces as the sentinel.
func decryptValue(kp KeyProvider, field, stored string) (string, error) {
	if stored == "" {
		return "", nil
	}
	key, err := kp.Key()
	if err != nil {
		return "", err
	}

	var envelope types.Envelope
	if err = envelope.UnmarshalText([]byte(stored)); err != nil {
		log.Printf("field %s: %v", field, err)
		return Sentinel, nil
	}

	plaintext, err := crypto.Decrypt(envelope, key)
	if err != nil {
		if errors.As(err, &types.DecryptionError{}) {
			log.Printf("field %s: %v", field, err)
			return Sentinel, nil
		}
		return "", err
	}
	return plaintext, nil
}

// EncryptProfile seals the sensitive profile fields in place before a write.
func EncryptProfile(kp KeyProvider, profile *types.Profile) (err error) {
	if profile.Phone, err = encryptValue(kp, profile.Phone); err != nil {
		return
	}
	if profile.CompanyPhone, err = encryptValue(kp, profile.CompanyPhone); err != nil {
		return
	}
	profile.CompanyAddress, err = encryptValue(kp, profile.CompanyAddress)
	return
}

// DecryptProfile opens the sensitive profile fields in place after a read.
func DecryptProfile(kp KeyProvider, profile *types.Profile) (err error) {
	if profile.Phone, err = decryptValue(kp, "phone", profile.Phone); err != nil {
		return
	}
	if profile.CompanyPhone, err = decryptValue(kp, "company_phone", profile.CompanyPhone); err != nil {
		return
	}
	profile.CompanyAddress, err = decryptValue(kp, "company_address", profile.CompanyAddress)
	return
}

// EncryptJob seals the job contact phone in place before a write.
func EncryptJob(kp KeyProvider, job *types.Job) (err error) {
	job.ContactPhone, err = encryptValue(kp, job.ContactPhone)
	return
}

// DecryptJob opens the job contact phone in place after a read.
func DecryptJob(kp KeyProvider, job *types.Job) (err error) {
	job.ContactPhone, err = decryptValue(kp, "contact_phone", job.ContactPhone)
	return
}

// EncryptSettings seals the SMTP password in place before a write.
func EncryptSettings(kp KeyProvider, settings *types.Settings) (err error) {
	settings.SMTPPass, err = encryptValue(kp, settings.SMTPPass)
	return
}

// DecryptSettings opens the SMTP password in place after a read.
func DecryptSettings(kp KeyProvider, settings *types.Settings) (err error) {
	settings.SMTPPass, err = decryptValue(kp, "smtp_pass", settings.SMTPPass)
	return
}
