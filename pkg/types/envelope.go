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
package types

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

var b64enc = base64.StdEncoding.Strict()

// DefaultKeyVersion is the key-version identifier stamped into new
// envelopes. Kept from the original deployment so existing ciphertexts
// remain addressable.
const DefaultKeyVersion = "kiprotek_2025"

// EnvelopeFormat - every encrypted field value is stored in one of two
// serialized forms.
type EnvelopeFormat int

const (
	// FormatLegacy is the original wire form:
	//
	//	base64(iv) ":" base64(ciphertext)
	//
	// The key version is implicit and supplied out of band.
	FormatLegacy EnvelopeFormat = iota

	// FormatVersioned is the current wire form: a base64-encoded JSON
	// object {"v": keyVersion, "iv": base64(iv), "data": base64(ct)}.
	// All new writes use this form.
	FormatVersioned
)

func (f EnvelopeFormat) String() string {
	switch f {
	case FormatLegacy:
		return "legacy"
	case FormatVersioned:
		return "versioned"
	}
	return fmt.Sprintf("EnvelopeFormat(%d)", int(f))
}

// Envelope holds a parsed ciphertext value: a 12 byte AES-GCM nonce and the
// ciphertext with its appended authentication tag.
//
// Format detection is deterministic: valid versioned envelopes are base64
// and can never contain a literal ':' at the top level, so the presence of
// ':' always means the legacy form.
type Envelope struct {
	Format  EnvelopeFormat
	Version string

	IV, CT []byte
}

// versionedEnvelope is the JSON body of the versioned form.
type versionedEnvelope struct {
	V    string `json:"v"`
	IV   string `json:"iv"`
	Data string `json:"data"`
}

// IsZero returns true if the envelope holds no ciphertext.
func (e Envelope) IsZero() bool {
	return e.IV == nil && e.CT == nil
}

// String serializes the envelope in its wire form. A zero envelope
// serializes to the empty string, matching an empty field.
func (e Envelope) String() string {
	if e.IsZero() {
		return ""
	}
	if e.Format == FormatLegacy {
		return fmt.Sprintf("%s:%s",
			b64enc.EncodeToString(e.IV),
			b64enc.EncodeToString(e.CT),
		)
	}
	body, _ := json.Marshal(versionedEnvelope{
		V:    e.Version,
		IV:   b64enc.EncodeToString(e.IV),
		Data: b64enc.EncodeToString(e.CT),
	})
	return b64enc.EncodeToString(body)
}

// MarshalText serializes the envelope to its wire form.
func (e Envelope) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText parses either envelope form. Malformed input yields a
// DecryptionError so callers never see an unrelated error type.
func (e *Envelope) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*e = Envelope{}
		return nil
	}

	if strings.Contains(string(data), ":") {
		return e.unmarshalLegacy(data)
	}
	return e.unmarshalVersioned(data)
}

func (e *Envelope) unmarshalLegacy(data []byte) error {
	parts := strings.Split(string(data), ":")
	if len(parts) != 2 {
		return DecryptionError{Reason: fmt.Sprintf("legacy envelope requires 2 parts, have %d", len(parts))}
	}

	var err error
	e.Format = FormatLegacy
	e.Version = ""
	if e.IV, err = b64enc.DecodeString(parts[0]); err != nil {
		return DecryptionError{Reason: "legacy envelope iv is not valid base64"}
	}
	if e.CT, err = b64enc.DecodeString(parts[1]); err != nil {
		return DecryptionError{Reason: "legacy envelope data is not valid base64"}
	}
	return nil
}

func (e *Envelope) unmarshalVersioned(data []byte) error {
	body, err := b64enc.DecodeString(string(data))
	if err != nil {
		return DecryptionError{Reason: "envelope is not valid base64"}
	}

	var v versionedEnvelope
	if err = json.Unmarshal(body, &v); err != nil {
		return DecryptionError{Reason: "envelope body is not valid JSON"}
	}
	if v.IV == "" || v.Data == "" {
		return DecryptionError{Reason: "envelope body is missing iv or data"}
	}

	e.Format = FormatVersioned
	e.Version = v.V
	if e.IV, err = b64enc.DecodeString(v.IV); err != nil {
		return DecryptionError{Reason: "envelope iv is not valid base64"}
	}
	if e.CT, err = b64enc.DecodeString(v.Data); err != nil {
		return DecryptionError{Reason: "envelope data is not valid base64"}
	}
	return nil
}
