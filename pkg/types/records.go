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
	"github.com/google/uuid"
)

// Role is the coarse access level carried on every profile.
type Role string

const (
	RoleBuyer    Role = "buyer"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// Viewer identifies who is asking for a record. Projection decisions are a
// pure function of the viewer and the record owner, nothing else.
type Viewer struct {
	ID         uuid.UUID
	Role       Role
	SuperAdmin bool
}

// Admin reports whether the viewer holds site-wide privilege.
func (v Viewer) Admin() bool {
	return v.SuperAdmin || v.Role == RoleAdmin
}

// Privileged reports whether the viewer may see the plaintext of a record
// owned by owner.
func (v Viewer) Privileged(owner uuid.UUID) bool {
	return v.Admin() || (v.ID != uuid.Nil && v.ID == owner)
}

// Profile is a row in the profiles table. Phone, CompanyPhone and
// CompanyAddress are stored encrypted.
type Profile struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	PasswordHash   string    `json:"password_hash,omitempty"`
	PasswordSalt   string    `json:"password_salt,omitempty"`
	Role           Role      `json:"role"`
	CompanyName    string    `json:"company_name,omitempty"`
	CompanyPhone   string    `json:"company_phone,omitempty"`
	CompanyAddress string    `json:"company_address,omitempty"`
	IsSuperAdmin   bool      `json:"is_super_admin"`
	IsActive       bool      `json:"is_active"`
	IsVerified     bool      `json:"is_verified"`
	CreatedAt      string    `json:"created_at,omitempty"`
	UpdatedAt      string    `json:"updated_at,omitempty"`
}

// Job is a row in the jobs table. ContactPhone is stored encrypted.
type Job struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	OwnerID      uuid.UUID `json:"assigned_to"`
	Status       string    `json:"status,omitempty"`
	CreatedAt    string    `json:"created_at,omitempty"`
}

// Settings is the singleton site settings row (id is always 1). SMTPPass is
// stored encrypted; XSecret holds the base64 site encryption key and is
// never returned to unprivileged callers.
type Settings struct {
	ID              int    `json:"id"`
	SiteName        string `json:"site_name,omitempty"`
	SiteDescription string `json:"site_description,omitempty"`
	ContactEmail    string `json:"contact_email,omitempty"`
	SMTPHost        string `json:"smtp_host,omitempty"`
	SMTPPort        int    `json:"smtp_port,omitempty"`
	SMTPUser        string `json:"smtp_user,omitempty"`
	SMTPPass        string `json:"smtp_pass,omitempty"`
	FromEmail       string `json:"from_email,omitempty"`
	XSecret         string `json:"x_secret,omitempty"`
	SetupComplete   bool   `json:"setup_complete"`
}

// PasswordRecord is the stored outcome of hashing a password: both values
// base64 encoded.
type PasswordRecord struct {
	Hash string `json:"password_hash"`
	Salt string `json:"password_salt"`
}

// StrengthResult reports every rule a candidate password violates.
type StrengthResult struct {
	IsValid bool
	Errors  []string
}
