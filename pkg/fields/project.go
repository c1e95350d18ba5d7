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
	"github.com/kiprotek/kipvault/pkg/types"
)

// ProjectProfile returns the view of a profile the viewer is entitled to.
// The decision depends only on the viewer's identity, the viewer's role and
// the record owner. Owners and admins see plaintext; everyone else sees
// masked phones and no address. Credentials never leave the process.
func ProjectProfile(kp KeyProvider, viewer types.Viewer, profile types.Profile) (types.Profile, error) {
	if err := DecryptProfile(kp, &profile); err != nil {
		return types.Profile{}, err
	}

	profile.PasswordHash = ""
	profile.PasswordSalt = ""

	if viewer.Privileged(profile.ID) {
		return profile, nil
	}

	profile.Phone = MaskPhone(profile.Phone)
	profile.CompanyPhone = MaskPhone(profile.CompanyPhone)
	profile.CompanyAddress = ""
	return profile, nil
}

// ProjectJob returns the view of a job the viewer is entitled to. The owner
// is whoever the job is assigned to.
func ProjectJob(kp KeyProvider, viewer types.Viewer, job types.Job) (types.Job, error) {
	if err := DecryptJob(kp, &job); err != nil {
		return types.Job{}, err
	}

	if viewer.Privileged(job.OwnerID) {
		return job, nil
	}

	job.ContactPhone = MaskPhone(job.ContactPhone)
	return job, nil
}

// ProjectSettings returns the settings view. Admins see SMTP credentials in
// plaintext; everyone else sees the public site metadata only. The site key
// itself is stripped from every projection.
func ProjectSettings(kp KeyProvider, viewer types.Viewer, settings types.Settings) (types.Settings, error) {
	settings.XSecret = ""

	if !viewer.Admin() {
		settings.SMTPHost = ""
		settings.SMTPPort = 0
		settings.SMTPUser = ""
		settings.SMTPPass = ""
		settings.FromEmail = ""
		return settings, nil
	}

	if err := DecryptSettings(kp, &settings); err != nil {
		return types.Settings{}, err
	}
	return settings, nil
}
