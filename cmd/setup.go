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
package cmd

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/kiprotek/kipvault/pkg/keys"
	"github.com/kiprotek/kipvault/pkg/setup"
	"github.com/kiprotek/kipvault/pkg/tools"
	"github.com/kiprotek/kipvault/pkg/types"
	"github.com/spf13/cobra"
)

var backupPath string

// setupCmd represents the setup command
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Provision a new site against the hosted row store",
	Long: `The setup command walks the one-time site provisioning steps:

	1. verify connectivity to the row store
	2. generate the site encryption key and persist it remotely
	3. create the super-admin account
	4. save site settings and SMTP credentials
	5. mark setup complete

	Steps run strictly forward and each remote write happens exactly once.
	If a step fails, re-running setup resumes from the last completed step;
	a site that has already completed setup is left untouched.

	Admin credentials are taken from KPV_ADMIN_EMAIL and KPV_ADMIN_PASSWORD
	if present in the environment or secrets store, otherwise you will be
	prompted. Pass --backup to write a passphrase-protected copy of the
	site key; without it, losing the settings row means losing every
	encrypted field.`,
	Run: func(cmd *cobra.Command, args []string) {
		var ctx context.Context = context.Background()

		client, c, err := storeClient(false)
		if err != nil {
			fatal("%s", err)
		}

		km := keys.NewManager(c.KeyVersion)
		machine := setup.NewMachine(client, km)

		if err = machine.Resume(ctx); err != nil {
			fatal("unable to determine setup state: %q", err)
		}
		log.Printf("setup is at %q\n", machine.State())
		if machine.State() == setup.Complete {
			log.Println("site setup has already completed")
			return
		}

		if machine.State() == setup.NotStarted {
			if err = machine.VerifyConnection(ctx); err != nil {
				fatal("store unreachable: %q", err)
			}
			log.Println("store connection verified")
		}

		if machine.State() == setup.ConnectionVerified {
			if _, err = machine.EstablishKey(ctx); err != nil {
				fatal("unable to establish site key: %q", err)
			}
			log.Printf("site encryption key established (version %q)\n", km.Version())

			if backupPath != "" {
				writeKeyBackup(km)
			}
		}

		if machine.State() == setup.KeyEstablished {
			createAdmin(ctx, machine)
		}

		if machine.State() == setup.AdminCreated {
			saveSettings(ctx, machine)
		}

		if machine.State() == setup.SettingsSaved {
			if err = machine.Finalize(ctx); err != nil {
				fatal("unable to finalise setup: %q", err)
			}
		}

		log.Println("site setup complete")
	},
}

func writeKeyBackup(km *keys.Manager) {
	passphrase, err := tools.GetPassword("Key backup",
		"Choose a passphrase for the site key backup", "Passphrase: ")
	if err != nil {
		fatal("no backup passphrase: %q", err)
	}
	if err = km.Backup(backupPath, string(passphrase)); err != nil {
		fatal("unable to write key backup: %q", err)
	}
	log.Printf("key backup written to %s\n", backupPath)
}

func createAdmin(ctx context.Context, machine *setup.Machine) {
	secrets := getSecrets(true)

	name, err := tools.ReadLine("Admin name: ")
	if err != nil {
		fatal("%s", err)
	}

	err = machine.CreateAdmin(ctx, string(name),
		string(secrets["KPV_ADMIN_EMAIL"]), string(secrets["KPV_ADMIN_PASSWORD"]))
	if err != nil {
		var verr types.ValidationError
		if errors.As(err, &verr) {
			fatal("admin password rejected:\n  %s", strings.Join(verr.Violations, "\n  "))
		}
		fatal("unable to create admin: %q", err)
	}
	log.Println("super-admin account created")
}

func saveSettings(ctx context.Context, machine *setup.Machine) {
	var settings types.Settings

	prompts := []struct {
		prompt string
		into   *string
	}{
		{"Site name: ", &settings.SiteName},
		{"Site description: ", &settings.SiteDescription},
		{"Contact email: ", &settings.ContactEmail},
		{"SMTP host: ", &settings.SMTPHost},
		{"SMTP user: ", &settings.SMTPUser},
		{"From email: ", &settings.FromEmail},
	}
	for _, p := range prompts {
		value, err := tools.ReadLine(p.prompt)
		if err != nil {
			fatal("%s", err)
		}
		*p.into = string(value)
	}

	port, err := tools.ReadLine("SMTP port [587]: ")
	if err != nil {
		fatal("%s", err)
	}
	settings.SMTPPort = 587
	if string(port) != "" {
		if settings.SMTPPort, err = strconv.Atoi(string(port)); err != nil {
			fatal("invalid smtp port %q", string(port))
		}
	}

	if settings.SMTPHost != "" {
		pass, err := tools.GetPassword("SMTP password",
			"Please enter the SMTP account password", "Password: ")
		if err != nil {
			fatal("%s", err)
		}
		settings.SMTPPass = string(pass)
	}

	if err = machine.SaveSettings(ctx, settings); err != nil {
		fatal("unable to save settings: %q", err)
	}
	log.Println("site settings saved")
}

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().StringVarP(&backupPath, "backup", "b", "", "Write a passphrase-protected backup of the site key to this path")
}
