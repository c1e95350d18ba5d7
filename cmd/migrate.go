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
	"log"

	"github.com/kiprotek/kipvault/pkg/fields"
	"github.com/spf13/cobra"
)

var dryRun bool

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Re-encrypt legacy field envelopes under the current key version",
	Long: `Walks every row in the store and rewrites encrypted fields that are
	still in the legacy iv:ciphertext form, or that carry an older key
	version, into the current versioned envelope form.

	Fields that cannot be decrypted are logged and left exactly as they are.
	Each changed row is written back individually, so an interrupted run can
	simply be repeated.`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			ctx     context.Context = context.Background()
			updated int
		)

		client, _, err := storeClient(false)
		if err != nil {
			fatal("%s", err)
		}
		km := siteKeyManager(ctx)

		profiles, err := client.ListProfiles(ctx)
		if err != nil {
			fatal("%s", err)
		}
		for i := range profiles {
			changed, err := fields.RefreshProfile(km, &profiles[i])
			if err != nil {
				fatal("profile %s: %q", profiles[i].ID, err)
			}
			if !changed {
				continue
			}
			if dryRun {
				log.Printf("would update profile %s\n", profiles[i].ID)
				continue
			}
			if err = client.UpdateProfile(ctx, profiles[i]); err != nil {
				fatal("profile %s: %q", profiles[i].ID, err)
			}
			updated++
		}

		jobs, err := client.ListJobs(ctx)
		if err != nil {
			fatal("%s", err)
		}
		for i := range jobs {
			changed, err := fields.RefreshJob(km, &jobs[i])
			if err != nil {
				fatal("job %s: %q", jobs[i].ID, err)
			}
			if !changed {
				continue
			}
			if dryRun {
				log.Printf("would update job %s\n", jobs[i].ID)
				continue
			}
			if err = client.UpdateJob(ctx, jobs[i]); err != nil {
				fatal("job %s: %q", jobs[i].ID, err)
			}
			updated++
		}

		settings, err := client.GetSettings(ctx)
		if err != nil {
			fatal("%s", err)
		}
		changed, err := fields.RefreshSettings(km, &settings)
		if err != nil {
			fatal("settings: %q", err)
		}
		if changed {
			if dryRun {
				log.Println("would update settings")
			} else {
				if err = client.UpsertSettings(ctx, settings); err != nil {
					fatal("settings: %q", err)
				}
				updated++
			}
		}

		log.Printf("migrated %d rows to key version %q\n", updated, km.Version())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing anything")
}
