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
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kiprotek/kipvault/pkg/fields"
	"github.com/kiprotek/kipvault/pkg/types"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List rows straight from the row store",
	Long: `Lists rows by talking to the row store directly with the service
	role key. This is an operator surface: encrypted fields are opened with
	the site key and shown in plaintext.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var listProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List every profile",
	Run: func(cmd *cobra.Command, args []string) {
		var ctx context.Context = context.Background()

		client, _, err := storeClient(false)
		if err != nil {
			fatal("%s", err)
		}
		km := siteKeyManager(ctx)

		profiles, err := client.ListProfiles(ctx)
		if err != nil {
			fatal("%s", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Name", "Email", "Phone", "Role", "Active"})
		for _, profile := range profiles {
			projected, err := fields.ProjectProfile(km, types.Viewer{Role: types.RoleAdmin}, profile)
			if err != nil {
				fatal("%s", err)
			}
			t.AppendRow(table.Row{
				projected.ID, projected.Name, projected.Email,
				projected.Phone, projected.Role, projected.IsActive,
			})
		}
		t.SetStyle(table.StyleLight)
		t.Render()
	},
}

var listJobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List every job",
	Run: func(cmd *cobra.Command, args []string) {
		var ctx context.Context = context.Background()

		client, _, err := storeClient(false)
		if err != nil {
			fatal("%s", err)
		}
		km := siteKeyManager(ctx)

		jobs, err := client.ListJobs(ctx)
		if err != nil {
			fatal("%s", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Title", "Contact phone", "Owner", "Status"})
		for _, job := range jobs {
			projected, err := fields.ProjectJob(km, types.Viewer{Role: types.RoleAdmin}, job)
			if err != nil {
				fatal("%s", err)
			}
			t.AppendRow(table.Row{
				projected.ID, projected.Title, projected.ContactPhone,
				projected.OwnerID, projected.Status,
			})
		}
		t.SetStyle(table.StyleLight)
		t.Render()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.AddCommand(listProfilesCmd)
	listCmd.AddCommand(listJobsCmd)
}
