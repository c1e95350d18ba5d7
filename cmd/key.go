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

	"github.com/kiprotek/kipvault/pkg/keys"
	"github.com/kiprotek/kipvault/pkg/tools"
	"github.com/kiprotek/kipvault/pkg/types"
	"github.com/spf13/cobra"
)

var saveRestored bool

// keyCmd represents the key command
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the site encryption key and server API keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// siteKeyManager loads the site key into a manager, fetching it from the row
// store when no local copy exists.
func siteKeyManager(ctx context.Context) *keys.Manager {
	client, c, err := storeClient(false)
	if err != nil {
		fatal("%s", err)
	}

	km := keys.NewManager(c.KeyVersion)
	if _, err = km.Key(); err != nil {
		if err = km.FetchRemote(ctx, client, types.Viewer{Role: types.RoleAdmin}); err != nil {
			fatal("unable to load site key: %q", err)
		}
	}
	return km
}

var backupKeyCmd = &cobra.Command{
	Use:   "backup <path>",
	Short: "Write a passphrase-protected backup of the site key",
	Long: `Writes the site encryption key to <path> as an armored OpenPGP
	message protected by a passphrase of your choosing.

	The settings row is the only other place the key lives. Keep a backup
	somewhere the row store cannot take with it.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		km := siteKeyManager(context.Background())

		passphrase, err := tools.GetPassword("Key backup",
			"Choose a passphrase for the site key backup", "Passphrase: ")
		if err != nil {
			fatal("no backup passphrase: %q", err)
		}
		if err = km.Backup(args[0], string(passphrase)); err != nil {
			fatal("unable to write key backup: %q", err)
		}
		log.Printf("key backup written to %s\n", args[0])
	},
}

var restoreKeyCmd = &cobra.Command{
	Use:   "restore <path>",
	Short: "Restore the site key from a backup",
	Long: `Reads an armored backup produced by 'kipvault key backup' and
	installs the recovered key locally. Pass --save to also write it back
	into the settings row.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var ctx context.Context = context.Background()

		client, c, err := storeClient(false)
		if err != nil {
			fatal("%s", err)
		}
		km := keys.NewManager(c.KeyVersion)

		passphrase, err := tools.GetPassword("Key restore",
			"Enter the passphrase of the site key backup", "Passphrase: ")
		if err != nil {
			fatal("no passphrase: %q", err)
		}
		if err = km.Restore(args[0], string(passphrase)); err != nil {
			fatal("unable to restore key: %q", err)
		}
		log.Println("site key restored")

		if saveRestored {
			encoded, err := km.Get()
			if err != nil {
				fatal("%s", err)
			}
			if err = client.SaveEncryptionKey(ctx, encoded); err != nil {
				fatal("unable to save key to the store: %q", err)
			}
			log.Println("site key saved to the settings row")
		}
	},
}

func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(backupKeyCmd)
	keyCmd.AddCommand(restoreKeyCmd)
	restoreKeyCmd.Flags().BoolVar(&saveRestored, "save", false, "Also write the restored key back to the settings row")
}
