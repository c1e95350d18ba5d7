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
	"github.com/kiprotek/kipvault/pkg/api"
	"github.com/kiprotek/kipvault/pkg/config"
	"github.com/kiprotek/kipvault/pkg/keys"
	"github.com/kiprotek/kipvault/pkg/store"
	"github.com/kiprotek/kipvault/pkg/types"
	"github.com/spf13/cobra"
)

var serve types.ServeCmd = types.ServeCmd{}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the projection API over the encrypted row store",
	Long: `The serve command starts the HTTP surface that applications talk to.

	Sensitive record fields are decrypted only inside this process: every
	response is projected for the caller, so owners and admins receive
	plaintext, everyone else receives masked values, and credential columns
	never leave the process at all.

	The server can be configured to use TLS. The certificate and key are
	specified using the --cert and --key flags. If no certificate or key is
	specified, the server will use HTTP instead of HTTPS.

	The server can be configured to listen on a specific port using the --port
	flag. If no port is specified, the server will listen on port 6278.

	Serving refuses to start until 'kipvault setup' has completed against the
	configured row store.`,

	Run: func(cmd *cobra.Command, args []string) {
		serve.Merge(&clientCmd)

		c := config.New()
		if err := c.Load(config.ConfigModeServer); err != nil {
			fatal("Invalid config file: %q", err)
		}
		c.MergeServerConfig(serve)

		if c.Server.StoreURL == "" {
			c.Server.StoreURL = clientCmd.StoreURL
		}
		if c.Server.StoreURL == "" {
			fatal("no store url configured - pass --store-url or set KPV_STORE_URL")
		}

		secrets := getSecrets(false)
		client := store.New(c.Server.StoreURL, string(secrets["KPV_ANON_KEY"]), string(secrets["KPV_SERVICE_KEY"]))
		km := keys.NewManager(c.Server.KeyVersion)

		server := api.NewHttpServer(c, client, km)
		if err := server.ListenAndServe(serve); err != nil {
			fatal("%s", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serve.Cert, "cert", "c", "", "Path to TLS certificate")
	serveCmd.Flags().StringVarP(&serve.Key, "key", "K", "", "Path to TLS key")
	serveCmd.Flags().StringVar(&serve.KeyVersion, "key-version", "", "Envelope key version to encrypt new fields under")
	serveCmd.Flags().StringToStringVarP(&serve.ApiKeys, "api-keys", "k", nil, "Comma-separated list of host=apikey pairs to trust")
}
