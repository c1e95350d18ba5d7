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
	"github.com/kiprotek/kipvault/pkg/types"
	"github.com/spf13/cobra"
)

var clientCmd types.ClientCmd = types.ClientCmd{}

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kipvault",
	Short: "KiProTek field encryption service",
	Long: `
KiProTek field encryption service

kipvault keeps the sensitive columns of the marketplace row store encrypted
at rest. It runs the projection API, provisions new sites, and carries the
operator tooling for the site encryption key.

Records never leave the serve process in plaintext unless the caller is
entitled to them: run 'kipvault serve' next to your application and point
clients at its /api/v1 surface.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true
	if _, err := rootCmd.ExecuteC(); err != nil {
		fatal("Error: %s", err)
	}
}

func init() {
	// These are consistent across all commands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/kipvault/client.yaml)")
	rootCmd.PersistentFlags().StringVar(&clientCmd.Server, "server", "localhost", "address of the server")
	rootCmd.PersistentFlags().IntVar(&clientCmd.Port, "port", api.DefaultPort, "port of the server")
	rootCmd.PersistentFlags().StringVar(&clientCmd.StoreURL, "store-url", "", "base url of the hosted row store")
	rootCmd.PersistentFlags().StringVarP(&clientCmd.Token, "token", "t", "", "token for accessing the server")
	rootCmd.PersistentFlags().BoolVar(&clientCmd.SkipVerify, "skip-verify", false, "skip verification of the server certificate")
	rootCmd.PersistentFlags().BoolVar(&clientCmd.Debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&clientCmd.Quiet, "quiet", false, "disable all logging")
}

func loadClientConfig() (err error) {
	c := config.New()
	if err = c.Load(config.ConfigModeClient); err != nil {
		return err
	}

	if clientCmd.Token == "" {
		clientCmd.Token = c.Token
	}

	if clientCmd.Server == "" || clientCmd.Server == "localhost" {
		if c.Address != "" {
			clientCmd.Server = c.Address
		}
	}

	if clientCmd.Port == 0 || clientCmd.Port == api.DefaultPort {
		if c.Port != 0 {
			clientCmd.Port = c.Port
		}
	}

	if clientCmd.StoreURL == "" {
		clientCmd.StoreURL = c.StoreURL
	}

	return
}
