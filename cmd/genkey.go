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
	"log"

	"github.com/kiprotek/kipvault/pkg/config"
	"github.com/spf13/cobra"
)

var addresses []string

// genkeyCmd represents the genkey command
var genkeyCmd = &cobra.Command{
	Use:   "genkey",
	Short: "Generate an API key for the server",
	Long: `Admin calls to the projection API must carry a known token. This
	command generates a new token and stores its derived form in the server
	configuration file; the plaintext token is printed once and never stored.

	Each key is associated with a single IP address or CIDR block. You can
	generate one token per block by specifying multiple blocks:

	Generate a key for localhost:

		kipvault key genkey

	Generate a specific key for the system at 192.168.0.2 and a generic key
	for all hosts on the 192.168.0.0/16 network:

		kipvault key genkey -a 192.168.0.2 -a 192.168.0.0/16`,
	Run: func(cmd *cobra.Command, args []string) {
		c := config.New()
		if err := c.Load(config.ConfigModeServer); err != nil {
			fatal("Invalid config file: %q", err)
		}

		if len(addresses) == 0 {
			addresses = append(addresses, "127.0.0.1")
		}

		for _, address := range addresses {
			token, err := c.AddApiKey(address)
			if err != nil {
				fatal("unable to create key for %s: %q", address, err)
			}
			log.Printf("%s\t%s\n", address, token)
		}
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <token-or-host>",
	Short: "Revoke an API key",
	Long: `Removes an API key from the server configuration. The key may be
	named by the host or CIDR block it was issued for, or by the plaintext
	token itself.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := config.New()
		if err := c.Load(config.ConfigModeServer); err != nil {
			fatal("Invalid config file: %q", err)
		}

		host, err := c.RevokeApiKey(args[0])
		if err != nil {
			fatal("unable to revoke key: %q", err)
		}
		if host == "" {
			fatal("no key matched %q", args[0])
		}
		log.Printf("revoked key for %s\n", host)
	},
}

func init() {
	keyCmd.AddCommand(genkeyCmd)
	keyCmd.AddCommand(revokeCmd)
	genkeyCmd.Flags().StringSliceVarP(&addresses, "address", "a", []string{}, "IP address or CIDR block for this key")
}
