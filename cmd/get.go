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
	"fmt"
	"net/http"

	"github.com/hokaccha/go-prettyjson"
	"github.com/kiprotek/kipvault/pkg/transport"
	"github.com/spf13/cobra"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch a single record through the projection API",
	Long: `Fetches one record from a running kipvault server and prints it.

	The response is the projection the server grants your token: owners and
	admin keys see plaintext, anyone else sees masked values. Without a
	token you get the anonymous view.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// fetchJson retrieves path from the server and pretty prints the response.
func fetchJson(path string) error {
	if err := loadClientConfig(); err != nil {
		return err
	}

	var ctx context.Context = context.Background()
	if clientCmd.Token != "" {
		ctx = context.WithValue(ctx, transport.AuthToken{}, clientCmd.Token)
	}

	req, err := http.NewRequest("GET", serverAddress()+path, nil)
	if err != nil {
		return err
	}

	var structure interface{}
	if err = transport.DefaultHttpClient.DoWithBackoff(ctx, req, &structure); err != nil {
		return err
	}

	var b []byte
	if b, err = prettyjson.Marshal(structure); err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

var getProfileCmd = &cobra.Command{
	Use:   "profile <id>",
	Short: "Fetch a profile by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchJson("/api/v1/profiles/" + args[0])
	},
}

var getJobCmd = &cobra.Command{
	Use:   "job <id>",
	Short: "Fetch a job by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchJson("/api/v1/jobs/" + args[0])
	},
}

var getSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Fetch the site settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchJson("/api/v1/settings")
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.AddCommand(getProfileCmd)
	getCmd.AddCommand(getJobCmd)
	getCmd.AddCommand(getSettingsCmd)
}
