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

	"github.com/hokaccha/go-prettyjson"
	"github.com/kiprotek/kipvault/pkg/tools"
	"github.com/kiprotek/kipvault/pkg/transport"
	"github.com/spf13/cobra"
)

var register struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     string
}

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a buyer or provider account",
	Long: `Registers a new account through a running kipvault server. The
	phone number is encrypted by the server before it reaches the row store.

	Only buyer and provider accounts can be created this way; admin accounts
	exist solely through site setup. If --password is not given you will be
	prompted.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := loadClientConfig(); err != nil {
			fatal("%s", err)
		}

		if register.Password == "" {
			password, err := tools.GetPassword("Account password",
				"Choose a password for the new account", "Password: ")
			if err != nil {
				fatal("no password: %q", err)
			}
			register.Password = string(password)
		}

		var (
			ctx       context.Context = context.Background()
			structure interface{}
		)
		send := map[string]string{
			"name":     register.Name,
			"email":    register.Email,
			"phone":    register.Phone,
			"password": register.Password,
			"role":     register.Role,
		}
		if err := transport.DefaultHttpClient.Post(ctx, serverAddress()+"/api/v1/register", &structure, send); err != nil {
			fatal("registration failed: %q", err)
		}

		b, err := prettyjson.Marshal(structure)
		if err != nil {
			fatal("%s", err)
		}
		fmt.Println(string(b))
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().StringVarP(&register.Name, "name", "n", "", "Full name for the account")
	registerCmd.Flags().StringVarP(&register.Email, "email", "e", "", "Email address for the account")
	registerCmd.Flags().StringVar(&register.Phone, "phone", "", "Phone number (stored encrypted)")
	registerCmd.Flags().StringVar(&register.Password, "password", "", "Password (prompted if not given)")
	registerCmd.Flags().StringVarP(&register.Role, "role", "r", "buyer", "Account role: buyer or provider")
	for _, flag := range []string{"name", "email"} {
		if err := registerCmd.MarkFlagRequired(flag); err != nil {
			fatal("%s", err)
		}
	}
}
