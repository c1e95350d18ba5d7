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
	"fmt"
	"log"
	"strings"

	"github.com/kiprotek/kipvault/pkg/config"
	"github.com/kiprotek/kipvault/pkg/store"
	"github.com/kiprotek/kipvault/pkg/tools"
)

var fatal func(format string, v ...interface{}) = func(format string, v ...interface{}) {
	log.Fatalf(format, v...)
}

// getSecrets is referenced as a variable to enable it to be mocked in tests
var getSecrets func(bool) map[string][]byte = tools.GetSecretsFromUserEnvOrStore

// storeClient builds a row store client from the client config and the
// secrets store. Commands that go straight to the row store rather than
// through a running server use this.
func storeClient(interactive bool) (*store.Client, *config.Config, error) {
	c := config.New()
	if err := c.Load(config.ConfigModeClient); err != nil {
		return nil, nil, err
	}
	c.MergeClientConfig(clientCmd)

	if c.StoreURL == "" {
		return nil, nil, fmt.Errorf("no store url configured - pass --store-url or set KPV_STORE_URL")
	}

	secrets := getSecrets(interactive)
	client := store.New(c.StoreURL, string(secrets["KPV_ANON_KEY"]), string(secrets["KPV_SERVICE_KEY"]))
	return client, c, nil
}

// serverAddress resolves the base url of a running kipvault server. The
// --server flag may carry a scheme; plain hostnames default to http.
func serverAddress() string {
	var addr string = clientCmd.Server
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return fmt.Sprintf("%s:%d", addr, clientCmd.Port)
}
