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
package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/kiprotek/kipvault/pkg/tools"
	"github.com/kiprotek/kipvault/pkg/types"
)

func setupSuite(t *testing.T) func(t *testing.T) {
	t.Log("Setting up config suite")
	tempDir := t.TempDir()
	ConfigPath = func(m ConfigMode) string {
		return filepath.Join(tempDir, "server.yaml")
	}
	err := os.WriteFile(ConfigPath(ConfigModeServer), []byte(`
server:
  cert: cert.pem
  key: key.pem
  port: 8080
  storeurl: https://store.example.com
  apikeys:
    example.com: abcdef123456
`), 0644)
	if err != nil {
		t.Fatal(err)
	}

	return func(t *testing.T) {
		ConfigPath = getConfigPath
		getSecrets = tools.GetSecretsFromUserEnvOrStore
	}
}

func TestConfig_Load(t *testing.T) {
	teardownSuite := setupSuite(t)
	defer teardownSuite(t)

	c := New()
	if err := c.Load(ConfigModeServer); err != nil {
		t.Errorf("Expected nil error but got %v", err)
	}

	expectedCert := "cert.pem"
	if c.Server.Cert != expectedCert {
		t.Errorf("Expected cert %q but got %q", expectedCert, c.Server.Cert)
	}

	expectedKey := "key.pem"
	if c.Server.Key != expectedKey {
		t.Errorf("Expected key %q but got %q", expectedKey, c.Server.Key)
	}

	expectedPort := 8080
	if c.Server.Port != expectedPort {
		t.Errorf("Expected port %d but got %d", expectedPort, c.Server.Port)
	}

	expectedStore := "https://store.example.com"
	if c.Server.StoreURL != expectedStore {
		t.Errorf("Expected store url %q but got %q", expectedStore, c.Server.StoreURL)
	}

	expectedAPIKeys := map[string]string{"example.com": "abcdef123456"}
	if len(c.Server.ApiKeys) != len(expectedAPIKeys) {
		t.Errorf("Expected API keys length %d but got %d", len(expectedAPIKeys), len(c.Server.ApiKeys))
	}

	for host, key := range c.Server.ApiKeys {
		if expectedAPIKeys[host] != key {
			t.Errorf("Expected API key %q for host %q but got %q", expectedAPIKeys[host], host, key)
		}
	}
}

func TestConfig_LoadMissingFileIsNotAnError(t *testing.T) {
	teardownSuite := setupSuite(t)
	defer teardownSuite(t)
	if err := os.Remove(ConfigPath(ConfigModeServer)); err != nil {
		t.Fatal(err)
	}

	c := New()
	if err := c.Load(ConfigModeServer); err != nil {
		t.Errorf("Expected nil error but got %v", err)
	}
}

func TestConfig_MergeServerConfig(t *testing.T) {
	teardownSuite := setupSuite(t)
	defer teardownSuite(t)

	c := New()
	if err := c.Load(ConfigModeServer); err != nil {
		t.Errorf("Expected nil error but got %v", err)
	}

	c.MergeServerConfig(types.ServeCmd{
		Port:       9090,
		KeyVersion: "kiprotek_2025",
		Debug:      true,
	})

	if c.Server.Port != 9090 {
		t.Errorf("Expected port 9090 but got %d", c.Server.Port)
	}
	if c.Server.KeyVersion != "kiprotek_2025" {
		t.Errorf("Expected key version kiprotek_2025 but got %q", c.Server.KeyVersion)
	}
	if !c.Server.Debug {
		t.Error("Expected debug to be set")
	}
	// Unset flags must not clobber loaded values.
	if c.Server.Cert != "cert.pem" {
		t.Errorf("Expected cert cert.pem but got %q", c.Server.Cert)
	}
}

func TestConfig_IsSecure(t *testing.T) {
	c := &Config{}
	if c.IsSecure() {
		t.Error("Expected IsSecure to return false when cert and key are empty")
	}

	c.Server.Cert = "cert.pem"
	if c.IsSecure() {
		t.Error("Expected IsSecure to return false when key is empty")
	}

	c.Server.Key = "key.pem"
	if !c.IsSecure() {
		t.Error("Expected IsSecure to return true when cert and key are not empty")
	}
}

func TestDeriveHttpGetAPIKey(t *testing.T) {
	key := DeriveHttpGetAPIKey("some-token")
	if _, err := base64.StdEncoding.DecodeString(key); err != nil {
		t.Errorf("Expected nil error but got %v", err)
	}
	if key != DeriveHttpGetAPIKey("some-token") {
		t.Error("Expected derivation to be deterministic")
	}
}

func TestConfig_AddApiKey(t *testing.T) {
	teardownSuite := setupSuite(t)
	defer teardownSuite(t)

	var (
		c          *Config = New()
		hostOrCidr string  = "example.com"
		key        string
		ok         bool
		err        error
		token      string
	)

	if err = c.Load(ConfigModeServer); err != nil {
		t.Errorf("Expected nil error but got %v", err)
	}

	if token, err = c.AddApiKey(hostOrCidr); err != nil {
		t.Fatal(err)
	}

	if key, ok = c.Server.ApiKeys[hostOrCidr]; !ok {
		t.Errorf("Expected API key for host %q to be added", hostOrCidr)
	}

	if key != DeriveHttpGetAPIKey(token) {
		t.Errorf("Expected API key %q for host %q but got %q", DeriveHttpGetAPIKey(token), hostOrCidr, key)
	}
}

func TestConfig_RevokeApiKey(t *testing.T) {
	teardownSuite := setupSuite(t)
	defer teardownSuite(t)

	c := New()
	if err := c.Load(ConfigModeServer); err != nil {
		t.Errorf("Expected nil error but got %v", err)
	}

	var (
		hostOrCidr  string = "api.example.com"
		token       string
		err         error
		revokedHost string
	)
	if token, err = c.AddApiKey(hostOrCidr); err != nil {
		t.Fatal(err)
	}

	if revokedHost, err = c.RevokeApiKey(token); err != nil {
		t.Fatal(err)
	}

	if revokedHost != hostOrCidr {
		t.Errorf("Expected revoked host %q but got %q", hostOrCidr, revokedHost)
	}
	if _, ok := c.Server.ApiKeys[hostOrCidr]; ok {
		t.Errorf("Expected API key for host %q to be revoked", hostOrCidr)
	}
}

func TestConfig_CheckApiKey(t *testing.T) {
	teardownSuite := setupSuite(t)
	defer teardownSuite(t)

	var (
		c     *Config = New()
		err   error
		token string
	)

	if err = c.Load(ConfigModeServer); err != nil {
		t.Errorf("Expected nil error but got %v", err)
	}

	hosts := map[string]string{
		"example.com": "",
		"192.168.0.1": "",
	}
	for host := range hosts {
		if token, err = c.AddApiKey(host); err != nil {
			t.Fatal(err)
		}
		hosts[host] = token
	}

	for host, key := range hosts {
		if !c.CheckApiKey(host, key) {
			t.Errorf("Expected API key %q for host %q to be valid", key, host)
		}
	}
}

func TestConfig_CheckApiKey_Localhost(t *testing.T) {
	teardownSuite := setupSuite(t)
	defer teardownSuite(t)

	c := New()
	if err := c.Load(ConfigModeServer); err != nil {
		t.Errorf("Expected nil error but got %v", err)
	}

	addr := "127.0.0.1"
	key := "abcdef123456"
	getSecrets = func(bool) map[string][]byte {
		return map[string][]byte{
			"KPV_SERVICE_KEY": []byte(key),
		}
	}

	if !c.CheckApiKey(addr, key) {
		t.Errorf("Expected API key %q for address %q to be valid", key, addr)
	}
}

func TestConfig_CheckApiKey_InvalidKey(t *testing.T) {
	teardownSuite := setupSuite(t)
	defer teardownSuite(t)

	c := New()
	if err := c.Load(ConfigModeServer); err != nil {
		t.Errorf("Expected nil error but got %v", err)
	}

	getSecrets = func(bool) map[string][]byte {
		return map[string][]byte{}
	}

	addr := "127.0.0.1"
	key := "invalidkey"

	if c.CheckApiKey(addr, key) {
		t.Errorf("Expected API key %q for address %q to be invalid", key, addr)
	}
}

func TestGetConfigPath(t *testing.T) {
	expectedPath := filepath.Join(os.Getenv("HOME"), ".config/kipvault/server.yaml")
	actualPath := getConfigPath(ConfigModeServer)
	if actualPath != expectedPath {
		t.Errorf("Expected config path %q but got %q", expectedPath, actualPath)
	}
}
