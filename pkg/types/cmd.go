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
package types

type ServeCmd struct {
	Cert       string            `yaml:"cert" env:"KPV_CERT"`
	Key        string            `yaml:"key" env:"KPV_KEY"`
	Server     string            `yaml:"server" env:"KPV_SERVER"`
	Port       int               `yaml:"port" env:"KPV_PORT"`
	ApiKeys    map[string]string `yaml:"apikeys" env:"KPV_APIKEYS" envSeparator:","`
	StoreURL   string            `yaml:"storeurl" env:"KPV_STORE_URL"`
	KeyVersion string            `yaml:"keyversion" env:"KPV_KEY_VERSION"`
	SkipVerify bool              `yaml:"skipverify" env:"KPV_SKIPVERIFY"`
	Debug      bool              `yaml:"debug" env:"KPV_DEBUG"`
	Quiet      bool              `yaml:"quiet" env:"KPV_QUIET"`
}

func (s *ServeCmd) Merge(c *ClientCmd) {
	if s.Server == "" {
		s.Server = c.Server
	}
	if s.Port == 0 {
		s.Port = c.Port
	}
	if s.StoreURL == "" {
		s.StoreURL = c.StoreURL
	}
	if !s.SkipVerify {
		s.SkipVerify = c.SkipVerify
	}

	if !s.Debug {
		s.Debug = c.Debug
	}

	if !s.Quiet {
		s.Quiet = c.Quiet
	}
}

type ClientCmd struct {
	Server     string `yaml:"server" env:"KPV_SERVER"`
	Port       int    `yaml:"port" env:"KPV_PORT"`
	StoreURL   string `yaml:"storeurl" env:"KPV_STORE_URL"`
	SkipVerify bool   `yaml:"skipverify" env:"KPV_SKIPVERIFY"`
	Debug      bool   `yaml:"debug" env:"KPV_DEBUG"`
	Quiet      bool   `yaml:"quiet" env:"KPV_QUIET"`
	Token      string `yaml:"token" env:"KPV_TOKEN"`
	Output     string `yaml:"output" env:"KPV_OUTPUT"`
}
