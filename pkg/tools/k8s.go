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
package tools

import (
	"fmt"
	"os"

	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/yaml"
)

// ManifestPath points at a mounted Kubernetes Secret manifest. Containerised
// deployments mount the secret as a file and set this through the
// KPV_SECRETS_MANIFEST environment variable.
var ManifestPath func() string = func() string {
	return os.Getenv("KPV_SECRETS_MANIFEST")
}

// getSecretFromManifest reads one key out of a Secret manifest on disk.
func getSecretFromManifest(what string) (string, error) {
	path := ManifestPath()
	if path == "" {
		return "", fmt.Errorf("no secrets manifest configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var secret corev1.Secret
	if err = yaml.Unmarshal(data, &secret); err != nil {
		return "", fmt.Errorf("malformed secrets manifest %s: %w", path, err)
	}

	if value, ok := secret.StringData[what]; ok {
		return value, nil
	}
	if value, ok := secret.Data[what]; ok {
		// Data values arrive base64 decoded by the yaml unmarshaller.
		return string(value), nil
	}
	return "", nil
}
