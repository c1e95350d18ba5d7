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

// Package store talks to the hosted row store over its REST surface.
// Rows are addressed PostgREST style: /rest/v1/<table>?<col>=eq.<value>.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/kiprotek/kipvault/pkg/transport"
	"github.com/kiprotek/kipvault/pkg/types"
)

// SettingsID is the id of the singleton settings row.
const SettingsID = 1

type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string

	client transport.HttpClient
}

func New(baseURL, anonKey, serviceKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		anonKey:    anonKey,
		serviceKey: serviceKey,
		client:     transport.DefaultHttpClient,
	}
}

// SetTransport swaps the HTTP client. Used by tests.
func (c *Client) SetTransport(t transport.HttpClient) {
	c.client = t
}

func (c *Client) endpoint(table, query string) string {
	u := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if query != "" {
		u += "?" + query
	}
	return u
}

// newRequest builds a request carrying the store's api headers. The service
// role key is used for writes and privileged reads; everything else goes out
// under the anon key.
func (c *Client) newRequest(method, urlstr string, send any, privileged bool) (*http.Request, error) {
	var body *bytes.Buffer = new(bytes.Buffer)
	if send != nil {
		if err := json.NewEncoder(body).Encode(send); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequest(method, urlstr, body)
	if err != nil {
		return nil, err
	}

	key := c.anonKey
	if privileged {
		key = c.serviceKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+key)
	if send != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// read runs an idempotent select with retry on transient failures.
func (c *Client) read(ctx context.Context, table, query string, recv any, privileged bool) error {
	req, err := c.newRequest("GET", c.endpoint(table, query), nil, privileged)
	if err != nil {
		return err
	}
	return c.client.DoWithBackoff(ctx, req, recv)
}

// write runs a single-shot mutation. Provisioning writes are never retried
// automatically; a failure is surfaced to the operator who decides whether
// to run the step again.
func (c *Client) write(ctx context.Context, method, table, query string, send, recv any, upsert bool) error {
	req, err := c.newRequest(method, c.endpoint(table, query), send, true)
	if err != nil {
		return err
	}
	if upsert {
		req.Header.Set("Prefer", "resolution=merge-duplicates")
	}
	if recv != nil {
		req.Header.Add("Prefer", "return=representation")
	}
	return c.client.Do(ctx, req, recv)
}

// Ping probes reachability with the cheapest possible select.
func (c *Client) Ping(ctx context.Context) error {
	var rows []struct {
		ID int `json:"id"`
	}
	req, err := c.newRequest("GET", c.endpoint("settings", "select=id&limit=1"), nil, false)
	if err != nil {
		return err
	}
	// Single attempt. The caller owns retry decisions here.
	if err = c.client.Do(ctx, req, &rows); err != nil {
		return types.ConnectivityError{Endpoint: c.baseURL, Err: err}
	}
	return nil
}

func (c *Client) GetSettings(ctx context.Context) (types.Settings, error) {
	var rows []types.Settings
	query := fmt.Sprintf("id=eq.%d&select=*", SettingsID)
	if err := c.read(ctx, "settings", query, &rows, true); err != nil {
		return types.Settings{}, types.ConnectivityError{Endpoint: c.baseURL, Err: err}
	}
	if len(rows) == 0 {
		return types.Settings{ID: SettingsID}, nil
	}
	return rows[0], nil
}

func (c *Client) UpsertSettings(ctx context.Context, settings types.Settings) error {
	settings.ID = SettingsID
	if err := c.write(ctx, "POST", "settings", "", settings, nil, true); err != nil {
		return types.PersistenceError{Op: "upsert settings", Err: err}
	}
	return nil
}

// SaveEncryptionKey persists the base64 site key into the settings row
// without touching any other column.
func (c *Client) SaveEncryptionKey(ctx context.Context, key string) error {
	send := map[string]any{"id": SettingsID, "x_secret": key}
	if err := c.write(ctx, "POST", "settings", "", send, nil, true); err != nil {
		return types.PersistenceError{Op: "save encryption key", Err: err}
	}
	return nil
}

// EncryptionKey reads the stored site key. An empty value means no key has
// been established yet.
func (c *Client) EncryptionKey(ctx context.Context) (string, error) {
	var rows []struct {
		XSecret string `json:"x_secret"`
	}
	query := fmt.Sprintf("id=eq.%d&select=x_secret", SettingsID)
	if err := c.read(ctx, "settings", query, &rows, true); err != nil {
		return "", types.ConnectivityError{Endpoint: c.baseURL, Err: err}
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].XSecret, nil
}

func (c *Client) IsSetupComplete(ctx context.Context) (bool, error) {
	var rows []struct {
		SetupComplete bool `json:"setup_complete"`
	}
	query := fmt.Sprintf("id=eq.%d&select=setup_complete", SettingsID)
	if err := c.read(ctx, "settings", query, &rows, false); err != nil {
		return false, types.ConnectivityError{Endpoint: c.baseURL, Err: err}
	}
	return len(rows) > 0 && rows[0].SetupComplete, nil
}

func (c *Client) SetSetupComplete(ctx context.Context) error {
	send := map[string]any{"id": SettingsID, "setup_complete": true}
	if err := c.write(ctx, "POST", "settings", "", send, nil, true); err != nil {
		return types.PersistenceError{Op: "set setup complete", Err: err}
	}
	return nil
}

func (c *Client) CreateProfile(ctx context.Context, profile types.Profile) (types.Profile, error) {
	var rows []types.Profile
	if err := c.write(ctx, "POST", "profiles", "", profile, &rows, false); err != nil {
		return types.Profile{}, types.PersistenceError{Op: "create profile", Err: err}
	}
	if len(rows) == 0 {
		return profile, nil
	}
	return rows[0], nil
}

func (c *Client) GetProfile(ctx context.Context, id uuid.UUID) (types.Profile, error) {
	var rows []types.Profile
	query := fmt.Sprintf("id=eq.%s&select=*", id)
	if err := c.read(ctx, "profiles", query, &rows, true); err != nil {
		return types.Profile{}, types.ConnectivityError{Endpoint: c.baseURL, Err: err}
	}
	if len(rows) == 0 {
		return types.Profile{}, types.PersistenceError{Op: "get profile", Err: fmt.Errorf("no profile with id %s", id)}
	}
	return rows[0], nil
}

func (c *Client) GetProfileByEmail(ctx context.Context, email string) (types.Profile, error) {
	var rows []types.Profile
	query := fmt.Sprintf("email=eq.%s&select=*", url.QueryEscape(email))
	if err := c.read(ctx, "profiles", query, &rows, true); err != nil {
		return types.Profile{}, types.ConnectivityError{Endpoint: c.baseURL, Err: err}
	}
	if len(rows) == 0 {
		return types.Profile{}, types.PersistenceError{Op: "get profile", Err: fmt.Errorf("no profile with email %s", email)}
	}
	return rows[0], nil
}

func (c *Client) HasSuperAdmin(ctx context.Context) (bool, error) {
	var rows []struct {
		ID uuid.UUID `json:"id"`
	}
	query := "is_super_admin=eq.true&select=id&limit=1"
	if err := c.read(ctx, "profiles", query, &rows, true); err != nil {
		return false, types.ConnectivityError{Endpoint: c.baseURL, Err: err}
	}
	return len(rows) > 0, nil
}

func (c *Client) CreateJob(ctx context.Context, job types.Job) (types.Job, error) {
	var rows []types.Job
	if err := c.write(ctx, "POST", "jobs", "", job, &rows, false); err != nil {
		return types.Job{}, types.PersistenceError{Op: "create job", Err: err}
	}
	if len(rows) == 0 {
		return job, nil
	}
	return rows[0], nil
}

func (c *Client) GetJob(ctx context.Context, id uuid.UUID) (types.Job, error) {
	var rows []types.Job
	query := fmt.Sprintf("id=eq.%s&select=*", id)
	if err := c.read(ctx, "jobs", query, &rows, true); err != nil {
		return types.Job{}, types.ConnectivityError{Endpoint: c.baseURL, Err: err}
	}
	if len(rows) == 0 {
		return types.Job{}, types.PersistenceError{Op: "get job", Err: fmt.Errorf("no job with id %s", id)}
	}
	return rows[0], nil
}

// ListProfiles returns every profile row. Admin surface only.
func (c *Client) ListProfiles(ctx context.Context) ([]types.Profile, error) {
	var rows []types.Profile
	if err := c.read(ctx, "profiles", "select=*&order=created_at.asc", &rows, true); err != nil {
		return nil, types.ConnectivityError{Endpoint: c.baseURL, Err: err}
	}
	return rows, nil
}

// ListJobs returns every job row. Admin surface only.
func (c *Client) ListJobs(ctx context.Context) ([]types.Job, error) {
	var rows []types.Job
	if err := c.read(ctx, "jobs", "select=*&order=created_at.asc", &rows, true); err != nil {
		return nil, types.ConnectivityError{Endpoint: c.baseURL, Err: err}
	}
	return rows, nil
}

// UpdateProfile writes changed profile columns back to the row.
func (c *Client) UpdateProfile(ctx context.Context, profile types.Profile) error {
	query := fmt.Sprintf("id=eq.%s", profile.ID)
	if err := c.write(ctx, "PATCH", "profiles", query, profile, nil, false); err != nil {
		return types.PersistenceError{Op: "update profile", Err: err}
	}
	return nil
}

// UpdateJob writes changed job columns back to the row.
func (c *Client) UpdateJob(ctx context.Context, job types.Job) error {
	query := fmt.Sprintf("id=eq.%s", job.ID)
	if err := c.write(ctx, "PATCH", "jobs", query, job, nil, false); err != nil {
		return types.PersistenceError{Op: "update job", Err: err}
	}
	return nil
}
