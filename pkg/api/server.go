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

// Package api exposes record projections over HTTP. Decryption happens only
// inside this process: callers receive exactly the view their role allows,
// so the privilege rule is a process boundary rather than a client filter.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/kiprotek/kipvault/pkg/config"
	"github.com/kiprotek/kipvault/pkg/crypto"
	"github.com/kiprotek/kipvault/pkg/fields"
	"github.com/kiprotek/kipvault/pkg/keys"
	"github.com/kiprotek/kipvault/pkg/store"
	"github.com/kiprotek/kipvault/pkg/types"
)

const DefaultPort = 6278

type HttpServer struct {
	c     *config.Config
	store *store.Client
	keys  *keys.Manager

	mu       sync.Mutex
	sessions map[string]types.Viewer
}

func NewHttpServer(c *config.Config, client *store.Client, km *keys.Manager) *HttpServer {
	return &HttpServer{
		c:        c,
		store:    client,
		keys:     km,
		sessions: make(map[string]types.Viewer),
	}
}

func (s *HttpServer) writeResponseError(w *http.ResponseWriter, message string, code int) (err error) {
	message = strings.ReplaceAll(message, `"`, ``)
	message = strings.ReplaceAll(message, `\`, ``)
	var b []byte
	if b, err = json.Marshal(map[string]string{
		"message": message,
	}); err != nil {
		return
	}

	(*w).WriteHeader(code)
	fmt.Fprint(*w, string(b))
	return
}

func (s *HttpServer) writeJson(w http.ResponseWriter, code int, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		_ = s.writeResponseError(&w, fmt.Sprintf("error: %q", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprint(w, string(b))
}

func (s *HttpServer) IsSecure() (secure bool) {
	return s.c.IsSecure()
}

// ensureKey makes the site key available before any field is touched. The
// server process acts as an admin towards the store.
func (s *HttpServer) ensureKey(r *http.Request) error {
	if _, err := s.keys.Key(); err == nil {
		return nil
	}
	return s.keys.FetchRemote(r.Context(), s.store, types.Viewer{Role: types.RoleAdmin})
}

// viewerFor resolves who is calling. A bearer token is first matched against
// login sessions, then against configured api keys which grant admin. No
// token, or an unknown one, makes the caller anonymous.
func (s *HttpServer) viewerFor(r *http.Request) types.Viewer {
	var (
		addr string   = strings.Split(r.RemoteAddr, ":")[0]
		auth []string = strings.Split(r.Header.Get("Authorization"), " ")
	)

	if len(auth) != 2 || auth[0] != "Bearer" {
		return types.Viewer{}
	}

	s.mu.Lock()
	viewer, ok := s.sessions[auth[1]]
	s.mu.Unlock()
	if ok {
		return viewer
	}

	if s.c.CheckApiKey(addr, auth[1]) {
		return types.Viewer{Role: types.RoleAdmin}
	}
	return types.Viewer{}
}

func (s *HttpServer) health(w http.ResponseWriter, r *http.Request) {
	complete, err := s.store.IsSetupComplete(r.Context())
	if err != nil {
		_ = s.writeResponseError(&w, "store unreachable", http.StatusBadGateway)
		return
	}
	s.writeJson(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"setup_complete": complete,
	})
}

func (s *HttpServer) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		_ = s.writeResponseError(&w, "invalid method", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = s.writeResponseError(&w, "malformed request body", http.StatusBadRequest)
		return
	}

	profile, err := s.store.GetProfileByEmail(r.Context(), body.Email)
	if err != nil {
		_ = s.writeResponseError(&w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	ok, err := crypto.VerifyPassword(body.Password, profile.PasswordHash, profile.PasswordSalt)
	if err != nil || !ok || !profile.IsActive {
		_ = s.writeResponseError(&w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = types.Viewer{
		ID:         profile.ID,
		Role:       profile.Role,
		SuperAdmin: profile.IsSuperAdmin,
	}
	s.mu.Unlock()

	s.writeJson(w, http.StatusOK, map[string]string{
		"token": token,
		"role":  string(profile.Role),
	})
}

func (s *HttpServer) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		_ = s.writeResponseError(&w, "invalid method", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Name     string     `json:"name"`
		Email    string     `json:"email"`
		Phone    string     `json:"phone"`
		Password string     `json:"password"`
		Role     types.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = s.writeResponseError(&w, "malformed request body", http.StatusBadRequest)
		return
	}
	if body.Role != types.RoleBuyer && body.Role != types.RoleProvider {
		_ = s.writeResponseError(&w, "role must be buyer or provider", http.StatusBadRequest)
		return
	}

	if strength := crypto.ValidateStrength(body.Password); !strength.IsValid {
		_ = s.writeResponseError(&w, strings.Join(strength.Errors, "; "), http.StatusBadRequest)
		return
	}

	record, err := crypto.HashPassword(body.Password, nil)
	if err != nil {
		_ = s.writeResponseError(&w, "internal error", http.StatusInternalServerError)
		return
	}

	if err = s.ensureKey(r); err != nil {
		_ = s.writeResponseError(&w, "encryption key not available", http.StatusServiceUnavailable)
		return
	}

	profile := types.Profile{
		ID:           uuid.New(),
		Name:         body.Name,
		Email:        body.Email,
		Phone:        body.Phone,
		PasswordHash: record.Hash,
		PasswordSalt: record.Salt,
		Role:         body.Role,
		IsActive:     true,
	}
	if err = fields.EncryptProfile(s.keys, &profile); err != nil {
		_ = s.writeResponseError(&w, "internal error", http.StatusInternalServerError)
		return
	}
	if _, err = s.store.CreateProfile(r.Context(), profile); err != nil {
		log.Printf("register: %v", err)
		_ = s.writeResponseError(&w, "could not create profile", http.StatusBadGateway)
		return
	}

	projected, err := fields.ProjectProfile(s.keys, types.Viewer{ID: profile.ID, Role: profile.Role}, profile)
	if err != nil {
		_ = s.writeResponseError(&w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJson(w, http.StatusCreated, projected)
}

func (s *HttpServer) getProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		_ = s.writeResponseError(&w, "invalid method", http.StatusMethodNotAllowed)
		return
	}

	id, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/api/v1/profiles/"))
	if err != nil {
		_ = s.writeResponseError(&w, "invalid profile id", http.StatusBadRequest)
		return
	}

	if err = s.ensureKey(r); err != nil {
		_ = s.writeResponseError(&w, "encryption key not available", http.StatusServiceUnavailable)
		return
	}

	profile, err := s.store.GetProfile(r.Context(), id)
	if err != nil {
		_ = s.writeResponseError(&w, fmt.Sprintf("profile %s not found", id), http.StatusNotFound)
		return
	}

	projected, err := fields.ProjectProfile(s.keys, s.viewerFor(r), profile)
	if err != nil {
		_ = s.writeResponseError(&w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJson(w, http.StatusOK, projected)
}

func (s *HttpServer) getJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		_ = s.writeResponseError(&w, "invalid method", http.StatusMethodNotAllowed)
		return
	}

	id, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/"))
	if err != nil {
		_ = s.writeResponseError(&w, "invalid job id", http.StatusBadRequest)
		return
	}

	if err = s.ensureKey(r); err != nil {
		_ = s.writeResponseError(&w, "encryption key not available", http.StatusServiceUnavailable)
		return
	}

	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		_ = s.writeResponseError(&w, fmt.Sprintf("job %s not found", id), http.StatusNotFound)
		return
	}

	projected, err := fields.ProjectJob(s.keys, s.viewerFor(r), job)
	if err != nil {
		_ = s.writeResponseError(&w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJson(w, http.StatusOK, projected)
}

func (s *HttpServer) getSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		_ = s.writeResponseError(&w, "invalid method", http.StatusMethodNotAllowed)
		return
	}

	viewer := s.viewerFor(r)
	if err := s.ensureKey(r); err != nil && viewer.Admin() {
		_ = s.writeResponseError(&w, "encryption key not available", http.StatusServiceUnavailable)
		return
	}

	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		_ = s.writeResponseError(&w, "store unreachable", http.StatusBadGateway)
		return
	}

	projected, err := fields.ProjectSettings(s.keys, viewer, settings)
	if err != nil {
		_ = s.writeResponseError(&w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJson(w, http.StatusOK, projected)
}

func (s *HttpServer) routes() *http.ServeMux {
	server := http.NewServeMux()
	server.HandleFunc("/api/v1/health", s.health)
	server.HandleFunc("/api/v1/login", s.login)
	server.HandleFunc("/api/v1/register", s.register)
	server.HandleFunc("/api/v1/profiles/", s.getProfile)
	server.HandleFunc("/api/v1/jobs/", s.getJob)
	server.HandleFunc("/api/v1/settings", s.getSettings)
	return server
}

// ListenAndServe starts the HTTP server and listens for requests
func (s *HttpServer) ListenAndServe(cmdConfig types.ServeCmd) (err error) {
	var listener net.Listener

	if err := s.c.Load(config.ConfigModeServer); err != nil {
		log.Fatalf("Invalid config file: %q", err)
	}
	s.c.MergeServerConfig(cmdConfig)

	complete, err := s.store.IsSetupComplete(context.Background())
	if err != nil {
		return err
	}
	if !complete {
		return fmt.Errorf("site setup has not completed - run `kipvault setup` first")
	}

	if s.c.Server.Port == 0 {
		s.c.Server.Port = DefaultPort
		if err = s.c.Save(); err != nil {
			log.Fatal(err)
		}
	}

	if listener, err = net.Listen("tcp4", fmt.Sprintf(":%d", s.c.Server.Port)); err != nil {
		log.Fatal(err)
	}

	server := s.routes()
	if s.IsSecure() {
		log.Printf("Listening for secure connections on :%d\n", s.c.Server.Port)
		err = http.ServeTLS(listener, server, s.c.Server.Cert, s.c.Server.Key)
		return
	}

	log.Printf("Listening for unsecured connections on :%d\n", s.c.Server.Port)
	err = http.Serve(listener, server)
	return err
}
