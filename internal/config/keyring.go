/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"storyboardgen/internal/generate"
)

// Env vars consulted for generator API keys, most specific first.
const (
	EnvAPIKey       = "SBG_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

const keyringService = "StoryboardGen"

// TokenStore abstracts keyring, so we can stub in tests.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

var tokenStore TokenStore = osKeyring{}

// SetTokenStore swaps the keychain backend and returns a func restoring the previous one.
func SetTokenStore(ts TokenStore) (restore func()) {
	prev := tokenStore
	tokenStore = ts
	return func() { tokenStore = prev }
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

func keyringKey(backend string) string { return strings.ToLower(backend) + "_api_key" }

// APIKey resolves the API key for backend: SBG_API_KEY, then the backend's conventional env var,
// then the OS keychain. The mock backend needs none.
func APIKey(backend string) (string, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" || backend == generate.BackendMock {
		return "", nil
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		return v, nil
	}
	switch backend {
	case generate.BackendGemini:
		if v := strings.TrimSpace(os.Getenv(EnvGeminiAPIKey)); v != "" {
			return v, nil
		}
	case generate.BackendOpenAI:
		if v := strings.TrimSpace(os.Getenv(EnvOpenAIAPIKey)); v != "" {
			return v, nil
		}
	}
	tok, err := tokenStore.Get(keyringService, keyringKey(backend))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return tok, err
}

// SaveAPIKey stores key for backend in the OS keychain; an empty key removes it.
func SaveAPIKey(backend, key string) error {
	if key == "" {
		err := tokenStore.Delete(keyringService, keyringKey(backend))
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}
	return tokenStore.Set(keyringService, keyringKey(backend), key)
}
