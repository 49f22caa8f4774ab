/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package generate defines the text generation capability used to describe storyboard frames
// and the backends that implement it.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// GenerationError is returned by backends when a generation call fails.
type GenerationError struct {
	Backend string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Backend == "" {
		return e.Err.Error()
	}
	return e.Backend + ": " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// systemPrompt frames every request sent to a hosted model.
const systemPrompt = "You are a storyboard artist. Describe each requested frame in one short paragraph."

// ErrEmptyResponse is wrapped when a backend answers with no text.
var ErrEmptyResponse = errors.New("empty response")

// Backend names accepted by New.
const (
	BackendMock   = "mock"
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	Model   string
	APIKey  string
	BaseURL string // OpenAI-compatible endpoint override
}

// New returns the backend named by cfg.Backend.
func New(ctx context.Context, cfg Config) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMock:
		return NewMock(), nil
	case BackendGemini:
		return NewGemini(ctx, cfg.APIKey, cfg.Model)
	case BackendOpenAI:
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown generator backend %q", cfg.Backend)
	}
}
