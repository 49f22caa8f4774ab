/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package generate

import (
	"context"
	"errors"
	"sync"
)

// MockResponse is the text returned by Mock.
const MockResponse = "Generated storyboard description"

// Mock is a deterministic Generator. It records every prompt it receives and can be told to
// fail for selected prompts.
type Mock struct {
	Response string
	// FailWhen, when set, makes Generate fail for prompts it returns true for.
	FailWhen func(prompt string) bool
	// Delay, when set, is waited out before answering (or until ctx is done).
	Delay <-chan struct{}

	mu      sync.Mutex
	prompts []string
}

// NewMock returns a Mock answering MockResponse.
func NewMock() *Mock { return &Mock{Response: MockResponse} }

// Generate implements Generator.
func (m *Mock) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Delay != nil {
		select {
		case <-m.Delay:
		case <-ctx.Done():
			return "", &GenerationError{Backend: BackendMock, Err: ctx.Err()}
		}
	}
	if err := ctx.Err(); err != nil {
		return "", &GenerationError{Backend: BackendMock, Err: err}
	}
	if m.FailWhen != nil && m.FailWhen(prompt) {
		return "", &GenerationError{Backend: BackendMock, Err: errors.New("simulated failure")}
	}
	if m.Response == "" {
		return MockResponse, nil
	}
	return m.Response, nil
}

// Prompts returns a copy of the prompts received so far.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
