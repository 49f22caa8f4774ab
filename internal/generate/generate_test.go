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
	"strings"
	"testing"
	"time"
)

func TestMockIsDeterministic(t *testing.T) {
	m := NewMock()
	for i := 0; i < 2; i++ {
		got, err := m.Generate(context.Background(), "prompt")
		if err != nil {
			t.Fatalf("Generate error: %v", err)
		}
		if got != MockResponse {
			t.Fatalf("Generate = %q, want %q", got, MockResponse)
		}
	}
	if p := m.Prompts(); len(p) != 2 || p[0] != "prompt" {
		t.Fatalf("prompts not recorded: %q", p)
	}
}

func TestMockFailWhen(t *testing.T) {
	m := &Mock{FailWhen: func(p string) bool { return strings.Contains(p, "NIGHT") }}
	if _, err := m.Generate(context.Background(), "Scene: INT. OFFICE - DAY"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := m.Generate(context.Background(), "Scene: EXT. LOT - NIGHT")
	var ge *GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if ge.Backend != BackendMock || !strings.Contains(err.Error(), "simulated failure") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMockDelayHonorsContext(t *testing.T) {
	m := &Mock{Delay: make(chan struct{})}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := m.Generate(ctx, "p")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestGeneratorFunc(t *testing.T) {
	var g Generator = GeneratorFunc(func(_ context.Context, p string) (string, error) {
		return strings.ToUpper(p), nil
	})
	got, err := g.Generate(context.Background(), "abc")
	if err != nil || got != "ABC" {
		t.Fatalf("GeneratorFunc = %q, %v", got, err)
	}
}

func TestGenerationErrorMessage(t *testing.T) {
	base := errors.New("quota exceeded")
	err := &GenerationError{Backend: BackendGemini, Err: base}
	if err.Error() != "gemini: quota exceeded" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Fatalf("GenerationError should unwrap to its cause")
	}
	if (&GenerationError{Err: base}).Error() != "quota exceeded" {
		t.Fatalf("backend-less error should equal cause")
	}
}

func TestNewSelectsBackend(t *testing.T) {
	g, err := New(context.Background(), Config{})
	if err != nil {
		t.Fatalf("New default: %v", err)
	}
	if _, ok := g.(*Mock); !ok {
		t.Fatalf("default backend should be mock, got %T", g)
	}
	g, err = New(context.Background(), Config{Backend: "OpenAI", APIKey: "test", BaseURL: "http://localhost:1234/v1"})
	if err != nil {
		t.Fatalf("New openai: %v", err)
	}
	if o, ok := g.(*OpenAI); !ok || o.model != DefaultOpenAIModel {
		t.Fatalf("expected OpenAI backend with default model, got %#v", g)
	}
	if _, err := New(context.Background(), Config{Backend: "dall-e"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
