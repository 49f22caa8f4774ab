/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewWithFileWritesStructuredJSON verifies that a file sink receives JSON records
// carrying both static and contextual attributes.
func TestNewWithFileWritesStructuredJSON(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "sbg.json")

	var console bytes.Buffer
	l := New(Options{Level: "debug", Format: "json", File: fpath}, &console)
	l = WithOperation(l.With(slog.String("component", "testcomp")), "op1")
	l.Info("hello world", slog.String("k", "v"))

	time.Sleep(50 * time.Millisecond)

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(b))
	var last string
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	if m["app"] != "storyboardgen" {
		t.Fatalf("missing app attr: %v", m["app"])
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr")
	}
	if m["component"] != "testcomp" || m["op"] != "op1" {
		t.Fatalf("context attrs mismatch: %v", m)
	}
	if m["msg"] != "hello world" || m["k"] != "v" {
		t.Fatalf("record mismatch: %v", m)
	}
	if !strings.Contains(console.String(), "hello world") {
		t.Fatalf("console sink missed the record: %q", console.String())
	}
}

func TestNewConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "warn"}, &buf)
	l.Info("quiet")
	l.Warn("loud", slog.Int("scenes", 2))
	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("info record leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "WRN loud") || !strings.Contains(out, "scenes=2") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestDiscardDropsEverything(t *testing.T) {
	l := Discard()
	if l.Enabled(nil, slog.LevelError) {
		t.Fatalf("discard logger should not be enabled")
	}
}
