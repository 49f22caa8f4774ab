/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyboardgen/internal/storyboard"
)

// isolate points config, history and logging at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("SBG_CONFIG", "")
	t.Setenv("SBG_BACKEND", "mock")
	t.Setenv("SBG_STORAGE_DRIVER", "sqlite")
	t.Setenv("SBG_STORAGE_DSN", filepath.Join(dir, "history.db"))
	t.Setenv("SBG_LOG_LEVEL", "error")
	t.Setenv("SBG_LOG_FILE", "")
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestVersionAndSample(t *testing.T) {
	isolate(t)
	if code, out, _ := runCLI(t, "", "version"); code != 0 || out == "" {
		t.Fatalf("version: code=%d out=%q", code, out)
	}
	code, out, _ := runCLI(t, "", "sample")
	if code != 0 || !strings.HasPrefix(out, "  INT. OFFICE - DAY") {
		t.Fatalf("sample: code=%d out=%q", code, out)
	}
}

func TestGenerateFromStdin(t *testing.T) {
	isolate(t)
	code, out, errOut := runCLI(t, sampleScript, "generate", "-", "-format", "json")
	if code != 0 {
		t.Fatalf("code=%d stderr=%s", code, errOut)
	}
	var sb storyboard.Storyboard
	if err := json.Unmarshal([]byte(out), &sb); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if sb.SceneCount != 2 || sb.FrameCount != 6 {
		t.Fatalf("unexpected counts: %d scenes, %d frames", sb.SceneCount, sb.FrameCount)
	}
	if sb.Scenes[1].Scene != "EXT. PARKING LOT - NIGHT" {
		t.Fatalf("second scene = %q", sb.Scenes[1].Scene)
	}
}

func TestGenerateFlagsBeforeScriptToFile(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "script.txt")
	if err := os.WriteFile(in, []byte(sampleScript), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	outPath := filepath.Join(dir, "out", "board.html")
	imgDir := filepath.Join(dir, "img")
	code, _, errOut := runCLI(t, "", "generate", "-format", "html", "-frames", "2", "-out", outPath, "-images", imgDir, in)
	if code != 0 {
		t.Fatalf("code=%d stderr=%s", code, errOut)
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(b), "Total scenes: 2 | Total frames: 4") {
		t.Fatalf("unexpected html:\n%s", b)
	}
	pngs, _ := filepath.Glob(filepath.Join(imgDir, "*.png"))
	if len(pngs) != 4 {
		t.Fatalf("expected 4 placeholder images, got %d", len(pngs))
	}
}

func TestGenerateUsageErrors(t *testing.T) {
	isolate(t)
	if code, _, _ := runCLI(t, "", "generate"); code != 2 {
		t.Fatalf("missing script: code=%d", code)
	}
	if code, _, _ := runCLI(t, sampleScript, "generate", "-", "-frames", "0"); code != 2 {
		t.Fatalf("zero frames: code=%d", code)
	}
	if code, _, _ := runCLI(t, "", "frobnicate"); code != 2 {
		t.Fatalf("unknown command: code=%d", code)
	}
	if code, _, _ := runCLI(t, "", "generate", filepath.Join(t.TempDir(), "missing.txt")); code != 1 {
		t.Fatalf("missing file: code=%d", code)
	}
}

func TestHistoryWorkflow(t *testing.T) {
	isolate(t)
	code, _, errOut := runCLI(t, sampleScript, "generate", "-", "-save", "-title", "Demo")
	if code != 0 {
		t.Fatalf("generate: code=%d stderr=%s", code, errOut)
	}
	i := strings.Index(errOut, "Saved storyboard ")
	if i < 0 {
		t.Fatalf("no saved id in stderr: %s", errOut)
	}
	id := strings.Fields(errOut[i+len("Saved storyboard "):])[0]

	if code, out, _ := runCLI(t, "", "history"); code != 0 || !strings.Contains(out, id) || !strings.Contains(out, "Demo") {
		t.Fatalf("history: code=%d out=%s", code, out)
	}
	if code, out, _ := runCLI(t, "", "search", "parking"); code != 0 || !strings.Contains(out, "EXT. PARKING LOT - NIGHT") {
		t.Fatalf("search: code=%d out=%s", code, out)
	}
	code, out, _ := runCLI(t, "", "show", id)
	if code != 0 {
		t.Fatalf("show: code=%d", code)
	}
	var sb storyboard.Storyboard
	if err := json.Unmarshal([]byte(out), &sb); err != nil || sb.ID != id || sb.Title != "Demo" {
		t.Fatalf("show: %v %+v", err, sb)
	}
	if code, _, _ := runCLI(t, "", "delete", id); code != 0 {
		t.Fatalf("delete: code=%d", code)
	}
	if code, _, _ := runCLI(t, "", "show", id); code != 1 {
		t.Fatalf("show after delete: code=%d", code)
	}
}

func TestSchemaAndConfig(t *testing.T) {
	dir := isolate(t)
	code, out, _ := runCLI(t, "", "schema")
	if code != 0 || !json.Valid([]byte(out)) {
		t.Fatalf("schema: code=%d out=%s", code, out)
	}
	cfgPath := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(cfgPath, []byte("storyboard:\n  frames_per_scene: 4\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if code, out, _ := runCLI(t, "", "--config", cfgPath, "config", "path"); code != 0 || strings.TrimSpace(out) != cfgPath {
		t.Fatalf("config path: code=%d out=%q", code, out)
	}
	code, out, _ = runCLI(t, "", "--config="+cfgPath, "config")
	if code != 0 || !strings.Contains(out, "frames_per_scene: 4") || !strings.Contains(out, "generator.backend overridden by SBG_BACKEND") {
		t.Fatalf("config show: code=%d out=%s", code, out)
	}
}
