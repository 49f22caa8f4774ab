/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"storyboardgen/internal/generate"
	"storyboardgen/internal/storage"
	"storyboardgen/internal/storyboard"
)

const script = `INT. OFFICE - DAY
John types at his desk.
SARAH
You've been at it all night?
EXT. PARKING LOT - NIGHT
John walks to his car.
`

func newTestServer(t *testing.T, withHistory bool) *Server {
	t.Helper()
	b, err := storyboard.NewBuilder(generate.NewMock(), storyboard.DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	opts := Options{Builder: b, Logger: slog.New(slog.DiscardHandler), BodyLimit: "1M"}
	if withHistory {
		st, err := storage.Open(context.Background(), storage.DriverSQLite, filepath.Join(t.TempDir(), "history.db"))
		if err != nil {
			t.Fatalf("storage.Open: %v", err)
		}
		t.Cleanup(func() { _ = st.Close() })
		opts.History = st
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func do(s *Server, method, target string, body any) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHealthReadyVersion(t *testing.T) {
	s := newTestServer(t, true)
	for _, p := range []string{"/healthz", "/readyz", "/version"} {
		if rec := do(s, http.MethodGet, p, nil); rec.Code != http.StatusOK || rec.Body.Len() == 0 {
			t.Fatalf("%s: status %d body %q", p, rec.Code, rec.Body.String())
		}
	}
}

func TestGenerateJSONWithoutHistory(t *testing.T) {
	s := newTestServer(t, false)
	rec := do(s, http.MethodPost, "/api/storyboards", generateReq{Script: script, Title: "Pilot"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var sb storyboard.Storyboard
	if err := json.Unmarshal(rec.Body.Bytes(), &sb); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sb.Title != "Pilot" || sb.SceneCount != 2 || sb.FrameCount != 6 {
		t.Fatalf("unexpected storyboard: %+v", sb)
	}
	if rec.Header().Get(echo.HeaderLocation) != "" {
		t.Fatalf("no Location expected without history")
	}
	if rec := do(s, http.MethodGet, "/api/storyboards", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("list without history: status %d", rec.Code)
	}
}

func TestGenerateRejectsEmptyScript(t *testing.T) {
	s := newTestServer(t, false)
	if rec := do(s, http.MethodPost, "/api/storyboards", generateReq{Script: "  "}); rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestGenerateHTML(t *testing.T) {
	s := newTestServer(t, false)
	rec := do(s, http.MethodPost, "/api/storyboards", generateReq{Script: script, Format: "HTML"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Camera: wide") {
		t.Fatalf("html body missing frame card")
	}
}

func TestHistoryLifecycle(t *testing.T) {
	s := newTestServer(t, true)
	rec := do(s, http.MethodPost, "/api/storyboards", generateReq{Script: script})
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate: status %d", rec.Code)
	}
	loc := rec.Header().Get(echo.HeaderLocation)
	if !strings.HasPrefix(loc, "/api/storyboards/") {
		t.Fatalf("Location = %q", loc)
	}
	id := strings.TrimPrefix(loc, "/api/storyboards/")

	rec = do(s, http.MethodGet, "/api/storyboards", nil)
	var list []storage.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 1 || list[0].ID != id {
		t.Fatalf("list: %v %+v", err, list)
	}

	rec = do(s, http.MethodGet, "/api/storyboards/"+id+"?format=pdf", nil)
	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("get pdf: status %d", rec.Code)
	}

	rec = do(s, http.MethodGet, "/api/scenes?q=office", nil)
	var hits []storage.SceneHit
	if err := json.Unmarshal(rec.Body.Bytes(), &hits); err != nil || len(hits) != 1 || hits[0].StoryboardID != id {
		t.Fatalf("search: %v %+v", err, hits)
	}
	if rec := do(s, http.MethodGet, "/api/scenes", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("search without q: status %d", rec.Code)
	}

	if rec := do(s, http.MethodDelete, "/api/storyboards/"+id, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	if rec := do(s, http.MethodGet, "/api/storyboards/"+id, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", rec.Code)
	}
}

type downHistory struct{ History }

func (downHistory) Ping(context.Context) error { return errors.New("down") }

func TestReadyReportsUnavailableStore(t *testing.T) {
	s := newTestServer(t, false)
	s.history = downHistory{}
	if rec := do(s, http.MethodGet, "/readyz", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestNewRequiresBuilder(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error without builder")
	}
}
