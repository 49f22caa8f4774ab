/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storyboard

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"storyboardgen/internal/generate"
	"storyboardgen/internal/script"
)

const twoScenes = `INT. OFFICE - DAY
John types at his desk.
SARAH
You've been at it all night?
EXT. PARKING LOT - NIGHT
John walks to his car.
`

func newTestBuilder(t *testing.T, gen generate.Generator, mutate func(*Options)) *Builder {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	b, err := NewBuilder(gen, opts, nil)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	b.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	b.newID = func() string { return "sb-test" }
	return b
}

func TestGenerateEndToEnd(t *testing.T) {
	b := newTestBuilder(t, generate.NewMock(), nil)
	sb := b.Generate(context.Background(), twoScenes)

	if sb.SceneCount != 2 || len(sb.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d (%d results)", sb.SceneCount, len(sb.Scenes))
	}
	if sb.FrameCount != 6 {
		t.Fatalf("FrameCount = %d, want 6", sb.FrameCount)
	}
	if sb.Title != DefaultTitle || sb.ID != "sb-test" || !sb.Generated.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("unexpected storyboard header: %+v", sb)
	}

	first := sb.Scenes[0]
	if first.Scene != "INT. OFFICE - DAY" || first.Failed() {
		t.Fatalf("unexpected first result: %+v", first)
	}
	f1 := first.Frames[0]
	if f1.ID != "INT.-OFFICE---DAY-frame-1" {
		t.Fatalf("frame id = %q", f1.ID)
	}
	if f1.Description != "Frame 1 for INT. OFFICE - DAY" {
		t.Fatalf("frame description = %q", f1.Description)
	}
	if f1.ImagePlaceholder != "https://example.com/storyboard/INT.-OFFICE---DAY-1.jpg" {
		t.Fatalf("image placeholder = %q", f1.ImagePlaceholder)
	}

	var characters, locations []string
	for _, e := range f1.Elements {
		switch e.Type {
		case ElementCharacter:
			characters = append(characters, e.Value)
		case ElementLocation:
			locations = append(locations, e.Value)
		}
	}
	if len(characters) != 1 || characters[0] != "SARAH" {
		t.Fatalf("characters = %q, want [SARAH]", characters)
	}
	if len(locations) != 1 || locations[0] != "DAY" {
		t.Fatalf("locations = %q, want [DAY]", locations)
	}
}

func TestCameraAnglesAcrossFrames(t *testing.T) {
	b := newTestBuilder(t, generate.NewMock(), func(o *Options) { o.FramesPerScene = 5 })
	res := b.GenerateScene(context.Background(), script.Scene{Heading: "INT. A - DAY"})
	want := []string{"wide", "medium", "close-up", "over-the-shoulder", "wide"}
	if len(res.Frames) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(res.Frames))
	}
	for i, f := range res.Frames {
		if f.CameraAngle != want[i] {
			t.Fatalf("frame %d angle = %q, want %q", i+1, f.CameraAngle, want[i])
		}
	}
}

func TestFailingSceneBecomesErrorResult(t *testing.T) {
	mock := &generate.Mock{FailWhen: func(p string) bool { return strings.Contains(p, "NIGHT") }}
	b := newTestBuilder(t, mock, nil)
	sb := b.Generate(context.Background(), twoScenes)

	if sb.SceneCount != 2 {
		t.Fatalf("SceneCount = %d, want 2", sb.SceneCount)
	}
	failed := sb.Scenes[1]
	if !failed.Failed() || failed.Error != FailureMessage {
		t.Fatalf("expected failed result, got %+v", failed)
	}
	if failed.Frames != nil {
		t.Fatalf("failed result must not carry frames")
	}
	if !strings.Contains(failed.ErrorDetails, "simulated failure") {
		t.Fatalf("error details = %q", failed.ErrorDetails)
	}
	if sb.FrameCount != 3 {
		t.Fatalf("FrameCount = %d, want 3 (failed scenes contribute nothing)", sb.FrameCount)
	}

	raw, err := json.Marshal(failed)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "frames") {
		t.Fatalf("error result serialized frames: %s", raw)
	}
}

func TestSceneTimeoutBecomesErrorResult(t *testing.T) {
	mock := &generate.Mock{Delay: make(chan struct{})}
	b := newTestBuilder(t, mock, func(o *Options) { o.SceneTimeout = 20 * time.Millisecond })
	res := b.GenerateScene(context.Background(), script.Scene{Heading: "INT. A - DAY"})
	if !res.Failed() || !strings.Contains(res.ErrorDetails, context.DeadlineExceeded.Error()) {
		t.Fatalf("expected timeout error result, got %+v", res)
	}
}

func TestConcurrentGenerationKeepsOrder(t *testing.T) {
	var inFlight, peak int32
	gen := generate.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return "ok", nil
	})
	b := newTestBuilder(t, gen, func(o *Options) { o.Concurrency = 2 })

	var text strings.Builder
	headings := []string{"INT. A - DAY", "INT. B - DAY", "INT. C - DAY", "INT. D - DAY", "INT. E - DAY"}
	for _, h := range headings {
		text.WriteString(h + "\nSomething happens.\n")
	}
	sb := b.Generate(context.Background(), text.String())
	for i, h := range headings {
		if sb.Scenes[i].Scene != h {
			t.Fatalf("scene %d = %q, want %q", i, sb.Scenes[i].Scene, h)
		}
	}
	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Fatalf("peak concurrency %d exceeds limit 2", p)
	}
	if sb.FrameCount != 15 {
		t.Fatalf("FrameCount = %d, want 15", sb.FrameCount)
	}
}

func TestNewBuilderValidates(t *testing.T) {
	opts := DefaultOptions()
	opts.FramesPerScene = 0
	if _, err := NewBuilder(generate.NewMock(), opts, nil); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions for zero frames, got %v", err)
	}
	opts = DefaultOptions()
	opts.CameraAngles = nil
	if _, err := NewBuilder(generate.NewMock(), opts, nil); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions for no angles, got %v", err)
	}
	if _, err := NewBuilder(nil, DefaultOptions(), nil); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions for nil generator, got %v", err)
	}
}

func TestBuilderUsesLegacyLookahead(t *testing.T) {
	input := "INT. K - DAY\nANNA\nFirst.\nEXT. G - DAY\nANNA\nSecond."
	b := newTestBuilder(t, generate.NewMock(), func(o *Options) { o.Lookahead = script.LookaheadByContent })
	scenes := b.Parse(input)
	if scenes[1].Dialogues[0].Line != "First." {
		t.Fatalf("legacy lookahead not applied: %+v", scenes[1].Dialogues)
	}
}

func TestEmptyScriptYieldsEmptyStoryboard(t *testing.T) {
	b := newTestBuilder(t, generate.NewMock(), nil)
	sb := b.Generate(context.Background(), "no headings here")
	if sb.SceneCount != 0 || sb.FrameCount != 0 || sb.Scenes == nil {
		t.Fatalf("unexpected storyboard: %+v", sb)
	}
}
