/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storyboard turns parsed scenes into storyboard frames.
// A Builder owns the generation options, calls the configured generate.Generator once per scene
// and aggregates the per-scene results into a Storyboard. A failing scene becomes an error
// result; it never aborts the run.
package storyboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/ksuid"
	"golang.org/x/sync/errgroup"

	"storyboardgen/internal/generate"
	"storyboardgen/internal/script"
)

// DefaultTitle is used when Options.Title is empty.
const DefaultTitle = "Generated Storyboard"

// DefaultImageBaseURL prefixes frame image placeholders.
const DefaultImageBaseURL = "https://example.com/storyboard"

// ErrInvalidOptions is wrapped by NewBuilder when options cannot produce frames.
var ErrInvalidOptions = errors.New("invalid storyboard options")

// Options controls prompt composition and frame synthesis.
type Options struct {
	CameraAngles              []string
	FramesPerScene            int
	IncludeCharacterPositions bool
	IncludeCamera             bool

	Title        string
	ImageBaseURL string
	Lookahead    script.Lookahead

	// Concurrency bounds parallel generation calls; values <= 1 generate scenes one by one.
	Concurrency int
	// SceneTimeout bounds each generation call when > 0.
	SceneTimeout time.Duration
}

// DefaultOptions mirrors the tool's stock configuration.
func DefaultOptions() Options {
	return Options{
		CameraAngles:              []string{"wide", "medium", "close-up", "over-the-shoulder"},
		FramesPerScene:            3,
		IncludeCharacterPositions: true,
		IncludeCamera:             true,
		Title:                     DefaultTitle,
		ImageBaseURL:              DefaultImageBaseURL,
		Concurrency:               1,
	}
}

// Validate reports option combinations that cannot produce frames.
func (o Options) Validate() error {
	if o.FramesPerScene <= 0 {
		return fmt.Errorf("%w: frames per scene must be positive, got %d", ErrInvalidOptions, o.FramesPerScene)
	}
	if len(o.CameraAngles) == 0 {
		return fmt.Errorf("%w: at least one camera angle is required", ErrInvalidOptions)
	}
	if o.Concurrency < 0 {
		return fmt.Errorf("%w: concurrency must not be negative", ErrInvalidOptions)
	}
	return nil
}

// Builder generates storyboards.
type Builder struct {
	gen  generate.Generator
	opts Options
	log  *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewBuilder validates opts and returns a Builder using gen for text generation.
// A nil logger discards output.
func NewBuilder(gen generate.Generator, opts Options, logger *slog.Logger) (*Builder, error) {
	if gen == nil {
		return nil, fmt.Errorf("%w: generator is required", ErrInvalidOptions)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.Title) == "" {
		opts.Title = DefaultTitle
	}
	if strings.TrimSpace(opts.ImageBaseURL) == "" {
		opts.ImageBaseURL = DefaultImageBaseURL
	}
	opts.ImageBaseURL = strings.TrimRight(opts.ImageBaseURL, "/")
	opts.CameraAngles = append([]string(nil), opts.CameraAngles...)
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{
		gen:   gen,
		opts:  opts,
		log:   logger.With(slog.String("component", "storyboard")),
		now:   time.Now,
		newID: func() string { return ksuid.New().String() },
	}, nil
}

// Options returns the effective options.
func (b *Builder) Options() Options { return b.opts }

// Parse splits text into scenes using the builder's lookahead mode.
func (b *Builder) Parse(text string) []script.Scene {
	return script.ParseWithOptions(text, script.Options{Lookahead: b.opts.Lookahead})
}

// Generate parses text and generates every scene.
func (b *Builder) Generate(ctx context.Context, text string) Storyboard {
	scenes := b.Parse(text)
	b.log.Info("parsed script", slog.Int("scenes", len(scenes)))
	return b.GenerateScenes(ctx, scenes)
}

// GenerateScenes generates the given scenes and aggregates their results in scene order.
func (b *Builder) GenerateScenes(ctx context.Context, scenes []script.Scene) Storyboard {
	results := make([]SceneResult, len(scenes))
	if b.opts.Concurrency <= 1 {
		for i, sc := range scenes {
			results[i] = b.GenerateScene(ctx, sc)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(b.opts.Concurrency)
		for i, sc := range scenes {
			g.Go(func() error {
				results[i] = b.GenerateScene(ctx, sc)
				return nil
			})
		}
		_ = g.Wait()
	}

	sb := Storyboard{
		ID:         b.newID(),
		Title:      b.opts.Title,
		SceneCount: len(scenes),
		FrameCount: countFrames(results),
		Scenes:     results,
		Generated:  b.now().UTC(),
	}
	b.log.Info("storyboard generated",
		slog.String("id", sb.ID),
		slog.Int("scenes", sb.SceneCount),
		slog.Int("frames", sb.FrameCount))
	return sb
}

// GenerateScene builds the prompt for scene, calls the generator and synthesizes the frames.
// Generation failures are returned as an error result.
func (b *Builder) GenerateScene(ctx context.Context, scene script.Scene) SceneResult {
	l := b.log.With(slog.String("scene", scene.Heading))
	prompt := BuildPrompt(scene, b.opts)
	l.Debug("generating scene", slog.Int("prompt_len", len(prompt)))

	callCtx := ctx
	if b.opts.SceneTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.opts.SceneTimeout)
		defer cancel()
	}
	text, err := b.gen.Generate(callCtx, prompt)
	if err != nil {
		l.Warn("scene generation failed", slog.Any("err", err))
		return sceneFailure(scene.Heading, err)
	}
	l.Debug("scene generated", slog.Int("response_len", len(text)))
	return sceneSuccess(scene.Heading, b.frames(scene))
}

func (b *Builder) frames(scene script.Scene) []Frame {
	slug := Slug(scene.Heading)
	frames := make([]Frame, 0, b.opts.FramesPerScene)
	for n := 1; n <= b.opts.FramesPerScene; n++ {
		frames = append(frames, Frame{
			ID:               fmt.Sprintf("%s-frame-%d", slug, n),
			Description:      fmt.Sprintf("Frame %d for %s", n, scene.Heading),
			CameraAngle:      CameraAngle(b.opts.CameraAngles, n),
			Elements:         BuildElements(scene),
			ImagePlaceholder: fmt.Sprintf("%s/%s-%d.jpg", b.opts.ImageBaseURL, slug, n),
		})
	}
	return frames
}

// CameraAngle returns the angle for 1-based frame n, cycling through angles.
func CameraAngle(angles []string, n int) string {
	if len(angles) == 0 || n < 1 {
		return ""
	}
	return angles[(n-1)%len(angles)]
}
