/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package server exposes storyboard generation and history over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	applog "storyboardgen/internal/log"
	"storyboardgen/internal/storage"
	"storyboardgen/internal/storyboard"
)

// History is the persistence the server needs; *storage.Store implements it.
type History interface {
	Ping(ctx context.Context) error
	SaveStoryboard(ctx context.Context, script string, sb storyboard.Storyboard) (string, error)
	GetStoryboard(ctx context.Context, id string) (storage.Record, error)
	ListStoryboards(ctx context.Context, limit int) ([]storage.Summary, error)
	SearchScenes(ctx context.Context, text string, limit int) ([]storage.SceneHit, error)
	DeleteStoryboard(ctx context.Context, id string) error
}

// Options configures a Server. History may be nil, which disables the history routes.
type Options struct {
	Builder       *storyboard.Builder
	History       History
	Logger        *slog.Logger
	DefaultFormat string
	BodyLimit     string // e.g. "2M"
}

type Server struct {
	Echo *echo.Echo

	builder       *storyboard.Builder
	history       History
	log           *slog.Logger
	defaultFormat string
}

func New(opts Options) (*Server, error) {
	if opts.Builder == nil {
		return nil, errors.New("server: builder is required")
	}
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("server")
	}
	format := opts.DefaultFormat
	if format == "" {
		format = "json"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.WARN)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.Any("err", v.Error))
				l.LogAttrs(c.Request().Context(), slog.LevelWarn, "request failed", attrs...)
				return nil
			}
			l.LogAttrs(c.Request().Context(), slog.LevelDebug, "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.CORS())
	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	s := &Server{
		Echo:          e,
		builder:       opts.Builder,
		history:       opts.History,
		log:           l,
		defaultFormat: format,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/healthz", s.handleHealth)
	s.Echo.GET("/readyz", s.handleReady)
	s.Echo.GET("/version", s.handleVersion)

	api := s.Echo.Group("/api")
	api.POST("/storyboards", s.handleGenerate)
	api.GET("/storyboards", s.handleList)
	api.GET("/storyboards/:id", s.handleGet)
	api.DELETE("/storyboards/:id", s.handleDelete)
	api.GET("/scenes", s.handleSearch)
}

// Start serves on addr until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start(addr string) error {
	s.log.Info("server listening", slog.String("addr", addr))
	if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server")
	return s.Echo.Shutdown(ctx)
}
