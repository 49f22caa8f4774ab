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
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"storyboardgen/internal/export"
	"storyboardgen/internal/storage"
	"storyboardgen/internal/storyboard"
	"storyboardgen/internal/version"
)

type generateReq struct {
	Script string `json:"script"`
	Format string `json:"format"`
	Title  string `json:"title"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) handleReady(c echo.Context) error {
	if s.history != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := s.history.Ping(ctx); err != nil {
			return c.String(http.StatusServiceUnavailable, "db not ready")
		}
	}
	return c.String(http.StatusOK, "ready")
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.String(http.StatusOK, version.String())
}

// POST /api/storyboards
func (s *Server) handleGenerate(c echo.Context) error {
	var req generateReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if strings.TrimSpace(req.Script) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "script is required")
	}
	format := s.format(req.Format)

	ctx := c.Request().Context()
	sb := s.builder.Generate(ctx, req.Script)
	if t := strings.TrimSpace(req.Title); t != "" {
		sb.Title = t
	}
	if s.history != nil {
		id, err := s.history.SaveStoryboard(ctx, req.Script, sb)
		if err != nil {
			s.log.Error("save storyboard failed", slog.Any("err", err))
			return echo.NewHTTPError(http.StatusInternalServerError, "could not save storyboard")
		}
		sb.ID = id
		c.Response().Header().Set(echo.HeaderLocation, "/api/storyboards/"+id)
	}
	return s.render(c, http.StatusCreated, sb, format)
}

// GET /api/storyboards
func (s *Server) handleList(c echo.Context) error {
	if err := s.requireHistory(); err != nil {
		return err
	}
	list, err := s.history.ListStoryboards(c.Request().Context(), queryInt(c, "limit"))
	if err != nil {
		s.log.Error("list storyboards failed", slog.Any("err", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not list storyboards")
	}
	return c.JSON(http.StatusOK, list)
}

// GET /api/storyboards/:id?format=
func (s *Server) handleGet(c echo.Context) error {
	if err := s.requireHistory(); err != nil {
		return err
	}
	rec, err := s.history.GetStoryboard(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.historyError(err, "could not load storyboard")
	}
	return s.render(c, http.StatusOK, rec.Storyboard, s.format(c.QueryParam("format")))
}

// DELETE /api/storyboards/:id
func (s *Server) handleDelete(c echo.Context) error {
	if err := s.requireHistory(); err != nil {
		return err
	}
	if err := s.history.DeleteStoryboard(c.Request().Context(), c.Param("id")); err != nil {
		return s.historyError(err, "could not delete storyboard")
	}
	return c.NoContent(http.StatusNoContent)
}

// GET /api/scenes?q=
func (s *Server) handleSearch(c echo.Context) error {
	if err := s.requireHistory(); err != nil {
		return err
	}
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	hits, err := s.history.SearchScenes(c.Request().Context(), q, queryInt(c, "limit"))
	if err != nil {
		s.log.Error("search scenes failed", slog.Any("err", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not search scenes")
	}
	return c.JSON(http.StatusOK, hits)
}

func (s *Server) render(c echo.Context, status int, sb storyboard.Storyboard, format string) error {
	body, err := export.Render(sb, format)
	if err != nil {
		s.log.Error("render failed", slog.String("format", format), slog.Any("err", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not render storyboard")
	}
	return c.Blob(status, export.ContentType(format), body)
}

func (s *Server) format(f string) string {
	if strings.TrimSpace(f) == "" {
		return s.defaultFormat
	}
	return export.NormalizeFormat(f)
}

func (s *Server) requireHistory() error {
	if s.history == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "history is disabled")
	}
	return nil
}

func (s *Server) historyError(err error, msg string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "storyboard not found")
	}
	s.log.Error(msg, slog.Any("err", err))
	return echo.NewHTTPError(http.StatusInternalServerError, msg)
}

func queryInt(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return n
}
