/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/ksuid"

	"storyboardgen/internal/storyboard"
)

// timeLayout is fixed width so created_at sorts lexically on both backends.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DefaultLimit caps list and search results when the caller passes limit <= 0.
const DefaultLimit = 50

// Summary describes a stored storyboard without its document.
type Summary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"createdAt"`
	SceneCount int       `json:"sceneCount"`
	FrameCount int       `json:"frameCount"`
}

// Record is a stored storyboard with the script it was generated from.
type Record struct {
	Summary
	Script     string                `json:"script"`
	Storyboard storyboard.Storyboard `json:"storyboard"`
}

// SceneHit is a scene whose heading matched a search.
type SceneHit struct {
	StoryboardID string `json:"storyboardId"`
	Title        string `json:"title"`
	Position     int    `json:"position"`
	Heading      string `json:"heading"`
	FrameCount   int    `json:"frameCount"`
	Error        string `json:"error,omitempty"`
}

// SaveStoryboard stores sb and the script it came from. A storyboard without an ID gets a new
// KSUID. The id is returned.
func (s *Store) SaveStoryboard(ctx context.Context, script string, sb storyboard.Storyboard) (string, error) {
	if sb.ID == "" {
		sb.ID = ksuid.New().String()
	}
	if sb.Generated.IsZero() {
		sb.Generated = time.Now()
	}
	body, err := json.Marshal(sb)
	if err != nil {
		return "", fmt.Errorf("encode storyboard: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := s.rebind(`INSERT INTO storyboards(id, title, created_at, scene_count, frame_count, script, body) VALUES(?, ?, ?, ?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, q, sb.ID, sb.Title, sb.Generated.UTC().Format(timeLayout), sb.SceneCount, sb.FrameCount, script, string(body)); err != nil {
		return "", fmt.Errorf("insert storyboard: %w", err)
	}
	sq := s.rebind(`INSERT INTO scenes(storyboard_id, position, heading, frame_count, error) VALUES(?, ?, ?, ?, ?)`)
	for i, r := range sb.Scenes {
		if _, err := tx.ExecContext(ctx, sq, sb.ID, i, r.Scene, len(r.Frames), r.Error); err != nil {
			return "", fmt.Errorf("insert scene %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit save: %w", err)
	}
	s.log.Debug("storyboard saved", slog.String("id", sb.ID), slog.Int("scenes", sb.SceneCount))
	return sb.ID, nil
}

// GetStoryboard loads a stored storyboard. Missing ids yield ErrNotFound.
func (s *Store) GetStoryboard(ctx context.Context, id string) (Record, error) {
	var (
		rec     Record
		created string
		body    string
	)
	q := s.rebind(`SELECT id, title, created_at, scene_count, frame_count, script, body FROM storyboards WHERE id = ?`)
	err := s.db.QueryRowContext(ctx, q, id).Scan(&rec.ID, &rec.Title, &created, &rec.SceneCount, &rec.FrameCount, &rec.Script, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("select storyboard: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return Record{}, fmt.Errorf("parse created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(body), &rec.Storyboard); err != nil {
		return Record{}, fmt.Errorf("decode storyboard %s: %w", id, err)
	}
	return rec, nil
}

// ListStoryboards returns the most recent storyboards first.
func (s *Store) ListStoryboards(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := s.rebind(`SELECT id, title, created_at, scene_count, frame_count FROM storyboards ORDER BY created_at DESC, id DESC LIMIT ?`)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list storyboards: %w", err)
	}
	defer rows.Close()
	list := []Summary{}
	for rows.Next() {
		var (
			sum     Summary
			created string
		)
		if err := rows.Scan(&sum.ID, &sum.Title, &created, &sum.SceneCount, &sum.FrameCount); err != nil {
			return nil, fmt.Errorf("scan storyboard: %w", err)
		}
		if sum.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		list = append(list, sum)
	}
	return list, rows.Err()
}

// SearchScenes finds scenes whose heading contains text, case-insensitively, newest storyboard
// first and in script order within a storyboard.
func (s *Store) SearchScenes(ctx context.Context, text string, limit int) ([]SceneHit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []SceneHit{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := s.rebind(`SELECT sc.storyboard_id, sb.title, sc.position, sc.heading, sc.frame_count, sc.error
		FROM scenes sc JOIN storyboards sb ON sb.id = sc.storyboard_id
		WHERE lower(sc.heading) LIKE ? ESCAPE '\'
		ORDER BY sb.created_at DESC, sc.storyboard_id, sc.position
		LIMIT ?`)
	rows, err := s.db.QueryContext(ctx, q, "%"+escapeLike(strings.ToLower(text))+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search scenes: %w", err)
	}
	defer rows.Close()
	hits := []SceneHit{}
	for rows.Next() {
		var h SceneHit
		if err := rows.Scan(&h.StoryboardID, &h.Title, &h.Position, &h.Heading, &h.FrameCount, &h.Error); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// DeleteStoryboard removes a storyboard and its scenes. Missing ids yield ErrNotFound.
func (s *Store) DeleteStoryboard(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM scenes WHERE storyboard_id = ?`), id); err != nil {
		return fmt.Errorf("delete scenes: %w", err)
	}
	res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM storyboards WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete storyboard: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete storyboard: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tx.Commit()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return r.Replace(s)
}
