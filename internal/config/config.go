/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"storyboardgen/internal/generate"
	"storyboardgen/internal/script"
	"storyboardgen/internal/storyboard"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// API keys are never stored in the file; they come from the environment or the OS keychain.
type AppConfig struct {
	ConfigVersion int              `yaml:"config_version" json:"config_version"`
	Storyboard    StoryboardConfig `yaml:"storyboard" json:"storyboard"`
	Generator     GeneratorConfig  `yaml:"generator" json:"generator"`
	Storage       StorageConfig    `yaml:"storage" json:"storage"`
	Server        ServerConfig     `yaml:"server" json:"server"`
	Logging       LoggingConfig    `yaml:"logging" json:"logging"`
}

type StoryboardConfig struct {
	DefaultCameraAngles       []string `yaml:"default_camera_angles" json:"default_camera_angles"`
	FramesPerScene            int      `yaml:"frames_per_scene" json:"frames_per_scene"`
	IncludeCharacterPositions bool     `yaml:"include_character_positions" json:"include_character_positions"`
	IncludeCamera             bool     `yaml:"include_camera" json:"include_camera"`
	OutputFormat              string   `yaml:"output_format" json:"output_format"`
	Title                     string   `yaml:"title" json:"title"`
	ImageBaseURL              string   `yaml:"image_base_url" json:"image_base_url"`
	Lookahead                 string   `yaml:"lookahead" json:"lookahead"` // "position" | "content"
	Concurrency               int      `yaml:"concurrency" json:"concurrency"`
}

type GeneratorConfig struct {
	Backend   string `yaml:"backend" json:"backend"` // "mock" | "gemini" | "openai"
	Model     string `yaml:"model" json:"model"`
	BaseURL   string `yaml:"base_url" json:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms" json:"timeout_ms"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" json:"driver"` // "sqlite" | "pgx"
	DSN    string `yaml:"dsn" json:"dsn"`       // empty: history.db in the data dir
}

type ServerConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	BodyLimit string `yaml:"body_limit" json:"body_limit"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Source bool   `yaml:"source" json:"source"`
	File   string `yaml:"file" json:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	opts := storyboard.DefaultOptions()
	return AppConfig{
		ConfigVersion: 1,
		Storyboard: StoryboardConfig{
			DefaultCameraAngles:       opts.CameraAngles,
			FramesPerScene:            opts.FramesPerScene,
			IncludeCharacterPositions: opts.IncludeCharacterPositions,
			IncludeCamera:             opts.IncludeCamera,
			OutputFormat:              "html",
			Title:                     opts.Title,
			ImageBaseURL:              opts.ImageBaseURL,
			Lookahead:                 LookaheadPosition,
			Concurrency:               opts.Concurrency,
		},
		Generator: GeneratorConfig{Backend: generate.BackendMock, TimeoutMs: 30000},
		Storage:   StorageConfig{Driver: "sqlite"},
		Server:    ServerConfig{Addr: ":8080", BodyLimit: "2M"},
		Logging:   LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Lookahead names accepted in storyboard.lookahead.
const (
	LookaheadPosition = "position"
	LookaheadContent  = "content"
)

// Env var names used as overrides.
const (
	EnvFramesPerScene = "SBG_FRAMES_PER_SCENE"
	EnvOutputFormat   = "SBG_OUTPUT_FORMAT"
	EnvLookahead      = "SBG_LOOKAHEAD"
	EnvConcurrency    = "SBG_CONCURRENCY"
	EnvBackend        = "SBG_BACKEND"
	EnvModel          = "SBG_MODEL"
	EnvBaseURL        = "SBG_BASE_URL"
	EnvTimeoutMs      = "SBG_TIMEOUT_MS"
	EnvStorageDriver  = "SBG_STORAGE_DRIVER"
	EnvStorageDSN     = "SBG_STORAGE_DSN"
	EnvServerAddr     = "SBG_SERVER_ADDR"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "SBG_LOG_LEVEL"
	EnvLogFormat = "SBG_LOG_FORMAT"
	EnvLogSource = "SBG_LOG_SOURCE"
	EnvLogFile   = "SBG_LOG_FILE"
)

// appDir returns the per-user application directory.
func appDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "StoryboardGen")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "StoryboardGen")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "storyboardgen")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "storyboardgen")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := appDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultDSN returns the SQLite history database path used when storage.dsn is empty.
func DefaultDSN() (string, error) {
	dir, err := appDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Load reads the config file at path (the per-user path when empty), applies defaults, merges
// environment overrides and validates the result. A missing per-user file is not an error.
func Load(path string) (AppConfig, error) {
	cfg := Defaults()
	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Decoding onto the defaults keeps every key the file leaves out.
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}
	normalize(&cfg)
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg as YAML to path (the per-user path when empty).
func Save(path string, cfg AppConfig) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func normalize(cfg *AppConfig) {
	lower := func(s *string) { *s = strings.ToLower(strings.TrimSpace(*s)) }
	lower(&cfg.Storyboard.OutputFormat)
	lower(&cfg.Storyboard.Lookahead)
	lower(&cfg.Generator.Backend)
	lower(&cfg.Storage.Driver)
	lower(&cfg.Logging.Level)
	lower(&cfg.Logging.Format)
	cfg.Storage.DSN = strings.TrimSpace(cfg.Storage.DSN)
	cfg.Logging.File = strings.TrimSpace(cfg.Logging.File)
}

func parseBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	str := func(env string, dst *string, lower bool) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			if lower {
				v = strings.ToLower(v)
			}
			*dst = v
		}
	}
	num := func(env string, dst *int) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	num(EnvFramesPerScene, &cfg.Storyboard.FramesPerScene)
	str(EnvOutputFormat, &cfg.Storyboard.OutputFormat, true)
	str(EnvLookahead, &cfg.Storyboard.Lookahead, true)
	num(EnvConcurrency, &cfg.Storyboard.Concurrency)
	str(EnvBackend, &cfg.Generator.Backend, true)
	str(EnvModel, &cfg.Generator.Model, false)
	str(EnvBaseURL, &cfg.Generator.BaseURL, false)
	num(EnvTimeoutMs, &cfg.Generator.TimeoutMs)
	str(EnvStorageDriver, &cfg.Storage.Driver, true)
	str(EnvStorageDSN, &cfg.Storage.DSN, false)
	str(EnvServerAddr, &cfg.Server.Addr, false)
	// logging overrides
	str(EnvLogLevel, &cfg.Logging.Level, true)
	str(EnvLogFormat, &cfg.Logging.Format, true)
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	str(EnvLogFile, &cfg.Logging.File, false)
}

var envByKey = map[string]string{
	"storyboard.frames_per_scene": EnvFramesPerScene,
	"storyboard.output_format":    EnvOutputFormat,
	"storyboard.lookahead":        EnvLookahead,
	"storyboard.concurrency":      EnvConcurrency,
	"generator.backend":           EnvBackend,
	"generator.model":             EnvModel,
	"generator.base_url":          EnvBaseURL,
	"generator.timeout_ms":        EnvTimeoutMs,
	"storage.driver":              EnvStorageDriver,
	"storage.dsn":                 EnvStorageDSN,
	"server.addr":                 EnvServerAddr,
	"logging.level":               EnvLogLevel,
	"logging.format":              EnvLogFormat,
	"logging.source":              EnvLogSource,
	"logging.file":                EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envByKey[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// OverrideKeys lists the config keys that can be overridden from the environment.
func OverrideKeys() []string {
	return []string{
		"storyboard.frames_per_scene", "storyboard.output_format", "storyboard.lookahead",
		"storyboard.concurrency", "generator.backend", "generator.model", "generator.base_url",
		"generator.timeout_ms", "storage.driver", "storage.dsn", "server.addr",
		"logging.level", "logging.format", "logging.source", "logging.file",
	}
}

// BuilderOptions converts the storyboard and generator sections into builder options.
func (c AppConfig) BuilderOptions() storyboard.Options {
	opts := storyboard.Options{
		CameraAngles:              append([]string(nil), c.Storyboard.DefaultCameraAngles...),
		FramesPerScene:            c.Storyboard.FramesPerScene,
		IncludeCharacterPositions: c.Storyboard.IncludeCharacterPositions,
		IncludeCamera:             c.Storyboard.IncludeCamera,
		Title:                     c.Storyboard.Title,
		ImageBaseURL:              c.Storyboard.ImageBaseURL,
		Concurrency:               c.Storyboard.Concurrency,
		SceneTimeout:              c.Generator.Timeout(),
	}
	if c.Storyboard.Lookahead == LookaheadContent {
		opts.Lookahead = script.LookaheadByContent
	}
	return opts
}

// GenerateConfig returns the generator backend selection with the given API key.
func (c AppConfig) GenerateConfig(apiKey string) generate.Config {
	return generate.Config{
		Backend: c.Generator.Backend,
		Model:   c.Generator.Model,
		APIKey:  apiKey,
		BaseURL: c.Generator.BaseURL,
	}
}

// Timeout returns the per-scene generation timeout; zero disables it.
func (g GeneratorConfig) Timeout() time.Duration {
	if g.TimeoutMs <= 0 {
		return 0
	}
	return time.Duration(g.TimeoutMs) * time.Millisecond
}
