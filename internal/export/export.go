/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders storyboards to HTML, JSON and PDF and writes placeholder frame images.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"storyboardgen/internal/storyboard"
)

// Output formats understood by Render. Any other value renders JSON.
const (
	FormatHTML = "html"
	FormatJSON = "json"
	FormatPDF  = "pdf"
)

// NormalizeFormat lower-cases and trims a format selector.
func NormalizeFormat(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}

// Render renders sb in the requested format (case-insensitive). Unknown formats fall back to JSON.
func Render(sb storyboard.Storyboard, format string) ([]byte, error) {
	switch NormalizeFormat(format) {
	case FormatHTML:
		return renderHTML(sb)
	case FormatPDF:
		return renderPDF(sb)
	default:
		return renderJSON(sb)
	}
}

// ContentType returns the MIME type of Render's output for format.
func ContentType(format string) string {
	switch NormalizeFormat(format) {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json; charset=utf-8"
	}
}

// Extension returns the file extension (without dot) of Render's output for format.
func Extension(format string) string {
	switch NormalizeFormat(format) {
	case FormatHTML:
		return "html"
	case FormatPDF:
		return "pdf"
	default:
		return "json"
	}
}

func renderJSON(sb storyboard.Storyboard) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(sb); err != nil {
		return nil, fmt.Errorf("encode storyboard json: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
