/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"storyboardgen/internal/storyboard"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var htmlTemplate = template.Must(template.New("storyboard.html.tmpl").Funcs(template.FuncMap{
	"timestamp": func(t time.Time) string { return t.UTC().Format("2006-01-02T15:04:05.000Z07:00") },
}).ParseFS(templatesFS, "templates/storyboard.html.tmpl"))

func renderHTML(sb storyboard.Storyboard) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, sb); err != nil {
		return nil, fmt.Errorf("render storyboard html: %w", err)
	}
	return buf.Bytes(), nil
}
