/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script turns raw screenplay text into scenes.
//
// Recognized syntax (minimal, line oriented):
//   - Scene headings start with INT., EXT. or INT/EXT. and contain a "-" (INT. OFFICE - DAY).
//     A prefixed line without a dash is not a heading.
//   - Character cues are lines made only of upper-case letters and spaces. The next line is
//     recorded as that character's dialogue.
//   - Every other non-empty line inside a scene is an action line, except lines starting with
//     "(" (parentheticals) and lines starting with a quote character, which are dropped.
//
// Lines before the first heading are ignored. Parsing never fails.
package script

import (
	"regexp"
	"strings"
)

var (
	reHeading = regexp.MustCompile(`^(INT\.|EXT\.|INT/EXT\.)`)
	reAllCaps = regexp.MustCompile(`^[A-Z\s]+$`)
)

// Parse parses text with default options (position based cue lookahead).
func Parse(text string) []Scene {
	return ParseWithOptions(text, Options{})
}

// ParseWithOptions parses text into scenes in order of appearance.
func ParseWithOptions(text string, opts Options) []Scene {
	lines := strings.Split(text, "\n")
	scenes := []Scene{}
	var current *Scene

	seal := func() {
		if current != nil {
			scenes = append(scenes, *current)
			current = nil
		}
	}

	for i, raw := range lines {
		trim := strings.TrimSpace(raw)

		if IsHeading(raw) {
			seal()
			current = &Scene{Heading: trim, Actions: []string{}, Dialogues: []Dialogue{}}
			continue
		}
		if current == nil || trim == "" {
			continue
		}

		if !strings.HasPrefix(trim, "(") && !isCue(trim) {
			// quoted lines are dropped rather than treated as actions
			if !strings.HasPrefix(trim, "\"") && !strings.HasPrefix(trim, "'") {
				current.Actions = append(current.Actions, trim)
			}
			continue
		}

		if isCue(trim) {
			next := lookahead(lines, i, opts.Lookahead) + 1
			if next < len(lines) {
				current.Dialogues = append(current.Dialogues, Dialogue{
					Character: trim,
					Line:      strings.TrimSpace(lines[next]),
				})
			}
		}
	}
	seal()
	return scenes
}

// IsHeading reports whether line is a scene heading.
func IsHeading(line string) bool {
	return reHeading.MatchString(strings.TrimSpace(line)) && strings.Contains(line, "-")
}

func isCue(trim string) bool {
	return reAllCaps.MatchString(trim)
}

func lookahead(lines []string, i int, mode Lookahead) int {
	if mode != LookaheadByContent {
		return i
	}
	for j, l := range lines {
		if l == lines[i] {
			return j
		}
	}
	return i
}
