/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storyboard

import (
	"regexp"
	"strings"

	"storyboardgen/internal/script"
)

var reWhitespace = regexp.MustCompile(`\s+`)

// BuildElements extracts the location, the speaking characters and the action lines of a
// scene, in that order.
func BuildElements(scene script.Scene) []SceneElement {
	elements := make([]SceneElement, 0, 1+len(scene.Dialogues)+len(scene.Actions))

	if loc, ok := Location(scene.Heading); ok {
		elements = append(elements, SceneElement{Type: ElementLocation, Value: loc})
	}

	seen := make(map[string]struct{}, len(scene.Dialogues))
	for _, d := range scene.Dialogues {
		if _, dup := seen[d.Character]; dup {
			continue
		}
		seen[d.Character] = struct{}{}
		elements = append(elements, SceneElement{Type: ElementCharacter, Value: d.Character})
	}

	for _, a := range scene.Actions {
		elements = append(elements, SceneElement{Type: ElementAction, Value: a})
	}
	return elements
}

// Location returns the text after the last "- " of a heading.
// "INT. OFFICE - NYC - DAY" yields "DAY".
func Location(heading string) (string, bool) {
	i := strings.LastIndex(heading, "- ")
	if i < 0 {
		return "", false
	}
	loc := strings.TrimSpace(heading[i+2:])
	return loc, loc != ""
}

// Slug replaces whitespace runs in a heading with "-".
func Slug(heading string) string {
	return reWhitespace.ReplaceAllString(heading, "-")
}
