/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storyboard

import (
	"fmt"
	"strings"

	"storyboardgen/internal/script"
)

// BuildPrompt renders the generation prompt for one scene.
func BuildPrompt(scene script.Scene, opts Options) string {
	var sb strings.Builder
	sb.WriteString("Generate a visual storyboard for the following scene:\n\n")
	sb.WriteString(fmt.Sprintf("Scene: %s\n", scene.Heading))

	if len(scene.Actions) > 0 {
		sb.WriteString("Actions:\n")
		sb.WriteString(strings.Join(scene.Actions, "\n"))
		sb.WriteString("\n\n")
	}

	if len(scene.Dialogues) > 0 {
		sb.WriteString("Dialogue:\n")
		for _, d := range scene.Dialogues {
			sb.WriteString(fmt.Sprintf("%s: %s\n", d.Character, d.Line))
		}
	}

	sb.WriteString(fmt.Sprintf("\nGenerate %d storyboard frames that show this scene visually.", opts.FramesPerScene))
	if opts.IncludeCamera {
		sb.WriteString(" Suggest appropriate camera angles for each frame.")
	}
	if opts.IncludeCharacterPositions {
		sb.WriteString(" Include character positions and blocking.")
	}
	return sb.String()
}
