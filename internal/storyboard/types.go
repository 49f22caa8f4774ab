/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storyboard

import "time"

// ElementType tags a SceneElement.
type ElementType string

const (
	ElementLocation  ElementType = "location"
	ElementCharacter ElementType = "character"
	ElementAction    ElementType = "action"
)

// SceneElement is a salient piece of a scene used to compose a frame.
type SceneElement struct {
	Type  ElementType `json:"type" jsonschema:"enum=location,enum=character,enum=action"`
	Value string      `json:"value"`
}

// Frame is one storyboard panel for a scene.
type Frame struct {
	ID               string         `json:"id"`
	Description      string         `json:"description"`
	CameraAngle      string         `json:"cameraAngle"`
	Elements         []SceneElement `json:"elements"`
	ImagePlaceholder string         `json:"imagePlaceholder"`
}

// SceneResult holds either the frames generated for a scene or the reason generation failed,
// never both.
type SceneResult struct {
	Scene        string  `json:"scene"`
	Frames       []Frame `json:"frames,omitempty"`
	Error        string  `json:"error,omitempty"`
	ErrorDetails string  `json:"errorDetails,omitempty"`
}

// Failed reports whether the scene could not be generated.
func (r SceneResult) Failed() bool { return r.Error != "" }

func sceneSuccess(heading string, frames []Frame) SceneResult {
	return SceneResult{Scene: heading, Frames: frames}
}

func sceneFailure(heading string, err error) SceneResult {
	return SceneResult{Scene: heading, Error: FailureMessage, ErrorDetails: err.Error()}
}

// FailureMessage is the Error text of a failed SceneResult.
const FailureMessage = "Failed to generate storyboard"

// Storyboard aggregates the results of every scene of a script.
type Storyboard struct {
	ID         string        `json:"id,omitempty"`
	Title      string        `json:"title"`
	SceneCount int           `json:"sceneCount"`
	FrameCount int           `json:"frameCount"`
	Scenes     []SceneResult `json:"scenes"`
	Generated  time.Time     `json:"generated"`
}

// countFrames sums the frames of successful results.
func countFrames(results []SceneResult) int {
	n := 0
	for _, r := range results {
		if !r.Failed() {
			n += len(r.Frames)
		}
	}
	return n
}
