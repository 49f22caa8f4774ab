/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

// Scene is one screenplay scene: the heading line plus the action and dialogue lines found
// beneath it. Scenes are produced by Parse in source order and are not modified afterwards.
type Scene struct {
	Heading   string     `json:"heading"`
	Actions   []string   `json:"actions"`
	Dialogues []Dialogue `json:"dialogues"`
}

// Dialogue pairs a character cue with the line that follows it.
type Dialogue struct {
	Character string `json:"character"`
	Line      string `json:"line"`
}

// Lookahead selects how a character cue finds its dialogue line.
type Lookahead int

const (
	// LookaheadByPosition reads the line directly after the cue.
	LookaheadByPosition Lookahead = iota
	// LookaheadByContent reads the line after the first line in the input whose raw text equals
	// the cue's raw text. Repeated cues then all resolve to the first occurrence's dialogue.
	// Kept for compatibility with storyboards produced by older releases.
	LookaheadByContent
)

// Options tunes the parser.
type Options struct {
	Lookahead Lookahead
}
