/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

// sampleScript is the demo screenplay printed by "storyboardgen sample".
const sampleScript = `
  INT. OFFICE - DAY

  JOHN sits at his desk, typing furiously on his computer. SARAH enters, carrying coffee.

  SARAH
  You've been at it all night?

  JOHN
  Have to finish this by tomorrow.

  Sarah places the coffee on his desk and looks concerned.

  EXT. PARKING LOT - NIGHT

  John exits the building, exhausted. He walks to his car in the empty parking lot.
`
