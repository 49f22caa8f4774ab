/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"storyboardgen/internal/storyboard"
)

// Placeholder image size in pixels (16:9).
const (
	PlaceholderWidth  = 640
	PlaceholderHeight = 360
)

var (
	placeholderBG     = color.RGBA{R: 240, G: 240, B: 240, A: 255}
	placeholderBorder = color.RGBA{R: 204, G: 204, B: 204, A: 255}
	placeholderText   = color.RGBA{R: 102, G: 102, B: 102, A: 255}
)

// PlaceholderFileName maps a frame to the PNG file name written for it: the base name of its
// image placeholder with a .png extension.
func PlaceholderFileName(fr storyboard.Frame) string {
	base := path.Base(fr.ImagePlaceholder)
	if base == "." || base == "/" || base == "" {
		base = fr.ID
	}
	return strings.TrimSuffix(base, path.Ext(base)) + ".png"
}

// WritePlaceholderImages writes one labelled gray PNG per frame of every successful scene into dir
// and returns the written paths in storyboard order.
func WritePlaceholderImages(sb storyboard.Storyboard, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	var written []string
	for _, sc := range sb.Scenes {
		if sc.Failed() {
			continue
		}
		for _, fr := range sc.Frames {
			p := filepath.Join(dir, PlaceholderFileName(fr))
			if err := writePlaceholder(p, fr); err != nil {
				return written, err
			}
			written = append(written, p)
		}
	}
	return written, nil
}

func writePlaceholder(p string, fr storyboard.Frame) error {
	img := PlaceholderImage(fr)
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(p), err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(p), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(p), err)
	}
	return nil
}

// PlaceholderImage draws the placeholder for fr: frame id and camera angle centred on a gray card.
func PlaceholderImage(fr storyboard.Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, PlaceholderWidth, PlaceholderHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: placeholderBorder}, image.Point{}, draw.Src)
	inner := image.Rect(4, 4, PlaceholderWidth-4, PlaceholderHeight-4)
	draw.Draw(img, inner, &image.Uniform{C: placeholderBG}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	lines := []string{"[Storyboard Image: " + fr.ID + "]", "Camera: " + fr.CameraAngle}
	lineH := face.Metrics().Height.Ceil() + 4
	y := PlaceholderHeight/2 - (len(lines)*lineH)/2 + face.Metrics().Ascent.Ceil()
	for _, s := range lines {
		d := &font.Drawer{Dst: img, Src: image.NewUniform(placeholderText), Face: face}
		w := d.MeasureString(s).Ceil()
		x := (PlaceholderWidth - w) / 2
		if x < 8 {
			x = 8
		}
		d.Dot = fixed.P(x, y)
		d.DrawString(s)
		y += lineH
	}
	return img
}
