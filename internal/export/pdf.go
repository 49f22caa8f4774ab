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
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"storyboardgen/internal/storyboard"
)

// Page layout in points (A4 landscape).
const (
	pdfMargin      = 36.0
	pdfGap         = 18.0
	pdfColumns     = 3
	pdfImageHeight = 150.0
	pdfCardHeight  = pdfImageHeight + 60
)

// renderPDF lays out one section per scene: the heading followed by a grid of frame cards,
// each with an image placeholder box, the description and the camera angle.
func renderPDF(sb storyboard.Storyboard) ([]byte, error) {
	pdf := gofpdf.New("L", "pt", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(sb.Title, true)
	pdf.SetAuthor("storyboardgen", false)
	pdf.SetCreationDate(sb.Generated)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)

	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*pdfMargin
	cardW := (contentW - float64(pdfColumns-1)*pdfGap) / pdfColumns

	// Cover
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(contentW, 32, tr(sb.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(contentW, 18, "Generated on: "+sb.Generated.UTC().Format("2006-01-02 15:04:05 MST"), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 18, fmt.Sprintf("Total scenes: %d | Total frames: %d", sb.SceneCount, sb.FrameCount), "", 1, "L", false, 0, "")

	for _, sc := range sb.Scenes {
		pdf.AddPage()
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(contentW, 24, tr(sc.Scene), "B", 1, "L", false, 0, "")
		pdf.Ln(pdfGap / 2)

		if sc.Failed() {
			pdf.SetTextColor(176, 0, 32)
			pdf.SetFont("Helvetica", "", 12)
			pdf.MultiCell(contentW, 16, tr("Error: "+sc.Error), "", "L", false)
			continue
		}

		top := pdf.GetY()
		for i, fr := range sc.Frames {
			col := i % pdfColumns
			if col == 0 && i > 0 {
				top += pdfCardHeight + pdfGap
				if top+pdfCardHeight > pageH-pdfMargin {
					pdf.AddPage()
					top = pdfMargin
				}
			}
			x := pdfMargin + float64(col)*(cardW+pdfGap)
			drawFrameCard(pdf, tr, fr, x, top, cardW)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func drawFrameCard(pdf *gofpdf.Fpdf, tr func(string) string, fr storyboard.Frame, x, y, w float64) {
	pdf.SetDrawColor(204, 204, 204)
	pdf.SetLineWidth(0.5)
	pdf.Rect(x, y, w, pdfCardHeight, "D")

	pdf.SetFillColor(240, 240, 240)
	pdf.Rect(x+6, y+6, w-12, pdfImageHeight-12, "F")
	pdf.SetTextColor(102, 102, 102)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(x+6, y+pdfImageHeight/2-6)
	pdf.CellFormat(w-12, 12, tr("[Storyboard Image: "+fr.ID+"]"), "", 0, "C", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(x+6, y+pdfImageHeight)
	pdf.CellFormat(w-12, 14, tr(fr.Description), "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(w-12, 14, tr("Camera: "+fr.CameraAngle), "", 2, "L", false, 0, "")
}
