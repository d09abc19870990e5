// Package print produces press-ready PDF files for personalized books.
//
// Pages are laid out at the physical page size, which is the trim size plus
// bleed on every side. Artwork is drawn across the full page so cutting at
// the trim line never exposes white paper; crop marks show the printer where
// that line is.
package print

import "storyforge/internal/core/domain/model/book"

// PointsPerCM converts centimeters to PostScript points (72 per inch).
const PointsPerCM = 72.0 / 2.54

// CropMarkLengthPt is how far each crop mark extends from the trim corner.
const CropMarkLengthPt = 15.0

// CMToPoints converts a length in centimeters to points.
func CMToPoints(cm float64) float64 {
	return cm * PointsPerCM
}

// Geometry is the page layout derived from a print spec, in points.
type Geometry struct {
	PageWidthPt  float64
	PageHeightPt float64
	BleedPt      float64
}

// NewGeometry computes page geometry for a print spec.
func NewGeometry(spec book.PrintSpec) Geometry {
	return Geometry{
		PageWidthPt:  CMToPoints(spec.PageWidthCM()),
		PageHeightPt: CMToPoints(spec.PageHeightCM()),
		BleedPt:      CMToPoints(spec.BleedCM()),
	}
}

// TrimWidthPt returns the width of the trim box in points.
func (g Geometry) TrimWidthPt() float64 {
	return g.PageWidthPt - 2*g.BleedPt
}

// TrimHeightPt returns the height of the trim box in points.
func (g Geometry) TrimHeightPt() float64 {
	return g.PageHeightPt - 2*g.BleedPt
}
