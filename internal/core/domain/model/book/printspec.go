package book

import (
	"fmt"

	"storyforge/internal/pkg/errs"
)

// Print geometry bounds. Trim sizes are expressed in centimeters because the
// print shop's order forms are metric; DPI bounds follow what the printer
// accepts for raster content.
const (
	MinTrimCM = 1.0
	MaxTrimCM = 100.0
	MaxBleedCM = 3.0
	MinDPI    = 72
	MaxDPI    = 600

	// DefaultBleedCM matches the bleed the production scripts add around the
	// trim area on every side.
	DefaultBleedCM = 0.5
)

// PrintSpec is a value object describing the physical print geometry of a
// book: the trim size of a finished page, the bleed added around it, and the
// raster resolution of the page images.
type PrintSpec struct {
	trimWidthCM  float64
	trimHeightCM float64
	bleedCM      float64
	dpi          int
}

// NewPrintSpec creates a validated print specification.
// Trim dimensions must lie in (0, 100] cm, bleed in [0, 3] cm, and DPI in
// [72, 600].
func NewPrintSpec(trimWidthCM, trimHeightCM, bleedCM float64, dpi int) (PrintSpec, error) {
	if trimWidthCM < MinTrimCM || trimWidthCM > MaxTrimCM {
		return PrintSpec{}, errs.NewValueIsOutOfRangeError("trim width", trimWidthCM, MinTrimCM, MaxTrimCM)
	}
	if trimHeightCM < MinTrimCM || trimHeightCM > MaxTrimCM {
		return PrintSpec{}, errs.NewValueIsOutOfRangeError("trim height", trimHeightCM, MinTrimCM, MaxTrimCM)
	}
	if bleedCM < 0 || bleedCM > MaxBleedCM {
		return PrintSpec{}, errs.NewValueIsOutOfRangeError("bleed", bleedCM, 0, MaxBleedCM)
	}
	if dpi < MinDPI || dpi > MaxDPI {
		return PrintSpec{}, errs.NewValueIsOutOfRangeError("dpi", dpi, MinDPI, MaxDPI)
	}

	return PrintSpec{
		trimWidthCM:  trimWidthCM,
		trimHeightCM: trimHeightCM,
		bleedCM:      bleedCM,
		dpi:          dpi,
	}, nil
}

// DefaultPrintSpec returns the standard square picture-book format:
// 20x20 cm trim with 0.5 cm bleed at 300 DPI.
func DefaultPrintSpec() PrintSpec {
	spec, err := NewPrintSpec(20, 20, DefaultBleedCM, 300)
	if err != nil {
		panic(fmt.Sprintf("default print spec is invalid: %v", err))
	}
	return spec
}

// TrimWidthCM returns the finished page width in centimeters.
func (p PrintSpec) TrimWidthCM() float64 {
	return p.trimWidthCM
}

// TrimHeightCM returns the finished page height in centimeters.
func (p PrintSpec) TrimHeightCM() float64 {
	return p.trimHeightCM
}

// BleedCM returns the bleed added around the trim area on each side.
func (p PrintSpec) BleedCM() float64 {
	return p.bleedCM
}

// DPI returns the raster resolution for page images.
func (p PrintSpec) DPI() int {
	return p.dpi
}

// PageWidthCM returns the full page width including bleed on both sides.
func (p PrintSpec) PageWidthCM() float64 {
	return p.trimWidthCM + 2*p.bleedCM
}

// PageHeightCM returns the full page height including bleed on both sides.
func (p PrintSpec) PageHeightCM() float64 {
	return p.trimHeightCM + 2*p.bleedCM
}

// Validate rejects the zero value; specs must be built via NewPrintSpec.
func (p PrintSpec) Validate() error {
	if p.trimWidthCM == 0 || p.trimHeightCM == 0 || p.dpi == 0 {
		return errs.NewValueIsRequiredError("print spec must be created via NewPrintSpec")
	}
	return nil
}
