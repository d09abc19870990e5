package print

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"storyforge/internal/core/domain/model/book"
	"storyforge/internal/pkg/errs"

	"github.com/go-pdf/fpdf"
)

const (
	fontName         = "Helvetica"
	baseFontSizePt   = 26.0
	minFontSizePt    = 14.0
	lineSpacingRatio = 1.35
	maxTextWidth     = 0.7  // fraction of page width available to text
	maxTextHeight    = 0.85 // fraction of page height before shrinking the font
)

// Scene is one spread of the book interior: the narration text and the
// rendered illustration.
type Scene struct {
	Text  string
	Image []byte
}

// BuildInterior composes the interior PDF for a book.
// Every scene produces two pages, a text page and a full-bleed image page,
// with the order alternating per scene so text and art face each other in
// the bound book. The text page background is sampled from the scene's
// illustration to keep spreads visually coherent.
func BuildInterior(spec book.PrintSpec, scenes []Scene) ([]byte, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if len(scenes) == 0 {
		return nil, errs.NewValueIsRequiredError("scenes")
	}

	geo := NewGeometry(spec)
	pdf := newDocument(geo)

	for i, scene := range scenes {
		if len(scene.Image) == 0 {
			return nil, errs.NewValueIsRequiredError(fmt.Sprintf("scene %d image", i+1))
		}

		textFirst := (i+1)%2 != 0
		if textFirst {
			if err := addTextPage(pdf, geo, scene); err != nil {
				return nil, fmt.Errorf("scene %d text page: %w", i+1, err)
			}
			if err := addImagePage(pdf, geo, scene.Image, fmt.Sprintf("scene-%d", i+1)); err != nil {
				return nil, fmt.Errorf("scene %d image page: %w", i+1, err)
			}
		} else {
			if err := addImagePage(pdf, geo, scene.Image, fmt.Sprintf("scene-%d", i+1)); err != nil {
				return nil, fmt.Errorf("scene %d image page: %w", i+1, err)
			}
			if err := addTextPage(pdf, geo, scene); err != nil {
				return nil, fmt.Errorf("scene %d text page: %w", i+1, err)
			}
		}
	}

	return output(pdf)
}

// BuildCover composes the single-page cover PDF: the cover art full bleed
// with the title overlaid in the upper part of the page.
func BuildCover(spec book.PrintSpec, title string, coverImage []byte) ([]byte, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if len(coverImage) == 0 {
		return nil, errs.NewValueIsRequiredError("coverImage")
	}

	geo := NewGeometry(spec)
	pdf := newDocument(geo)

	if err := addImagePage(pdf, geo, coverImage, "cover"); err != nil {
		return nil, fmt.Errorf("cover page: %w", err)
	}

	if title != "" {
		pdf.SetFont(fontName, "B", baseFontSizePt)
		pdf.SetTextColor(255, 255, 255)
		width := pdf.GetStringWidth(title)
		pdf.Text((geo.PageWidthPt-width)/2, geo.BleedPt+geo.TrimHeightPt()*0.15, title)
	}

	return output(pdf)
}

func newDocument(geo Geometry) *fpdf.Fpdf {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: geo.PageWidthPt, Ht: geo.PageHeightPt},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	return pdf
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

// addImagePage draws an image across the full page, bleed included.
func addImagePage(pdf *fpdf.Fpdf, geo Geometry, imageData []byte, name string) error {
	imageType, err := detectImageType(imageData)
	if err != nil {
		return err
	}

	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(imageData))
	pdf.ImageOptions(name, 0, 0, geo.PageWidthPt, geo.PageHeightPt, false, opts, 0, "")
	if pdf.Err() {
		return pdf.Error()
	}

	drawCropMarks(pdf, geo)
	return nil
}

// addTextPage draws the scene text centered on a background sampled from the
// scene's illustration.
func addTextPage(pdf *fpdf.Fpdf, geo Geometry, scene Scene) error {
	r, g, b := backgroundColor(scene.Image)
	tr, tg, tb := textColor(r, g, b)

	pdf.AddPage()
	pdf.SetFillColor(r, g, b)
	pdf.Rect(0, 0, geo.PageWidthPt, geo.PageHeightPt, "F")

	pdf.SetTextColor(tr, tg, tb)
	drawWrappedText(pdf, geo, scene.Text)
	if pdf.Err() {
		return pdf.Error()
	}

	drawCropMarks(pdf, geo)
	return nil
}

// drawWrappedText wraps the text to 70% of the page width and centers the
// block both ways. The font shrinks in 2pt steps down to a floor when the
// block would overflow the page.
func drawWrappedText(pdf *fpdf.Fpdf, geo Geometry, text string) {
	maxWidth := geo.PageWidthPt * maxTextWidth

	fontSize := baseFontSizePt
	var lines []string
	var totalHeight float64

	for {
		pdf.SetFont(fontName, "", fontSize)
		lines = wrapText(pdf, text, maxWidth)
		totalHeight = textBlockHeight(lines, fontSize)
		if totalHeight <= geo.PageHeightPt*maxTextHeight || fontSize < minFontSizePt {
			break
		}
		fontSize -= 2
	}

	lineSpacing := fontSize * lineSpacingRatio
	y := (geo.PageHeightPt-totalHeight)/2 + lineSpacing
	for _, line := range lines {
		if line == "" {
			// Paragraph gap.
			y += lineSpacing * 0.3
			continue
		}
		width := pdf.GetStringWidth(line)
		pdf.Text((geo.PageWidthPt-width)/2, y, line)
		y += lineSpacing
	}
}

// wrapText greedily wraps each paragraph to the given width. Paragraph
// boundaries become empty marker lines.
func wrapText(pdf *fpdf.Fpdf, text string, maxWidth float64) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var line string
		for _, word := range strings.Fields(paragraph) {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if pdf.GetStringWidth(candidate) <= maxWidth {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
			}
			line = word
		}
		if line != "" {
			lines = append(lines, line)
		}
		lines = append(lines, "")
	}
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func textBlockHeight(lines []string, fontSize float64) float64 {
	lineSpacing := fontSize * lineSpacingRatio
	gaps := 0
	for _, line := range lines {
		if line == "" {
			gaps++
		}
	}
	return float64(len(lines))*lineSpacing - lineSpacing*0.3*float64(gaps)
}

// drawCropMarks draws a pair of hairlines at each trim corner, extending
// outward into the bleed area.
func drawCropMarks(pdf *fpdf.Fpdf, geo Geometry) {
	if geo.BleedPt <= 0 {
		return
	}

	left := geo.BleedPt
	right := geo.PageWidthPt - geo.BleedPt
	top := geo.BleedPt
	bottom := geo.PageHeightPt - geo.BleedPt

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.25)

	// Top left
	pdf.Line(left-CropMarkLengthPt, top, left, top)
	pdf.Line(left, top-CropMarkLengthPt, left, top)
	// Top right
	pdf.Line(right, top, right+CropMarkLengthPt, top)
	pdf.Line(right, top-CropMarkLengthPt, right, top)
	// Bottom left
	pdf.Line(left-CropMarkLengthPt, bottom, left, bottom)
	pdf.Line(left, bottom, left, bottom+CropMarkLengthPt)
	// Bottom right
	pdf.Line(right, bottom, right+CropMarkLengthPt, bottom)
	pdf.Line(right, bottom, right, bottom+CropMarkLengthPt)
}

// detectImageType sniffs the image format from its magic bytes.
func detectImageType(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "PNG", nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "JPG", nil
	default:
		return "", errs.NewValueIsInvalidError("image format must be PNG or JPEG")
	}
}

// backgroundColor samples the average color of the illustration, brightening
// very dark results so text pages never end up near-black.
func backgroundColor(imageData []byte) (int, int, int) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		// Fall back to a light neutral page.
		return 242, 242, 242
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return 242, 242, 242
	}

	// Sample on a coarse grid; exact averages are not worth the pixels.
	const samples = 64
	stepX := max(bounds.Dx()/samples, 1)
	stepY := max(bounds.Dy()/samples, 1)

	var sumR, sumG, sumB, count uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			pr, pg, pb, _ := img.At(x, y).RGBA()
			sumR += uint64(pr >> 8)
			sumG += uint64(pg >> 8)
			sumB += uint64(pb >> 8)
			count++
		}
	}

	r := float64(sumR) / float64(count) / 255.0
	g := float64(sumG) / float64(count) / 255.0
	b := float64(sumB) / float64(count) / 255.0

	if lum := luminance(r, g, b); lum < 0.25 {
		scale := 4.0
		if lum > 0 {
			scale = 0.25 / lum
		}
		r = min(r*scale, 1.0)
		g = min(g*scale, 1.0)
		b = min(b*scale, 1.0)
	}

	return int(r * 255), int(g * 255), int(b * 255)
}

// textColor picks black or white for readability over the background.
func textColor(r, g, b int) (int, int, int) {
	if luminance(float64(r)/255, float64(g)/255, float64(b)/255) > 0.6 {
		return 0, 0, 0
	}
	return 255, 255, 255
}

func luminance(r, g, b float64) float64 {
	return 0.2126*r + 0.7152*g + 0.0722*b
}
