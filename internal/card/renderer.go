// Package card renders the printable trainee ID card: profile details on the
// left, the check-in QR code and points on the right.
package card

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"traineehub/internal/qr"
	"traineehub/internal/trainee"
)

// Card canvas is 400x250 at 2x for print quality.
const (
	Width  = 800
	Height = 500
)

const (
	margin   = 40
	qrTile   = 200
	qrInner  = 176
	cornerR  = 32
	orgTitle = "Maysalward Training"
)

// Renderer composes trainee cards. Font faces are parsed once at
// construction; Render itself is a pure function of the trainee snapshot.
type Renderer struct {
	title   font.Face
	name    font.Face
	detail  font.Face
	caption font.Face
}

// NewRenderer prepares the renderer's font faces.
func NewRenderer() (*Renderer, error) {
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("card: parse bold font: %w", err)
	}
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("card: parse regular font: %w", err)
	}

	r := &Renderer{}
	for _, f := range []struct {
		dst  *font.Face
		src  *sfnt.Font
		size float64
	}{
		{&r.title, bold, 36},
		{&r.name, bold, 32},
		{&r.detail, regular, 24},
		{&r.caption, regular, 20},
	} {
		face, err := opentype.NewFace(f.src, &opentype.FaceOptions{
			Size: f.size, DPI: 72, Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, fmt.Errorf("card: build font face: %w", err)
		}
		*f.dst = face
	}
	return r, nil
}

// Render rasterizes the card for the given trainee snapshot as a PNG.
func (r *Renderer) Render(t trainee.Trainee) ([]byte, error) {
	qrPNG, err := qr.Encode(t.QRToken)
	if err != nil {
		return nil, err
	}
	qrImg, err := png.Decode(bytes.NewReader(qrPNG))
	if err != nil {
		return nil, fmt.Errorf("card: decode qr image: %w", err)
	}

	dc := gg.NewContext(Width, Height)

	// Background gradient, top-left indigo to bottom-right violet.
	grad := gg.NewLinearGradient(0, 0, Width, Height)
	grad.AddColorStop(0, color.RGBA{R: 0x66, G: 0x7E, B: 0xEA, A: 0xFF})
	grad.AddColorStop(1, color.RGBA{R: 0x76, G: 0x4B, B: 0xA2, A: 0xFF})
	dc.SetFillStyle(grad)
	dc.DrawRoundedRectangle(0, 0, Width, Height, cornerR)
	dc.Fill()

	white := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	dc.SetColor(white)

	// Left column: org title, divider, identity lines.
	dc.SetFontFace(r.title)
	dc.DrawString(orgTitle, margin, margin+36)

	dc.DrawRectangle(margin, margin+56, 80, 6)
	dc.Fill()

	dc.SetFontFace(r.name)
	dc.DrawString(t.FullName, margin, margin+140)

	dc.SetFontFace(r.detail)
	dc.DrawString("ID: "+t.SerialNumber, margin, margin+184)
	dc.DrawString("Education: "+t.EducationLevel, margin, margin+222)

	dc.SetFontFace(r.caption)
	dc.DrawString("Scan QR code to check-in", margin, Height-margin)

	// Right column: QR code on a white tile, points below.
	tileX := float64(Width - margin - qrTile)
	tileY := float64(margin + 40)
	dc.SetColor(white)
	dc.DrawRoundedRectangle(tileX, tileY, qrTile, qrTile, 16)
	dc.Fill()

	scaled := imaging.Resize(qrImg, qrInner, qrInner, imaging.NearestNeighbor)
	pad := float64(qrTile-qrInner) / 2
	dc.DrawImage(scaled, int(tileX+pad), int(tileY+pad))

	dc.SetColor(white)
	dc.SetFontFace(r.caption)
	points := fmt.Sprintf("Points: %d", t.RewardPoints)
	pw, _ := dc.MeasureString(points)
	dc.DrawString(points, tileX+(qrTile-pw)/2, tileY+qrTile+36)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("card: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Bounds returns the card canvas rectangle, for callers sizing previews.
func Bounds() image.Rectangle {
	return image.Rect(0, 0, Width, Height)
}
