// Package qr encodes check-in tokens as QR images and decodes scanned frames
// back to tokens.
package qr

import (
	"errors"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
	qrgen "github.com/skip2/go-qrcode"
)

// Size is the rendered QR edge length in pixels, matching the printed card.
const Size = 200

// ErrNotFound is returned when a frame contains no decodable QR code.
var ErrNotFound = errors.New("qr: no code found")

// Encode renders token as a PNG QR code, black on white with a quiet margin.
// Output is deterministic for a given token.
func Encode(token string) ([]byte, error) {
	if token == "" {
		return nil, errors.New("qr: empty token")
	}
	png, err := qrgen.Encode(token, qrgen.Medium, Size)
	if err != nil {
		return nil, fmt.Errorf("qr: encode: %w", err)
	}
	return png, nil
}

// Decode locates and decodes a QR code in img. Returns ErrNotFound when the
// frame holds no valid code; scan loops treat that as "keep going".
func Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("qr: binarize frame: %w", err)
	}
	result, err := zxqr.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", ErrNotFound
	}
	return result.GetText(), nil
}
