package qr

import (
	"context"
	"errors"
	"image"
	"io"
	"time"
)

// ErrScanTimeout is returned when no code was decoded before the deadline.
var ErrScanTimeout = errors.New("qr: scan timed out")

// FrameSource supplies successive frames from a camera or video stream.
// NextFrame blocks until a frame is available; io.EOF signals the stream
// ended (camera stopped or file exhausted).
type FrameSource interface {
	NextFrame(ctx context.Context) (image.Image, error)
}

// Scanner runs Decode against a frame stream until a code is found.
type Scanner struct {
	Timeout time.Duration
}

// NewScanner creates a scanner with the given overall timeout.
func NewScanner(timeout time.Duration) *Scanner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scanner{Timeout: timeout}
}

// Scan pulls frames from src until one decodes, the source ends, the context
// is cancelled, or the timeout expires. A stream that ends with no code
// decoded returns ErrNotFound.
func (s *Scanner) Scan(ctx context.Context, src FrameSource) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	for {
		frame, err := src.NextFrame(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", ErrNotFound
			}
			if ctx.Err() != nil {
				return "", scanCtxErr(ctx)
			}
			return "", err
		}
		token, err := Decode(frame)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
		if ctx.Err() != nil {
			return "", scanCtxErr(ctx)
		}
	}
}

func scanCtxErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrScanTimeout
	}
	return ctx.Err()
}
