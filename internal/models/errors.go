package models

import (
	"errors"
	"fmt"
	"image"
)

// ErrTooManyPixels is wrapped by errors for images or canvases over a pixel limit
var ErrTooManyPixels = errors.New("image exceeds pixel limit")

// DecodeError means a single source image could not be decoded or transcoded.
// Builds skip the image and carry on.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Skipped converts the error into the form reported in a BuildSummary
func (e *DecodeError) Skipped() SkippedImage {
	reason := ""
	if e.Err != nil {
		reason = e.Err.Error()
	}
	return SkippedImage{Path: e.Path, Reason: reason}
}

// FatalIOError aborts a whole build: unreadable upload folder, missing motif,
// unwritable output.
type FatalIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *FatalIOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FatalIOError) Unwrap() error {
	return e.Err
}

// CheckPixels refuses a source whose header declares more than limit pixels.
// Call it before decoding so the pixel buffer is never allocated.
func CheckPixels(path string, cfg image.Config, limit int) *DecodeError {
	if float64(cfg.Width)*float64(cfg.Height) <= float64(limit) {
		return nil
	}
	return &DecodeError{Path: path, Err: fmt.Errorf("%w: %dx%d, limit %d", ErrTooManyPixels, cfg.Width, cfg.Height, limit)}
}
