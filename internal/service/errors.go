package service

import "errors"

// Terminal request failures. Causes are wrapped, so match with errors.Is.
var (
	// ErrInvalidInput means the identity did not parse as an integer.
	ErrInvalidInput = errors.New("invalid input")
	// ErrFetch means the image source failed, timed out or returned junk.
	ErrFetch = errors.New("fetch failed")
	// ErrTransform means the pipeline rejected the image or timed out.
	ErrTransform = errors.New("transform failed")
	// ErrStore means the cache could not be read or written for this request.
	ErrStore = errors.New("cache store failure")
)

// IsClientError reports whether err should be answered with a 4xx.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
