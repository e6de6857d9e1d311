// Package domain defines domain-level errors for the analysis feature.
package domain

import "errors"

var (
	// ErrDecode indicates that the payload could not be turned into an image.
	// This covers malformed base64 text as well as corrupt or unsupported image data.
	ErrDecode = errors.New("decode error")

	// ErrImageTooLarge indicates that the payload exceeds the configured size limit.
	ErrImageTooLarge = errors.New("image too large")

	// ErrModelUnavailable indicates that the detection model could not be constructed.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrInference indicates that the model runtime failed while predicting.
	ErrInference = errors.New("inference failed")
)
