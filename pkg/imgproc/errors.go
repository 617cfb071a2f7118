// Package imgproc holds the image operations the segmentation pipeline is
// built from: denoising, contrast stretching, color space splitting and the
// color contrast gradient.
package imgproc

import "errors"

var (
	// ErrUnknownColorSpace is returned for a color splitter name that is not registered.
	ErrUnknownColorSpace = errors.New("imgproc: unknown color space")

	// ErrUnknownKernel is returned when parsing an unsupported gradient kernel.
	ErrUnknownKernel = errors.New("imgproc: unknown gradient kernel")

	// ErrUnknownContrast is returned when parsing an unsupported contrast type.
	ErrUnknownContrast = errors.New("imgproc: unknown contrast type")

	// ErrUnknownDenoise is returned when parsing an unsupported denoise filter.
	ErrUnknownDenoise = errors.New("imgproc: unknown denoise filter")
)
