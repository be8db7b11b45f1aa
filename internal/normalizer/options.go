package normalizer

import "fmt"

// Options configures the denoise and dilation steps. Grayscale conversion and
// Otsu thresholding have no knobs.
type Options struct {
	// Non-local-means denoising
	TemplateWindow int     // side of the compared patch, odd
	SearchWindow   int     // side of the area searched for similar patches, odd
	Strength       float64 // filter strength h; larger removes more noise

	// Dilation
	DilateKernel     int // side of the square structuring element, 1..3
	DilateIterations int
}

// DefaultOptions returns the reference parameters
func DefaultOptions() Options {
	return Options{
		TemplateWindow:   7,
		SearchWindow:     21,
		Strength:         10,
		DilateKernel:     1,
		DilateIterations: 1,
	}
}

// WithDenoise returns options with custom non-local-means parameters
func (opts Options) WithDenoise(template, search int, strength float64) Options {
	opts.TemplateWindow = template
	opts.SearchWindow = search
	opts.Strength = strength
	return opts
}

// WithDilateKernel returns options with a custom structuring element size
func (opts Options) WithDilateKernel(size int) Options {
	opts.DilateKernel = size
	return opts
}

// Validate checks that the parameters describe a usable filter
func (opts Options) Validate() error {
	if opts.TemplateWindow < 1 || opts.TemplateWindow%2 == 0 {
		return fmt.Errorf("template window must be a positive odd number (got %d)", opts.TemplateWindow)
	}
	if opts.SearchWindow < opts.TemplateWindow || opts.SearchWindow%2 == 0 {
		return fmt.Errorf("search window must be odd and >= template window (got %d)", opts.SearchWindow)
	}
	if opts.Strength <= 0 {
		return fmt.Errorf("denoise strength must be > 0 (got %g)", opts.Strength)
	}
	if opts.DilateKernel < 1 || opts.DilateKernel > 3 {
		return fmt.Errorf("dilate kernel must be between 1 and 3 (got %d)", opts.DilateKernel)
	}
	if opts.DilateIterations < 1 {
		return fmt.Errorf("dilate iterations must be >= 1 (got %d)", opts.DilateIterations)
	}
	return nil
}
