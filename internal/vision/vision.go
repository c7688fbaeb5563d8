package vision

import (
	"context"
	"errors"
)

// ErrNoCredentials means no API key is configured for the requested
// provider. Construction fails fast with this error before any network call
// is attempted.
var ErrNoCredentials = errors.New("no oracle credentials configured")

// Usage contains token usage and cost information for one oracle call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// Response is the raw outcome of one oracle call. Content is free-form
// model text expected, but not guaranteed, to contain one JSON analysis
// object; extraction and validation happen downstream.
type Response struct {
	Content string
	Usage   Usage
}

// Analyzer can submit an image to a vision model and return its raw output.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) (*Response, error)
}
