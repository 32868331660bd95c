package domain

import "encoding/base64"

const DefaultImageMIME = "image/png"

// ImageHandle is an opaque generated image. Data must be treated as
// read-only once the handle leaves the generator.
type ImageHandle struct {
	MIMEType string
	Data     []byte
}

// IsZero reports whether the handle carries no image bytes.
func (h ImageHandle) IsZero() bool {
	return len(h.Data) == 0
}

// ContentType returns the MIME type, defaulting to PNG.
func (h ImageHandle) ContentType() string {
	if h.MIMEType == "" {
		return DefaultImageMIME
	}
	return h.MIMEType
}

// DataURI renders the image as a data: URI.
func (h ImageHandle) DataURI() string {
	return "data:" + h.ContentType() + ";base64," + base64.StdEncoding.EncodeToString(h.Data)
}

// GenerationResult is a committed cycle output: both steps succeeded.
type GenerationResult struct {
	Image      ImageHandle
	PromptText string
}
