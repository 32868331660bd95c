package domain

import "errors"

var (
	// ErrRateLimited signals that the remote service refuses further requests
	// for now (quota exhausted or throttled).
	ErrRateLimited = errors.New("rate limited")
	// ErrGenerationFailed covers every other remote failure.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrEmptyResult means the image service returned zero images.
	ErrEmptyResult = errors.New("empty result")

	ErrInvalidSelection = errors.New("invalid selection")
)

// ErrorKind is the structured classification of a cycle failure.
type ErrorKind string

const (
	KindNone             ErrorKind = ""
	KindRateLimited      ErrorKind = "rate_limited"
	KindGenerationFailed ErrorKind = "generation_failed"
	KindEmptyResult      ErrorKind = "empty_result"
)

const (
	rateLimitedMessage = "API quota exceeded. Automatic generation has been paused. Please check your plan or wait a while, then resume."
	genericMessage     = "Failed to generate wallpaper. The AI might be too busy. Please wait a moment."
)

// Classify maps an error returned by a generator onto the taxonomy. Anything
// unrecognised is a generation failure.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrEmptyResult):
		return KindEmptyResult
	default:
		return KindGenerationFailed
	}
}

// UserMessage is the banner text shown for the kind.
func (k ErrorKind) UserMessage() string {
	switch k {
	case KindNone:
		return ""
	case KindRateLimited:
		return rateLimitedMessage
	default:
		return genericMessage
	}
}

// PausesCycle reports whether a failure of this kind must pause the
// automatic cycle.
func (k ErrorKind) PausesCycle() bool {
	return k == KindRateLimited
}
