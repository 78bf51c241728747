package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoRecipe signals that the extraction capability explicitly found no
// recipe in the source. It is a structural miss, not a failure.
var ErrNoRecipe = errors.New("no recipe found in source")

// FetchReason classifies retrieval failures.
type FetchReason string

const (
	FetchTimeout      FetchReason = "timeout"
	FetchTooLarge     FetchReason = "too_large"
	FetchBadStatus    FetchReason = "bad_status"
	FetchNetworkError FetchReason = "network_error"
	FetchNotText      FetchReason = "not_text"
)

// FetchError reports why retrieval of a source URL failed.
type FetchError struct {
	URL        string
	Reason     FetchReason
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s (HTTP %d)", e.URL, e.Reason, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractReason classifies extraction failures.
type ExtractReason string

const (
	ExtractMalformedOutput ExtractReason = "malformed_output"
	ExtractCallFailed      ExtractReason = "call_failed"
)

// ExtractionError reports a failed structured-extraction call, as opposed
// to the capability cleanly reporting a miss (ErrNoRecipe).
type ExtractionError struct {
	Reason ExtractReason
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ValidationError reports mandatory recipe fields that were empty after
// coercion.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "recipe missing mandatory fields: " + strings.Join(e.Missing, ", ")
}
