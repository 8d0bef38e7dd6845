package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrNotCached     = errors.New("url not in cache")
	ErrBadSnapshot   = errors.New("malformed snapshot")
	ErrMissingParent = errors.New("parent id missing from region table")
	ErrMissingRegion = errors.New("region id missing from region index")
	ErrProfileShape  = errors.New("profile page has no data rows")
)

// FetchError wraps errors that occur during fetching.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError wraps errors that occur while extracting a page shape.
type ParseError struct {
	// Page identifies the unit being parsed, e.g. "profile 1234".
	Page string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s: %v", e.Page, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StoreError wraps errors that occur persisting or loading data.
type StoreError struct {
	// Target is the snapshot path or sink name the failure belongs to.
	Target string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error (%s): %v", e.Target, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
