package models

import (
	"errors"
	"fmt"
)

// ErrBlobNotFound is wrapped by PersistenceError when a named blob is absent from the store.
var ErrBlobNotFound = errors.New("blob not found")

// ConfigError reports missing or invalid required input (no URL, no categories file, bad YAML).
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config error: " + e.Msg
	}
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Msg)
}

// FetchError reports a network, DNS or HTTP failure while opening a URL.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status code %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistenceError reports a blob that is missing, unreadable or corrupt.
type PersistenceError struct {
	Blob string
	Op   string // "load" or "save"
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s blob %q: %v", e.Op, e.Blob, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// MissingCodecError is returned when a category name is requested but no label codec is available.
// Callers are expected to fall back to index-only output.
type MissingCodecError struct {
	Index int
}

func (e *MissingCodecError) Error() string {
	return fmt.Sprintf("no label codec available for category index %d", e.Index)
}

// IsNotFound reports whether err is a PersistenceError caused by an absent blob.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBlobNotFound)
}
