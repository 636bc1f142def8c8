// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package scraper

import "fmt"

// ErrorKind classifies scraping failures.
type ErrorKind int

const (
	// ErrTimeout is a fetch or bulk-call timeout.
	ErrTimeout ErrorKind = iota
	// ErrUnreachable is a transport-level failure.
	ErrUnreachable
	// ErrNotFound means the record does not exist (required anchor node
	// absent on an otherwise valid page).
	ErrNotFound
	// ErrMalformed means the page lacks a required structural element.
	ErrMalformed
	// ErrFeatureDisabled means the account lacks a server-side feature the
	// request needs; surfaced to the user with a settings hint.
	ErrFeatureDisabled
)

// Localizable message keys.
const (
	langTimeout         = 32000
	langUnreachable     = 32001
	langMalformed       = 32002
	langNotFound        = 32003
	langFeatureDisabled = 32019
)

// Error is a typed scraping failure carrying a localizable message key and
// a hint whether the user should be pointed at settings.
type Error struct {
	Kind          ErrorKind
	LangID        int
	Message       string
	CheckSettings bool
	Cause         error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(kind ErrorKind, langID int, format string, args ...any) *Error {
	return &Error{Kind: kind, LangID: langID, Message: fmt.Sprintf(format, args...)}
}

func timeoutError(cause error, format string, args ...any) *Error {
	e := newError(ErrTimeout, langTimeout, format, args...)
	e.Cause = cause
	return e
}

func unreachableError(cause error, format string, args ...any) *Error {
	e := newError(ErrUnreachable, langUnreachable, format, args...)
	e.Cause = cause
	return e
}

func notFoundError(format string, args ...any) *Error {
	return newError(ErrNotFound, langNotFound, format, args...)
}

func malformedError(format string, args ...any) *Error {
	return newError(ErrMalformed, langMalformed, format, args...)
}

func featureDisabledError(feature string) *Error {
	e := newError(ErrFeatureDisabled, langFeatureDisabled, "service %q is not enabled", feature)
	e.CheckSettings = true
	return e
}
