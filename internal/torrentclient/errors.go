// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torrentclient

import "fmt"

// ErrorKind classifies daemon failures.
type ErrorKind int

const (
	// ErrProtocol means the daemon answered with something unparseable.
	ErrProtocol ErrorKind = iota
	// ErrConnection means the daemon could not be reached at all.
	ErrConnection
	// ErrAuth means the daemon rejected the configured credentials.
	ErrAuth
)

// Localizable message keys.
const (
	LangProtocol   = 32010
	LangConnection = 32011
	LangAuth       = 32012
)

// Error is a typed daemon failure. CheckSettings marks errors where the
// configured endpoint or credentials are the likely culprit.
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

func protocolError(cause error, format string, args ...any) *Error {
	return &Error{Kind: ErrProtocol, LangID: LangProtocol, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func connectionError(cause error, format string, args ...any) *Error {
	return &Error{Kind: ErrConnection, LangID: LangConnection, Message: fmt.Sprintf(format, args...),
		CheckSettings: true, Cause: cause}
}

func authError(cause error, format string, args ...any) *Error {
	return &Error{Kind: ErrAuth, LangID: LangAuth, Message: fmt.Sprintf(format, args...),
		CheckSettings: true, Cause: cause}
}
