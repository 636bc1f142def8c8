// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package httpclient

import (
	"fmt"
	"net/http"
)

// NetworkKind classifies transport failures.
type NetworkKind int

const (
	KindUnreachable NetworkKind = iota
	KindTimeout
)

// Localizable message keys surfaced to the host application.
const (
	LangTimeout     = 32000
	LangUnreachable = 32001
)

// NetworkError is raised for transport-level failures, including exhausted
// retries and timeouts.
type NetworkError struct {
	Kind  NetworkKind
	URL   string
	Cause error
}

func (e *NetworkError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("timeout while fetching URL: %s", e.URL)
	default:
		return fmt.Sprintf("can't fetch URL: %s", e.URL)
	}
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// LangID returns the localizable message key for user-facing reporting.
func (e *NetworkError) LangID() int {
	if e.Kind == KindTimeout {
		return LangTimeout
	}
	return LangUnreachable
}

// StatusError is raised for non-success HTTP status codes that are not
// retried. It keeps the response headers so protocol adapters can read
// session tokens from error responses.
type StatusError struct {
	Code   int
	Header http.Header
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http error %d: %s", e.Code, http.StatusText(e.Code))
}
