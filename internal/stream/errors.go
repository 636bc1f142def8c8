// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package stream

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies stream failures.
type ErrorKind int

const (
	ErrPlatformUnsupported ErrorKind = iota
	ErrFilesystemRestricted
	ErrLaunchFailed
	ErrInvalidRequest
	ErrInvalidPath
	ErrTimeout
	ErrTorrent
	ErrNoPlayableFiles
)

// Localizable message keys.
const (
	LangPlatformUnsupported  = 33020
	LangFilesystemRestricted = 33022
	LangLaunchFailed         = 33023
	LangInvalidRequest       = 33024
	LangInvalidPath          = 33025
	LangTimeout              = 33026
	LangTorrent              = 33027
	LangNoPlayableFiles      = 33050
)

// Error is a typed stream failure. CheckSettings marks errors the user can
// likely fix by changing the engine configuration.
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

var engineErrorTable = map[EngineErrorCode]struct {
	kind          ErrorKind
	langID        int
	checkSettings bool
}{
	CodeUnsupportedPlatform:  {ErrPlatformUnsupported, LangPlatformUnsupported, false},
	CodeMissingHomeDir:       {ErrPlatformUnsupported, LangPlatformUnsupported, false},
	CodeRestrictedFilesystem: {ErrFilesystemRestricted, LangFilesystemRestricted, false},
	CodeProcessFailed:        {ErrLaunchFailed, LangLaunchFailed, true},
	CodeBindFailed:           {ErrLaunchFailed, LangLaunchFailed, true},
	CodeLaunchFailed:         {ErrLaunchFailed, LangLaunchFailed, true},
	CodeBadRequest:           {ErrInvalidRequest, LangInvalidRequest, false},
	CodeInvalidFileIndex:     {ErrInvalidRequest, LangInvalidRequest, false},
	CodeInvalidDownloadPath:  {ErrInvalidPath, LangInvalidPath, true},
	CodeTimeout:              {ErrTimeout, LangTimeout, false},
	CodeTorrentFailed:        {ErrTorrent, LangTorrent, false},
}

// translateEngineError converts an engine failure into a stream error;
// non-engine errors pass through unchanged.
func translateEngineError(err error) error {
	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		return err
	}
	entry := engineErrorTable[engineErr.Code]
	message := engineErr.Reason
	if engineErr.Code == CodeTorrentFailed {
		message = fmt.Sprintf("torrent error (%s)", engineErr.Reason)
	}
	return &Error{
		Kind:          entry.kind,
		LangID:        entry.langID,
		Message:       message,
		CheckSettings: entry.checkSettings,
		Cause:         err,
	}
}

func noPlayableFilesError() *Error {
	return &Error{Kind: ErrNoPlayableFiles, LangID: LangNoPlayableFiles, Message: "no playable files detected"}
}
