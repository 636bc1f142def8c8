// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// RedactedStr is the placeholder shown in place of a secret.
const RedactedStr = "<redacted>"

// RedactString replaces a non-empty secret with the redaction placeholder.
func RedactString(s string) string {
	if s == "" {
		return ""
	}
	return RedactedStr
}

// IsRedactedString reports whether a value is the redaction placeholder.
func IsRedactedString(s string) bool {
	return s == RedactedStr
}
