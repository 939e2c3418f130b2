// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package search implements in-conversation text search.
//
// Queries are literal substrings, matched case-insensitively over the
// message log. All offsets are rune positions, not byte positions, so
// multi-byte text (Hangul, emoji) highlights correctly. Navigation wraps
// circularly in both directions.
//
// Text and query are NFC-normalized before matching so composed and
// decomposed Hangul compare equal.
package search
