// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the RALLY chat engine.
//
// It contains the atomic file write primitive that the persistence layer
// relies on for its whole-value durability contract, plus rune-safe string
// helpers used by previews and the room list.
package util
