// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package directory resolves the merged room directory.
//
// The directory is a read-only view over the baseline catalog and the
// persisted room set: exactly one room per ID after the merge, baseline
// authoritative for static fields, persisted authoritative for dynamic ones.
// Ordering is last-message recency with a deterministic ID tie-break, so
// resolving twice without intervening writes yields identical output.
//
// Many views read the directory concurrently; writes go through
// UpsertPersisted, which invalidates the cached snapshot. Readers always see
// a fully-merged snapshot, never a half-merged union.
package directory
