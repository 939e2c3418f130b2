// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog holds the compiled-in baseline of rooms and seed
// conversation logs.
//
// The baseline is what a fresh install renders before any persisted data
// exists. It is read-only input to the room directory: the core never
// mutates it, and baseline entries stay authoritative for static room
// fields (peer, game) even after local writes overlay the dynamic ones.
package catalog
