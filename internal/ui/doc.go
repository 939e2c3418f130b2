// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui is the terminal shell over the chat engine.
//
// Two screens: the room list (merged directory with filters) and the chat
// view (history, streaming reply, in-conversation search). The shell is
// deliberately thin; every behavior it surfaces lives in the engine
// packages, and streaming chunks arrive as Bubble Tea messages in the order
// the engine emitted them.
package ui
