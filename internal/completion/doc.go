// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package completion provides the HTTP client for the remote reply service.
//
// One operation: POST the model-visible transcript plus the persona policy,
// read back a live stream of UTF-8 text increments as newline-delimited JSON
// chunks terminated by a done marker. Non-2xx responses carry an
// {error, details} payload. Chunks are delivered to the caller in arrival
// order with no reordering; the transport-level retry budget comes from the
// policy and is not re-implemented by callers.
package completion
