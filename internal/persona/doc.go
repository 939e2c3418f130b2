// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package persona defines the fixed behavioral contract requested of the
// remote completion service.
//
// The style rules ride along as a natural-language system instruction; the
// engine does not validate replies against them locally. The policy is
// advisory, not an enforced invariant.
package persona
