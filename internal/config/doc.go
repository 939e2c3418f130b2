// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for rally.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.rally/config.toml
//   - ~/.rally/config.json
//   - Built-in defaults
package config
