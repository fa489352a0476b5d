// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for srcindex.
//
// Supports both TOML and JSON configuration formats with sensible defaults.
// There is deliberately no package-level global configuration: the owning
// Workspace carries its Config explicitly.
package config
