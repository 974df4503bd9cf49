// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the
// storefront client.
//
// Supports both TOML and JSON configuration formats, with defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: Backend endpoint, timeouts and retry budget
//   - SessionConfig: Idle timeout and warning lead time
//   - UIConfig: Theme and mouse reporting
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (STOREFRONT_*)
//   - $STOREFRONT_HOME/config.toml (default ~/.storefront)
//   - $STOREFRONT_HOME/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	mon, err := idle.New(cfg.IdleConfig(), controller)
package config
