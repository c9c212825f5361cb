// Package config loads, normalizes, and validates Muster configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MUSTER_DATA_DIR. The Config type centralizes every knob the CLI needs:
// store and workspace locations, the agent roster, and the notification
// daemon's scan windows.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a validated roster, and clear validation errors.
package config
