// Package config loads, normalizes, and validates audiodesc configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STEAMSHIP_API_KEY and OPENROUTER_API_KEY. The Config type centralizes every
// knob the daemon and CLI need: platform credentials, plugin handles, wait
// bounds, the generation prompt, and the generator backend selection.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
