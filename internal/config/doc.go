// Package config provides application configuration loaded from environment
// variables (prefix TB) with an optional YAML file overlay.
//
// Precedence, highest first:
//  1. Environment variables (TB_SERVER_PORT, TB_DATA_URL, ...)
//  2. YAML config file (config.yaml, or TB_CONFIG)
//  3. Built-in defaults (Default)
package config
