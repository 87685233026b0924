// Package config defines the YAML configuration for the authority boundary
// ledger and its loading pipeline: read file, apply defaults, apply
// environment overrides, validate.
//
// Environment variables follow the AUTHORITY_SECTION_FIELD convention
// (e.g. AUTHORITY_STORAGE_BACKEND) and always take precedence over
// file-based configuration.
package config
