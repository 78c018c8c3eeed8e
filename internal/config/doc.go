// Package config provides the configuration of skinhistory: built-in
// defaults, the optional YAML file with matching tables, and environment
// overrides for deployment settings.
package config
