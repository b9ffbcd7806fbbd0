// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the service registry entries (address,
// timeouts, retry policy, breaker thresholds) along with admin server, health
// check, token, and audit settings.
package config
