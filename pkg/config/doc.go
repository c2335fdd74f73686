// Package config provides application configuration management
//
// Configuration is loaded once at startup from GATE_-prefixed environment
// variables, validated, and passed by reference into the components that
// need it. No component reads the environment after startup.
//
// Required settings:
//   - GATE_BACKEND_API_URL: base URL of the identity/business backend
//   - GATE_INTERNAL_AUTH_KEY: shared secret for the audit sink (when audit
//     is enabled)
//
// Everything else has sensible defaults; see LoadConfig.
package config
