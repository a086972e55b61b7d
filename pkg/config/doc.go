// Package config loads tracing configuration from appsettings files and the
// environment.
//
// Load reads appsettings.yaml (or appsettings.toml) from a directory, then
// overlays appsettings.<environment>.yaml (or .toml) when present. The
// environment name comes from TELEMETRY_ENVIRONMENT, APP_ENVIRONMENT or
// ENVIRONMENT, in that order, and defaults to "production".
// TELEMETRY_MIN_LEVEL overrides the default minimum level.
//
// Example appsettings.yaml:
//
//	logging:
//	  minimumLevel:
//	    Default: Information
//	    jobs.worker: Trace
//	  format:
//	    timeFormat: "15:04:05.000"
//	    includeThreadId: true
//	  console:
//	    enabled: true
//	    color: auto
//	  file:
//	    enabled: true
//	    path: trace.tlog
package config
