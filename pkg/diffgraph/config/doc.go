// Package config reads the settings the diffgraph CLI runs with.
//
// A config document is YAML or JSON; values are addressed by dotted path:
//
//	mode: forward
//	log:
//	  level: debug
//	  format: json
//	store:
//	  path: graphs.db
//	operations: ops.yaml
//	telemetry:
//	  metrics: true
//	  tracing: false
//
// Load decodes a file, With layers command-line overrides on top, and
// SettingsFrom validates the result:
//
//	cfg, err := config.Load("diffgraph.yaml")
//	if err != nil {
//	    return err
//	}
//	settings, err := config.SettingsFrom(cfg.With(config.KeyLogLevel, "warn"))
package config
