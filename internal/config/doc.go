// Package config provides loading and environment overlay for Morax node
// configuration. It exposes a Default() baseline, JSON file loading, and
// MORAX_* env overrides.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/morax.json"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
package config
