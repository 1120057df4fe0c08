package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays MORAX_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("MORAX_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("MORAX_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("MORAX_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MORAX_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("MORAX_CONTROLLER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Controller.Enabled = b
		}
	}
	if v := os.Getenv("MORAX_CONTROLLER_NODE_ID"); v != "" {
		cfg.Controller.NodeID = v
	}
	if v := os.Getenv("MORAX_CONTROLLER_BIND_ADDR"); v != "" {
		cfg.Controller.BindAddr = v
	}
	if v := os.Getenv("MORAX_CONTROLLER_BOOTSTRAP"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Controller.Bootstrap = b
		}
	}
	if v := os.Getenv("MORAX_CONTROLLER_PEERS"); v != "" {
		parts := strings.Split(v, ",")
		cfg.Controller.Peers = nil
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.Controller.Peers = append(cfg.Controller.Peers, p)
			}
		}
	}
	if v := os.Getenv("MORAX_BOOKIE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Bookie.Enabled = b
		}
	}
	if v := os.Getenv("MORAX_BOOKIE_READER_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Bookie.ReaderCacheSize = n
		}
	}
}
