package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	DataDir    string           `json:"dataDir"`
	HTTPAddr   string           `json:"httpAddr"`
	Log        LogConfig        `json:"log"`
	Controller ControllerConfig `json:"controller"`
	Bookie     BookieConfig     `json:"bookie"`
}

// LogConfig selects process-wide logging behavior.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// ControllerConfig describes this node's membership in the controller quorum.
type ControllerConfig struct {
	Enabled bool `json:"enabled"`
	// NodeID identifies this node inside the raft group.
	NodeID string `json:"nodeId"`
	// BindAddr is the address the raft transport listens on.
	BindAddr string `json:"bindAddr"`
	// Bootstrap starts a fresh single-node cluster with this node as the only
	// voter. Only one node in a cluster may bootstrap.
	Bootstrap bool `json:"bootstrap"`
	// Peers lists the initial voters as id=addr pairs, applied on bootstrap.
	Peers []string `json:"peers"`
	// ApplyTimeoutMs bounds how long a write waits for a quorum commit.
	ApplyTimeoutMs int `json:"applyTimeoutMs"`
}

// BookieConfig tunes the entry-log storage engine.
type BookieConfig struct {
	Enabled bool `json:"enabled"`
	// ReaderCacheSize bounds how many sealed log files stay open for reads.
	ReaderCacheSize int `json:"readerCacheSize"`
}

// Default returns built-in defaults: a single-node deployment running both the
// controller and bookie roles.
func Default() Config {
	return Config{
		HTTPAddr: ":8411",
		Log:      LogConfig{Level: "info", Format: "text"},
		Controller: ControllerConfig{
			Enabled:        true,
			NodeID:         "node-1",
			BindAddr:       "127.0.0.1:8412",
			Bootstrap:      true,
			ApplyTimeoutMs: 5000,
		},
		Bookie: BookieConfig{
			Enabled:         true,
			ReaderCacheSize: 64,
		},
	}
}

// Load reads configuration from a JSON file. If path is empty, returns
// defaults. Unknown fields are rejected so typos fail loudly.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations that cannot produce a working node.
func (c Config) Validate() error {
	if !c.Controller.Enabled && !c.Bookie.Enabled {
		return fmt.Errorf("at least one of controller or bookie must be enabled")
	}
	if c.Controller.Enabled {
		if c.Controller.NodeID == "" {
			return fmt.Errorf("controller.nodeId is required")
		}
		if c.Controller.BindAddr == "" {
			return fmt.Errorf("controller.bindAddr is required")
		}
	}
	if c.Bookie.Enabled && c.Bookie.ReaderCacheSize <= 0 {
		return fmt.Errorf("bookie.readerCacheSize must be positive")
	}
	return nil
}
