package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/manifestd/internal/daemon"
	"github.com/danmuck/manifestd/internal/manifest"
	"github.com/danmuck/manifestd/internal/protocol"
)

type fileConfig struct {
	ListenAddr     string   `toml:"listen_addr"`
	AdminAddr      string   `toml:"admin_addr"`
	AdminToken     string   `toml:"admin_token"`
	Manifest       string   `toml:"manifest"`
	ManifestFormat string   `toml:"manifest_format"`
	Rules          string   `toml:"rules"`
	StrictRules    bool     `toml:"strict_rules"`
	Watch          bool     `toml:"watch"`
	Debounce       string   `toml:"debounce"`
	Heartbeat      string   `toml:"heartbeat"`
	CORSOrigins    []string `toml:"cors_origins"`
	ReadTimeout    string   `toml:"read_timeout"`
	AckTimeout     string   `toml:"ack_timeout"`
	WriteTimeout   string   `toml:"write_timeout"`
	MaxSessions    int      `toml:"max_sessions"`
	MaxFrameBytes  uint32   `toml:"max_frame_bytes"`
	ValueEncoding  string   `toml:"value_encoding"`
}

func loadServiceConfig(path string) (daemon.ServiceConfig, error) {
	cfg := daemon.DefaultServiceConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return daemon.ServiceConfig{}, fmt.Errorf("load manifestd config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return daemon.ServiceConfig{}, fmt.Errorf("load manifestd config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("admin_token") {
		cfg.AdminToken = strings.TrimSpace(raw.AdminToken)
	}
	if meta.IsDefined("manifest") {
		cfg.ManifestPath = strings.TrimSpace(raw.Manifest)
	}
	if meta.IsDefined("manifest_format") {
		f, err := manifest.ParseFormat(raw.ManifestFormat)
		if err != nil {
			return daemon.ServiceConfig{}, err
		}
		cfg.ManifestFormat = f
	}
	if meta.IsDefined("rules") {
		cfg.RulesPath = strings.TrimSpace(raw.Rules)
	}
	if meta.IsDefined("strict_rules") {
		cfg.StrictRules = raw.StrictRules
	}
	if meta.IsDefined("watch") {
		cfg.Watch = raw.Watch
	}
	if meta.IsDefined("cors_origins") {
		cfg.CORSOrigins = normalizeList(raw.CORSOrigins)
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"debounce", raw.Debounce, &cfg.Debounce},
		{"heartbeat", raw.Heartbeat, &cfg.Heartbeat},
		{"read_timeout", raw.ReadTimeout, &cfg.Query.ReadTimeout},
		{"ack_timeout", raw.AckTimeout, &cfg.Query.AckTimeout},
		{"write_timeout", raw.WriteTimeout, &cfg.Query.WriteTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return daemon.ServiceConfig{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if meta.IsDefined("max_sessions") {
		cfg.Query.MaxSessions = raw.MaxSessions
	}
	if meta.IsDefined("max_frame_bytes") {
		cfg.Query.Limits.MaxPayloadBytes = raw.MaxFrameBytes
	}
	if meta.IsDefined("value_encoding") {
		enc, err := protocol.ParseEncoding(raw.ValueEncoding)
		if err != nil {
			return daemon.ServiceConfig{}, err
		}
		cfg.Query.Encoding = enc
	}
	return cfg, nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
