package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/manifestd/internal/manifest"
	"github.com/danmuck/manifestd/internal/validate"
)

func TestTemplatesAreUsable(t *testing.T) {
	cfg, err := Template(KindConfig)
	if err != nil {
		t.Fatalf("config template: %v", err)
	}
	var raw map[string]any
	if _, err := toml.Decode(cfg, &raw); err != nil {
		t.Fatalf("config template does not parse: %v", err)
	}
	if raw["manifest"] != "manifest.xml" {
		t.Fatalf("unexpected manifest key: %v", raw["manifest"])
	}

	rulesDoc, err := Template(KindRules)
	if err != nil {
		t.Fatalf("rules template: %v", err)
	}
	rules, err := validate.ParseRules(rulesDoc)
	if err != nil {
		t.Fatalf("rules template does not bind: %v", err)
	}

	doc, err := Template(" Manifest ")
	if err != nil {
		t.Fatalf("manifest template: %v", err)
	}
	store, err := manifest.Parse([]byte(doc), manifest.FormatAuto)
	if err != nil {
		t.Fatalf("manifest template does not load: %v", err)
	}
	if report := validate.NewEngine(rules).Run(store); !report.OK() || report.Evaluated != 2 {
		t.Fatalf("starter manifest should pass starter rules: %+v", report)
	}

	if _, err := Template("cluster"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	if err := WriteTemplate(path, KindRules, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteTemplate(path, KindRules, false); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if err := os.WriteFile(path, []byte("stale"), 0o600); err != nil {
		t.Fatalf("write stale: %v", err)
	}
	if err := WriteTemplate(path, KindRules, true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != rulesTemplate {
		t.Fatalf("overwrite did not replace content: err=%v", err)
	}
}
