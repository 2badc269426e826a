// Package config holds starter files for a manifestd deployment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrUnknownKind = errors.New("config: unknown template kind")
	ErrExists      = errors.New("config: file already exists")
)

// Template kinds.
const (
	KindConfig   = "config"
	KindRules    = "rules"
	KindManifest = "manifest"
)

func Kinds() []string {
	return []string{KindConfig, KindRules, KindManifest}
}

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindConfig:
		return configTemplate, nil
	case KindRules:
		return rulesTemplate, nil
	case KindManifest:
		return manifestTemplate, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// WriteTemplate writes the template for kind to path, refusing to replace an
// existing file unless overwrite is set.
func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const configTemplate = `listen_addr = "127.0.0.1:7400"
admin_addr = "127.0.0.1:7401"
# admin_token guards /validate and /query; MANIFESTD_ADMIN_TOKEN overrides it.
admin_token = ""
manifest = "manifest.xml"
manifest_format = "auto"
rules = "rules.toml"
strict_rules = false
watch = true
debounce = "250ms"
heartbeat = "30s"
cors_origins = []

read_timeout = "0s"
ack_timeout = "20s"
write_timeout = "15s"
max_sessions = 0
max_frame_bytes = 8388608
value_encoding = "sentinel"
`

const rulesTemplate = `[[rule]]
nodepath = "img_params/hostname"
predicate = "is_hostname_ok"
message = "hostname may only contain letters, digits, '-' and '.'"

[[rule]]
nodepath = "img_params/locale"
predicate = "is_locale_available"
message = "locale is not in img_params/locale_list"
`

const manifestTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<distribution>
  <key_value_pairs>
    <pair key="label" value="example"/>
  </key_value_pairs>
  <img_params>
    <hostname>localhost</hostname>
    <locale_list>en_US</locale_list>
    <locale>en_US</locale>
  </img_params>
</distribution>
`
