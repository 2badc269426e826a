package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/manifestd/internal/testutil/testlog"
	"github.com/danmuck/manifestd/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRules = `
[[rule]]
nodepath = "img_params/hostname"
predicate = "is_hostnameOK"
message = "hostname contains invalid characters"

[[rule]]
nodepath = "img_params/default_locale"
predicate = "is_locale_available"

[[rule]]
nodepath = "packages/pkg"
predicate = "is_unique"

[[rule]]
nodepath = "key_value_pairs/pair[key=compression_level]/value"
predicate = "is_zero_thru_nine_val"
`

func sampleStore(t *testing.T) *tree.Store {
	t.Helper()
	root := tree.NewNode("distribution", "")
	img := root.Add("img_params", "")
	img.Add("hostname", "bad..host")
	img.Add("locale_list", "en_US fr_FR")
	img.Add("default_locale", "en_US")
	pkgs := root.Add("packages", "")
	pkgs.Add("pkg", "SUNWcs")
	pkgs.Add("pkg", "SUNWcs")
	pkgs.Add("pkg", "SUNWzone")
	kv := root.Add("key_value_pairs", "")
	kv.Add("pair", "", "key", "compression_level").Add("value", "12")
	s, err := tree.NewStore(root)
	require.NoError(t, err)
	return s
}

func TestLookupCatalog(t *testing.T) {
	for _, name := range Names() {
		p, err := Lookup(string(name))
		require.NoError(t, err)
		require.NotNil(t, p)
	}
	_, err := Lookup("is_hostnameOK")
	require.NoError(t, err)
	_, err = Lookup("is_even")
	require.ErrorIs(t, err, ErrUnknownPredicate)
	assert.Len(t, Names(), 7)
}

func TestParseRulesBindsAtLoad(t *testing.T) {
	rules, err := ParseRules(sampleRules)
	require.NoError(t, err)
	require.Len(t, rules, 4)
	assert.Equal(t, NameIsHostnameOK, rules[0].Name)
	assert.Equal(t, "key_value_pairs/pair[key=compression_level]/value", rules[3].Path.String())
}

func TestParseRulesUnknownPredicateFailsLoad(t *testing.T) {
	_, err := ParseRules(`
[[rule]]
nodepath = "img_params/hostname"
predicate = "is_hostname_valid"
`)
	require.ErrorIs(t, err, ErrUnknownPredicate)
}

func TestParseRulesMalformedNodepathFailsLoad(t *testing.T) {
	_, err := ParseRules(`
[[rule]]
nodepath = "img_params/hostname[name"
predicate = "is_hostname_ok"
`)
	require.ErrorIs(t, err, ErrInvalidRule)
	require.ErrorIs(t, err, tree.ErrMalformedPath)
}

func TestParseRulesUnknownKeyFailsLoad(t *testing.T) {
	_, err := ParseRules(`
[[rule]]
nodepath = "img_params/hostname"
predicate = "is_hostname_ok"
severity = "warn"
`)
	require.ErrorIs(t, err, ErrInvalidRule)
}

func TestLoadRulesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0o644))
	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 4)

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestEngineRunReportsFailuresInOrder(t *testing.T) {
	testlog.Start(t)
	rules, err := ParseRules(sampleRules)
	require.NoError(t, err)

	report := NewEngine(rules).Run(sampleStore(t))
	assert.Equal(t, 4, report.Rules)
	assert.Equal(t, 6, report.Evaluated)
	assert.False(t, report.OK())

	require.Len(t, report.Failures, 4)
	assert.Equal(t, NameIsHostnameOK, report.Failures[0].Predicate)
	assert.Equal(t, "hostname contains invalid characters", report.Failures[0].Message)
	assert.Equal(t, "img_params/hostname", report.Failures[0].Path)
	assert.Equal(t, NameIsUnique, report.Failures[1].Predicate)
	assert.Equal(t, NameIsUnique, report.Failures[2].Predicate)
	assert.Equal(t, "SUNWcs", report.Failures[2].Value)
	assert.Equal(t, NameIsZeroThruNineVal, report.Failures[3].Predicate)
	assert.Equal(t, "key_value_pairs/pair/value", report.Failures[3].Path)
}

func TestEngineRunWildcardAndEmptyRuleSet(t *testing.T) {
	rules, err := ParseRules(`
[[rule]]
nodepath = "img_params/locale_list"
predicate = "is_wildcard"
`)
	require.NoError(t, err)
	report := NewEngine(rules).Run(sampleStore(t))
	assert.Equal(t, 1, report.Evaluated)
	require.Len(t, report.Failures, 1)

	report = NewEngine(nil).Run(sampleStore(t))
	assert.True(t, report.OK())
	assert.Zero(t, report.Evaluated)
}
