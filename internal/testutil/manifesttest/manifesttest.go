// Package manifesttest builds small manifest trees for tests.
package manifesttest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/manifestd/internal/tree"
)

// RootTag is the root element of every fixture.
const RootTag = "distribution"

// Build returns an unfrozen fixture tree:
//
//	a/b             "x", "x"
//	c/d             ""
//	key_value_pairs  pair[key=iso_sort] "/usr/share/iso/sort", pair[key=label] ""
//	img_params       locale_list, hostname, pkg_count, size_gb
func Build() *tree.Node {
	root := tree.NewNode(RootTag, "")
	a := root.Add("a", "")
	a.Add("b", "x")
	a.Add("b", "x")
	root.Add("c", "").Add("d", "")

	kv := root.Add("key_value_pairs", "")
	kv.Add("pair", "", "key", "iso_sort").Add("value", "/usr/share/iso/sort")
	kv.Add("pair", "", "key", "label").Add("value", "")

	img := root.Add("img_params", "")
	img.Add("locale_list", "en_US,fr_FR de_DE")
	img.Add("hostname", "build-01.example.com")
	img.Add("pkg_count", "7")
	img.Add("size_gb", "2.5")
	return root
}

// Store freezes Build into a store and fails the test on error.
func Store(t testing.TB) *tree.Store {
	t.Helper()
	s, err := tree.NewStore(Build())
	if err != nil {
		t.Fatalf("new fixture store: %v", err)
	}
	return s
}

// Holder publishes Store.
func Holder(t testing.TB) *tree.Holder {
	t.Helper()
	return tree.NewHolder(Store(t))
}

// XML is the fixture tree as a manifest document.
const XML = `<?xml version="1.0" encoding="UTF-8"?>
<distribution>
  <a>
    <b>x</b>
    <b>x</b>
  </a>
  <c><d></d></c>
  <key_value_pairs>
    <pair key="iso_sort" value="/usr/share/iso/sort"/>
    <pair key="label" value=""/>
  </key_value_pairs>
  <img_params>
    <locale_list>en_US,fr_FR de_DE</locale_list>
    <hostname>build-01.example.com</hostname>
    <pkg_count>7</pkg_count>
    <size_gb>2.5</size_gb>
  </img_params>
</distribution>
`

// WriteFile writes content to name inside a fresh temp directory and returns the path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}
