package tree

import (
	"errors"
	"reflect"
	"testing"
)

func TestParsePlainAndQualifiedSegments(t *testing.T) {
	p, err := Parse("key_value_pairs/pair[key=mykey]/value")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := Path{
		{Tag: "key_value_pairs"},
		{Tag: "pair", Attr: "key", Value: "mykey"},
		{Tag: "value"},
	}
	if !reflect.DeepEqual(p, want) {
		t.Fatalf("unexpected path: got=%+v want=%+v", p, want)
	}
	if p.String() != "key_value_pairs/pair[key=mykey]/value" {
		t.Fatalf("unexpected string form: %q", p.String())
	}
}

func TestParseLiteralMayContainSlash(t *testing.T) {
	p, err := Parse("/pkgs/pkg[path=/usr/bin/ls]/name")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(p) != 3 || p[1].Value != "/usr/bin/ls" {
		t.Fatalf("unexpected path: %+v", p)
	}
}

func TestParseEmptyLiteralAndWildcard(t *testing.T) {
	p, err := Parse("a[k=]/b[k=*]")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p[0].Value != "" || !p[0].Qualified() {
		t.Fatalf("expected qualified empty literal, got %+v", p[0])
	}
	if p[1].Value != Wildcard {
		t.Fatalf("expected wildcard, got %+v", p[1])
	}
}

func TestParseMalformed(t *testing.T) {
	cases := []string{
		"",
		"/",
		"a//b",
		"a/",
		"a[",
		"a[key]",
		"a[=v]",
		"a[k=v",
		"a[k=v]b",
		"a]b",
		"a=b",
		"[k=v]",
		"a[k=[v]]",
		"a\x00b",
		"a/b\x04",
	}
	for _, raw := range cases {
		if _, err := Parse(raw); !errors.Is(err, ErrMalformedPath) {
			t.Fatalf("expected ErrMalformedPath for %q, got %v", raw, err)
		}
	}
}

func TestKeyPath(t *testing.T) {
	if got := KeyPath("mykey"); got != "key_value_pairs/pair[key=mykey]/value" {
		t.Fatalf("unexpected key path: %q", got)
	}
	if _, err := Parse(KeyPath("iso_sort")); err != nil {
		t.Fatalf("key path should parse: %v", err)
	}
}

func TestValidTag(t *testing.T) {
	for _, ok := range []string{"pair", "img_params", "a-b.c"} {
		if !ValidTag(ok) {
			t.Fatalf("expected %q valid", ok)
		}
	}
	for _, bad := range []string{"", "a/b", "a[b", "k=v", "x\x01"} {
		if ValidTag(bad) {
			t.Fatalf("expected %q invalid", bad)
		}
	}
}
