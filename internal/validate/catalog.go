package validate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownPredicate = errors.New("validate: unknown predicate")

// Name identifies a predicate in rule files.
type Name string

const (
	NameIsAbsPath         Name = "is_abs_path"
	NameIsWildcard        Name = "is_wildcard"
	NameIsZeroThruNineVal Name = "is_zero_thru_nine_val"
	NameIsLocaleAvailable Name = "is_locale_available"
	NameIsNonNegFloat     Name = "is_non_neg_float"
	NameIsHostnameOK      Name = "is_hostname_ok"
	NameIsUnique          Name = "is_unique"
)

var catalog = map[Name]Predicate{
	NameIsAbsPath:         IsAbsPath,
	NameIsWildcard:        IsWildcard,
	NameIsZeroThruNineVal: IsZeroThruNineVal,
	NameIsLocaleAvailable: IsLocaleAvailable,
	NameIsNonNegFloat:     IsNonNegFloat,
	NameIsHostnameOK:      IsHostnameOK,
	NameIsUnique:          IsUnique,
}

// Legacy spellings still found in older rule files.
var aliases = map[string]Name{
	"is_hostnameOK": NameIsHostnameOK,
}

// Canonical maps a rule-file spelling to its catalog name.
func Canonical(raw string) (Name, error) {
	name := strings.TrimSpace(raw)
	if alias, ok := aliases[name]; ok {
		return alias, nil
	}
	if _, ok := catalog[Name(name)]; ok {
		return Name(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPredicate, raw)
}

// Lookup returns the predicate registered under name.
func Lookup(raw string) (Predicate, error) {
	name, err := Canonical(raw)
	if err != nil {
		return nil, err
	}
	return catalog[name], nil
}

// Names returns the catalog names in sorted order.
func Names() []Name {
	out := make([]Name, 0, len(catalog))
	for name := range catalog {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i] < out[j]
	})
	return out
}
