package validate

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/danmuck/manifestd/internal/tree"
)

// Predicate checks one node. It may read the rest of the tree through the node.
type Predicate func(n *tree.Node) bool

// maxHostnameLen mirrors MAXHOSTNAMELEN.
const maxHostnameLen = 256

const wildcardChars = "*%?@[]{}|<>()#$\"'\\"

var localeListPath = tree.MustParse(tree.LocaleListPath)

// IsAbsPath reports whether the value starts with "/".
func IsAbsPath(n *tree.Node) bool {
	v := n.Value()
	return v != "" && v[0] == '/'
}

// IsWildcard reports whether the value contains a shell glob or quoting character.
func IsWildcard(n *tree.Node) bool {
	return strings.ContainsAny(n.Value(), wildcardChars)
}

// IsZeroThruNineVal reports whether the value is an integer in [0, 9].
func IsZeroThruNineVal(n *tree.Node) bool {
	v, err := strconv.Atoi(strings.TrimSpace(n.Value()))
	if err != nil {
		return false
	}
	return v >= 0 && v <= 9
}

// IsNonNegFloat reports whether the value is a number >= 0. Out-of-range
// magnitudes count as infinities; NaN is never non-negative.
func IsNonNegFloat(n *tree.Node) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(n.Value()), 64)
	if err != nil {
		if !errors.Is(err, strconv.ErrRange) {
			return false
		}
	}
	if math.IsNaN(v) {
		return false
	}
	return v >= 0.0
}

// IsLocaleAvailable reports whether the trimmed value names one of the locales
// listed at img_params/locale_list. The list is split on commas and whitespace.
func IsLocaleAvailable(n *tree.Node) bool {
	want := strings.TrimSpace(n.Value())
	lists := lookup(n, localeListPath)
	if len(lists) == 0 {
		return false
	}
	for _, locale := range splitCommaWS(lists[0].Value()) {
		if want == strings.TrimSpace(locale) {
			return true
		}
	}
	return false
}

// IsHostnameOK reports whether the value is at most 256 bytes, has no "..", and
// uses only ASCII letters, digits, '-' and '.'.
func IsHostnameOK(n *tree.Node) bool {
	v := n.Value()
	if len(v) > maxHostnameLen {
		return false
	}
	if strings.Contains(v, "..") {
		return false
	}
	for i := 0; i < len(v); i++ {
		c := v[i]
		isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !(isAlpha || isDigit || c == '-' || c == '.') {
			return false
		}
	}
	return true
}

// IsUnique reports whether exactly one node sharing this node's canonical path
// holds this node's value. The root is the only node at its path.
func IsUnique(n *tree.Node) bool {
	if n.Parent() == nil {
		return true
	}
	value := n.Value()
	count := 0
	for _, m := range lookup(n, n.CanonicalPath()) {
		if m.Value() == value {
			count++
		}
	}
	return count == 1
}

// lookup resolves p in the tree that owns n. Nodes not yet owned by a store
// resolve against their own root.
func lookup(n *tree.Node, p tree.Path) []*tree.Node {
	if s := tree.OwningStore(n); s != nil {
		return s.ResolvePath(p)
	}
	return tree.ResolveFrom(n.Root(), p)
}

func splitCommaWS(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
