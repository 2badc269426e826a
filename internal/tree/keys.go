package tree

import (
	"fmt"
	"strings"
)

const (
	// KeyPathFormat maps a key of the key_value_pairs section to the nodepath of its value.
	KeyPathFormat = "key_value_pairs/pair[key=%s]/value"

	// LocaleListPath is the reserved nodepath of the image locale list.
	LocaleListPath = "img_params/locale_list"
)

// KeyPath returns the nodepath holding the value(s) for key.
func KeyPath(key string) string {
	return fmt.Sprintf(KeyPathFormat, key)
}

// ValidTag reports whether name can be addressed as a nodepath tag or attribute name.
func ValidTag(name string) bool {
	if name == "" {
		return false
	}
	return !strings.ContainsAny(name, "/[]=") && strings.IndexFunc(name, isControl) < 0
}
