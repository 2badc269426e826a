// Package manifest turns manifest documents into frozen tree stores.
//
// XML elements map to nodes one to one. Each XML attribute is kept as a node
// attribute, for [attr=value] predicates, and is also added as a leaf child
// named after the attribute, so that key_value_pairs/pair[key=k]/value
// resolves against <pair key="k" value="v"/>. YAML documents follow the same
// model: mapping keys are tags, sequences repeat a tag, "@name" keys are
// attributes and "#text" carries the value of a node that also has children.
package manifest
