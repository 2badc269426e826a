package tree

// Attr is one named attribute of a node. Attribute order follows the source document.
type Attr struct {
	Key   string
	Value string
}

// Node is one element of a manifest tree.
//
// The parent and store references are non-owning: a parent owns its children and a
// Store owns its root. Once a node is owned by a Store it is frozen and every
// mutation fails with ErrFrozen.
type Node struct {
	tag      string
	value    string
	attrs    []Attr
	children []*Node
	parent   *Node
	store    *Store
}

// NewNode creates a detached node.
func NewNode(tag, value string) *Node {
	return &Node{tag: tag, value: value}
}

func (n *Node) Tag() string {
	return n.tag
}

// Value returns the node's text value. It is never absent; "" is a legitimate value.
func (n *Node) Value() string {
	return n.value
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Attrs returns a copy of the node's attributes in document order.
func (n *Node) Attrs() []Attr {
	out := make([]Attr, len(n.attrs))
	copy(out, n.attrs)
	return out
}

// Children returns a copy of the node's children in document order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

func (n *Node) Parent() *Node {
	return n.parent
}

// Store returns the store that owns the node, or nil while the tree is under construction.
func (n *Node) Store() *Store {
	return n.store
}

// Path reconstructs the node's canonical nodepath by walking up to the root.
// The root's own tag is omitted unless the node is the root itself, matching the
// form accepted by Store.Resolve.
func (n *Node) Path() string {
	return n.CanonicalPath().String()
}

// CanonicalPath is Path in parsed form: one unqualified segment per ancestor tag.
func (n *Node) CanonicalPath() Path {
	if n.parent == nil {
		return Path{{Tag: n.tag}}
	}
	depth := 0
	for cur := n; cur.parent != nil; cur = cur.parent {
		depth++
	}
	p := make(Path, depth)
	for cur := n; cur.parent != nil; cur = cur.parent {
		depth--
		p[depth] = Segment{Tag: cur.tag}
	}
	return p
}

// Root returns the topmost ancestor of n.
func (n *Node) Root() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// SetValue replaces the node's value.
func (n *Node) SetValue(value string) error {
	if n.store != nil {
		return ErrFrozen
	}
	n.value = value
	return nil
}

// SetAttr sets or replaces one attribute.
func (n *Node) SetAttr(key, value string) error {
	if n.store != nil {
		return ErrFrozen
	}
	for i := range n.attrs {
		if n.attrs[i].Key == key {
			n.attrs[i].Value = value
			return nil
		}
	}
	n.attrs = append(n.attrs, Attr{Key: key, Value: value})
	return nil
}

// AddChild appends child to the node's children.
func (n *Node) AddChild(child *Node) error {
	if child == nil {
		return ErrNilNode
	}
	if n.store != nil || child.store != nil {
		return ErrFrozen
	}
	if child.parent != nil {
		return ErrHasParent
	}
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// Add creates a child with the given tag and value, optionally setting attributes from
// key/value pairs, and returns it. Add panics if the node is already owned by a Store.
func (n *Node) Add(tag, value string, kv ...string) *Node {
	child := NewNode(tag, value)
	for i := 0; i+1 < len(kv); i += 2 {
		child.attrs = append(child.attrs, Attr{Key: kv[i], Value: kv[i+1]})
	}
	if err := n.AddChild(child); err != nil {
		panic(err)
	}
	return child
}

// ValueOf returns the value of n.
func ValueOf(n *Node) string {
	return n.Value()
}

// PathOf returns the canonical nodepath of n.
func PathOf(n *Node) string {
	return n.Path()
}

// OwningStore returns the store n belongs to.
func OwningStore(n *Node) *Store {
	return n.Store()
}
