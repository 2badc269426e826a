package tree

import "sync/atomic"

// Store owns a frozen manifest tree and resolves nodepaths against it.
type Store struct {
	root *Node
	size int
}

// NewStore takes ownership of root and every node beneath it. After NewStore returns,
// the tree is frozen: mutation methods on its nodes fail with ErrFrozen.
func NewStore(root *Node) (*Store, error) {
	if root == nil {
		return nil, ErrNilNode
	}
	if root.parent != nil {
		return nil, ErrHasParent
	}
	if root.store != nil {
		return nil, ErrFrozen
	}
	s := &Store{root: root}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n.store = s
		s.size++
		stack = append(stack, n.children...)
	}
	return s, nil
}

func (s *Store) Root() *Node {
	return s.root
}

// Len returns the number of nodes in the tree.
func (s *Store) Len() int {
	return s.size
}

// Resolve parses raw and returns the matching nodes in document order.
// A well-formed path with no matches yields an empty slice and a nil error.
func (s *Store) Resolve(raw string) ([]*Node, error) {
	p, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return s.ResolvePath(p), nil
}

// ResolvePath resolves p against the store's root. See ResolveFrom.
func (s *Store) ResolvePath(p Path) []*Node {
	return ResolveFrom(s.root, p)
}

// ResolveFrom walks p segment by segment below root. The first segment is matched
// against the root's children; a single-segment path that matches no child falls
// back to the root itself. Each later segment collects the matching children of
// every node that survived the previous step, preserving document order.
func ResolveFrom(root *Node, p Path) []*Node {
	if len(p) == 0 || root == nil {
		return []*Node{}
	}
	current := matchChildren([]*Node{root}, p[0])
	if len(current) == 0 && len(p) == 1 && p[0].Matches(root) {
		return []*Node{root}
	}
	for _, seg := range p[1:] {
		if len(current) == 0 {
			break
		}
		current = matchChildren(current, seg)
	}
	return current
}

// Values resolves raw and returns the values of the matching nodes.
func (s *Store) Values(raw string) ([]string, error) {
	nodes, err := s.Resolve(raw)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.value
	}
	return out, nil
}

// Walk visits every node depth-first in document order until fn returns false.
func (s *Store) Walk(fn func(*Node) bool) {
	walk(s.root, fn)
}

func walk(n *Node, fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func matchChildren(parents []*Node, seg Segment) []*Node {
	out := make([]*Node, 0)
	for _, parent := range parents {
		for _, c := range parent.children {
			if seg.Matches(c) {
				out = append(out, c)
			}
		}
	}
	return out
}

// Holder publishes the current Store. Readers always see a complete, frozen tree;
// a reload swaps in a new Store instead of mutating the one in use.
type Holder struct {
	p atomic.Pointer[Store]
}

func NewHolder(s *Store) *Holder {
	h := &Holder{}
	if s != nil {
		h.p.Store(s)
	}
	return h
}

// Load returns the current store, or nil if none was published.
func (h *Holder) Load() *Store {
	return h.p.Load()
}

// Swap publishes s and returns the previous store.
func (h *Holder) Swap(s *Store) *Store {
	return h.p.Swap(s)
}
