// Package treestore implements the self-balancing ordered binary tree
// (AVL) used for sets, dictionaries, and namespaces. A single Store
// serves all three; callers supply a Compare function over key indices
// (the engine's total order for sets/dicts, or integer symbol-id order
// for namespaces).
//
// Grounded on the teacher's persistent, copy-on-write HAMT in
// internal/evaluator/persistent_map.go, adapted from an immutable
// hash trie to a mutable, arena-indexed balanced binary tree: the
// spec's heap has explicit ref-counted ownership rather than Go's
// garbage collector, so node identity (and in-order traversal) must be
// real tree structure, not hash buckets.
package treestore

import "github.com/aspembed/asp/internal/heap"

// Compare orders two key indices; <0, 0, >0 like bytes.Compare.
type Compare func(h *heap.Heap, a, b heap.Index) int

// Store performs AVL operations over tree headers (TagSet, TagDictionary,
// TagNamespace) and TagTreeNode nodes.
type Store struct {
	h   *heap.Heap
	cmp Compare
}

func New(h *heap.Heap, cmp Compare) *Store {
	return &Store{h: h, cmp: cmp}
}

// Node link slots, reusing heap.Entry.L:
//   L0 = key, L1 = value (dict only; NullIndex for sets/namespaces), L2 = left, L3 = right
// height is stored in Int.
const (
	lKey   = heap.L0
	lValue = heap.L1
	lLeft  = heap.L2
	lRight = heap.L3
)

// NewHeader allocates an empty tree header (TagSet, TagDictionary, or TagNamespace).
func (s *Store) NewHeader(tag heap.Tag) (heap.Index, error) {
	return s.h.Alloc(tag)
}

// Count returns the number of nodes under head.
func (s *Store) Count(head heap.Index) int32 { return s.h.At(head).Int }

func (s *Store) root(head heap.Index) heap.Index    { return s.h.At(head).L[heap.L0] }
func (s *Store) setRoot(head, n heap.Index)          { s.h.At(head).L[heap.L0] = n }

func (s *Store) height(n heap.Index) int32 {
	if n == heap.NullIndex {
		return 0
	}
	return s.h.At(n).Int
}

func (s *Store) updateHeight(n heap.Index) {
	lh, rh := s.height(s.h.At(n).L[lLeft]), s.height(s.h.At(n).L[lRight])
	if lh > rh {
		s.h.At(n).Int = lh + 1
	} else {
		s.h.At(n).Int = rh + 1
	}
}

func (s *Store) balanceFactor(n heap.Index) int32 {
	return s.height(s.h.At(n).L[lLeft]) - s.height(s.h.At(n).L[lRight])
}

// Key returns the key index of a node.
func (s *Store) Key(n heap.Index) heap.Index { return s.h.At(n).L[lKey] }

// Value returns the value index of a dictionary node (NullIndex for sets/namespaces).
func (s *Store) Value(n heap.Index) heap.Index { return s.h.At(n).L[lValue] }

// SetValue overwrites a dictionary node's value, unreffing the old one
// and reffing the new one.
func (s *Store) SetValue(n, value heap.Index) error {
	old := s.h.At(n).L[lValue]
	s.h.Ref(value)
	s.h.At(n).L[lValue] = value
	return s.h.Unref(old)
}

// Find returns the node whose key compares equal to key, or NullIndex.
func (s *Store) Find(head, key heap.Index) heap.Index {
	n := s.root(head)
	for n != heap.NullIndex {
		c := s.cmp(s.h, key, s.h.At(n).L[lKey])
		switch {
		case c == 0:
			return n
		case c < 0:
			n = s.h.At(n).L[lLeft]
		default:
			n = s.h.At(n).L[lRight]
		}
	}
	return heap.NullIndex
}

// FindBySymbol looks up a namespace node by integer symbol id, comparing
// id against each node's key entry's Int field directly (namespace keys
// are always TagInteger entries holding a symbol id).
func (s *Store) FindBySymbol(head heap.Index, symbolID int32) heap.Index {
	n := s.root(head)
	for n != heap.NullIndex {
		k := s.h.At(n).L[lKey]
		kid := s.h.At(k).Int
		switch {
		case symbolID == kid:
			return n
		case symbolID < kid:
			n = s.h.At(n).L[lLeft]
		default:
			n = s.h.At(n).L[lRight]
		}
	}
	return heap.NullIndex
}

// InsertResult reports whether Insert/TryInsert created a new node.
type InsertResult struct {
	Node     heap.Index
	Inserted bool
}

// TryInsert inserts key (and, for dictionaries, value) if no equal key
// exists; otherwise it leaves the tree unchanged and returns the
// existing node. Takes a reference on key (and value) only when it
// actually inserts.
func (s *Store) TryInsert(head, key, value heap.Index) (InsertResult, error) {
	if existing := s.Find(head, key); existing != heap.NullIndex {
		return InsertResult{Node: existing, Inserted: false}, nil
	}
	n, err := s.Insert(head, key, value)
	if err != nil {
		return InsertResult{}, err
	}
	return InsertResult{Node: n, Inserted: true}, nil
}

// Insert inserts key/value unconditionally, overwriting the value of an
// existing equal key for dictionaries (sets ignore a re-insert of an
// already-present key: no change).
func (s *Store) Insert(head, key, value heap.Index) (heap.Index, error) {
	var allocErr error
	var inserted heap.Index
	newRoot, err := s.insert(s.root(head), key, value, &inserted, &allocErr)
	if err != nil {
		return heap.NullIndex, err
	}
	if allocErr != nil {
		return heap.NullIndex, allocErr
	}
	s.setRoot(head, newRoot)
	return inserted, nil
}

func (s *Store) insert(n, key, value heap.Index, inserted *heap.Index, allocErr *error) (heap.Index, error) {
	if n == heap.NullIndex {
		node, err := s.h.Alloc(heap.TagTreeNode)
		if err != nil {
			*allocErr = err
			return heap.NullIndex, nil
		}
		e := s.h.At(node)
		e.L[lKey] = key
		e.Int = 1
		s.h.Ref(key)
		if value != heap.NullIndex {
			e.L[lValue] = value
			s.h.Ref(value)
		}
		*inserted = node
		s.h.At(node).Int = 1
		return node, nil
	}

	c := s.cmp(s.h, key, s.h.At(n).L[lKey])
	var err error
	switch {
	case c == 0:
		if value != heap.NullIndex {
			s.SetValue(n, value)
		}
		*inserted = n
		return n, nil
	case c < 0:
		var left heap.Index
		left, err = s.insert(s.h.At(n).L[lLeft], key, value, inserted, allocErr)
		if err != nil || *allocErr != nil {
			return n, err
		}
		s.h.At(n).L[lLeft] = left
	default:
		var right heap.Index
		right, err = s.insert(s.h.At(n).L[lRight], key, value, inserted, allocErr)
		if err != nil || *allocErr != nil {
			return n, err
		}
		s.h.At(n).L[lRight] = right
	}
	return s.rebalance(n), nil
}

func (s *Store) rebalance(n heap.Index) heap.Index {
	s.updateHeight(n)
	bf := s.balanceFactor(n)
	if bf > 1 {
		if s.balanceFactor(s.h.At(n).L[lLeft]) < 0 {
			s.h.At(n).L[lLeft] = s.rotateLeft(s.h.At(n).L[lLeft])
		}
		return s.rotateRight(n)
	}
	if bf < -1 {
		if s.balanceFactor(s.h.At(n).L[lRight]) > 0 {
			s.h.At(n).L[lRight] = s.rotateRight(s.h.At(n).L[lRight])
		}
		return s.rotateLeft(n)
	}
	return n
}

func (s *Store) rotateLeft(n heap.Index) heap.Index {
	r := s.h.At(n).L[lRight]
	s.h.At(n).L[lRight] = s.h.At(r).L[lLeft]
	s.h.At(r).L[lLeft] = n
	s.updateHeight(n)
	s.updateHeight(r)
	return r
}

func (s *Store) rotateRight(n heap.Index) heap.Index {
	l := s.h.At(n).L[lLeft]
	s.h.At(n).L[lLeft] = s.h.At(l).L[lRight]
	s.h.At(l).L[lRight] = n
	s.updateHeight(n)
	s.updateHeight(l)
	return l
}

// Erase removes the node with the given key, unreffing its key and
// value. No-op if absent.
func (s *Store) Erase(head, key heap.Index) error {
	var erased error
	newRoot := s.erase(s.root(head), key, &erased)
	if erased != nil {
		return erased
	}
	s.setRoot(head, newRoot)
	return nil
}

func (s *Store) erase(n, key heap.Index, errOut *error) heap.Index {
	if n == heap.NullIndex {
		return heap.NullIndex
	}
	c := s.cmp(s.h, key, s.h.At(n).L[lKey])
	switch {
	case c < 0:
		s.h.At(n).L[lLeft] = s.erase(s.h.At(n).L[lLeft], key, errOut)
	case c > 0:
		s.h.At(n).L[lRight] = s.erase(s.h.At(n).L[lRight], key, errOut)
	default:
		return s.deleteNode(n, errOut)
	}
	if *errOut != nil {
		return n
	}
	return s.rebalance(n)
}

func (s *Store) deleteNode(n heap.Index, errOut *error) heap.Index {
	left, right := s.h.At(n).L[lLeft], s.h.At(n).L[lRight]
	k, v := s.h.At(n).L[lKey], s.h.At(n).L[lValue]
	if left == heap.NullIndex || right == heap.NullIndex {
		child := left
		if child == heap.NullIndex {
			child = right
		}
		if err := s.h.Unref(k); err != nil {
			*errOut = err
		}
		if v != heap.NullIndex {
			if err := s.h.Unref(v); err != nil {
				*errOut = err
			}
		}
		// child is being promoted, not freed: clear the node's links
		// before Unref so Children(TagTreeNode) doesn't cascade into it.
		s.h.At(n).L = [4]heap.Index{}
		if err := s.h.Unref(n); err != nil {
			*errOut = err
		}
		return child
	}
	// Two children: replace with the in-order successor (leftmost of right subtree).
	succ := right
	for s.h.At(succ).L[lLeft] != heap.NullIndex {
		succ = s.h.At(succ).L[lLeft]
	}
	succKey, succVal := s.h.At(succ).L[lKey], s.h.At(succ).L[lValue]
	s.h.Ref(succKey)
	if succVal != heap.NullIndex {
		s.h.Ref(succVal)
	}
	if err := s.h.Unref(k); err != nil {
		*errOut = err
	}
	if v != heap.NullIndex {
		if err := s.h.Unref(v); err != nil {
			*errOut = err
		}
	}
	s.h.At(n).L[lKey] = succKey
	s.h.At(n).L[lValue] = succVal
	s.h.At(n).L[lRight] = s.erase(right, succKey, errOut)
	return s.rebalance(n)
}

// NextInOrder returns the in-order successor of n within the tree
// rooted at head (NullIndex past the last node). Passing NullIndex
// for n returns the first node.
func (s *Store) NextInOrder(head, n heap.Index) heap.Index {
	if n == heap.NullIndex {
		return s.leftmost(s.root(head))
	}
	if r := s.h.At(n).L[lRight]; r != heap.NullIndex {
		return s.leftmost(r)
	}
	// Walk up: find the nearest ancestor for which n is in the left subtree.
	// Without parent pointers, locate it by re-descending from the root.
	var succ heap.Index = heap.NullIndex
	cur := s.root(head)
	key := s.h.At(n).L[lKey]
	for cur != heap.NullIndex {
		c := s.cmp(s.h, key, s.h.At(cur).L[lKey])
		if c < 0 {
			succ = cur
			cur = s.h.At(cur).L[lLeft]
		} else if c > 0 {
			cur = s.h.At(cur).L[lRight]
		} else {
			break
		}
	}
	return succ
}

func (s *Store) leftmost(n heap.Index) heap.Index {
	if n == heap.NullIndex {
		return heap.NullIndex
	}
	for s.h.At(n).L[lLeft] != heap.NullIndex {
		n = s.h.At(n).L[lLeft]
	}
	return n
}

// Children returns the strong-reference children of a tree header or
// node entry, for heap.ChildrenFunc.
func Children(tag heap.Tag, e *heap.Entry) []heap.Index {
	switch tag {
	case heap.TagSet, heap.TagDictionary, heap.TagNamespace:
		if e.L[heap.L0] != heap.NullIndex {
			return []heap.Index{e.L[heap.L0]}
		}
		return nil
	case heap.TagTreeNode:
		var kids []heap.Index
		if e.L[lKey] != heap.NullIndex {
			kids = append(kids, e.L[lKey])
		}
		if e.L[lValue] != heap.NullIndex {
			kids = append(kids, e.L[lValue])
		}
		if e.L[lLeft] != heap.NullIndex {
			kids = append(kids, e.L[lLeft])
		}
		if e.L[lRight] != heap.NullIndex {
			kids = append(kids, e.L[lRight])
		}
		return kids
	}
	return nil
}
