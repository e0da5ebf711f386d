package object

import (
	"github.com/aspembed/asp/internal/heap"
	"github.com/aspembed/asp/internal/seqstore"
	"github.com/aspembed/asp/internal/treestore"
)

// children is the combined heap.ChildrenFunc for every tag in the
// object model, dispatching to seqstore/treestore for the container
// tags they own and handling the rest (range, iterator, function,
// module, argument/parameter carriers) directly.
func (s *Store) children(tag heap.Tag, e *heap.Entry) []heap.Index {
	switch tag {
	case heap.TagString, heap.TagTuple, heap.TagList, heap.TagArgumentList, heap.TagParameterList,
		heap.TagSeqElemValue, heap.TagSeqElemBytes:
		return seqstore.Children(tag, e)

	case heap.TagSet, heap.TagDictionary, heap.TagNamespace, heap.TagTreeNode:
		return treestore.Children(tag, e)

	case heap.TagRange:
		var kids []heap.Index
		for _, k := range []heap.Index{e.L[heap.L0], e.L[heap.L1], e.L[heap.L2]} {
			if k != heap.NullIndex {
				kids = append(kids, k)
			}
		}
		return kids

	case heap.TagIteratorFwd, heap.TagIteratorRev:
		if e.L[heap.L0] != heap.NullIndex {
			return []heap.Index{e.L[heap.L0]} // the iterable
		}
		return nil

	case heap.TagScriptFunction:
		var kids []heap.Index
		if e.L[heap.L0] != heap.NullIndex { // module
			kids = append(kids, e.L[heap.L0])
		}
		if e.L[heap.L1] != heap.NullIndex { // captured parameter list
			kids = append(kids, e.L[heap.L1])
		}
		return kids

	case heap.TagAppFunction:
		return nil // only carries a symbol id and arity in Int; nothing heap-owned

	case heap.TagModule:
		if e.L[heap.L0] != heap.NullIndex { // root namespace
			return []heap.Index{e.L[heap.L0]}
		}
		return nil

	case heap.TagAppInteger, heap.TagAppPointer, heap.TagType, heap.TagBoolean,
		heap.TagInteger, heap.TagFloat, heap.TagSymbol, heap.TagNone, heap.TagEllipsis:
		return nil

	case heap.TagArgument:
		var kids []heap.Index
		if e.L[heap.L0] != heap.NullIndex { // the argument's value
			kids = append(kids, e.L[heap.L0])
		}
		if e.L[heap.L1] != heap.NullIndex { // next argument in the chain
			kids = append(kids, e.L[heap.L1])
		}
		return kids

	case heap.TagParameter:
		var kids []heap.Index
		if e.L[heap.L0] != heap.NullIndex { // default value, if any
			kids = append(kids, e.L[heap.L0])
		}
		if e.L[heap.L1] != heap.NullIndex { // next parameter in the chain
			kids = append(kids, e.L[heap.L1])
		}
		return kids
	}
	return nil
}
