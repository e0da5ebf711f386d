package object

import "github.com/aspembed/asp/internal/heap"

// NewAppInteger allocates a host-visible int32 tagged with an
// application-defined 16-bit type tag.
func (s *Store) NewAppInteger(appTag uint16, value int32) Value {
	v, _ := s.Heap.Alloc(heap.TagAppInteger)
	e := s.Heap.At(v)
	e.AppTag = appTag
	e.Int = value
	return v
}

// AppIntegerValue and AppIntegerTag read back an app-integer's payload.
func (s *Store) AppIntegerValue(v Value) int32  { return s.Heap.At(v).Int }
func (s *Store) AppIntegerTag(v Value) uint16   { return s.Heap.At(v).AppTag }

// NewAppPointer allocates an opaque host pointer tagged with an
// application-defined type tag and an optional destructor, invoked
// once the entry's use count reaches zero.
func (s *Store) NewAppPointer(appTag uint16, ptr uintptr, dtor heap.AppDestructor) Value {
	v, _ := s.Heap.Alloc(heap.TagAppPointer)
	e := s.Heap.At(v)
	e.AppTag = appTag
	e.Ptr = ptr
	e.Dtor = dtor
	return v
}

// AppPointerValue and AppPointerTag read back an app-pointer's payload.
func (s *Store) AppPointerValue(v Value) uintptr { return s.Heap.At(v).Ptr }
func (s *Store) AppPointerTag(v Value) uint16    { return s.Heap.At(v).AppTag }

// NewType allocates a first-class type object wrapping a stored tag.
func (s *Store) NewType(tag heap.Tag) Value {
	v, _ := s.Heap.Alloc(heap.TagType)
	s.Heap.At(v).Int = int32(tag)
	return v
}

// TypeTagValue reads back the tag a type object stands for.
func (s *Store) TypeTagValue(v Value) heap.Tag { return heap.Tag(s.Heap.At(v).Int) }
