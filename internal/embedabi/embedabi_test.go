package embedabi

import (
	"testing"

	"github.com/aspembed/asp/internal/appspec"
	"github.com/aspembed/asp/internal/codeload"
	"github.com/aspembed/asp/internal/engine"
	"github.com/aspembed/asp/internal/heap"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := Initialize()
	spec := &appspec.Spec{Version: appspec.CurrentVersion}
	LoadAppSpec(e, spec)
	code := []byte{byte(engine.OpEnd)}
	header := make([]byte, 0, codeload.HeaderSize+len(code))
	header = append(header, codeload.Magic[:]...)
	header = append(header, codeload.CurrentVersion.Major, codeload.CurrentVersion.Minor,
		codeload.CurrentVersion.Patch, codeload.CurrentVersion.Tweak)
	check := appspec.CheckValue(spec.Entries)
	header = append(header, byte(check), byte(check>>8))
	header = append(header, code...)
	if err := SealCode(e, header); err != nil {
		t.Fatalf("SealCode: %v", err)
	}
	if e.State() != engine.StateReady {
		t.Fatalf("expected StateReady, got %v", e.State())
	}
	return e
}

func TestPredicatesAndConstructors(t *testing.T) {
	e := newTestEngine(t)
	s := e.Store()

	n := NewInteger(s, 42)
	if !IsInteger(s, n) {
		t.Fatalf("expected IsInteger")
	}
	if IntegerValue(s, n) != 42 {
		t.Fatalf("expected 42, got %d", IntegerValue(s, n))
	}
	Unref(s, n)

	b := NewBoolean(s, true)
	if !IsBoolean(s, b) || !IsTrue(s, b) {
		t.Fatalf("expected boolean true")
	}
	Unref(s, b)

	str := NewString(s, []byte("hi"))
	if !IsString(s, str) {
		t.Fatalf("expected IsString")
	}
	buf := make([]byte, 2)
	if n := StringValue(s, str, buf); n != 2 || string(buf) != "hi" {
		t.Fatalf("expected 'hi', got %q (n=%d)", buf, n)
	}
	Unref(s, str)
}

func TestListMutatorsWithTake(t *testing.T) {
	e := newTestEngine(t)
	s := e.Store()

	list := NewList(s)
	v := NewInteger(s, 7)
	if err := ListAppend(s, list, v, true); err != nil {
		t.Fatalf("ListAppend: %v", err)
	}
	if Count(s, list) != 1 {
		t.Fatalf("expected 1 element, got %d", Count(s, list))
	}
	elem, err := Element(s, list, 0)
	if err != nil {
		t.Fatalf("Element: %v", err)
	}
	if IntegerValue(s, elem) != 7 {
		t.Fatalf("expected 7, got %d", IntegerValue(s, elem))
	}
	Unref(s, list)
}

func TestDictionaryInsertTakeOwnership(t *testing.T) {
	e := newTestEngine(t)
	s := e.Store()

	dict := NewDictionary(s)
	key := NewString(s, []byte("k"))
	val := NewInteger(s, 9)
	if err := DictionaryInsert(s, dict, key, val, true, true); err != nil {
		t.Fatalf("DictionaryInsert: %v", err)
	}
	found, ok := Find(s, dict, NewString(s, []byte("k")))
	if !ok {
		t.Fatalf("expected key to be found")
	}
	if IntegerValue(s, found) != 9 {
		t.Fatalf("expected 9, got %d", IntegerValue(s, found))
	}
	Unref(s, dict)
}

func TestLocalsRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	v := NewInteger(e.Store(), 123)
	if err := StoreLocal(e, 5, v, true); err != nil {
		t.Fatalf("StoreLocal: %v", err)
	}
	got, ok := LoadLocal(e, 5)
	if !ok {
		t.Fatalf("expected symbol 5 to be bound")
	}
	if IntegerValue(e.Store(), got) != 123 {
		t.Fatalf("expected 123, got %d", IntegerValue(e.Store(), got))
	}
	if err := EraseLocal(e, 5); err != nil {
		t.Fatalf("EraseLocal: %v", err)
	}
	if _, ok := LoadLocal(e, 5); ok {
		t.Fatalf("expected symbol 5 to be erased")
	}
}

func TestContextRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	e.SetContext("host state")
	if Context(e) != "host state" {
		t.Fatalf("expected context to round-trip")
	}
}

func TestCycleDetectionLimitRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	SetCycleDetectionLimit(e, 5)
	if GetCycleDetectionLimit(e) != 5 {
		t.Fatalf("expected limit 5, got %d", GetCycleDetectionLimit(e))
	}
}

func TestTypeTagAlias(t *testing.T) {
	e := newTestEngine(t)
	tv := NewType(e.Store(), heap.TagInteger)
	if !IsType(e.Store(), tv) {
		t.Fatalf("expected IsType")
	}
	Unref(e.Store(), tv)
}
