package codeload

import (
	"encoding/binary"
	"testing"
)

func header(checkValue uint16) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], Magic[:])
	buf[4], buf[5], buf[6], buf[7] = CurrentVersion.Major, CurrentVersion.Minor, CurrentVersion.Patch, CurrentVersion.Tweak
	binary.LittleEndian.PutUint16(buf[8:10], checkValue)
	return buf
}

func TestStreamedAddAndSeal(t *testing.T) {
	l := New()
	h := header(0xBEEF)
	if err := l.AddCode(h[:5]); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := l.AddCode(h[5:]); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := l.AddCode([]byte{0xAA, 0xBB}); err != nil {
		t.Fatalf("add payload: %v", err)
	}
	if err := l.Seal(0xBEEF); err != nil {
		t.Fatalf("seal: %v", err)
	}
	b, err := l.ByteAt(int32(HeaderSize))
	if err != nil || b != 0xAA {
		t.Fatalf("expected first payload byte 0xAA, got %#x, %v", b, err)
	}
}

func TestSealRejectsWrongCheckValue(t *testing.T) {
	l := New()
	l.AddCode(header(0x1234))
	if err := l.Seal(0x9999); err == nil {
		t.Fatalf("expected check-value mismatch to error")
	}
}

func TestSealRejectsBadMagic(t *testing.T) {
	l := New()
	h := header(1)
	h[0] = 'X'
	l.AddCode(h)
	if err := l.Seal(1); err != ErrBadMagic {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestLoadBufferSealedFromBuffer(t *testing.T) {
	l := New()
	data := append(header(42), []byte{1, 2, 3}...)
	if err := l.LoadBuffer(data, 42); err != nil {
		t.Fatalf("load buffer: %v", err)
	}
	b, _ := l.ByteAt(int32(HeaderSize) + 2)
	if b != 3 {
		t.Fatalf("expected byte 3, got %d", b)
	}
}

func TestPagedModeDemandLoadsAndCaches(t *testing.T) {
	pageSize := 16
	pages := map[int32][]byte{
		0: append(header(7), make([]byte, pageSize-HeaderSize)...),
		1: make([]byte, pageSize),
	}
	pages[1][0] = 0x42
	reads := 0
	reader := func(id int32, offset, size int, buf []byte) error {
		reads++
		copy(buf, pages[id])
		return nil
	}

	l := New()
	if err := l.LoadPaged(2, pageSize, reader, 7); err != nil {
		t.Fatalf("load paged: %v", err)
	}
	if reads != 1 {
		t.Fatalf("expected exactly one read for the header page, got %d", reads)
	}

	b, err := l.ByteAt(int32(pageSize))
	if err != nil || b != 0x42 {
		t.Fatalf("expected first byte of page 1 to be 0x42, got %#x, %v", b, err)
	}
	if reads != 2 {
		t.Fatalf("expected a second read for page 1, got %d", reads)
	}

	if _, err := l.ByteAt(int32(pageSize)); err != nil {
		t.Fatalf("re-read of cached page failed: %v", err)
	}
	if reads != 2 {
		t.Fatalf("expected cached page 1 to avoid a third read, got %d", reads)
	}
}

func TestPagedModeOutOfRangePage(t *testing.T) {
	pageSize := 16
	reader := func(id int32, offset, size int, buf []byte) error {
		copy(buf, header(1))
		return nil
	}
	l := New()
	if err := l.LoadPaged(1, pageSize, reader, 1); err != nil {
		t.Fatalf("load paged: %v", err)
	}
	if _, err := l.ByteAt(int32(pageSize) * 5); err == nil {
		t.Fatalf("expected out-of-range page access to error")
	}
}

func TestUnloadResetsState(t *testing.T) {
	l := New()
	l.AddCode(header(1))
	l.Seal(1)
	l.Unload()
	if l.Sealed() {
		t.Fatalf("expected Unload to clear sealed state")
	}
	if _, err := l.ByteAt(0); err == nil {
		t.Fatalf("expected ByteAt before (re-)Seal to error")
	}
}
