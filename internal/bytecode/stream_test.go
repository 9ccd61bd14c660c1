package bytecode

import (
	"fmt"
	"io"
	"testing"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func TestReadU8AdvancesPosition(t *testing.T) {
	s := NewStream([]byte{0x01, 0x02})
	b, err := s.ReadU8()
	assert(t, err == nil && b == 0x01, "expected 0x01, got %v err %v", b, err)
	assert(t, s.Position() == 1, "expected position 1, got %d", s.Position())
}

func TestLittleEndianMultiByteReads(t *testing.T) {
	s := NewStream([]byte{0x01, 0x00, 0x00, 0x00})
	v, err := s.ReadU32()
	assert(t, err == nil && v == 1, "expected little-endian 1, got %v err %v", v, err)
}

func TestReadPastEndSeeksToSizeAndErrors(t *testing.T) {
	s := NewStream([]byte{0x01})
	_, err := s.ReadU32()
	assert(t, err == io.ErrUnexpectedEOF, "expected ErrUnexpectedEOF, got %v", err)
	assert(t, s.Position() == s.Size(), "a short read must seek to Size()")
}

func TestSeek(t *testing.T) {
	s := NewStream([]byte{0x00, 0x01, 0x02})
	s.Seek(2)
	b, err := s.ReadU8()
	assert(t, err == nil && b == 0x02, "expected byte at offset 2, got %v err %v", b, err)
}

func TestFormatAddress(t *testing.T) {
	got := FormatAddress(1)
	assert(t, got == "0x00000001", "expected 0x00000001, got %s", got)
}

func TestFloatRoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	// 1.5f little-endian bit pattern
	buf[0], buf[1], buf[2], buf[3] = 0x00, 0x00, 0xC0, 0x3F
	s := NewStream(buf)
	f, err := s.ReadF32()
	assert(t, err == nil && f == 1.5, "expected 1.5, got %v err %v", f, err)
}
