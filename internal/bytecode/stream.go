// Package bytecode implements the byte-addressable, seekable cursor
// over a fixed bytecode buffer (Stream) and the fixed opcode table the
// VM and any bytecode producer must share.
package bytecode

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Stream wraps a fixed byte buffer with a position cursor. All
// multi-byte reads are little-endian, matching spec §4.1/§6.
type Stream struct {
	buf []byte
	pos uint32
}

// NewStream returns a Stream positioned at offset 0 over buf. The
// Stream does not copy buf.
func NewStream(buf []byte) *Stream {
	return &Stream{buf: buf}
}

// Position returns the current cursor offset.
func (s *Stream) Position() uint32 { return s.pos }

// Size returns the total buffer length.
func (s *Stream) Size() uint32 { return uint32(len(s.buf)) }

// Seek moves the cursor directly to pos.
func (s *Stream) Seek(pos uint32) { s.pos = pos }

// ReadBytes reads n bytes starting at the current position and advances
// the cursor by n. If fewer than n bytes remain, it returns what's left
// along with io.ErrUnexpectedEOF and advances the cursor to Size(),
// matching the "fails silently at end-of-stream" contract: the VM's
// dispatch loop checks Position() < Size() before every fetch, so a
// short read is observably equivalent to having reached the end of the
// program.
func (s *Stream) ReadBytes(n uint32) ([]byte, error) {
	if uint64(s.pos)+uint64(n) > uint64(len(s.buf)) {
		rest := s.buf[min(int(s.pos), len(s.buf)):]
		s.pos = s.Size()
		return rest, io.ErrUnexpectedEOF
	}
	out := s.buf[s.pos : s.pos+n]
	s.pos += n
	return out, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ReadU8 reads one byte.
func (s *Stream) ReadU8() (uint8, error) {
	b, err := s.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a little-endian uint16.
func (s *Stream) ReadU16() (uint16, error) {
	b, err := s.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian uint32.
func (s *Stream) ReadU32() (uint32, error) {
	b, err := s.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadI32 reads a little-endian int32.
func (s *Stream) ReadI32() (int32, error) {
	u, err := s.ReadU32()
	return int32(u), err
}

// ReadU64 reads a little-endian uint64.
func (s *Stream) ReadU64() (uint64, error) {
	b, err := s.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadI64 reads a little-endian int64.
func (s *Stream) ReadI64() (int64, error) {
	u, err := s.ReadU64()
	return int64(u), err
}

// ReadF32 reads a little-endian IEEE 754 32-bit float.
func (s *Stream) ReadF32() (float32, error) {
	u, err := s.ReadU32()
	return math.Float32frombits(u), err
}

// ReadF64 reads a little-endian IEEE 754 64-bit float.
func (s *Stream) ReadF64() (float64, error) {
	u, err := s.ReadU64()
	return math.Float64frombits(u), err
}

// FormatAddress renders an absolute stream offset the way
// unknown-instruction diagnostics require: 0x followed by 8 lowercase
// hex digits.
func FormatAddress(pos uint32) string {
	return fmt.Sprintf("0x%08x", pos)
}
