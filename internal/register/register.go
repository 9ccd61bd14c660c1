// Package register implements the VM's eight general-purpose Value
// registers and the three-state comparison-flags word.
package register

import (
	"fmt"

	"gvm/internal/value"
)

// NumRegisters is the number of general-purpose registers (r0..r7).
const NumRegisters = 8

// Flags is the comparison-flags word. Only three states are
// representable; there is deliberately no LESS state (spec §9) — the
// bytecode producer must swap operands to encode less-than.
type Flags uint8

const (
	FlagNone Flags = iota
	FlagEqual
	FlagGreater
)

// File is the register bank: eight Value slots plus the flags word.
type File struct {
	regs  [NumRegisters]value.Value
	flags Flags
}

// Get returns the Value in register idx.
func (f *File) Get(idx uint8) (value.Value, error) {
	if int(idx) >= NumRegisters {
		return value.Value{}, fmt.Errorf("register index %d out of range [0, %d)", idx, NumRegisters)
	}
	return f.regs[idx], nil
}

// Set writes v into register idx.
func (f *File) Set(idx uint8, v value.Value) error {
	if int(idx) >= NumRegisters {
		return fmt.Errorf("register index %d out of range [0, %d)", idx, NumRegisters)
	}
	f.regs[idx] = v
	return nil
}

// Flags returns the current comparison-flags word.
func (f *File) Flags() Flags { return f.flags }

// SetFlags overwrites the comparison-flags word.
func (f *File) SetFlags(fl Flags) { f.flags = fl }

// Values returns a copy of every register's Value, for root-marking and
// test introspection.
func (f *File) Values() []value.Value {
	out := make([]value.Value, NumRegisters)
	copy(out, f.regs[:])
	return out
}
