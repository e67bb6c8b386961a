// Package unicorn runs kernels on an emulated x86-64 machine.
package unicorn

import (
	"github.com/pkg/errors"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"
)

// Machine is an emulated CPU whose mapped memory is the machine's RAM.
type Machine struct {
	uc.Unicorn
}

func NewMachine() (*Machine, error) {
	u, err := uc.NewUnicorn(uc.ARCH_X86, uc.MODE_64)
	if err != nil {
		return nil, errors.Wrap(err, "NewUnicorn() failed")
	}
	return &Machine{u}, nil
}

func (m *Machine) Map(addr, size uint64) error {
	return errors.Wrapf(m.Unicorn.MemMapProt(addr, size, uc.PROT_ALL), "mapping %#x-%#x", addr, addr+size)
}

func (m *Machine) Unmap(addr, size uint64) error {
	return errors.Wrapf(m.Unicorn.MemUnmap(addr, size), "unmapping %#x-%#x", addr, addr+size)
}

// OnOut and OnIn hook the port I/O instructions.
func (m *Machine) OnOut(cb func(port, size, value uint32)) error {
	_, err := m.HookAdd(uc.HOOK_INSN, func(_ uc.Unicorn, port, size, value uint32) {
		cb(port, size, value)
	}, 1, 0, uc.X86_INS_OUT)
	return errors.Wrap(err, "hooking out")
}

func (m *Machine) OnIn(cb func(port, size uint32) uint32) error {
	_, err := m.HookAdd(uc.HOOK_INSN, func(_ uc.Unicorn, port, size uint32) uint32 {
		return cb(port, size)
	}, 1, 0, uc.X86_INS_IN)
	return errors.Wrap(err, "hooking in")
}
