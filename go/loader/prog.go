package loader

import (
	"debug/elf"
	"fmt"

	"github.com/pkg/errors"
)

// ProgSize is the size of an ELF64 program header.
const ProgSize = 56

// Prog is a view of one program header table entry.
type Prog []byte

func (p Prog) Type() elf.ProgType  { return elf.ProgType(order.Uint32(p[0:])) }
func (p Prog) Flags() elf.ProgFlag { return elf.ProgFlag(order.Uint32(p[4:])) }
func (p Prog) Off() uint64         { return order.Uint64(p[8:]) }
func (p Prog) Vaddr() uint64       { return order.Uint64(p[16:]) }
func (p Prog) Paddr() uint64       { return order.Uint64(p[24:]) }
func (p Prog) Filesz() uint64      { return order.Uint64(p[32:]) }
func (p Prog) Memsz() uint64       { return order.Uint64(p[40:]) }
func (p Prog) Align() uint64       { return order.Uint64(p[48:]) }

func (p Prog) String() string {
	return fmt.Sprintf("Type = %s, Offset = 0x%x, VAddr = 0x%x, filesz: %d, memsz: %d, endAddr: 0x%x",
		p.Type(), p.Off(), p.Vaddr(), p.Filesz(), p.Memsz(), p.Vaddr()+p.Memsz())
}

// ProgTable is the bounds-checked program header table of an image.
type ProgTable struct {
	buf     []byte
	entsize int
	count   int
}

// ProgHeaders locates the program header table described by h inside buf.
// Entries of every type are kept; nothing past the table bounds is checked.
func ProgHeaders(buf []byte, h Header) (ProgTable, error) {
	off := h.Phoff()
	entsize := uint64(h.Phentsize())
	count := uint64(h.Phnum())
	size := entsize * count
	limit := uint64(len(buf))
	if off > limit || size > limit-off {
		return ProgTable{}, errors.WithStack(&BoundsError{What: "program header table", Off: off, Size: size, Limit: limit})
	}
	if count > 0 && entsize < ProgSize {
		return ProgTable{}, formatErrorf("program header entry size %d is smaller than %d", entsize, ProgSize)
	}
	return ProgTable{
		buf:     buf[off : off+size : off+size],
		entsize: int(entsize),
		count:   int(count),
	}, nil
}

func (t ProgTable) Len() int {
	return t.count
}

func (t ProgTable) At(i int) Prog {
	start := i * t.entsize
	return Prog(t.buf[start : start+ProgSize : start+ProgSize])
}
