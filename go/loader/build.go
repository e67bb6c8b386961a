package loader

import (
	"bytes"
	"debug/elf"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

type elf64Ehdr struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

type elf64Phdr struct {
	Type   uint32
	Flags  uint32
	Off    uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

// BuildSegment is one PT_LOAD segment of a built image.
type BuildSegment struct {
	Vaddr uint64
	Data  []byte
	// Memsz defaults to len(Data). Anything past the data is bss.
	Memsz uint64
	Flags elf.ProgFlag
}

// Builder writes minimal static ELF64 executables: a file header, a program
// header table and the segment data, with no sections.
type Builder struct {
	Entry    uint64
	Machine  elf.Machine
	Segments []BuildSegment
}

func (b *Builder) Add(vaddr uint64, data []byte, memsz uint64, flags elf.ProgFlag) *Builder {
	b.Segments = append(b.Segments, BuildSegment{Vaddr: vaddr, Data: data, Memsz: memsz, Flags: flags})
	return b
}

// Build lays out the image. Segment data is placed so its file offset and
// virtual address agree modulo the page size.
func (b *Builder) Build() ([]byte, error) {
	machine := b.Machine
	if machine == elf.EM_NONE {
		machine = elf.EM_X86_64
	}
	hdr := elf64Ehdr{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(machine),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     b.Entry,
		Ehsize:    HeaderSize,
		Phentsize: ProgSize,
		Phnum:     uint16(len(b.Segments)),
	}
	copy(hdr.Ident[:], elfMagic)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	if len(b.Segments) > 0 {
		hdr.Phoff = HeaderSize
	}

	off := uint64(HeaderSize + ProgSize*len(b.Segments))
	phdrs := make([]elf64Phdr, len(b.Segments))
	for i, s := range b.Segments {
		memsz := s.Memsz
		if memsz == 0 {
			memsz = uint64(len(s.Data))
		}
		if memsz < uint64(len(s.Data)) {
			return nil, errors.Errorf("segment %d: memsz %#x is smaller than its data", i, memsz)
		}
		off += (s.Vaddr - off) % PageSize
		phdrs[i] = elf64Phdr{
			Type:   uint32(elf.PT_LOAD),
			Flags:  uint32(s.Flags),
			Off:    off,
			Vaddr:  s.Vaddr,
			Paddr:  s.Vaddr,
			Filesz: uint64(len(s.Data)),
			Memsz:  memsz,
			Align:  PageSize,
		}
		off += uint64(len(s.Data))
	}

	var buf bytes.Buffer
	if err := struc.PackWithOrder(&buf, &hdr, order); err != nil {
		return nil, errors.Wrap(err, "packing elf header")
	}
	for i := range phdrs {
		if err := struc.PackWithOrder(&buf, &phdrs[i], order); err != nil {
			return nil, errors.Wrap(err, "packing program header")
		}
	}
	out := make([]byte, off)
	copy(out, buf.Bytes())
	for i, s := range b.Segments {
		copy(out[phdrs[i].Off:], s.Data)
	}
	return out, nil
}
