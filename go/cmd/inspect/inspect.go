package inspect

import (
	"debug/elf"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	kboot "github.com/routeros/kboot/go"
	"github.com/routeros/kboot/go/cmd"
	"github.com/routeros/kboot/go/cpu"
	"github.com/routeros/kboot/go/esp"
	"github.com/routeros/kboot/go/loader"
	"github.com/routeros/kboot/go/models"
)

// Inspect prints what loading buf would do without allocating anything.
func Inspect(w io.Writer, buf []byte, dis kboot.Disassembler) error {
	h, err := loader.ParseHeader(buf)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "class %v, data %v, type %v, machine %v, version %d\n", h.Class(), h.Data(), h.Type(), h.Machine(), h.Version())
	fmt.Fprintf(w, "entry %#x\n", h.Entry())
	fmt.Fprintf(w, "program headers: %d at %#x, %d bytes each\n", h.Phnum(), h.Phoff(), h.Phentsize())
	fmt.Fprintf(w, "section headers: %d at %#x, %d bytes each (string table %d)\n", h.Shnum(), h.Shoff(), h.Shentsize(), h.Shstrndx())

	progs, err := loader.ProgHeaders(buf, h)
	if err != nil {
		return err
	}
	var entryCode []byte
	var total uint64
	for i := 0; i < progs.Len(); i++ {
		p := progs.At(i)
		fmt.Fprintf(w, "PH %d: %s, flags %v\n", i, p, p.Flags())
		if p.Type() != elf.PT_LOAD || p.Memsz() == 0 {
			continue
		}
		layout, err := loader.PageLayout(p.Vaddr(), p.Memsz())
		if err != nil {
			return err
		}
		total += layout.Pages
		fmt.Fprintf(w, "      pages %v\n", layout)
		off, filesz, limit := p.Off(), p.Filesz(), uint64(len(buf))
		if off > limit || filesz > limit-off {
			return errors.WithStack(&loader.BoundsError{What: "segment data", Off: off, Size: filesz, Limit: limit})
		}
		if e := h.Entry(); e >= p.Vaddr() && e-p.Vaddr() < filesz {
			entryCode = buf[off+e-p.Vaddr() : off+filesz]
		}
	}
	fmt.Fprintf(w, "%d pages to allocate\n", total)
	if entryCode == nil {
		fmt.Fprintf(w, "entry point is not in any segment's file data\n")
		return nil
	}
	if dis == nil {
		return nil
	}
	if len(entryCode) > 64 {
		entryCode = entryCode[:64]
	}
	asm, err := dis.Disas(entryCode, h.Entry())
	if err != nil {
		return errors.Wrap(err, "disassembling entry point")
	}
	fmt.Fprintf(w, "\n%s\n", asm)
	return nil
}

func Main(args []string) {
	c := cmd.NewKbootCmd()
	c.NoPlatform = true
	c.Args = "[kernel.elf]"
	var disas *bool
	c.SetupFlags = func() error {
		disas = c.Flags.Bool("dis", false, "disassemble the entry point")
		return nil
	}
	c.Run = func(args []string) error {
		var buf []byte
		var err error
		if len(args) > 0 {
			buf, err = os.ReadFile(args[0])
		} else {
			var vol *esp.Volume
			if vol, err = esp.Open(c.Config, c.Log); err == nil {
				buf, err = vol.Read(models.KernelLocation)
			}
		}
		if err != nil {
			return errors.WithStack(&kboot.ReadError{Path: models.KernelLocation, Err: err})
		}
		var dis kboot.Disassembler
		if *disas {
			dis = cpu.NewDisassembler()
		}
		return Inspect(os.Stdout, buf, dis)
	}
	os.Exit(c.Main(args))
}

func init() { cmd.Register("inspect", "print the headers and load plan of a kernel", Main) }
