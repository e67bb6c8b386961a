package mkkernel

import (
	"debug/elf"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/routeros/kboot/go/cmd"
	"github.com/routeros/kboot/go/cpu"
	"github.com/routeros/kboot/go/esp"
	"github.com/routeros/kboot/go/loader"
	"github.com/routeros/kboot/go/models"
)

// HelloAsm prints msg on COM1 and halts.
func HelloAsm(msg string) string {
	bytes := make([]string, len(msg)+1)
	for i := 0; i < len(msg); i++ {
		bytes[i] = fmt.Sprintf("0x%02x", msg[i])
	}
	bytes[len(msg)] = "0"
	return strings.Join([]string{
		"mov dx, 0x3f8",
		"lea rsi, [rip + msg]",
		"next:",
		"mov al, byte ptr [rsi]",
		"test al, al",
		"jz done",
		"out dx, al",
		"inc rsi",
		"jmp next",
		"done:",
		"hlt",
		"jmp done",
		"msg:",
		".byte " + strings.Join(bytes, ", "),
	}, "\n")
}

type Assembler interface {
	Asm(asm string, addr uint64) ([]byte, error)
}

// Build assembles asm at base and wraps it in an executable whose single
// segment is bss bytes longer than the code.
func Build(as Assembler, asm string, base, bss uint64) ([]byte, error) {
	code, err := as.Asm(asm, base)
	if err != nil {
		return nil, err
	}
	b := &loader.Builder{Entry: base}
	b.Add(base, code, uint64(len(code))+bss, elf.PF_R|elf.PF_W|elf.PF_X)
	return b.Build()
}

func Main(args []string) {
	c := cmd.NewKbootCmd()
	c.NoPlatform = true
	c.Args = "[file.s | -]"
	var base, bss *uint64
	var compress *bool
	var out, msg *string
	c.SetupFlags = func() error {
		base = c.Flags.Uint64("base", 0x200000, "load and entry address")
		bss = c.Flags.Uint64("bss", 0, "zero-filled bytes to reserve after the code")
		compress = c.Flags.Bool("z", false, "snappy-compress the image")
		out = c.Flags.String("out", "", "write the image here instead of the boot volume")
		msg = c.Flags.String("msg", "Hello from the kernel!\n", "message for the built-in serial hello program")
		return nil
	}
	c.Run = func(args []string) error {
		asm := HelloAsm(*msg)
		if len(args) > 0 {
			var src []byte
			var err error
			if args[0] == "-" {
				src, err = io.ReadAll(os.Stdin)
			} else {
				src, err = os.ReadFile(args[0])
			}
			if err != nil {
				return errors.Wrap(err, "reading assembly")
			}
			asm = string(src)
		}
		as := cpu.NewAssembler()
		defer as.Close()
		img, err := Build(as, asm, *base, *bss)
		if err != nil {
			return err
		}
		if *out != "" {
			return errors.WithStack(os.WriteFile(*out, img, 0644))
		}
		root := c.Config.ESPRoot
		if root == "" {
			root = esp.DefaultRoot()
		}
		if err := os.MkdirAll(root, 0755); err != nil {
			return errors.WithStack(err)
		}
		c.Config.ESPRoot = root
		vol, err := esp.Open(c.Config, c.Log)
		if err != nil {
			return err
		}
		if err := vol.Write(models.KernelLocation, img, *compress); err != nil {
			return err
		}
		c.Log.Info("wrote %d byte kernel to %s", len(img), vol.Path(models.KernelLocation))
		return nil
	}
	os.Exit(c.Main(args))
}

func init() { cmd.Register("mkkernel", "assemble a test kernel onto the boot volume", Main) }
