// Package cpu wraps the instruction encoders and decoders used to inspect and
// build x86-64 kernels.
package cpu

import (
	"encoding/hex"
	"fmt"
	"strings"

	cs "github.com/lunixbochs/capstr"
	"github.com/pkg/errors"

	"github.com/routeros/kboot/go/models"
)

type Capstr struct {
	Arch, Mode int

	cs *cs.Engine
}

// NewDisassembler returns a 64-bit x86 disassembler.
func NewDisassembler() *Capstr {
	return &Capstr{Arch: cs.ARCH_X86, Mode: cs.MODE_64}
}

func (c *Capstr) Open() (err error) {
	engine, err := cs.New(c.Arch, c.Mode)
	if err == nil {
		c.cs = engine
	}
	return errors.Wrap(err, "cs.New() failed")
}

func (c *Capstr) Dis(mem []byte, addr uint64) ([]models.Ins, error) {
	if c.cs == nil {
		if err := c.Open(); err != nil {
			return nil, err
		}
	}
	dis, err := c.cs.Dis(mem, addr, 0)
	if err != nil {
		return nil, errors.Wrap(err, "capstone disassembly failed")
	}
	ret := make([]models.Ins, len(dis))
	for i, v := range dis {
		ret[i] = v
	}
	return ret, nil
}

// Disas renders mem as one "addr: bytes mnemonic operands" line per instruction.
func (c *Capstr) Disas(mem []byte, addr uint64) (string, error) {
	if len(mem) == 0 {
		return "", nil
	}
	dis, err := c.Dis(mem, addr)
	if err != nil {
		return "", err
	}
	width := 0
	for _, ins := range dis {
		if n := len(ins.Bytes()); n > width {
			width = n
		}
	}
	out := make([]string, len(dis))
	for i, ins := range dis {
		pad := strings.Repeat(" ", (width-len(ins.Bytes()))*2)
		out[i] = fmt.Sprintf("0x%x: %s%s %s %s", ins.Addr(), pad, hex.EncodeToString(ins.Bytes()), ins.Mnemonic(), ins.OpStr())
	}
	return strings.Join(out, "\n"), nil
}
