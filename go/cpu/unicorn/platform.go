package unicorn

import (
	"io"
	"time"

	"github.com/pkg/errors"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/routeros/kboot/go/firmware"
	"github.com/routeros/kboot/go/models"
)

const DefaultStackPages = 16

// Platform boots kernels on a Machine with firmware services in front of it.
type Platform struct {
	*firmware.Services
	Machine *Machine
	Serial  *Serial
	Log     *models.Logger

	// Timeout and Count bound a run. Zero means no limit.
	Timeout time.Duration
	Count   uint64

	stack, stackSize uint64
}

// NewPlatform creates a machine with ram bytes of RAM. Serial output goes to console.
func NewPlatform(ram uint64, console io.Writer, log *models.Logger) (*Platform, error) {
	m, err := NewMachine()
	if err != nil {
		return nil, err
	}
	p := &Platform{
		Services: firmware.NewServices(m, ram),
		Machine:  m,
		Serial:   NewSerial(COM1, console),
		Log:      log,
	}
	p.stackSize = DefaultStackPages * models.PageSize
	if p.stack, err = p.AllocatePages(models.AnyAddress, DefaultStackPages, models.BootServicesData); err != nil {
		m.Close()
		return nil, errors.Wrap(err, "allocating firmware stack")
	}
	if err := m.OnOut(p.portOut); err != nil {
		m.Close()
		return nil, err
	}
	if err := m.OnIn(p.portIn); err != nil {
		m.Close()
		return nil, err
	}
	return p, nil
}

func (p *Platform) portOut(port, size, value uint32) {
	if p.Serial.Claims(port) {
		p.Serial.Write(port, byte(value))
		return
	}
	p.Log.Debug("out %#x <- %#x (%d bytes) ignored", port, value, size)
}

func (p *Platform) portIn(port, size uint32) uint32 {
	if p.Serial.Claims(port) {
		return uint32(p.Serial.Read(port))
	}
	p.Log.Debug("in %#x (%d bytes) from nothing", port, size)
	return 0xffffffff >> (32 - 8*size)
}

// Jump runs the kernel at entry with arg in rdi and a zero return address on
// the stack. It returns when the kernel halts or the run budget is spent, and
// fails if the kernel faults or returns.
func (p *Platform) Jump(entry, arg uint64) error {
	sp := p.stack + p.stackSize - 8
	if err := p.Machine.MemWrite(sp, make([]byte, 8)); err != nil {
		return errors.Wrap(err, "writing return address")
	}
	regs := map[int]uint64{
		uc.X86_REG_RSP: sp,
		uc.X86_REG_RBP: 0,
		uc.X86_REG_RDI: arg,
	}
	for reg, val := range regs {
		if err := p.Machine.RegWrite(reg, val); err != nil {
			return errors.Wrap(err, "setting registers")
		}
	}
	opts := &uc.UcOptions{Timeout: uint64(p.Timeout / time.Microsecond), Count: p.Count}
	err := p.Machine.StartWithOptions(entry, 0, opts)
	rip, _ := p.Machine.RegRead(uc.X86_REG_RIP)
	if rip == 0 {
		return errors.New("kernel returned to the loader")
	}
	if err != nil {
		return errors.Wrapf(err, "emulation stopped at %#x", rip)
	}
	p.Log.Info("kernel stopped at %#x", rip)
	return nil
}

func (p *Platform) Close() error {
	return errors.WithStack(p.Machine.Close())
}
