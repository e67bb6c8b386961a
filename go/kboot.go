// Package kboot is the boot flow: it reads the kernel from the boot volume,
// loads it, prepares the handoff and jumps to it.
package kboot

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/routeros/kboot/go/bootargs"
	"github.com/routeros/kboot/go/loader"
	"github.com/routeros/kboot/go/models"
)

// ReadError means the kernel image could not be read from the boot volume.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return "could not load kernel " + e.Path + ": " + e.Err.Error()
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

type Disassembler interface {
	Disas(mem []byte, addr uint64) (string, error)
}

// entryDumpSize is how much of the entry point is shown before the jump.
const entryDumpSize = 32

type Boot struct {
	Config   *models.Config
	Platform models.Platform
	Source   models.ImageSource
	Log      *models.Logger
	// Dis, if set, disassembles the entry point in verbose mode.
	Dis Disassembler
}

func New(c *models.Config, p models.Platform, src models.ImageSource, log *models.Logger) *Boot {
	return &Boot{Config: c, Platform: p, Source: src, Log: log}
}

// Load reads and loads the kernel and checks its entry point, stopping short
// of the handoff.
func (b *Boot) Load() (*loader.Image, error) {
	buf, err := b.Source.Read(models.KernelLocation)
	if err != nil {
		return nil, errors.WithStack(&ReadError{Path: models.KernelLocation, Err: err})
	}
	b.Log.Info("Kernel file loaded: %d bytes", len(buf))

	l := loader.NewConfig(b.Platform, b.Platform, b.Log, b.Config)
	img, err := l.Load(buf)
	if err != nil {
		return nil, err
	}
	b.Log.Info("Kernel address: %#x", img.Entry)
	if !b.Config.SkipEntryCheck && !img.Contains(img.Entry) {
		return nil, errors.WithStack(&loader.FormatError{
			Reason: "entry point " + hex(img.Entry) + " is outside every loaded segment",
		})
	}
	return img, nil
}

// Run boots the kernel. It returns nil only if the platform reports a clean
// handoff; a kernel that returns is an error.
func (b *Boot) Run() (*loader.Image, error) {
	img, err := b.Load()
	if err != nil {
		return nil, err
	}
	if b.Log.Verbose() && img.Contains(img.Entry) {
		b.dumpEntry(img.Entry)
	}

	var arg uint64
	if b.Config.BootArgs {
		if arg, _, err = bootargs.Install(b.Platform, b.Config.PCIe, b.Log); err != nil {
			return img, err
		}
	}
	if !b.Config.KeepBootServices {
		if err := b.Platform.ExitBootServices(); err != nil {
			return img, errors.Wrap(err, "exiting boot services")
		}
	}

	b.Log.Info("Entering entry function now...")
	if err := b.Platform.Jump(img.Entry, arg); err != nil {
		return img, errors.Wrapf(err, "kernel at %s", hex(img.Entry))
	}
	return img, nil
}

func (b *Boot) dumpEntry(entry uint64) {
	mem, err := b.Platform.MemRead(entry, entryDumpSize)
	if err != nil {
		// the segment may end within the dump
		mem, err = b.Platform.MemRead(entry, 1)
	}
	if err != nil {
		b.Log.Warn("cannot read entry point: %v", err)
		return
	}
	b.Log.Debug("Bytes after entry point:")
	for _, line := range models.HexDump(entry, mem) {
		b.Log.Debug("%s", line)
	}
	if b.Dis == nil {
		return
	}
	dis, err := b.Dis.Disas(mem, entry)
	if err != nil {
		b.Log.Debug("disassembly failed: %v", err)
		return
	}
	for _, line := range strings.Split(dis, "\n") {
		b.Log.Debug("%s", line)
	}
}
