// Package mock provides a recording platform for tests.
package mock

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/routeros/kboot/go/firmware"
	"github.com/routeros/kboot/go/models"
	"github.com/routeros/kboot/go/models/phys"
)

type Alloc struct {
	Addr, Count uint64
	Type        models.MemoryType
}

// Platform is a simulated machine that records every allocation, free and jump.
type Platform struct {
	*firmware.Services
	Mem *phys.Space

	Allocs []Alloc
	Frees  []Alloc
	Jumps  []firmware.Jump
	Exits  int

	// Garbage, when non-zero, is written over freshly allocated pages.
	Garbage byte
	// FailAt makes the n-th allocation (counting from 1) fail with FailWith.
	FailAt   int
	FailWith error
	JumpErr  error
}

func NewPlatform(ram uint64) *Platform {
	mem := phys.NewSpace(true)
	return &Platform{Services: firmware.NewServices(mem, ram), Mem: mem}
}

func (p *Platform) AllocatePages(addr, count uint64, typ models.MemoryType) (uint64, error) {
	p.Allocs = append(p.Allocs, Alloc{addr, count, typ})
	if p.FailAt == len(p.Allocs) {
		if p.FailWith != nil {
			return 0, p.FailWith
		}
		return 0, models.StatusOutOfResources
	}
	got, err := p.Services.AllocatePages(addr, count, typ)
	if err != nil {
		return got, err
	}
	if p.Garbage != 0 {
		fill := bytes.Repeat([]byte{p.Garbage}, int(count*models.PageSize))
		if err := p.Mem.Write(got, fill); err != nil {
			return got, errors.Wrap(err, "filling pages")
		}
	}
	return got, nil
}

func (p *Platform) FreePages(addr, count uint64) error {
	p.Frees = append(p.Frees, Alloc{Addr: addr, Count: count})
	return p.Services.FreePages(addr, count)
}

func (p *Platform) ExitBootServices() error {
	p.Exits++
	return p.Services.ExitBootServices()
}

func (p *Platform) Jump(entry, arg uint64) error {
	p.Jumps = append(p.Jumps, firmware.Jump{Entry: entry, Arg: arg})
	return p.JumpErr
}

// Read returns size bytes at addr, or nil if any of them is unallocated.
func (p *Platform) Read(addr, size uint64) []byte {
	b, err := p.Mem.MemRead(addr, size)
	if err != nil {
		return nil
	}
	return b
}

// Source is an image source backed by a map of firmware paths.
type Source map[string][]byte

func (s Source) Read(path string) ([]byte, error) {
	if b, ok := s[path]; ok {
		return b, nil
	}
	return nil, errors.Wrap(models.StatusNotFound, path)
}
