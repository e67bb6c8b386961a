package native

import (
	"github.com/pkg/errors"

	"github.com/routeros/kboot/go/models"
	"github.com/routeros/kboot/go/models/phys"
)

// host tracks which ranges of this process are loader mappings.
type host struct {
	mapped *phys.Space
}

func newHost() *host {
	return &host{mapped: phys.NewSpace(false)}
}

func (h *host) Map(addr, size uint64) error {
	if err := mmapFixed(addr, size); err != nil {
		return errors.Wrapf(err, "mapping %#x-%#x", addr, addr+size)
	}
	if _, err := h.mapped.Reserve(addr, size, models.ConventionalMemory, "host"); err != nil {
		munmap(addr, size)
		return err
	}
	return nil
}

func (h *host) Unmap(addr, size uint64) error {
	if err := h.mapped.Release(addr, size); err != nil {
		return err
	}
	return errors.Wrapf(munmap(addr, size), "unmapping %#x-%#x", addr, addr+size)
}

func (h *host) MemWrite(addr uint64, p []byte) error {
	if !h.mapped.RangeValid(addr, uint64(len(p))) {
		return &phys.MemError{Addr: addr, Size: len(p), Access: phys.ACCESS_WRITE}
	}
	copy(hostMem(addr, uint64(len(p))), p)
	return nil
}

func (h *host) MemRead(addr, size uint64) ([]byte, error) {
	if !h.mapped.RangeValid(addr, size) {
		return nil, &phys.MemError{Addr: addr, Size: int(size), Access: phys.ACCESS_READ}
	}
	p := make([]byte, size)
	copy(p, hostMem(addr, size))
	return p, nil
}
