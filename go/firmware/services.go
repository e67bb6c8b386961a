// Package firmware emulates the boot services a loader relies on before the
// kernel takes over: page allocation, the memory map and configuration tables.
package firmware

import (
	"github.com/pkg/errors"

	"github.com/routeros/kboot/go/models"
	"github.com/routeros/kboot/go/models/phys"
)

// Backend provides the storage behind allocated pages.
type Backend interface {
	Map(addr, size uint64) error
	Unmap(addr, size uint64) error
	models.Memory
}

type Services struct {
	Backend
	// RAM is the top of installed physical memory.
	RAM    uint64
	Tables []models.ConfigTable

	res    *phys.Space
	exited bool
}

func NewServices(b Backend, ram uint64) *Services {
	return &Services{Backend: b, RAM: ram, res: phys.NewSpace(false)}
}

// AllocatePages reserves count pages at addr, or anywhere below RAM when addr
// is models.AnyAddress. Errors are firmware statuses.
func (s *Services) AllocatePages(addr, count uint64, typ models.MemoryType) (uint64, error) {
	if s.exited {
		return 0, models.StatusUnsupported
	}
	if count == 0 || count > s.RAM/models.PageSize {
		return 0, models.StatusInvalidParameter
	}
	size := count * models.PageSize
	if addr == models.AnyAddress {
		var ok bool
		if addr, ok = s.res.FindFree(size, s.RAM); !ok {
			return 0, models.StatusOutOfResources
		}
	} else if addr&(models.PageSize-1) != 0 {
		return 0, models.StatusInvalidParameter
	} else if addr > s.RAM-size {
		return 0, models.StatusOutOfResources
	}
	if _, err := s.res.Reserve(addr, size, typ, ""); err != nil {
		return 0, errors.Wrap(models.StatusNotFound, err.Error())
	}
	if err := s.Backend.Map(addr, size); err != nil {
		s.res.Release(addr, size)
		return 0, errors.Wrap(models.StatusDeviceError, err.Error())
	}
	return addr, nil
}

func (s *Services) FreePages(addr, count uint64) error {
	if s.exited {
		return models.StatusUnsupported
	}
	size := count * models.PageSize
	if count == 0 || !s.res.RangeValid(addr, size) {
		return models.StatusNotFound
	}
	if err := s.Backend.Unmap(addr, size); err != nil {
		return errors.Wrap(models.StatusDeviceError, err.Error())
	}
	return s.res.Release(addr, size)
}

// MemoryMap describes all of RAM: reservations with their types and the
// holes between them as conventional memory.
func (s *Services) MemoryMap() []models.MemoryDescriptor {
	var out []models.MemoryDescriptor
	var pos uint64
	hole := func(end uint64) {
		if end > pos {
			out = append(out, models.MemoryDescriptor{
				Type:  models.ConventionalMemory,
				Base:  pos,
				Pages: (end - pos) / models.PageSize,
			})
		}
	}
	for _, r := range s.res.Mem {
		hole(r.Addr)
		out = append(out, models.MemoryDescriptor{Type: r.Type, Base: r.Addr, Pages: r.Size / models.PageSize})
		pos = r.End()
	}
	hole(s.RAM)
	return out
}

func (s *Services) ConfigTables() []models.ConfigTable {
	tables := make([]models.ConfigTable, len(s.Tables))
	copy(tables, s.Tables)
	return tables
}

// ExitBootServices hands the machine over. Allocation fails afterwards.
func (s *Services) ExitBootServices() error {
	if s.exited {
		return models.StatusInvalidParameter
	}
	s.exited = true
	return nil
}

func (s *Services) Exited() bool {
	return s.exited
}

// Reserved lists current reservations, lowest address first.
func (s *Services) Reserved() phys.Regions {
	return s.res.Mem
}
