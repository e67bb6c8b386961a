package firmware

import (
	"github.com/routeros/kboot/go/models"
	"github.com/routeros/kboot/go/models/phys"
)

// Sim is a platform with simulated RAM whose handoff only records the jump.
// It is what `kboot boot -platform sim` and the boot flow tests run on.
type Sim struct {
	*Services
	Mem *phys.Space
	Log *models.Logger

	Jumps []Jump
}

type Jump struct {
	Entry, Arg uint64
}

func NewSim(ram uint64, log *models.Logger) *Sim {
	mem := phys.NewSpace(true)
	return &Sim{Services: NewServices(mem, ram), Mem: mem, Log: log}
}

func (s *Sim) Jump(entry, arg uint64) error {
	s.Jumps = append(s.Jumps, Jump{entry, arg})
	s.Log.Info("[sim] control transferred to %#x (arg %#x)", entry, arg)
	if p, err := s.Mem.MemRead(entry, 16); err != nil {
		s.Log.Warn("[sim] entry point not resident: %v", err)
	} else {
		s.Log.Debug("[sim] bytes at entry: % x", p)
	}
	return nil
}
