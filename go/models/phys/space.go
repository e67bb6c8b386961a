package phys

import (
	"fmt"
	"sort"

	"github.com/routeros/kboot/go/models"
)

const (
	ACCESS_READ = iota
	ACCESS_WRITE
)

type MemError struct {
	Addr   uint64
	Size   int
	Access int
}

func (m *MemError) Error() string {
	reason := "unmapped read"
	if m.Access == ACCESS_WRITE {
		reason = "unmapped write"
	}
	return fmt.Sprintf("%s at %#x(%d)", reason, m.Addr, m.Size)
}

// OverlapError is returned when a reservation collides with an existing one.
type OverlapError struct {
	Addr, Size uint64
	With       *Region
}

func (o *OverlapError) Error() string {
	return fmt.Sprintf("range 0x%x-0x%x overlaps %s", o.Addr, o.Addr+o.Size, o.With)
}

// Space tracks which physical ranges are reserved. With backing enabled it
// also holds their contents, which makes it a stand-in for RAM.
type Space struct {
	Mem     Regions
	backing bool
}

func NewSpace(backing bool) *Space {
	return &Space{backing: backing}
}

// RangeValid reports whether every byte of the range is reserved.
func (m *Space) RangeValid(addr, size uint64) bool {
	i, _ := m.Mem.bsearch(addr)
	if i == -1 {
		return size == 0
	}
	end := addr + size
	for _, mm := range m.Mem[i:] {
		if !mm.Contains(addr) {
			break
		}
		addr = mm.End()
		if addr >= end {
			break
		}
	}
	return addr >= end
}

// Reserve claims [addr, addr+size). Nothing is claimed if any byte is taken.
// Backed memory starts out zeroed.
func (m *Space) Reserve(addr, size uint64, typ models.MemoryType, desc string) (*Region, error) {
	if hit := m.Mem.FindRange(addr, size); len(hit) > 0 {
		return nil, &OverlapError{Addr: addr, Size: size, With: hit[0]}
	}
	r := &Region{Addr: addr, Size: size, Type: typ, Desc: desc}
	if m.backing {
		r.Data = make([]byte, size)
	}
	m.Mem = append(m.Mem, r)
	sort.Sort(m.Mem)
	return r, nil
}

// Release drops [addr, addr+size), splitting regions that straddle the edges.
func (m *Space) Release(addr, size uint64) error {
	if !m.RangeValid(addr, size) {
		return &MemError{Addr: addr, Size: int(size), Access: ACCESS_WRITE}
	}
	tmp := make(Regions, 0, len(m.Mem))
	for _, mm := range m.Mem {
		if oaddr, osize, ok := mm.Intersect(addr, size); ok {
			left, right := mm.Split(oaddr, osize)
			if left != nil {
				tmp = append(tmp, left)
			}
			if right != nil {
				tmp = append(tmp, right)
			}
		} else {
			tmp = append(tmp, mm)
		}
	}
	m.Mem = tmp
	return nil
}

// FindFree returns the highest page-aligned address below limit where size
// bytes fit, or false.
func (m *Space) FindFree(size, limit uint64) (uint64, bool) {
	if size == 0 || size > limit {
		return 0, false
	}
	top := limit
	for i := len(m.Mem) - 1; i >= -1; i-- {
		var floor uint64
		if i >= 0 {
			r := m.Mem[i]
			if r.Addr >= top {
				continue
			}
			floor = r.End()
			if floor > top {
				top = r.Addr
				continue
			}
		}
		if top-floor >= size {
			addr := (top - size) &^ (models.PageSize - 1)
			if addr >= floor {
				return addr, true
			}
		}
		if i >= 0 {
			top = m.Mem[i].Addr
		}
	}
	return 0, false
}

func (m *Space) Read(addr uint64, p []byte) error {
	if !m.backing || !m.RangeValid(addr, uint64(len(p))) {
		return &MemError{Addr: addr, Size: len(p), Access: ACCESS_READ}
	}
	i, _ := m.Mem.bsearch(addr)
	if i >= 0 {
		for _, mm := range m.Mem[i:] {
			if len(p) == 0 || !mm.Contains(addr) {
				break
			}
			n := copy(p, mm.Data[addr-mm.Addr:])
			addr, p = addr+uint64(n), p[n:]
		}
	}
	return nil
}

func (m *Space) Write(addr uint64, p []byte) error {
	if !m.backing || !m.RangeValid(addr, uint64(len(p))) {
		return &MemError{Addr: addr, Size: len(p), Access: ACCESS_WRITE}
	}
	i, _ := m.Mem.bsearch(addr)
	if i >= 0 {
		for _, mm := range m.Mem[i:] {
			if len(p) == 0 || !mm.Contains(addr) {
				break
			}
			n := copy(mm.Data[addr-mm.Addr:], p)
			addr, p = addr+uint64(n), p[n:]
		}
	}
	return nil
}

// Map and Unmap let a backed Space serve as RAM behind firmware.Services.
func (m *Space) Map(addr, size uint64) error {
	_, err := m.Reserve(addr, size, models.ConventionalMemory, "")
	return err
}

func (m *Space) Unmap(addr, size uint64) error {
	return m.Release(addr, size)
}

func (m *Space) MemWrite(addr uint64, p []byte) error {
	return m.Write(addr, p)
}

func (m *Space) MemRead(addr, size uint64) ([]byte, error) {
	p := make([]byte, size)
	if err := m.Read(addr, p); err != nil {
		return nil, err
	}
	return p, nil
}
