// Package loader parses ELF64 kernel images and places their loadable
// segments at the physical addresses they were linked for.
package loader

import (
	"debug/elf"
	"fmt"

	"github.com/routeros/kboot/go/models"
)

// Loader copies kernel segments into pages obtained from Alloc and written through Mem.
type Loader struct {
	Alloc models.PageAllocator
	Mem   models.Memory
	Log   *models.Logger

	// MemType is what segment pages are allocated as. Defaults to LoaderData.
	MemType models.MemoryType
	// MergeOverlap allows a segment to reuse pages an earlier segment already
	// allocated. Its padding and bss fill then overwrite the earlier bytes.
	MergeOverlap bool
	// Rollback frees the pages of a failed load if Alloc can free them.
	Rollback bool
}

func New(alloc models.PageAllocator, mem models.Memory, log *models.Logger) *Loader {
	return &Loader{Alloc: alloc, Mem: mem, Log: log, MemType: models.LoaderData}
}

// NewConfig is New with the policies from c applied.
func NewConfig(alloc models.PageAllocator, mem models.Memory, log *models.Logger, c *models.Config) *Loader {
	l := New(alloc, mem, log)
	l.MergeOverlap = c.MergeOverlap
	l.Rollback = c.Rollback
	return l
}

// LoadedSegment is a segment that has been materialized in memory.
type LoadedSegment struct {
	Index  int
	Vaddr  uint64
	Filesz uint64
	Memsz  uint64
	Flags  elf.ProgFlag
	Layout
}

func (s *LoadedSegment) Contains(addr uint64) bool {
	return addr >= s.Vaddr && addr-s.Vaddr < s.Memsz
}

func (s *LoadedSegment) String() string {
	return fmt.Sprintf("segment %d %#x-%#x %s", s.Index, s.Vaddr, s.Vaddr+s.Memsz, s.Flags)
}

// Image is the result of a successful load. It does not reference the file buffer.
type Image struct {
	Entry    uint64
	Segments []LoadedSegment
	// Allocated lists the page runs requested from the allocator, in order.
	Allocated []models.Segment
}

// Contains reports whether addr lies in the memory of a loaded segment.
func (i *Image) Contains(addr uint64) bool {
	return i.Segment(addr) != nil
}

func (i *Image) Segment(addr uint64) *LoadedSegment {
	for n := range i.Segments {
		if i.Segments[n].Contains(addr) {
			return &i.Segments[n]
		}
	}
	return nil
}

func (i *Image) Pages() uint64 {
	var total uint64
	for _, a := range i.Allocated {
		total += a.Size() / PageSize
	}
	return total
}
