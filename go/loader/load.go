package loader

import (
	"debug/elf"

	"github.com/pkg/errors"

	"github.com/routeros/kboot/go/models"
)

// bss is zeroed this many bytes at a time.
const zeroChunk = 16 * PageSize

// plan is a validated PT_LOAD entry and the page runs it still needs.
type plan struct {
	index int
	prog  Prog
	Layout
	runs []models.Segment
}

// Load parses buf and places every PT_LOAD segment at its virtual address.
// Nothing is allocated unless all loadable entries are well formed. The first
// allocation or write failure aborts the load; pages allocated until then
// stay allocated unless Rollback is set.
func (l *Loader) Load(buf []byte) (*Image, error) {
	h, err := ParseHeader(buf)
	if err != nil {
		return nil, err
	}
	l.Log.Info("number of program headers: %d", h.Phnum())
	progs, err := ProgHeaders(buf, h)
	if err != nil {
		return nil, err
	}
	plans, err := l.plan(buf, progs)
	if err != nil {
		return nil, err
	}
	img := &Image{Entry: h.Entry()}
	for _, p := range plans {
		if err := l.loadSegment(buf, p, img); err != nil {
			l.release(img.Allocated)
			return nil, err
		}
	}
	return img, nil
}

func (l *Loader) plan(buf []byte, progs ProgTable) ([]plan, error) {
	var plans []plan
	var covered []models.Segment
	limit := uint64(len(buf))
	for i := 0; i < progs.Len(); i++ {
		p := progs.At(i)
		l.Log.Info("PH %d: %s", i, p)
		if p.Type() != elf.PT_LOAD {
			continue
		}
		off, filesz, memsz := p.Off(), p.Filesz(), p.Memsz()
		if filesz > memsz {
			return nil, formatErrorf("segment %d: file size %#x exceeds memory size %#x", i, filesz, memsz)
		}
		if off > limit || filesz > limit-off {
			return nil, errors.WithStack(&BoundsError{What: "segment data", Off: off, Size: filesz, Limit: limit})
		}
		if memsz == 0 {
			l.Log.Debug("segment %d is empty, skipping", i)
			continue
		}
		layout, err := PageLayout(p.Vaddr(), memsz)
		if err != nil {
			return nil, err
		}
		rng := layout.Range()
		for _, prev := range plans {
			if pr := prev.Range(); pr.Overlaps(&rng) && !l.MergeOverlap {
				return nil, formatErrorf("segment %d (%v) overlaps segment %d (%v)", i, rng, prev.index, pr)
			}
		}
		runs := rng.Subtract(covered)
		covered = append(covered, rng)
		plans = append(plans, plan{index: i, prog: p, Layout: layout, runs: runs})
	}
	return plans, nil
}

func (l *Loader) loadSegment(buf []byte, p plan, img *Image) error {
	l.Log.Info("loading segment %d into memory...", p.index)
	typ := l.MemType
	if typ == models.ReservedMemory {
		typ = models.LoaderData
	}
	for _, run := range p.runs {
		pages := run.Size() / PageSize
		addr, err := l.Alloc.AllocatePages(run.Start, pages, typ)
		if err != nil {
			l.Log.Error("%v", err)
			return errors.WithStack(&AllocationError{Segment: p.index, Addr: run.Start, Pages: pages, Err: err})
		}
		img.Allocated = append(img.Allocated, models.Segment{Start: addr, End: addr + run.Size()})
		if addr != run.Start {
			err = errors.Errorf("allocator returned %#x", addr)
			return errors.WithStack(&AllocationError{Segment: p.index, Addr: run.Start, Pages: pages, Err: err})
		}
	}

	vaddr, off := p.prog.Vaddr(), p.prog.Off()
	filesz, memsz := p.prog.Filesz(), p.prog.Memsz()
	if err := l.zero(p.PageStart, p.Padding); err != nil {
		return err
	}
	if filesz > 0 {
		if err := l.Mem.MemWrite(vaddr, buf[off:off+filesz]); err != nil {
			return errors.Wrapf(err, "segment %d: copying %d bytes to %#x", p.index, filesz, vaddr)
		}
	}
	if err := l.zero(vaddr+filesz, memsz-filesz); err != nil {
		return err
	}
	l.Log.Info("loaded segment at 0x%x with %d pages, size: %d bytes (mem size: %d bytes)",
		vaddr, p.Pages, filesz, memsz)

	img.Segments = append(img.Segments, LoadedSegment{
		Index:  p.index,
		Vaddr:  vaddr,
		Filesz: filesz,
		Memsz:  memsz,
		Flags:  p.prog.Flags(),
		Layout: p.Layout,
	})
	return nil
}

func (l *Loader) zero(addr, size uint64) error {
	if size == 0 {
		return nil
	}
	chunk := size
	if chunk > zeroChunk {
		chunk = zeroChunk
	}
	zeros := make([]byte, chunk)
	for pos := addr; pos < addr+size; pos += chunk {
		n := addr + size - pos
		if n > chunk {
			n = chunk
		}
		if err := l.Mem.MemWrite(pos, zeros[:n]); err != nil {
			return errors.Wrapf(err, "zeroing %#x bytes at %#x", size, addr)
		}
	}
	return nil
}

func (l *Loader) release(runs []models.Segment) {
	if len(runs) == 0 {
		return
	}
	freer, ok := l.Alloc.(models.PageFreer)
	if !l.Rollback || !ok {
		l.Log.Warn("leaving %d page runs allocated after failed load", len(runs))
		return
	}
	for i := len(runs) - 1; i >= 0; i-- {
		r := runs[i]
		if err := freer.FreePages(r.Start, r.Size()/PageSize); err != nil {
			l.Log.Warn("freeing %v: %v", r, err)
		}
	}
}
