package phys

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/routeros/kboot/go/models"
)

// Region is a run of reserved physical memory. Data is nil when the owning
// Space only tracks reservations.
type Region struct {
	Addr uint64
	Size uint64
	Type models.MemoryType
	Desc string
	Data []byte
}

func (r *Region) String() string {
	desc := fmt.Sprintf("0x%x-0x%x %s", r.Addr, r.Addr+r.Size, r.Type)
	if r.Desc != "" {
		desc += fmt.Sprintf(" [%s]", r.Desc)
	}
	return desc
}

func (r *Region) End() uint64 {
	return r.Addr + r.Size
}

func (r *Region) Contains(addr uint64) bool {
	return addr >= r.Addr && addr < r.Addr+r.Size
}

// start = max(s1, s2), end = min(e1, e2), ok = end > start
func (r *Region) Intersect(addr, size uint64) (uint64, uint64, bool) {
	start := r.Addr
	end := r.Addr + r.Size
	e2 := addr + size
	if end > e2 {
		end = e2
	}
	if start < addr {
		start = addr
	}
	return start, end - start, end > start
}

func (r *Region) Overlaps(addr, size uint64) bool {
	_, _, ok := r.Intersect(addr, size)
	return ok
}

func (r *Region) slice(addr, size uint64) *Region {
	o := addr - r.Addr
	var data []byte
	if r.Data != nil {
		data = r.Data[o : o+size]
	}
	return &Region{Addr: addr, Size: size, Type: r.Type, Desc: r.Desc, Data: data}
}

/*
Split trims r down to [addr, addr+size) and returns what was cut off.

laddr                      rsize
|      lsize       raddr   |
[------|----region-|-------]
[-left-][---mid---][-right-]
        |         |
        addr      size

If the new range extends past r, the extra data is zero padded.
*/
func (r *Region) Split(addr, size uint64) (left, right *Region) {
	if addr+size < r.Addr+r.Size {
		ra := addr + size
		rs := (r.Addr + r.Size) - ra
		right = r.slice(ra, rs)
		if r.Data != nil {
			r.Data = r.Data[:ra-r.Addr]
		}
	}
	if addr > r.Addr {
		ls := addr - r.Addr
		left = r.slice(r.Addr, ls)
		if r.Data != nil {
			r.Data = r.Data[ls:]
		}
	}
	if r.Data != nil {
		if addr < r.Addr {
			extra := bytes.Repeat([]byte{0}, int(r.Addr-addr))
			r.Data = append(extra, r.Data...)
		}
		if oldEnd, newEnd := r.Addr+r.Size, addr+size; newEnd > oldEnd {
			extra := bytes.Repeat([]byte{0}, int(newEnd-oldEnd))
			r.Data = append(r.Data, extra...)
		}
	}
	r.Addr, r.Size = addr, size
	return left, right
}

func (r *Region) Write(addr uint64, p []byte) {
	copy(r.Data[addr-r.Addr:], p)
}

type Regions []*Region

func (p Regions) Len() int           { return len(p) }
func (p Regions) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p Regions) Less(i, j int) bool { return p[i].Addr < p[j].Addr }

func (p Regions) String() string {
	s := make([]string, len(p))
	for i, v := range p {
		s[i] = v.String()
	}
	return strings.Join(s, "\n")
}

// bsearch returns the index of the region containing addr, or -1, plus the
// index of the first region that ends past addr.
func (p Regions) bsearch(addr uint64) (int, int) {
	l := 0
	r := len(p) - 1
	for l <= r {
		mid := (l + r) / 2
		e := p[mid]
		if addr >= e.Addr {
			if addr < e.Addr+e.Size {
				return mid, mid
			}
			l = mid + 1
		} else {
			r = mid - 1
		}
	}
	return -1, l
}

func (p Regions) Find(addr uint64) *Region {
	if i, _ := p.bsearch(addr); i >= 0 {
		return p[i]
	}
	return nil
}

// FindRange returns every region overlapping [addr, addr+size).
func (p Regions) FindRange(addr, size uint64) Regions {
	var ret Regions
	_, first := p.bsearch(addr)
	for _, r := range p[first:] {
		if r.Addr >= addr+size {
			break
		}
		if r.Overlaps(addr, size) {
			ret = append(ret, r)
		}
	}
	return ret
}
