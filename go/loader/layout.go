package loader

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/routeros/kboot/go/models"
)

const PageSize = models.PageSize

// Layout is where a segment lands once rounded out to whole pages.
type Layout struct {
	PageStart uint64
	PageEnd   uint64
	Pages     uint64
	// Padding is how far into the first page the segment starts.
	Padding uint64
}

// PageLayout rounds [vaddr, vaddr+memsz) out to page boundaries.
func PageLayout(vaddr, memsz uint64) (Layout, error) {
	end := vaddr + memsz
	pageEnd := (end + PageSize - 1) &^ (PageSize - 1)
	if end < vaddr || pageEnd < end {
		return Layout{}, errors.WithStack(&BoundsError{What: "segment", Off: vaddr, Size: memsz, addrOverflow: true})
	}
	pageStart := vaddr &^ (PageSize - 1)
	return Layout{
		PageStart: pageStart,
		PageEnd:   pageEnd,
		Pages:     (pageEnd - pageStart) / PageSize,
		Padding:   vaddr % PageSize,
	}, nil
}

func (l Layout) Size() uint64 {
	return l.PageEnd - l.PageStart
}

func (l Layout) Range() models.Segment {
	return models.Segment{Start: l.PageStart, End: l.PageEnd}
}

func (l Layout) String() string {
	return fmt.Sprintf("0x%x-0x%x (%d pages, padding %d)", l.PageStart, l.PageEnd, l.Pages, l.Padding)
}
