package models

import "fmt"

// Segment is a half-open address range [Start, End).
type Segment struct {
	Start, End uint64
}

func (s *Segment) Size() uint64 {
	return s.End - s.Start
}

func (s *Segment) Contains(addr uint64) bool {
	return s.Start <= addr && addr < s.End
}

func (s *Segment) Overlaps(o *Segment) bool {
	return (s.Start >= o.Start && s.Start < o.End) || (o.Start >= s.Start && o.Start < s.End)
}

func (s *Segment) Merge(o *Segment) {
	if s.Start > o.Start {
		s.Start = o.Start
	}
	if s.End < o.End {
		s.End = o.End
	}
}

// Subtract returns the parts of s not covered by any of others, in address order.
func (s Segment) Subtract(others []Segment) []Segment {
	gaps := []Segment{s}
	for _, o := range others {
		var next []Segment
		for _, g := range gaps {
			if !g.Overlaps(&o) {
				next = append(next, g)
				continue
			}
			if g.Start < o.Start {
				next = append(next, Segment{g.Start, o.Start})
			}
			if o.End < g.End {
				next = append(next, Segment{o.End, g.End})
			}
		}
		gaps = next
	}
	return gaps
}

func (s Segment) String() string {
	return fmt.Sprintf("%#x-%#x", s.Start, s.End)
}
