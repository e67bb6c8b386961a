package phys

import (
	"bytes"
	"testing"

	"github.com/routeros/kboot/go/models"
)

var asdf = []byte("asdf")

func regions_eq(a Regions, b Regions) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRegionFind(t *testing.T) {
	mem := Regions{
		&Region{Addr: 0x1000, Size: 0x1000},
		&Region{Addr: 0x2000, Size: 0x1000},
		&Region{Addr: 0x4000, Size: 0x2000},
		&Region{Addr: 0x6000, Size: 0x2000},
	}
	if mem.Find(0x1000) != mem[0] ||
		mem.Find(0x1001) != mem[0] ||
		mem.Find(0x1fff) != mem[0] {
		t.Error("Find() failed")
	}
	if mem.Find(0x3000) != nil ||
		mem.Find(0x1) != nil ||
		mem.Find(0x10000) != nil {
		t.Error("Find() negative failed")
	}
	if !regions_eq(mem.FindRange(0x0, 0x10000), mem) ||
		!regions_eq(mem.FindRange(0x0, 0x1000), nil) ||
		!regions_eq(mem.FindRange(0x1000, 0x1000), mem[:1]) ||
		!regions_eq(mem.FindRange(0x1000, 0x2000), mem[:2]) ||
		!regions_eq(mem.FindRange(0x2000, 0x2000), mem[1:2]) ||
		!regions_eq(mem.FindRange(0x2000, 0x4000), mem[1:3]) ||
		!regions_eq(mem.FindRange(0x2000, 0x10000), mem[1:]) {
		t.Error("FindRange() failed")
	}
}

// table of reservations against an existing 0x1000-0x3000 region
// {start, size, should_error}
var overlapTable = [][]uint64{
	{0x0000, 0x1000, 0},
	{0x0000, 0x1001, 1},
	{0x1000, 0x1000, 1},
	{0x2fff, 0x1000, 1},
	{0x3000, 0x1000, 0},
	{0x0000, 0x5000, 1},
}

func TestReserveOverlap(t *testing.T) {
	for _, v := range overlapTable {
		m := NewSpace(false)
		if _, err := m.Reserve(0x1000, 0x2000, models.LoaderData, ""); err != nil {
			t.Fatal(err)
		}
		_, err := m.Reserve(v[0], v[1], models.LoaderData, "")
		if (err != nil) != (v[2] == 1) {
			t.Errorf("reserve %#x+%#x: got err=%v, want error=%v", v[0], v[1], err, v[2] == 1)
		}
		if err != nil {
			if _, ok := err.(*OverlapError); !ok {
				t.Errorf("expected *OverlapError, got %T", err)
			}
		}
	}
}

func TestSpaceReadWrite(t *testing.T) {
	m := NewSpace(true)
	for _, addr := range []uint64{0x1000, 0x2000, 0x4000} {
		if err := m.Map(addr, 0x1000); err != nil {
			t.Fatalf("failed to map %#x: %v", addr, err)
		}
	}
	if err := m.Write(0, asdf); err == nil {
		t.Error("write succeeded below mapped memory")
	}
	if err := m.Write(0x3ffe, asdf); err == nil {
		t.Error("write succeeded across a hole")
	}
	// straddles two adjacent regions
	if err := m.Write(0x1ffe, asdf); err != nil {
		t.Fatal("write across adjacent regions failed:", err)
	}
	tmp, err := m.MemRead(0x1ffe, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(tmp, asdf) {
		t.Errorf("read back %q", tmp)
	}
	fresh, err := m.MemRead(0x4000, 0x1000)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(fresh, make([]byte, 0x1000)) {
		t.Error("new mapping not zeroed")
	}
}

func TestSpaceUntracked(t *testing.T) {
	m := NewSpace(false)
	if _, err := m.Reserve(0x1000, 0x1000, models.LoaderData, ""); err != nil {
		t.Fatal(err)
	}
	if err := m.Write(0x1000, asdf); err == nil {
		t.Error("write succeeded without backing memory")
	}
}

func TestRelease(t *testing.T) {
	m := NewSpace(true)
	m.Map(0x1000, 0x3000)
	m.Write(0x1000, []byte{1})
	m.Write(0x3000, []byte{3})
	if err := m.Release(0x2000, 0x1000); err != nil {
		t.Fatal(err)
	}
	if len(m.Mem) != 2 {
		t.Fatalf("expected split into 2 regions, got:\n%s", m.Mem)
	}
	if m.RangeValid(0x2000, 1) {
		t.Error("released range still valid")
	}
	if b, _ := m.MemRead(0x1000, 1); b[0] != 1 {
		t.Error("left side lost its data")
	}
	if b, _ := m.MemRead(0x3000, 1); b[0] != 3 {
		t.Error("right side lost its data")
	}
	if err := m.Release(0x2000, 0x1000); err == nil {
		t.Error("double release succeeded")
	}
	// the hole can be reserved again
	if err := m.Map(0x2000, 0x1000); err != nil {
		t.Error(err)
	}
}

func TestFindFree(t *testing.T) {
	m := NewSpace(false)
	limit := uint64(0x10000)
	if addr, ok := m.FindFree(0x1000, limit); !ok || addr != 0xf000 {
		t.Errorf("empty space: got %#x %v", addr, ok)
	}
	m.Reserve(0xe000, 0x2000, models.LoaderData, "")
	if addr, ok := m.FindFree(0x2000, limit); !ok || addr != 0xc000 {
		t.Errorf("below top region: got %#x %v", addr, ok)
	}
	m.Reserve(0x0, 0xe000, models.LoaderData, "")
	if _, ok := m.FindFree(0x1000, limit); ok {
		t.Error("found room in a full space")
	}
	m.Release(0x8000, 0x1000)
	if addr, ok := m.FindFree(0x1000, limit); !ok || addr != 0x8000 {
		t.Errorf("hole: got %#x %v", addr, ok)
	}
	if _, ok := m.FindFree(0x2000, limit); ok {
		t.Error("oversized request fit in a one-page hole")
	}
}

func BenchmarkSpaceReserve(b *testing.B) {
	m := NewSpace(false)
	for i := 0; i < b.N; i++ {
		addr := uint64(i*0x1000) & 0xffffffff
		m.Reserve(addr, 0x1000, models.LoaderData, "")
	}
}
