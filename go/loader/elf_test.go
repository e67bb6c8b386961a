package loader

import (
	"debug/elf"
	"testing"

	"github.com/pkg/errors"
)

func buildImage(t *testing.T, b *Builder) []byte {
	img, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func TestParseHeader(t *testing.T) {
	b := &Builder{Entry: 0x200000}
	b.Add(0x200000, []byte{0xf4}, 0x1000, elf.PF_R|elf.PF_X)
	img := buildImage(t, b)
	h, err := ParseHeader(img)
	if err != nil {
		t.Fatal(err)
	}
	if h.Entry() != 0x200000 {
		t.Errorf("entry %#x", h.Entry())
	}
	if h.Class() != elf.ELFCLASS64 || h.Data() != elf.ELFDATA2LSB {
		t.Errorf("ident %v %v", h.Class(), h.Data())
	}
	if h.Type() != elf.ET_EXEC || h.Machine() != elf.EM_X86_64 {
		t.Errorf("type %v machine %v", h.Type(), h.Machine())
	}
	if h.Phoff() != HeaderSize || h.Phentsize() != ProgSize || h.Phnum() != 1 {
		t.Errorf("phoff %d phentsize %d phnum %d", h.Phoff(), h.Phentsize(), h.Phnum())
	}
	if h.Ehsize() != HeaderSize || h.Shnum() != 0 {
		t.Errorf("ehsize %d shnum %d", h.Ehsize(), h.Shnum())
	}
	// the view aliases the image
	img[24] = 0x10
	if h.Entry() != 0x200010 {
		t.Error("header is a copy")
	}
}

func TestParseHeaderRejects(t *testing.T) {
	good := buildImage(t, &Builder{Entry: 0x1000})
	bad := append([]byte{}, good...)
	bad[3] = 'G'
	tests := map[string][]byte{
		"empty":      nil,
		"ten bytes":  good[:10],
		"63 bytes":   good[:63],
		"bad magic":  bad,
		"all zeroes": make([]byte, 128),
	}
	for name, buf := range tests {
		if _, err := ParseHeader(buf); !IsFormat(err) {
			t.Errorf("%s: got %v, want FormatError", name, err)
		}
	}
}

func TestParseHeaderNoValidation(t *testing.T) {
	img := buildImage(t, &Builder{Entry: 0x1000, Machine: elf.EM_AARCH64})
	img[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	h, err := ParseHeader(img)
	if err != nil {
		t.Fatal("class and machine must not be checked:", err)
	}
	if h.Machine() != elf.EM_AARCH64 {
		t.Errorf("machine %v", h.Machine())
	}
}

func TestProgHeaders(t *testing.T) {
	b := &Builder{Entry: 0x200000}
	b.Add(0x200000, []byte("text"), 0, elf.PF_R|elf.PF_X)
	b.Add(0x300000, []byte("data"), 0x2000, elf.PF_R|elf.PF_W)
	img := buildImage(t, b)
	h, _ := ParseHeader(img)
	progs, err := ProgHeaders(img, h)
	if err != nil {
		t.Fatal(err)
	}
	if progs.Len() != 2 {
		t.Fatalf("got %d entries", progs.Len())
	}
	p := progs.At(1)
	if p.Type() != elf.PT_LOAD || p.Vaddr() != 0x300000 || p.Filesz() != 4 || p.Memsz() != 0x2000 {
		t.Errorf("entry 1: %s", p)
	}
	if p.Flags() != elf.PF_R|elf.PF_W || p.Paddr() != 0x300000 || p.Align() != PageSize {
		t.Errorf("entry 1 flags %v paddr %#x align %#x", p.Flags(), p.Paddr(), p.Align())
	}
	if string(img[p.Off():p.Off()+p.Filesz()]) != "data" {
		t.Error("offset does not point at segment data")
	}
}

func TestProgHeadersKeepsOtherTypes(t *testing.T) {
	b := &Builder{}
	b.Add(0x1000, []byte{1}, 0, elf.PF_R)
	img := buildImage(t, b)
	order.PutUint32(img[HeaderSize:], uint32(elf.PT_NOTE))
	order.PutUint64(img[HeaderSize+8:], ^uint64(0))
	h, _ := ParseHeader(img)
	progs, err := ProgHeaders(img, h)
	if err != nil {
		t.Fatal(err)
	}
	if progs.Len() != 1 || progs.At(0).Type() != elf.PT_NOTE {
		t.Error("non-loadable entry dropped")
	}
}

func TestProgHeadersBounds(t *testing.T) {
	b := &Builder{}
	b.Add(0x1000, []byte{1}, 0, elf.PF_R)
	b.Add(0x2000, []byte{2}, 0, elf.PF_R)
	img := buildImage(t, b)
	tests := []struct {
		name   string
		phoff  uint64
		phnum  uint16
		entsz  uint16
		bounds bool
	}{
		{"phnum past end", HeaderSize, 0xffff, ProgSize, true},
		{"phoff past end", uint64(len(img)) + 1, 0, ProgSize, true},
		{"phoff overflow", ^uint64(0) - 8, 2, ProgSize, true},
		{"table ends at buffer end", uint64(len(img)) - 2*ProgSize, 2, ProgSize, false},
		{"empty table at end", uint64(len(img)), 0, ProgSize, false},
		{"short entries", HeaderSize, 2, 8, false},
	}
	for _, v := range tests {
		buf := append([]byte{}, img...)
		order.PutUint64(buf[32:], v.phoff)
		order.PutUint16(buf[54:], v.entsz)
		order.PutUint16(buf[56:], v.phnum)
		h, _ := ParseHeader(buf)
		_, err := ProgHeaders(buf, h)
		if v.bounds && !IsBounds(err) {
			t.Errorf("%s: got %v, want BoundsError", v.name, err)
		}
		if !v.bounds && IsBounds(err) {
			t.Errorf("%s: unexpected %v", v.name, err)
		}
	}
}

func TestProgHeadersShortEntries(t *testing.T) {
	b := &Builder{}
	b.Add(0x1000, []byte{1}, 0, elf.PF_R)
	img := buildImage(t, b)
	order.PutUint16(img[54:], 32)
	h, _ := ParseHeader(img)
	if _, err := ProgHeaders(img, h); !IsFormat(err) {
		t.Errorf("got %v, want FormatError", err)
	}
}

func TestPageLayout(t *testing.T) {
	tests := []struct {
		vaddr, memsz uint64
		want         Layout
	}{
		{0x200000, 0x1000, Layout{0x200000, 0x201000, 1, 0}},
		{0x200000, 1, Layout{0x200000, 0x201000, 1, 0}},
		{0x200010, 0x1000, Layout{0x200000, 0x202000, 2, 0x10}},
		{0x200fff, 2, Layout{0x200000, 0x202000, 2, 0xfff}},
		{0x201000, 0x3001, Layout{0x201000, 0x205000, 4, 0}},
	}
	for _, v := range tests {
		got, err := PageLayout(v.vaddr, v.memsz)
		if err != nil {
			t.Fatal(err)
		}
		if got != v.want {
			t.Errorf("PageLayout(%#x, %#x) = %v, want %v", v.vaddr, v.memsz, got, v.want)
		}
		if got.PageStart > v.vaddr || v.vaddr-got.PageStart >= PageSize || got.Size()%PageSize != 0 {
			t.Errorf("PageLayout(%#x, %#x) = %v breaks alignment", v.vaddr, v.memsz, got)
		}
	}
}

func TestPageLayoutOverflow(t *testing.T) {
	for _, v := range [][2]uint64{{^uint64(0) - 0x10, 0x20}, {^uint64(0) - 0x10, 1}} {
		_, err := PageLayout(v[0], v[1])
		var be *BoundsError
		if !errors.As(err, &be) {
			t.Errorf("PageLayout(%#x, %#x): got %v", v[0], v[1], err)
		}
	}
}
